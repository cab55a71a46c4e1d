// Package listing filters listing sets and derives their facets.
package listing

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/bryan-buckman/corvettetrader/internal/model"
)

// Form field names used by the search form and the query string.
const (
	FieldKeyword    = "q"
	FieldGeneration = "generation"
	FieldPartType   = "partType"
	FieldProvince   = "province"
	FieldMin        = "min"
	FieldMax        = "max"
)

// Apply returns the listings matching every active criterion, in input order.
// The result is always a new slice; listings is never modified.
func Apply(listings []model.Listing, c model.Criteria) []model.Listing {
	m := newMatcher(c)
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if m.match(&l) {
			out = append(out, l)
		}
	}
	return out
}

type matcher struct {
	keyword    string
	generation string
	partType   string
	province   string
	min, max   float64
}

func newMatcher(c model.Criteria) matcher {
	m := matcher{
		keyword: strings.ToLower(strings.TrimSpace(c.Keyword)),
		min:     0,
		max:     math.Inf(1),
	}
	if !model.IsSentinel(c.Generation) {
		m.generation = strings.TrimSpace(c.Generation)
	}
	if !model.IsSentinel(c.PartType) {
		m.partType = strings.TrimSpace(c.PartType)
	}
	if !model.IsSentinel(c.Province) {
		m.province = strings.TrimSpace(c.Province)
	}
	if c.Min != nil {
		m.min = *c.Min
	}
	if c.Max != nil {
		m.max = *c.Max
	}
	return m
}

func (m matcher) match(l *model.Listing) bool {
	if m.keyword != "" && !strings.Contains(searchText(l), m.keyword) {
		return false
	}
	if m.generation != "" && !l.Generation.Contains(m.generation) {
		return false
	}
	if m.partType != "" && l.PartType != m.partType {
		return false
	}
	if m.province != "" && l.Province != m.province {
		return false
	}
	return l.Price >= m.min && l.Price <= m.max
}

// searchText is the lower-cased text the keyword is matched against.
func searchText(l *model.Listing) string {
	parts := make([]string, 0, 4+len(l.Generation))
	parts = append(parts, l.Title, l.Description, l.City, l.PartType)
	parts = append(parts, l.Generation...)
	// A separator no keyword can span keeps matches inside one field.
	return strings.ToLower(strings.Join(parts, "\x00"))
}

// CriteriaFromValues builds criteria from submitted form values. Bounds that
// do not parse as numbers are ignored.
func CriteriaFromValues(v url.Values) model.Criteria {
	return model.Criteria{
		Keyword:    v.Get(FieldKeyword),
		Generation: v.Get(FieldGeneration),
		PartType:   v.Get(FieldPartType),
		Province:   v.Get(FieldProvince),
		Min:        parseBound(v.Get(FieldMin)),
		Max:        parseBound(v.Get(FieldMax)),
	}
}

// Values is the inverse of CriteriaFromValues; inactive fields are omitted.
func Values(c model.Criteria) url.Values {
	v := url.Values{}
	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		v.Set(FieldKeyword, kw)
	}
	if !model.IsSentinel(c.Generation) {
		v.Set(FieldGeneration, strings.TrimSpace(c.Generation))
	}
	if !model.IsSentinel(c.PartType) {
		v.Set(FieldPartType, strings.TrimSpace(c.PartType))
	}
	if !model.IsSentinel(c.Province) {
		v.Set(FieldProvince, strings.TrimSpace(c.Province))
	}
	if c.Min != nil {
		v.Set(FieldMin, strconv.FormatFloat(*c.Min, 'f', -1, 64))
	}
	if c.Max != nil {
		v.Set(FieldMax, strconv.FormatFloat(*c.Max, 'f', -1, 64))
	}
	return v
}

func parseBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}
