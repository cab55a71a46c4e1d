// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// All is the criteria value meaning "no filter on this field".
const All = "All"

// Listing represents one classified ad for a vehicle part.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Generation  Tags      `json:"generation"`
	PartType    string    `json:"partType"`
	City        string    `json:"city"`
	Province    string    `json:"province"`
	Image       string    `json:"image"`
	Contact     string    `json:"contact"`
	Posted      Timestamp `json:"posted"`
}

// Validate reports the first required field that is missing or out of range.
func (l *Listing) Validate() error {
	switch {
	case strings.TrimSpace(l.Title) == "":
		return fmt.Errorf("title is required")
	case strings.TrimSpace(l.Description) == "":
		return fmt.Errorf("description is required")
	case l.Price < 0:
		return fmt.Errorf("price %v is negative", l.Price)
	}
	return nil
}

// Tags holds a field that feeds publish either as a single string or as a list
// of strings. A scalar decodes into a one-element list.
type Tags []string

// UnmarshalJSON accepts a string, an array of strings, or null.
func (t *Tags) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*t = nil
		} else {
			*t = Tags{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("generation must be a string or a list of strings: %w", err)
	}
	*t = list
	return nil
}

// Contains reports whether v is one of the tags.
func (t Tags) Contains(v string) bool {
	for _, tag := range t {
		if tag == v {
			return true
		}
	}
	return false
}

// String joins the tags for display.
func (t Tags) String() string {
	return strings.Join(t, ", ")
}

// Timestamp is a posting date. Feeds use plain dates as well as full RFC 3339
// timestamps; anything unparseable decodes to the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s with the accepted layouts.
func ParseTimestamp(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t}, true
		}
	}
	return Timestamp{}, false
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Numbers, objects and null carry no usable date.
		*ts = Timestamp{}
		return nil
	}
	*ts, _ = ParseTimestamp(s)
	return nil
}

// MarshalJSON renders the date, or null when unknown.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Format(time.RFC3339))
}

// Criteria is the immutable filter set built from the search form.
// Empty strings and All disable a field; nil bounds are open.
type Criteria struct {
	Keyword    string
	Generation string
	PartType   string
	Province   string
	Min        *float64
	Max        *float64
}

// IsSentinel reports whether a choice value disables its filter.
func IsSentinel(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}

// Facets lists the choice values offered by the search form.
type Facets struct {
	Generations []string `json:"generations"`
	PartTypes   []string `json:"partTypes"`
	Provinces   []string `json:"provinces"`
}
