package listing

import (
	"slices"

	"github.com/bryan-buckman/corvettetrader/internal/model"
)

// Attribute names a filterable listing field.
type Attribute string

// Filterable attributes.
const (
	AttrGeneration Attribute = "generation"
	AttrPartType   Attribute = "partType"
	AttrProvince   Attribute = "province"
	AttrCity       Attribute = "city"
)

// values returns the attribute's values for one listing. Multi-valued
// attributes return every tag.
func (a Attribute) values(l *model.Listing) []string {
	switch a {
	case AttrGeneration:
		return l.Generation
	case AttrPartType:
		return []string{l.PartType}
	case AttrProvince:
		return []string{l.Province}
	case AttrCity:
		return []string{l.City}
	}
	return nil
}

// DistinctValues returns the sorted, de-duplicated non-empty values of attr.
func DistinctValues(listings []model.Listing, attr Attribute) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for i := range listings {
		for _, v := range attr.values(&listings[i]) {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// ExtractFacets computes the choice lists for the search form.
func ExtractFacets(listings []model.Listing) model.Facets {
	return model.Facets{
		Generations: DistinctValues(listings, AttrGeneration),
		PartTypes:   DistinctValues(listings, AttrPartType),
		Provinces:   DistinctValues(listings, AttrProvince),
	}
}
