package rss

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/bryan-buckman/corvettetrader/internal/model"
	"github.com/mmcdole/gofeed"
)

// Parse reads an RSS, Atom or JSON Feed document and returns one listing per
// item, in document order. Listing fields without a standard element are read
// from extension elements in any namespace, or from un-namespaced custom
// elements, by their field name.
func Parse(data []byte) ([]model.Listing, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	listings := make([]model.Listing, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		l, err := listingFromItem(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func listingFromItem(item *gofeed.Item) (model.Listing, error) {
	l := model.Listing{
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		PartType:    first(fieldValues(item, "partType")),
		City:        first(fieldValues(item, "city")),
		Province:    first(fieldValues(item, "province")),
		Contact:     first(fieldValues(item, "contact")),
	}
	if l.Description == "" {
		l.Description = strings.TrimSpace(item.Content)
	}
	if l.PartType == "" && len(item.Categories) > 0 {
		l.PartType = item.Categories[0]
	}
	if l.Contact == "" && item.Author != nil {
		l.Contact = item.Author.Email
	}

	for _, g := range fieldValues(item, "generation") {
		for _, tag := range strings.Split(g, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				l.Generation = append(l.Generation, tag)
			}
		}
	}

	if p := first(fieldValues(item, "price")); p != "" {
		price, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return l, fmt.Errorf("price %q: %w", p, err)
		}
		l.Price = price
	}

	switch {
	case item.Image != nil && item.Image.URL != "":
		l.Image = item.Image.URL
	case len(item.Enclosures) > 0:
		l.Image = item.Enclosures[0].URL
	}

	switch {
	case item.PublishedParsed != nil:
		l.Posted = model.Timestamp{Time: item.PublishedParsed.UTC()}
	case item.UpdatedParsed != nil:
		l.Posted = model.Timestamp{Time: item.UpdatedParsed.UTC()}
	}
	return l, nil
}

// fieldValues collects the values of extension or custom elements named name.
func fieldValues(item *gofeed.Item, name string) []string {
	var values []string
	for _, byName := range item.Extensions {
		for _, ext := range byName[name] {
			if v := strings.TrimSpace(ext.Value); v != "" {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 && item.Custom != nil {
		if v := strings.TrimSpace(item.Custom[name]); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
