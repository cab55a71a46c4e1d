// Package rss exports listings as RSS 2.0 and reads listing feeds published
// as RSS or Atom.
package rss

import (
	"encoding/xml"
	"strconv"
	"time"

	"github.com/bryan-buckman/corvettetrader/internal/model"
)

// Namespace carries the listing fields RSS has no element for.
const (
	Namespace = "https://corvettetrader.ca/ns/listing"
	Prefix    = "ct"
)

// Document represents the root of an RSS document.
type Document struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	NS      string   `xml:"xmlns:ct,attr"`
	Channel Channel  `xml:"channel"`
}

// Channel contains feed metadata and items.
type Channel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link"`
	Description   string `xml:"description"`
	LastBuildDate string `xml:"lastBuildDate,omitempty"`
	Items         []Item `xml:"item"`
}

// Item is a single listing.
type Item struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link,omitempty"`
	Description string     `xml:"description"`
	GUID        *GUID      `xml:"guid,omitempty"`
	PubDate     string     `xml:"pubDate,omitempty"`
	Category    string     `xml:"category,omitempty"`
	Enclosure   *Enclosure `xml:"enclosure,omitempty"`
	Price       string     `xml:"ct:price"`
	PartType    string     `xml:"ct:partType,omitempty"`
	Generation  []string   `xml:"ct:generation,omitempty"`
	City        string     `xml:"ct:city,omitempty"`
	Province    string     `xml:"ct:province,omitempty"`
	Contact     string     `xml:"ct:contact,omitempty"`
}

// GUID identifies an item.
type GUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// Enclosure attaches the listing image.
type Enclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length int    `xml:"length,attr"`
}

// Meta describes the exported channel.
type Meta struct {
	Title       string
	Link        string // site root; item links point at the listing API
	Description string
}

// Export generates an RSS document listing every listing in order.
func Export(meta Meta, listings []model.Listing) ([]byte, error) {
	doc := Document{
		Version: "2.0",
		NS:      Namespace,
		Channel: Channel{
			Title:         meta.Title,
			Link:          meta.Link,
			Description:   meta.Description,
			LastBuildDate: time.Now().Format(time.RFC1123Z),
		},
	}

	for _, l := range listings {
		item := Item{
			Title:       l.Title,
			Description: l.Description,
			Category:    l.PartType,
			Price:       strconv.FormatFloat(l.Price, 'f', -1, 64),
			PartType:    l.PartType,
			Generation:  l.Generation,
			City:        l.City,
			Province:    l.Province,
			Contact:     l.Contact,
		}
		if l.ID != "" {
			item.GUID = &GUID{Value: l.ID}
			if meta.Link != "" {
				item.Link = meta.Link + "/api/listings/" + l.ID
			}
		}
		if !l.Posted.IsZero() {
			item.PubDate = l.Posted.Format(time.RFC1123Z)
		}
		if l.Image != "" {
			item.Enclosure = &Enclosure{URL: l.Image, Type: imageType(l.Image)}
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}

func imageType(u string) string {
	switch ext := extension(u); ext {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func extension(u string) string {
	for i := len(u) - 1; i >= 0; i-- {
		switch u[i] {
		case '.':
			return u[i+1:]
		case '/', '?', '#':
			return ""
		}
	}
	return ""
}
