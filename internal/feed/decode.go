package feed

import (
	"bytes"
	"errors"

	"github.com/bryan-buckman/corvettetrader/internal/model"
	"github.com/bryan-buckman/corvettetrader/internal/rss"
	"github.com/goccy/go-json"
)

// Decoder turns a fetched payload into listings in feed order.
type Decoder func(data []byte) ([]model.Listing, error)

var errNotArray = errors.New("invalid JSON structure: expected an array of listings")

// DecodeJSON decodes a JSON array of listing objects.
func DecodeJSON(data []byte) ([]model.Listing, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotArray
	}
	var listings []model.Listing
	if err := json.Unmarshal(trimmed, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// DecodeRSS decodes an RSS, Atom or JSON Feed document.
func DecodeRSS(data []byte) ([]model.Listing, error) {
	return rss.Parse(data)
}
