package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/bryan-buckman/corvettetrader/internal/database"
	"github.com/bryan-buckman/corvettetrader/internal/model"
)

// maxPayload bounds how much of a feed is read.
const maxPayload = 32 << 20

// Source produces the raw listing sequence in feed order. Implementations
// return *FetchError or *ParseError.
type Source interface {
	Name() string
	Read(ctx context.Context) ([]model.Listing, error)
}

// Fetcher retrieves a feed payload.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// Blob is a Source that fetches a payload and decodes it.
type Blob struct {
	Fetcher Fetcher
	Decode  Decoder
}

func (b Blob) Name() string { return b.Fetcher.Name() }

func (b Blob) Read(ctx context.Context) ([]model.Listing, error) {
	data, err := b.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	listings, err := b.Decode(data)
	if err != nil {
		return nil, &ParseError{Source: b.Name(), Err: err}
	}
	return listings, nil
}

// HTTPFetcher issues one unconditional GET, bypassing caches.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func (f HTTPFetcher) Name() string { return f.URL }

func (f HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, &FetchError{Source: f.URL, Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json, application/rss+xml, application/atom+xml;q=0.9, */*;q=0.5")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: f.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Source: f.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("status %s", resp.Status)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return nil, &FetchError{Source: f.URL, Err: fmt.Errorf("read body: %w", err)}
	}
	return data, nil
}

// FileFetcher reads a feed from the local filesystem.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) Name() string { return f.Path }

func (f FileFetcher) Fetch(ctx context.Context) ([]byte, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, &FetchError{Source: f.Path, Err: err}
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxPayload))
	if err != nil {
		return nil, &FetchError{Source: f.Path, Err: err}
	}
	return data, nil
}

// StoreSource reads listings from a database table.
type StoreSource struct {
	Store database.Store
}

func (s StoreSource) Name() string { return s.Store.DatabaseType() }

func (s StoreSource) Read(ctx context.Context) ([]model.Listing, error) {
	listings, err := s.Store.Listings(ctx)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	return listings, nil
}
