package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bryan-buckman/corvettetrader/internal/database"
)

// Source kinds accepted by Open.
const (
	KindJSON     = "json"
	KindRSS      = "rss"
	KindS3       = "s3"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// Options configures the sources built by Open.
type Options struct {
	HTTPClient *http.Client
	AWSRegion  string
	S3Endpoint string
}

// Open builds the source for kind and location. JSON and RSS locations are
// http(s) URLs or file paths; S3 locations are s3://bucket/key (JSON body);
// database locations are a file path (opened read-only, never created) or a
// connection string. The returned
// close function releases database connections and is never nil.
func Open(ctx context.Context, kind, location string, opts Options) (Source, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(kind) {
	case KindJSON, "":
		return Blob{Fetcher: fetcherFor(location, opts), Decode: DecodeJSON}, noop, nil
	case KindRSS:
		return Blob{Fetcher: fetcherFor(location, opts), Decode: DecodeRSS}, noop, nil
	case KindS3:
		bucket, key, err := ParseS3Location(location)
		if err != nil {
			return nil, noop, err
		}
		client, err := NewS3Client(ctx, opts.AWSRegion, opts.S3Endpoint)
		if err != nil {
			return nil, noop, err
		}
		return Blob{Fetcher: S3Fetcher{Client: client, Bucket: bucket, Key: key}, Decode: DecodeJSON}, noop, nil
	case KindSQLite:
		db, err := database.OpenReadOnly(location)
		if err != nil {
			return nil, noop, err
		}
		return StoreSource{Store: db}, db.Close, nil
	case KindPostgres:
		db, err := database.NewPostgres(location)
		if err != nil {
			return nil, noop, err
		}
		return StoreSource{Store: db}, db.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown listings source %q", kind)
}

func fetcherFor(location string, opts Options) Fetcher {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPFetcher{URL: location, Client: opts.HTTPClient}
	}
	return FileFetcher{Path: location}
}
