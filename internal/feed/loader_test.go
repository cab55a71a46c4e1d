package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bryan-buckman/corvettetrader/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const feedJSON = `[
	{"title":"C3 hood","description":"Fiberglass","price":200,"generation":"C3","partType":"Body","city":"Toronto","province":"ON","image":"img/hood.jpg","contact":"a@example.com","posted":"2024-03-01"},
	{"title":"C4 seat","description":"Leather","price":50,"generation":["C4"],"partType":"Interior","city":"Montreal","province":"QC","contact":"b@example.com","posted":"2024-05-01"},
	{"title":"Rally wheels","description":"Set of four","price":800,"generation":["C3","C4"],"partType":"Wheels","province":"ON","posted":"2024-03-01"},
	{"title":"Undated","description":"No date","price":5}
]`

func writeFeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func fileLoader(t *testing.T, body string) *Loader {
	return NewLoader(Blob{Fetcher: FileFetcher{Path: writeFeed(t, body)}, Decode: DecodeJSON}, zap.NewNop(), 0)
}

func titles(ls []model.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Title)
	}
	return out
}

func TestLoadSortsNewestFirstStable(t *testing.T) {
	res := fileLoader(t, feedJSON).Load(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"C4 seat", "C3 hood", "Rally wheels", "Undated"}, titles(res.Listings))
}

func TestLoadAssignsStableIDs(t *testing.T) {
	l := fileLoader(t, feedJSON)
	first := l.Load(context.Background())
	second := l.Load(context.Background())
	require.NoError(t, first.Err)

	seen := map[string]bool{}
	for i, item := range first.Listings {
		require.NotEmpty(t, item.ID)
		assert.False(t, seen[item.ID], "duplicate id")
		seen[item.ID] = true
		assert.Equal(t, item.ID, second.Listings[i].ID)
	}
}

func TestLoadDropsInvalidRecords(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	body := `[{"title":"ok","description":"fine","price":1},{"title":"","description":"x"},{"title":"neg","description":"x","price":-3}]`
	l := NewLoader(Blob{Fetcher: FileFetcher{Path: writeFeed(t, body)}, Decode: DecodeJSON}, zap.New(core), 0)

	res := l.Load(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"ok"}, titles(res.Listings))
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, 2, logs.FilterMessage("Data quality issue").Len())
}

func TestLoadParseErrorIsLenient(t *testing.T) {
	for name, body := range map[string]string{
		"object":    `{"listings":[]}`,
		"truncated": `[{"title":"x"`,
		"empty":     ``,
		"bad field": `[{"title":"x","description":"y","price":"cheap"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			res := fileLoader(t, body).Load(context.Background())
			require.NotNil(t, res.Listings)
			assert.Empty(t, res.Listings)
			var pe *ParseError
			assert.True(t, errors.As(res.Err, &pe), "got %v", res.Err)
		})
	}
}

func TestLoadEmptyArray(t *testing.T) {
	res := fileLoader(t, `[]`).Load(context.Background())
	require.NoError(t, res.Err)
	assert.Empty(t, res.Listings)
}

func TestLoadStrictPropagates(t *testing.T) {
	l := NewLoader(Blob{Fetcher: FileFetcher{Path: filepath.Join(t.TempDir(), "missing.json")}, Decode: DecodeJSON}, nil, 0)
	listings, err := l.LoadStrict(context.Background())
	assert.Nil(t, listings)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestHTTPFetcherBypassesCache(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedJSON))
	}))
	defer srv.Close()

	l := NewLoader(Blob{Fetcher: HTTPFetcher{URL: srv.URL + "/data/listings.json"}, Decode: DecodeJSON}, nil, 0)
	res := l.Load(context.Background())
	require.NoError(t, res.Err)
	assert.Len(t, res.Listings, 4)
	assert.Contains(t, got.Get("Cache-Control"), "no-store")
	assert.Equal(t, "no-cache", got.Get("Pragma"))
}

func TestHTTPFetcherNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	l := NewLoader(Blob{Fetcher: HTTPFetcher{URL: srv.URL}, Decode: DecodeJSON}, nil, 0)
	res := l.Load(context.Background())
	assert.Empty(t, res.Listings)
	var fe *FetchError
	require.True(t, errors.As(res.Err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Contains(t, fe.Error(), "HTTP 404")
}

func TestRSSSource(t *testing.T) {
	doc := `<rss version="2.0"><channel><title>x</title>
	<item><title>Old</title><description>a</description><price>1</price><pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate></item>
	<item><title>New</title><description>b</description><price>2</price><pubDate>Wed, 01 May 2024 00:00:00 +0000</pubDate></item>
	</channel></rss>`
	l := NewLoader(Blob{Fetcher: FileFetcher{Path: writeFeed(t, doc)}, Decode: DecodeRSS}, nil, 0)
	res := l.Load(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"New", "Old"}, titles(res.Listings))
}

func TestSortByPostedZeroLast(t *testing.T) {
	a, _ := model.ParseTimestamp("2024-01-01")
	listings := []model.Listing{{Title: "zero"}, {Title: "a", Posted: a}, {Title: "zero2"}}
	SortByPosted(listings)
	assert.Equal(t, []string{"a", "zero", "zero2"}, titles(listings))
}
