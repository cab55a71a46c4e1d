// Package feed loads listing feeds into immutable, sorted snapshots.
package feed

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/bryan-buckman/corvettetrader/internal/logging"
	"github.com/bryan-buckman/corvettetrader/internal/metrics"
	"github.com/bryan-buckman/corvettetrader/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// listingNamespace scopes the name-based listing IDs.
var listingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://corvettetrader.ca/listings"))

// Loader reads a source and prepares its listings for display.
type Loader struct {
	source  Source
	logger  *zap.Logger
	timeout time.Duration
}

// NewLoader creates a loader. A zero timeout leaves the context as given.
func NewLoader(source Source, logger *zap.Logger, timeout time.Duration) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{source: source, logger: logger, timeout: timeout}
}

// Source returns the loader's source name.
func (l *Loader) Source() string { return l.source.Name() }

// Result is the outcome of a lenient load.
type Result struct {
	Listings []model.Listing // never nil
	Err      error           // *FetchError or *ParseError
	Dropped  int
	LoadedAt time.Time
}

// Load never fails: on error it returns an empty sequence and reports the
// error in Result.Err.
func (l *Loader) Load(ctx context.Context) Result {
	start := time.Now()
	listings, dropped, err := l.load(ctx)

	status := metrics.StatusOK
	var pe *ParseError
	switch {
	case errors.As(err, &pe):
		status = metrics.StatusParse
	case err != nil:
		status = metrics.StatusFetch
	}
	metrics.RecordLoad(l.source.Name(), status, time.Since(start), len(listings), dropped)

	if err != nil {
		l.logger.Error("Failed to load listings",
			zap.String("source", l.source.Name()),
			zap.String("status", status),
			zap.Error(err))
		return Result{Listings: []model.Listing{}, Err: err, LoadedAt: start}
	}
	l.logger.Info("Loaded listings",
		zap.String("source", l.source.Name()),
		zap.Int("listings", len(listings)),
		zap.Int("dropped", dropped),
		zap.Duration("duration", time.Since(start)))
	return Result{Listings: listings, Dropped: dropped, LoadedAt: start}
}

// LoadStrict returns the sorted listings or the load error.
func (l *Loader) LoadStrict(ctx context.Context) ([]model.Listing, error) {
	listings, _, err := l.load(ctx)
	return listings, err
}

func (l *Loader) load(ctx context.Context) ([]model.Listing, int, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	raw, err := l.source.Read(ctx)
	if err != nil {
		return nil, 0, err
	}

	listings := make([]model.Listing, 0, len(raw))
	dropped := 0
	for i, item := range raw {
		if err := item.Validate(); err != nil {
			dropped++
			logging.DataQuality(l.logger, "listing", err.Error(),
				zap.String("source", l.source.Name()),
				zap.Int("index", i),
				zap.String("title", item.Title))
			continue
		}
		item.ID = listingID(item, i)
		listings = append(listings, item)
	}
	SortByPosted(listings)
	return listings, dropped, nil
}

// SortByPosted orders listings newest first. Equal dates keep feed order.
func SortByPosted(listings []model.Listing) {
	slices.SortStableFunc(listings, func(a, b model.Listing) int {
		return b.Posted.Compare(a.Posted.Time)
	})
}

func listingID(l model.Listing, index int) string {
	name := l.Title + "\x00" + l.Contact + "\x00" + l.Posted.Format(time.RFC3339) + "\x00" + strconv.Itoa(index)
	return uuid.NewSHA1(listingNamespace, []byte(name)).String()
}
