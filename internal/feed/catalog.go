package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bryan-buckman/corvettetrader/internal/listing"
	"github.com/bryan-buckman/corvettetrader/internal/model"
	"go.uber.org/zap"
)

// State is the load state of the catalog.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Snapshot is one loaded listing set. It is never modified after creation.
type Snapshot struct {
	State    State
	Listings []model.Listing
	Facets   model.Facets
	Err      error
	Source   string
	LoadedAt time.Time

	byID map[string]int
}

func newSnapshot(source string, res Result) *Snapshot {
	s := &Snapshot{
		State:    StateLoaded,
		Listings: res.Listings,
		Facets:   listing.ExtractFacets(res.Listings),
		Source:   source,
		LoadedAt: res.LoadedAt,
		byID:     make(map[string]int, len(res.Listings)),
	}
	if res.Err != nil {
		s.State = StateError
		s.Err = res.Err
	}
	for i, l := range s.Listings {
		s.byID[l.ID] = i
	}
	return s
}

// Listing looks up a listing by ID.
func (s *Snapshot) Listing(id string) (model.Listing, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Listing{}, false
	}
	return s.Listings[i], true
}

// Catalog holds the current snapshot. Readers never block; reloads replace
// the snapshot as a whole.
type Catalog struct {
	loader  *Loader
	logger  *zap.Logger
	mu      sync.Mutex // serializes reloads
	current atomic.Pointer[Snapshot]
}

// NewCatalog creates an idle catalog.
func NewCatalog(loader *Loader, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{loader: loader, logger: logger}
	c.current.Store(&Snapshot{
		State:    StateIdle,
		Listings: []model.Listing{},
		Facets:   listing.ExtractFacets(nil),
		Source:   loader.Source(),
		byID:     map[string]int{},
	})
	return c
}

// Snapshot returns the current snapshot.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Reload loads the source again. A failed reload keeps a previously loaded
// snapshot in place; a failed first load leaves the catalog in StateError.
// The returned error is the load error, if any.
func (c *Catalog) Reload(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current.Load()
	if prev.State == StateIdle {
		loading := *prev
		loading.State = StateLoading
		c.current.Store(&loading)
	}

	res := c.loader.Load(ctx)
	if res.Err != nil && prev.State == StateLoaded {
		c.logger.Warn("Keeping previous listings after failed reload",
			zap.Int("listings", len(prev.Listings)),
			zap.Time("loaded_at", prev.LoadedAt),
			zap.Error(res.Err))
		c.current.Store(prev)
		return prev, res.Err
	}

	next := newSnapshot(c.loader.Source(), res)
	c.current.Store(next)
	return next, res.Err
}
