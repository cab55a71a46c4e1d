package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Poller reloads the catalog on a fixed interval.
type Poller struct {
	catalog  *Catalog
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewPoller creates a background poller. An interval of zero or less makes
// Start a no-op, so the catalog is only loaded once.
func NewPoller(catalog *Catalog, interval, timeout time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		catalog:  catalog,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop. The first reload happens one interval after
// Start; the initial load is the caller's. Start after Stop does nothing.
func (p *Poller) Start() {
	if p.interval <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopChan:
				return
			case <-ticker.C:
			}

			snap, err := p.reload()

			if err != nil {
				p.logger.Warn("Poller: reload failed", zap.Error(err))
			} else {
				p.logger.Info("Poller: reloaded listings",
					zap.Int("listings", len(snap.Listings)),
					zap.Duration("interval", p.interval))
			}
		}
	}()
}

func (p *Poller) reload() (*Snapshot, error) {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.catalog.Reload(ctx)
}

// Stop stops the poller gracefully.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.stopChan)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
