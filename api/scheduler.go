/*
scheduler.go - Automated delivery escrow release

PURPOSE:
  Periodically looks for pending delivery escrows whose auto-release
  deadline has passed and releases them to the carrier.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Acts as an ordinary caller: every release goes through
    Vault.CheckAutoRelease, which is idempotent and needs no signature
  - A failure on one escrow is logged and does not stop the pass

USAGE:
  scheduler := NewAutoReleaseScheduler(v, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ReleaseDelivery endpoint (manual release)
  - vault/delivery.go: CheckAutoRelease
*/
package api

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/asset-vault/vault"
)

// AutoReleaseScheduler releases due delivery escrows.
type AutoReleaseScheduler struct {
	Vault         *vault.Vault
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAutoReleaseScheduler creates a scheduler checking once a minute.
func NewAutoReleaseScheduler(v *vault.Vault, logger *slog.Logger) *AutoReleaseScheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AutoReleaseScheduler{
		Vault:         v,
		Logger:        logger.With("component", "auto_release"),
		CheckInterval: time.Minute,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (s *AutoReleaseScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled || s.CheckInterval <= 0 {
		s.Logger.Info("scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.Logger.Info("scheduler started", "interval", s.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight pass to finish.
func (s *AutoReleaseScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.Logger.Info("scheduler stopped")
	}
}

func (s *AutoReleaseScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow(context.Background())

	for {
		select {
		case <-s.ticker.C:
			s.RunNow(context.Background())
		case <-s.stop:
			return
		}
	}
}

// RunNow performs one pass and returns how many escrows it released.
func (s *AutoReleaseScheduler) RunNow(ctx context.Context) int {
	pending, err := s.Vault.PendingDeliveries(ctx)
	if err != nil {
		s.Logger.ErrorContext(ctx, "list pending deliveries", "error", err)
		return 0
	}

	now := s.Vault.Now()
	released := 0
	for _, d := range pending {
		if now < d.AutoReleaseAfter {
			continue
		}
		ok, err := s.Vault.CheckAutoRelease(ctx, d.ID)
		if err != nil {
			s.Logger.ErrorContext(ctx, "auto release failed", "escrow", d.ID.String(), "error", err)
			continue
		}
		if ok {
			released++
			s.Logger.InfoContext(ctx, "escrow auto-released", "escrow", d.ID.String(), "carrier", d.Carrier, "amount", d.Amount.String())
		}
	}

	if released > 0 {
		s.Logger.InfoContext(ctx, "auto release pass completed", "pending", len(pending), "released", released)
	}
	return released
}
