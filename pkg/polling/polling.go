package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sw33tLie/shopwatch/pkg/diff"
	"github.com/sw33tLie/shopwatch/pkg/items"
	"github.com/sw33tLie/shopwatch/pkg/notify"
	"github.com/sw33tLie/shopwatch/pkg/report"
	"github.com/sw33tLie/shopwatch/pkg/storage"
)

const (
	MsgFirstRun  = "No old items found, storing new items"
	MsgNoChanges = "No changes detected"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Fetcher supplies the current catalog.
type Fetcher interface {
	Fetch(ctx context.Context) (items.Catalog, error)
}

// SnapshotStore persists the catalog between cycles.
type SnapshotStore interface {
	GetCatalog(ctx context.Context, slot string) (items.Catalog, bool, error)
	PutCatalog(ctx context.Context, slot string, catalog items.Catalog) error
	CommitCycle(ctx context.Context, slot string, catalog items.Catalog, changes []storage.Change) error
}

// Locker serializes cycles across processes. Optional.
type Locker interface {
	Lock() error
	Unlock() error
}

// Config holds everything a Runner needs.
type Config struct {
	Fetcher   Fetcher
	Store     SnapshotStore
	Notifiers []notify.Notifier
	Prices    diff.PriceLookup // optional
	Lock      Locker           // optional
	Log       Logger           // optional; nil = no logging

	// DryRun computes the reports without delivering or persisting them.
	DryRun bool
}

// Result holds the outcome of a single cycle.
type Result struct {
	RunID    string
	FirstRun bool
	Changes  []diff.Change
	// Message is the text returned to the HTTP trigger.
	Message string
}

// Runner executes scrape cycles one at a time.
type Runner struct {
	mu  sync.Mutex
	cfg Config
	log Logger
}

func NewRunner(cfg Config) *Runner {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	return &Runner{cfg: cfg, log: log}
}

// SetPrices swaps the real-price side table used by subsequent cycles.
func (r *Runner) SetPrices(prices diff.PriceLookup) {
	r.mu.Lock()
	r.cfg.Prices = prices
	r.mu.Unlock()
}

// Run fetches the catalog, reconciles it with the stored snapshot, delivers
// the reports and persists the new snapshot. The snapshot only advances once
// every notifier succeeded.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.Lock != nil {
		if err := r.cfg.Lock.Lock(); err != nil {
			return nil, err
		}
		defer func() {
			if err := r.cfg.Lock.Unlock(); err != nil {
				r.log.Warnf("Could not release cycle lock: %v", err)
			}
		}()
	}

	result := &Result{RunID: uuid.NewString()}
	start := time.Now()
	r.log.Debugf("Starting cycle %s", result.RunID)

	newItems, err := r.cfg.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	if dups := newItems.Duplicates(); len(dups) > 0 {
		r.log.Warnf("Fetched catalog has duplicate item ids %v, only the first occurrence is compared", dups)
	}

	oldItems, ok, err := r.cfg.Store.GetCatalog(ctx, storage.SnapshotSlot)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if !ok {
		r.log.Infof("No old items found, storing %d new items", len(newItems))
		result.FirstRun = true
		result.Message = MsgFirstRun
		if r.cfg.DryRun {
			return result, nil
		}
		if err := r.cfg.Store.PutCatalog(ctx, storage.SnapshotSlot, newItems); err != nil {
			return nil, fmt.Errorf("storing snapshot: %w", err)
		}
		return result, nil
	}

	result.Changes = diff.Reconcile(oldItems, newItems, r.cfg.Prices)
	if len(result.Changes) == 0 {
		r.log.Debugf("No changes detected")
		result.Message = MsgNoChanges
		if r.cfg.DryRun {
			return result, nil
		}
		if err := r.cfg.Store.PutCatalog(ctx, storage.SnapshotSlot, newItems); err != nil {
			return nil, fmt.Errorf("storing snapshot: %w", err)
		}
		return result, nil
	}

	reports := diff.Reports(result.Changes)
	result.Message = report.PlainText(reports, true)
	r.log.Infof("Detected %d changes (%s)", len(result.Changes), summarize(result.Changes))

	if r.cfg.DryRun {
		return result, nil
	}

	if err := r.deliver(ctx, reports); err != nil {
		return nil, err
	}

	if err := r.cfg.Store.CommitCycle(ctx, storage.SnapshotSlot, newItems, toStorageChanges(result.RunID, start, result.Changes)); err != nil {
		return nil, fmt.Errorf("storing snapshot: %w", err)
	}

	r.log.Debugf("Cycle %s finished in %s", result.RunID, time.Since(start).Round(time.Millisecond))
	return result, nil
}

// deliver sends the reports to every notifier concurrently and joins the
// failures.
func (r *Runner) deliver(ctx context.Context, reports []string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, n := range r.cfg.Notifiers {
		wg.Add(1)
		go func(n notify.Notifier) {
			defer wg.Done()
			if err := n.Notify(ctx, reports); err != nil {
				r.log.Errorf("Delivery to %s failed: %v", n.Name(), err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
				mu.Unlock()
				return
			}
			r.log.Debugf("Delivered %d reports to %s", len(reports), n.Name())
		}(n)
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("delivering notifications, snapshot not updated: %w", errors.Join(errs...))
	}
	return nil
}

func toStorageChanges(runID string, at time.Time, changes []diff.Change) []storage.Change {
	out := make([]storage.Change, 0, len(changes))
	for _, c := range changes {
		out = append(out, storage.Change{
			OccurredAt: at,
			RunID:      runID,
			ItemID:     c.ItemID,
			ItemName:   c.ItemName,
			ChangeType: string(c.Type),
			Report:     c.Report,
		})
	}
	return out
}

func summarize(changes []diff.Change) string {
	counts := map[diff.ChangeType]int{}
	for _, c := range changes {
		counts[c.Type]++
	}
	return fmt.Sprintf("%d added, %d updated, %d removed", counts[diff.Added], counts[diff.Updated], counts[diff.Removed])
}
