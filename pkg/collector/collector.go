// Package collector drives the collect-validate-merge-persist cycle over the
// size database.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bundlecache/bundlecache/pkg/phobia"
	"github.com/bundlecache/bundlecache/pkg/store"
	"github.com/bundlecache/bundlecache/pkg/types"
)

// FreshnessWindow is how long a successful collection suppresses
// re-collection of the same package.
const FreshnessWindow = 7 * 24 * time.Hour

// Outcome classifies a single package collection.
type Outcome int

const (
	// OutcomeSkipped means the entry was still fresh; nothing was done.
	OutcomeSkipped Outcome = iota
	// OutcomeCollected means records were merged with a clean stamp.
	OutcomeCollected
	// OutcomeErrored means records were merged but part of the output was
	// unparsable, so the stamp is tainted and the package retries next run.
	OutcomeErrored
)

// Config holds the collaborators a Collector needs.
type Config struct {
	Runner phobia.Runner
	Store  *store.Store
	// MaxAge overrides FreshnessWindow when non-zero.
	MaxAge time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Collector owns the in-memory database for the duration of one run. It is
// not safe for concurrent use; the run loop is strictly sequential.
type Collector struct {
	db     types.Database
	runner phobia.Runner
	store  *store.Store
	maxAge time.Duration
	now    func() time.Time
}

// New creates a collector over a previously loaded database.
func New(db types.Database, cfg Config) *Collector {
	if cfg.MaxAge == 0 {
		cfg.MaxAge = FreshnessWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Collector{
		db:     db,
		runner: cfg.Runner,
		store:  cfg.Store,
		maxAge: cfg.MaxAge,
		now:    cfg.Now,
	}
}

// Database exposes the in-memory state, mainly for reporting and tests.
func (c *Collector) Database() types.Database {
	return c.db
}

// IsFresh reports whether name was successfully collected within the
// freshness window. Absent entries and errored stamps are never fresh, so
// errored packages are always retried.
func (c *Collector) IsFresh(name string) bool {
	entry, ok := c.db[name]
	if !ok {
		return false
	}
	if entry.LastScraped.Errored {
		return false
	}
	return c.now().Sub(entry.LastScraped.Time()) < c.maxAge
}

// CollectOne collects a single package: skip when fresh, otherwise invoke
// the tool, validate its output line by line, and merge the accepted records
// into the database. A tool failure leaves the database untouched for this
// package and is fatal for the run.
func (c *Collector) CollectOne(ctx context.Context, name string, position, total int) (Outcome, error) {
	if c.IsFresh(name) {
		logrus.Infof("[%d/%d] ✓ %s (fresh, skipping)", position, total, name)
		return OutcomeSkipped, nil
	}

	output, err := c.runner.Fetch(ctx, name)
	if err != nil {
		logrus.Errorf("[%d/%d] ✗ %s: %v", position, total, name, err)
		return 0, err
	}

	records, parseFailed := phobia.DecodeRecords(output)

	stamp := types.ScrapedAt(c.now())
	if parseFailed {
		stamp = types.ScrapeErrored()
	}

	entry, ok := c.db[name]
	if !ok {
		entry = &types.Entry{}
		c.db[name] = entry
	}
	if entry.Records == nil {
		entry.Records = make(map[string]types.PackageRecord, len(records))
	}
	for i, record := range records {
		entry.Records[record.Version] = record
		if i == 0 {
			latest := record
			entry.Latest = &latest
		}
	}
	entry.LastScraped = stamp

	if parseFailed {
		logrus.Warnf("[%d/%d] + %s: kept %d records, some output unparsable (will retry next run)", position, total, name, len(records))
		return OutcomeErrored, nil
	}
	logrus.Infof("[%d/%d] + %s: %d records", position, total, name, len(records))
	return OutcomeCollected, nil
}

type runStats struct {
	collected int
	skipped   int
	errored   int
}

// Run collects every name in list order, stopping at the first tool failure,
// then persists the database exactly once, success or not. A persist failure
// is reported but not retried.
func (c *Collector) Run(ctx context.Context, names []string) error {
	start := c.now()
	total := len(names)
	logrus.Infof("collecting %d packages into %s", total, c.store.Path())

	var stats runStats
	var fatal error
	for i, name := range names {
		outcome, err := c.CollectOne(ctx, name, i+1, total)
		if err != nil {
			// Remaining names are left for a future run.
			fatal = fmt.Errorf("collection stopped at %s (%d/%d): %w", name, i+1, total, err)
			break
		}
		switch outcome {
		case OutcomeSkipped:
			stats.skipped++
		case OutcomeCollected:
			stats.collected++
		case OutcomeErrored:
			stats.errored++
		}
	}

	if err := c.store.Save(c.db); err != nil {
		logrus.Errorf("failed to persist database: %v", err)
		if fatal == nil {
			fatal = err
		}
	}

	elapsed := c.now().Sub(start)
	logrus.Infof("done in %s: %d collected, %d skipped, %d errored", elapsed.Round(time.Millisecond), stats.collected, stats.skipped, stats.errored)
	return fatal
}
