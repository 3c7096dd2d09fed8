// Package quota tracks the tokens a browser consumed on the current calendar
// day. The daily limit is advisory: nothing here ever blocks a request.
package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhpenta/mifoto/kvstore"
)

const (
	// StorageKey is the store key holding the serialized Record.
	StorageKey = "mifoto_token_usage"

	// DailyTokenLimit is the free tier allowance shown to the user.
	DailyTokenLimit = 1_000_000

	dateLayout = "2006-01-02"
)

// Record is the persisted {count, date} pair. Date is always the UTC day on
// which Count was last incremented.
type Record struct {
	Count int    `json:"count"`
	Date  string `json:"date"`
}

// Usage is what the view displays.
type Usage struct {
	Count   int     `json:"count"`
	Limit   int     `json:"limit"`
	Date    string  `json:"date"`
	Percent float64 `json:"percent"`
}

// Tracker reads and updates one browser's Record.
type Tracker struct {
	store  kvstore.Store
	limit  int
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLimit overrides DailyTokenLimit.
func WithLimit(limit int) Option {
	return func(t *Tracker) {
		t.limit = limit
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLogger sets a structured logger for the tracker.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker creates a tracker over store.
func NewTracker(store kvstore.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		limit:  DailyTokenLimit,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Today returns the UTC calendar day of now as YYYY-MM-DD.
func Today(now time.Time) string {
	return now.UTC().Format(dateLayout)
}

// Load returns today's usage. A record from another day or one that cannot
// be parsed is removed from the store and counts as zero.
func (t *Tracker) Load(ctx context.Context) (Usage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := Today(t.now())
	count, err := t.load(ctx, today)
	if err != nil {
		return Usage{}, err
	}
	return t.usage(count, today), nil
}

// RecordUsage adds tokens to today's count and persists the new record.
// Non-positive amounts leave the record untouched.
func (t *Tracker) RecordUsage(ctx context.Context, tokens int) (Usage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := Today(t.now())
	count, err := t.load(ctx, today)
	if err != nil {
		return Usage{}, err
	}
	if tokens <= 0 {
		return t.usage(count, today), nil
	}

	count += tokens
	payload, err := json.Marshal(Record{Count: count, Date: today})
	if err != nil {
		return Usage{}, err
	}
	if err := t.store.Set(ctx, StorageKey, string(payload)); err != nil {
		return Usage{}, fmt.Errorf("save token usage: %w", err)
	}

	usage := t.usage(count, today)
	if count > t.limit && t.limit > 0 {
		t.logger.Warn("daily token limit exceeded",
			"count", count,
			"limit", t.limit,
		)
	}
	return usage, nil
}

func (t *Tracker) load(ctx context.Context, today string) (int, error) {
	raw, ok, err := t.store.Get(ctx, StorageKey)
	if err != nil {
		return 0, fmt.Errorf("load token usage: %w", err)
	}
	if !ok {
		return 0, nil
	}

	record, valid := parseRecord(raw)
	if valid && record.Date == today {
		return record.Count, nil
	}

	if !valid {
		t.logger.Warn("discarding malformed token usage record", "payload_length", len(raw))
	}
	if err := t.store.Remove(ctx, StorageKey); err != nil {
		return 0, fmt.Errorf("remove stale token usage: %w", err)
	}
	return 0, nil
}

func parseRecord(raw string) (Record, bool) {
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Record{}, false
	}
	if record.Count < 0 {
		return Record{}, false
	}
	if _, err := time.Parse(dateLayout, record.Date); err != nil {
		return Record{}, false
	}
	return record, true
}

func (t *Tracker) usage(count int, today string) Usage {
	u := Usage{Count: count, Limit: t.limit, Date: today}
	if t.limit > 0 {
		u.Percent = min(100, float64(count)*100/float64(t.limit))
	}
	return u
}
