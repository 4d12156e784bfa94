package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/metrics"
)

const (
	keyPrefix  = "report:"
	genKey     = "gen"
	initialGen = "0"
)

// Cached serves reports from a cache.Store and falls through to next on a
// miss. Cache failures degrade to a rebuild and are only counted.
//
// Report keys embed the owner's current generation. Invalidate replaces the
// generation, so a report built from data read before a write can never be
// served after it, even when its Set lands after the Invalidate.
type Cached struct {
	next  Reporter
	store cache.Store
}

func NewCached(next Reporter, store cache.Store) *Cached {
	return &Cached{next: next, store: store}
}

var _ Reporter = (*Cached)(nil)

// OwnerPrefix is the key prefix shared by every cached report of an owner.
func OwnerPrefix(ownerID string) string {
	return keyPrefix + url.QueryEscape(ownerID) + ":"
}

// Invalidate drops every cached report of ownerID and starts a new
// generation.
func (c *Cached) Invalidate(ctx context.Context, ownerID string) error {
	prefix := OwnerPrefix(ownerID)
	if _, err := c.store.DeletePrefix(ctx, prefix); err != nil {
		return fmt.Errorf("invalidate reports of %s: %w", ownerID, err)
	}
	if err := c.store.Set(ctx, prefix+genKey, []byte(uuid.NewString())); err != nil {
		return fmt.Errorf("bump report generation of %s: %w", ownerID, err)
	}
	return nil
}

// generation returns the owner's current generation. An owner that was never
// invalidated, or whose marker expired together with its reports, is at
// initialGen.
func (c *Cached) generation(ctx context.Context, ownerID string) (string, error) {
	raw, ok, err := c.store.Get(ctx, OwnerPrefix(ownerID)+genKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return initialGen, nil
	}
	return string(raw), nil
}

func (c *Cached) Monthly(ctx context.Context, ownerID string, month, year int) (core.MonthlyReport, error) {
	key := fmt.Sprintf("monthly:%04d-%02d", year, month)
	return lookup(ctx, c, ownerID, "monthly", key, func() (core.MonthlyReport, error) {
		return c.next.Monthly(ctx, ownerID, month, year)
	})
}

func (c *Cached) Yearly(ctx context.Context, ownerID string, year int) (core.YearlyReport, error) {
	key := fmt.Sprintf("yearly:%04d", year)
	return lookup(ctx, c, ownerID, "yearly", key, func() (core.YearlyReport, error) {
		return c.next.Yearly(ctx, ownerID, year)
	})
}

func (c *Cached) DateRange(ctx context.Context, ownerID string, start, end core.Date) (core.DateRangeReport, error) {
	key := fmt.Sprintf("range:%s:%s", start, end)
	return lookup(ctx, c, ownerID, "date_range", key, func() (core.DateRangeReport, error) {
		return c.next.DateRange(ctx, ownerID, start, end)
	})
}

func (c *Cached) TopCategories(ctx context.Context, ownerID string, limit int, r core.DateRange) ([]core.CategoryReport, error) {
	key := fmt.Sprintf("top:%d:%s:%s", limit, r.Start, r.End)
	return lookup(ctx, c, ownerID, "top_categories", key, func() ([]core.CategoryReport, error) {
		return c.next.TopCategories(ctx, ownerID, limit, r)
	})
}

func (c *Cached) Summary(ctx context.Context, ownerID string, r core.DateRange) (core.Summary, error) {
	key := fmt.Sprintf("summary:%s:%s", r.Start, r.End)
	return lookup(ctx, c, ownerID, "summary", key, func() (core.Summary, error) {
		return c.next.Summary(ctx, ownerID, r)
	})
}

func lookup[T any](ctx context.Context, c *Cached, ownerID, kind, key string, build func() (T, error)) (T, error) {
	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		metrics.ReportCache.WithLabelValues(kind, "error").Inc()
		return build()
	}
	fullKey := OwnerPrefix(ownerID) + gen + ":" + key

	if raw, ok, err := c.store.Get(ctx, fullKey); err != nil {
		metrics.ReportCache.WithLabelValues(kind, "error").Inc()
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.ReportCache.WithLabelValues(kind, "hit").Inc()
			return v, nil
		}
		metrics.ReportCache.WithLabelValues(kind, "error").Inc()
	} else {
		metrics.ReportCache.WithLabelValues(kind, "miss").Inc()
	}

	started := time.Now()
	v, err := build()
	if err != nil {
		return v, err
	}
	metrics.ReportDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())

	// a write during build makes v stale; serve it once but do not keep it
	if now, err := c.generation(ctx, ownerID); err != nil || now != gen {
		metrics.ReportCache.WithLabelValues(kind, "stale").Inc()
		return v, nil
	}
	if raw, err := json.Marshal(v); err == nil {
		if err := c.store.Set(ctx, fullKey, raw); err != nil {
			metrics.ReportCache.WithLabelValues(kind, "error").Inc()
		}
	}
	return v, nil
}
