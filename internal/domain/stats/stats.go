package stats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"golang.org/x/sync/errgroup"
)

// Counter counts pages, optionally restricted to one status.
type Counter interface {
	CountPages(ctx context.Context, status *catalog.PageStatus) (int, error)
}

// PageStats is a point-in-time summary of the catalog.
type PageStats struct {
	Completed int `json:"completed"`
	Taken     int `json:"taken"`
	Drafted   int `json:"drafted"`
	Total     int `json:"total"`
	Available int `json:"available"`
}

// Aggregator computes catalog statistics. Nothing is cached.
type Aggregator struct {
	counter  Counter
	logger   *slog.Logger
	drafting bool
}

// NewAggregator creates a stats aggregator. With drafting off the Drafted
// count is not queried.
func NewAggregator(counter Counter, logger *slog.Logger, drafting bool) *Aggregator {
	return &Aggregator{counter: counter, logger: logger, drafting: drafting}
}

// PageStats fetches the counts concurrently and derives Available.
func (a *Aggregator) PageStats(ctx context.Context) (*PageStats, error) {
	var out PageStats
	g, gctx := errgroup.WithContext(ctx)

	count := func(status *catalog.PageStatus, dst *int) {
		g.Go(func() error {
			n, err := a.counter.CountPages(gctx, status)
			if err != nil {
				label := "total"
				if status != nil {
					label = string(*status)
				}
				return fmt.Errorf("counting %s pages: %w", label, err)
			}
			*dst = n
			return nil
		})
	}

	completed := catalog.StatusCompleted
	taken := catalog.StatusTaken
	count(&completed, &out.Completed)
	count(&taken, &out.Taken)
	count(nil, &out.Total)
	if a.drafting {
		drafted := catalog.StatusDrafted
		count(&drafted, &out.Drafted)
	}

	if err := g.Wait(); err != nil {
		if a.logger != nil {
			a.logger.Error("stats query failed", "error", err)
		}
		return nil, err
	}

	out.Available = out.Total - out.Taken - out.Completed - out.Drafted
	return &out, nil
}
