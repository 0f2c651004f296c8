package loadtest

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/mergington/pkg/logger"
)

const percentageMultiplier = 100

// outcomes counts responses by status code.
type outcomes struct {
	mu     sync.Mutex
	counts map[int]int
}

func (o *outcomes) add(status int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = make(map[int]int)
	}
	o.counts[status]++
}

func (o *outcomes) snapshot() map[int]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return maps.Clone(o.counts)
}

// Run executes a complete load run and returns its statistics. An error is
// returned when the service is unreachable or any expectation fails.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("loadtest")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("students", cfg.Students),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verbose", cfg.Verbose),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Plan traffic over the served activities
	before, err := c.activities(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch activities: %w", err)
	}
	p, err := newPlan(cfg, slices.Collect(maps.Keys(before)))
	if err != nil {
		return stats, fmt.Errorf("plan: %w", err)
	}

	// Step 3: Signups, then unregisters
	var got outcomes
	for _, phase := range [][]operation{p.signups, p.unregisters} {
		if err := execute(ctx, c, cfg.Workers, phase, &got); err != nil {
			return stats, err
		}
	}

	// Step 4: Verify status counts and final rosters
	after, err := c.activities(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch activities: %w", err)
	}
	counts := got.snapshot()
	violations := verify(p, counts, after)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	for status, n := range counts {
		stats.Requests += n
		switch status {
		case http.StatusOK:
			stats.OK += n
		case http.StatusBadRequest:
			stats.BadRequest += n
		case http.StatusNotFound:
			stats.NotFound += n
		default:
			stats.Other += n
		}
	}
	stats.Violations = len(violations)

	if cfg.Verbose {
		for _, v := range violations {
			log.Warn(ctx, "expectation failed", logger.String("violation", v))
		}
	}
	displayFinalStats(ctx, log, stats)

	if len(violations) > 0 {
		return stats, fmt.Errorf("%d expectation(s) failed, first: %s", len(violations), violations[0])
	}
	log.Info(ctx, "load run passed")
	return stats, nil
}

// execute sends ops with at most workers requests in flight. Transport
// errors abort the phase.
func execute(ctx context.Context, c *client, workers int, ops []operation, got *outcomes) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, op := range ops {
		g.Go(func() error {
			status, err := c.roster(gctx, op)
			if err != nil {
				return err
			}
			got.add(status)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("submit roster operations: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var okRate, perSecond float64
	if stats.Requests > 0 {
		okRate = float64(stats.OK) / float64(stats.Requests) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("requests", stats.Requests),
		logger.Int("ok", stats.OK),
		logger.Int("badRequest", stats.BadRequest),
		logger.Int("notFound", stats.NotFound),
		logger.Int("other", stats.Other),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Any("okRate", okRate),
		logger.Any("requestsPerSecond", perSecond),
	)
}
