// Package orchestrator answers route queries from the result cache and falls back to the
// browser engine on a miss.
package orchestrator

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mohammad-safakhou/wildscan/internal/cache"
	"github.com/mohammad-safakhou/wildscan/internal/telemetry"
	"github.com/mohammad-safakhou/wildscan/models"
)

// DefaultTTL is how long an error-free scan result is served from cache.
const DefaultTTL = 45 * time.Minute

// Scanner performs one uncached route scan; scanner.Engine satisfies it. The returned
// error is reserved for preconditions such as a missing session.
type Scanner interface {
	Scan(ctx context.Context, r models.Route) (models.ScanResult, error)
}

type Options struct {
	Engine  Scanner
	Cache   cache.Store
	TTL     time.Duration
	Metrics *telemetry.Metrics
	Logger  *log.Logger
}

// Orchestrator owns the per-key dedup state; independent instances share nothing.
type Orchestrator struct {
	engine  Scanner
	store   cache.Store
	ttl     time.Duration
	metrics *telemetry.Metrics
	logger  *log.Logger
	flights singleflight.Group
}

func New(opts Options) *Orchestrator {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	return &Orchestrator{
		engine:  opts.Engine,
		store:   opts.Cache,
		ttl:     opts.TTL,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// ScanRoute serves r from cache when possible. A hit is returned with Cached set. A miss
// runs the engine and stores the result unless it carries an error. Concurrent calls for
// the same key share one engine run.
func (o *Orchestrator) ScanRoute(ctx context.Context, r models.Route) (models.ScanResult, error) {
	key := cache.ScanKey(r)
	if res, ok := o.lookup(ctx, key, r); ok {
		return res, nil
	}

	ran := false
	v, err, _ := o.flights.Do(key, func() (any, error) {
		ran = true
		// a flight that finished between our lookup and Do has already stored its result
		if res, ok := o.load(ctx, key); ok {
			return res, nil
		}
		res, err := o.engine.Scan(ctx, r)
		if err != nil {
			return nil, err
		}
		o.remember(ctx, key, r, res)
		return res, nil
	})
	if err != nil {
		return models.ScanResult{}, err
	}
	res := v.(models.ScanResult)
	if !ran && !res.Failed() {
		res.Cached = true
	}
	return res, nil
}

// ScanMultipleRoutes scans every route concurrently and returns results in input order.
// Per-route failures stay in ScanResult.Error; only a precondition error aborts the batch.
func (o *Orchestrator) ScanMultipleRoutes(ctx context.Context, routes []models.Route) ([]models.ScanResult, error) {
	results := make([]models.ScanResult, len(routes))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range routes {
		g.Go(func() error {
			res, err := o.ScanRoute(gctx, r)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ClearRoute drops the cached result of one route.
func (o *Orchestrator) ClearRoute(ctx context.Context, r models.Route) error {
	if err := o.store.Delete(ctx, cache.ScanKey(r)); err != nil {
		return err
	}
	o.logger.Printf("cache CLEARED: %s", r)
	return nil
}

// ClearAll sweeps expired entries and returns how many were removed.
func (o *Orchestrator) ClearAll(ctx context.Context) (int64, error) {
	return o.store.Cleanup(ctx)
}

// CacheStats reports the backing store's entry count.
func (o *Orchestrator) CacheStats(ctx context.Context) (cache.Stats, error) {
	return o.store.Stats(ctx)
}

func (o *Orchestrator) lookup(ctx context.Context, key string, r models.Route) (models.ScanResult, bool) {
	res, ok, err := cache.GetJSON[models.ScanResult](ctx, o.store, key)
	switch {
	case err != nil:
		o.logger.Printf("cache read %s failed, scanning: %v", key, err)
		o.metrics.CacheLookup(telemetry.LookupError)
		return models.ScanResult{}, false
	case !ok:
		o.logger.Printf("cache MISS: %s", r)
		o.metrics.CacheLookup(telemetry.LookupMiss)
		return models.ScanResult{}, false
	}
	o.logger.Printf("cache HIT: %s", r)
	o.metrics.CacheLookup(telemetry.LookupHit)
	res.Cached = true
	return res, true
}

func (o *Orchestrator) load(ctx context.Context, key string) (models.ScanResult, bool) {
	res, ok, err := cache.GetJSON[models.ScanResult](ctx, o.store, key)
	if err != nil || !ok {
		return models.ScanResult{}, false
	}
	res.Cached = true
	return res, true
}

func (o *Orchestrator) remember(ctx context.Context, key string, r models.Route, res models.ScanResult) {
	if res.Failed() {
		return
	}
	res.Cached = false
	if err := cache.SetJSON(ctx, o.store, key, res, o.ttl); err != nil {
		o.logger.Printf("cache write %s failed: %v", key, err)
		return
	}
	o.logger.Printf("cache STORED: %s (TTL: %s)", r, o.ttl)
}
