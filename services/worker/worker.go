package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"sjsage522/skinpricer/helpers"
	"sjsage522/skinpricer/internal/pricing"
	"sjsage522/skinpricer/internal/resolver"
	"sjsage522/skinpricer/logger"
	apperrors "sjsage522/skinpricer/pkg/errors"
	"sjsage522/skinpricer/services/publisher"
	"sjsage522/skinpricer/services/store"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers = 6
	streamKey      = "quote"
)

// ErrNoVariantPrice marks an item whose page held no matching variant price
var ErrNoVariantPrice = errors.New("no variant price found")

// Resolver resolves one item name
type Resolver interface {
	Resolve(ctx context.Context, name string) (resolver.Result, error)
}

// Options configures a Worker. Publisher, Store and Failures are optional.
type Options struct {
	Workers   int
	Publisher publisher.Publisher
	Store     store.Store
	Failures  helpers.LoggerInterface
}

// Worker resolves batches of item names with bounded concurrency
type Worker struct {
	resolver  Resolver
	publisher publisher.Publisher
	store     store.Store
	failures  helpers.LoggerInterface
	workers   int
	log       *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(res Resolver, opts Options) *Worker {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Worker{
		resolver:  res,
		publisher: opts.Publisher,
		store:     opts.Store,
		failures:  opts.Failures,
		workers:   opts.Workers,
		log:       logger.ForWorker(),
	}
}

// RunOnce resolves names, retries once every item still lacking a variant
// price (except those that failed permanently), then publishes and stores
// the results. Results come back sorted by
// market price, cheapest first, with unpriced items last.
func (w *Worker) RunOnce(ctx context.Context, names []string) ([]resolver.Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	log := w.log.WithField("run_id", runID)

	results := make([]resolver.Result, len(names))
	errs := make([]error, len(names))

	all := make([]int, len(names))
	for i := range names {
		all[i] = i
	}
	if err := w.resolveAll(ctx, names, all, results, errs); err != nil {
		return nil, err
	}

	if retry := needsRetry(results, errs); len(retry) > 0 {
		log.Info().Int("items", len(retry)).Msg("Retrying items without a variant price")
		if err := w.resolveAll(ctx, names, retry, results, errs); err != nil {
			return nil, err
		}
	}

	unresolved := 0
	for i := range results {
		results[i].RunID = runID
		err := errs[i]
		if err == nil && results[i].Quote.VariantPrice == "" {
			err = ErrNoVariantPrice
		}
		if err != nil {
			unresolved++
			results[i].Error = err.Error()
			log.Debug().
				Str("item", names[i]).
				Str("error_type", string(apperrors.TypeOf(err))).
				Bool("retryable", apperrors.IsRetryable(err)).
				Msg("Item unresolved after retry pass")
			if w.failures != nil {
				w.failures.LogError(names[i], err)
			}
		}
	}

	SortByMarketPrice(results)

	w.publish(ctx, results)
	if w.store != nil {
		if err := w.store.SaveResults(ctx, results); err != nil {
			log.Error().Err(err).Msg("Failed to save quote history")
		}
	}

	log.Info().
		Int("items", len(names)).
		Int("unresolved", unresolved).
		Dur("elapsed", time.Since(start)).
		Msg("Run finished")
	if w.failures != nil {
		w.failures.LogInfo("run %s: %d items, %d unresolved", runID, len(names), unresolved)
	}
	return results, nil
}

// resolveAll resolves names[i] for every i in indices, writing into results
// and errs. Only context cancellation aborts the batch.
func (w *Worker) resolveAll(ctx context.Context, names []string, indices []int, results []resolver.Result, errs []error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for _, i := range indices {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := w.resolver.Resolve(gctx, names[i])
			results[i] = result
			errs[i] = err
			if err != nil {
				w.log.Warn().Err(err).Str("item", names[i]).Msg("Resolve failed")
				return nil
			}

			w.log.Debug().
				Str("item", names[i]).
				Str("price", result.Quote.VariantPrice).
				Str("market", result.Quote.MarketName).
				Str("market_price", result.Quote.MarketPrice).
				Msg("Item resolved")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	return ctx.Err()
}

func (w *Worker) publish(ctx context.Context, results []resolver.Result) {
	if w.publisher == nil {
		return
	}

	for _, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			w.log.Error().Err(err).Str("item", r.Name).Msg("Failed to encode result")
			continue
		}
		if err := w.publisher.Publish(ctx, streamKey, data); err != nil {
			logger.ForPublisher().Error().Err(err).Str("item", r.Name).Msg("Failed to publish result")
		}
	}

	if err := w.publisher.TrimStreams(ctx); err != nil {
		logger.ForPublisher().Error().Err(err).Msg("Failed to trim streams")
	}
}

// Schedule runs the batch from load on every tick of the cron spec until
// ctx is cancelled. The batch also runs once immediately.
func (w *Worker) Schedule(ctx context.Context, spec string, load func() ([]string, error)) error {
	run := func() {
		names, err := load()
		if err != nil {
			w.log.Error().Err(err).Msg("Failed to load items")
			return
		}
		if _, err := w.RunOnce(ctx, names); err != nil {
			w.log.Error().Err(err).Msg("Run aborted")
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, run); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	run()
	c.Start()
	w.log.Info().Str("schedule", spec).Msg("Scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	w.log.Info().Msg("Scheduler stopped")
	return nil
}

// SortByMarketPrice orders results by market price, cheapest first.
// Results whose market price is not a number keep their relative order at the end.
func SortByMarketPrice(results []resolver.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return marketUSD(results[i]) < marketUSD(results[j])
	})
}

func marketUSD(r resolver.Result) float64 {
	if v, ok := pricing.ParseUSD(r.Quote.MarketPrice); ok {
		return v
	}
	return math.Inf(1)
}

// needsRetry lists the items without a variant price. Items whose error is a
// known non-retryable failure (validation, parsing) are left out.
func needsRetry(results []resolver.Result, errs []error) []int {
	var retry []int
	for i, r := range results {
		if r.Quote.Priced() {
			continue
		}
		if err := errs[i]; apperrors.TypeOf(err) != "" && !apperrors.IsRetryable(err) {
			continue
		}
		retry = append(retry, i)
	}
	return retry
}
