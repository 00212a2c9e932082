package application

import (
	"context"
	"sync"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/logging"
	"github.com/bnema/dubco-cli/internal/ports"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type BulkItem struct {
	Identifier string
	Request    domain.APIRequest
}

// BulkOptions holds per-run policy.
type BulkOptions struct {
	// NotFoundIsSuccess counts a 404 as an already-done no-op. Used for
	// idempotent deletes; off by default so a missing item is reported.
	NotFoundIsSuccess bool
}

type ProgressFunc func(done, total int, result domain.BulkItemResult)

// Orchestrator runs independent API calls and aggregates their outcomes.
// Items run one at a time unless a concurrency above one is configured;
// either way results are reported in input order.
type Orchestrator struct {
	exec        ports.RequestExecutor
	concurrency int
	limiter     *rate.Limiter
	progress    ProgressFunc
}

type OrchestratorOption func(*Orchestrator)

func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRateLimit paces request starts to rps per second. Zero disables pacing.
func WithRateLimit(rps float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if rps > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithProgress(fn ProgressFunc) OrchestratorOption {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

func NewOrchestrator(exec ports.RequestExecutor, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{exec: exec, concurrency: 1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// With returns a copy of o with extra options applied.
func (o *Orchestrator) With(opts ...OrchestratorOption) *Orchestrator {
	clone := *o
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Run executes every item and returns the per-item summary. An item failure
// never stops the run. A structural error (not authenticated, corrupt
// credentials, cancellation) stops it; the summary then covers only the
// items that completed.
func (o *Orchestrator) Run(ctx context.Context, items []BulkItem, opts BulkOptions) (domain.BulkSummary, error) {
	results := make([]domain.BulkItemResult, len(items))
	completed := make([]bool, len(items))

	var (
		progressMu sync.Mutex
		done       int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, item := range items {
		i, item := i, item
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if o.limiter != nil {
				if err := o.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			itemCtx := logging.WithRequestID(gctx, logging.GenerateRequestID())
			outcome, err := o.exec.Do(itemCtx, item.Request)
			if err != nil {
				return err
			}

			result := domain.BulkItemResult{Index: i, Identifier: item.Identifier, Outcome: outcome}

			progressMu.Lock()
			results[i] = result
			completed[i] = true
			done++
			if o.progress != nil {
				o.progress(done, len(items), result)
			}
			progressMu.Unlock()

			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	summary := summarize(results, completed, opts)
	if err != nil {
		log.Debugf("bulk: aborted after %d of %d items: %v", summary.Total(), len(items), err)
		return summary, err
	}

	log.Debugf("bulk: %d succeeded, %d failed", len(summary.Succeeded), len(summary.Failed))
	return summary, nil
}

func summarize(results []domain.BulkItemResult, completed []bool, opts BulkOptions) domain.BulkSummary {
	var summary domain.BulkSummary
	for i, result := range results {
		if !completed[i] {
			continue
		}
		if result.Outcome.OK() || (opts.NotFoundIsSuccess && result.Outcome.NotFound()) {
			summary.Succeeded = append(summary.Succeeded, result)
			continue
		}
		summary.Failed = append(summary.Failed, result)
	}
	return summary
}
