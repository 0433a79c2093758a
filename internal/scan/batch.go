package scan

import (
	"context"
	"log/slog"
	"sync"

	"github.com/phishguard/phishguard/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchInput is one email to score in a batch run.
type BatchInput struct {
	// Name identifies the input (usually a file path) in output and logs.
	Name string

	// Text is the raw email content.
	Text string
}

// BatchResult pairs a scored input with its result. Text carries the
// original email content so callers can render reports that quote it.
type BatchResult struct {
	Name   string
	Text   string
	Result *model.ScanResult
}

// BatchProcessor scores multiple emails concurrently.
//
// Design decision: the Engine is stateless across scans, so one shared
// Engine serves the whole batch; only the concurrency limit and result
// collection live here. Each scan keeps its own short-circuit semantics:
// a dangerous link ends that scan, not the batch.
type BatchProcessor struct {
	engine      *Engine
	concurrency int
	logger      *slog.Logger

	results []BatchResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithConcurrency sets the maximum number of concurrent scans.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// NewBatchProcessor creates a BatchProcessor over a shared Engine.
func NewBatchProcessor(engine *Engine, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		engine:      engine,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// Process scans all inputs, invoking callback once per completed scan with
// the input's index. Callbacks are serialized, so callers may write output
// or persist history without their own locking. Returns the context error
// if the batch was cancelled.
func (b *BatchProcessor) Process(ctx context.Context, inputs []BatchInput, callback func(result BatchResult, index int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, input := range inputs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			b.logger.Debug("batch scan started", "name", input.Name, "index", i)
			result := BatchResult{Name: input.Name, Text: input.Text, Result: b.engine.Scan(ctx, input.Text)}

			b.mu.Lock()
			b.results = append(b.results, result)
			if callback != nil {
				callback(result, i)
			}
			b.mu.Unlock()

			return nil
		})
	}

	return g.Wait()
}

// Results returns all completed scans in completion order.
func (b *BatchProcessor) Results() []BatchResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]BatchResult, len(b.results))
	copy(out, b.results)
	return out
}
