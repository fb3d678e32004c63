package converter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Engine runs queued jobs on a fixed pool of workers and aggregates their results.
type Engine struct {
	opts     *Options
	logger   *slog.Logger
	hooks    Hooks
	operator Operator
	workers  int
	interval time.Duration
}

// NewEngine creates an Engine that applies operator to every job.
func NewEngine(opts *Options, operator Operator) (*Engine, error) { // minimal comment
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfigValidation)
	}
	if operator == nil {
		return nil, fmt.Errorf("%w: Operator cannot be nil", ErrConfigValidation)
	}
	hooks := opts.EventHooks
	if hooks == nil {
		hooks = &NoOpHooks{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Engine{
		opts:     opts,
		logger:   slog.New(opts.Logger).With(slog.String("component", "engine")),
		hooks:    hooks,
		operator: operator,
		workers:  workers,
		interval: interval,
	}, nil
}

// Run processes jobs and returns the report once every worker has exited.
// Per-job failures are recorded, never returned. Cancelling ctx stops
// workers from taking further jobs; running tools are killed.
func (e *Engine) Run(ctx context.Context, jobs []Job) Report {
	startTime := time.Now()
	e.logger.Info("Starting run", slog.Int("jobs", len(jobs)), slog.Int("workers", e.workers), slog.String("mode", string(e.opts.Mode)))

	// every job is queued before any worker starts; an empty channel means done
	jobChan := make(chan Job, len(jobs))
	for _, j := range jobs {
		jobChan <- j
	}
	close(jobChan)

	resultsChan := make(chan TileResult, e.workers)
	agg := newReportAggregator(len(jobs))
	aggregatorDone := make(chan struct{})
	go e.aggregateResults(agg, resultsChan, aggregatorDone)

	var wg sync.WaitGroup
	e.logger.Debug("Starting worker pool", "count", e.workers)
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, i, jobChan, resultsChan)
	}
	wg.Wait()
	close(resultsChan)
	<-aggregatorDone

	report := agg.getReport(e.opts, startTime, ctx.Err() != nil)
	report.Summary.Workers = e.workers
	e.logger.Info(fmt.Sprintf("Processed %d tiles in %.1f seconds", report.Summary.Attempted, report.Summary.DurationSeconds),
		slog.Int("succeeded", report.Summary.Succeeded),
		slog.Int("failed", report.Summary.Failed),
		slog.Bool("cancelled", report.Summary.Cancelled),
	)
	return report
}

// worker drains jobChan until it is empty or ctx is cancelled.
func (e *Engine) worker(ctx context.Context, wg *sync.WaitGroup, workerID int, jobChan <-chan Job, resultsChan chan<- TileResult) { // minimal comment
	defer wg.Done()
	wLogger := e.logger.With(slog.Int("workerID", workerID))
	wLogger.Debug("Worker started")

	for {
		if ctx.Err() != nil {
			wLogger.Debug("Worker shutting down (context cancelled)")
			return
		}
		job, ok := <-jobChan
		if !ok {
			wLogger.Debug("Worker shutting down (queue empty)")
			return
		}
		resultsChan <- e.runJob(ctx, wLogger, workerID, job)
	}
}

// runJob applies the operator to one job. A panic becomes a failed result.
func (e *Engine) runJob(ctx context.Context, wLogger *slog.Logger, workerID int, job Job) (res TileResult) {
	path := job.Tile.Path()
	res = TileResult{Path: path, Action: job.Action, WorkerID: workerID}
	wLogger.Info(fmt.Sprintf("worker %d --> %s", workerID, path))
	e.notify(path, StatusProcessing, "", 0)

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				wLogger.Error("Panic recovered in tile job", slog.String("tile", path), slog.Any("panicValue", r))
				err = fmt.Errorf("%w: %v", ErrJobPanic, r)
			}
		}()
		switch job.Action {
		case ActionConvert:
			return e.operator.Convert(ctx, job.Tile)
		case ActionUndo:
			return e.operator.Undo(ctx, job.Tile)
		case ActionCleanup:
			return e.operator.Cleanup(ctx, job.Tile)
		}
		return fmt.Errorf("unknown action %q", job.Action)
	}()
	elapsed := time.Since(start)
	res.DurationMs = elapsed.Milliseconds()

	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		wLogger.Warn("Tile job failed", slog.String("tile", path), slog.String("error", err.Error()))
	} else {
		res.Status = StatusSuccess
	}
	wLogger.Info(fmt.Sprintf("worker %d <-- %s", workerID, path))
	e.notify(path, res.Status, res.Error, elapsed)
	return res
}

func (e *Engine) notify(path string, status Status, message string, d time.Duration) {
	if err := e.hooks.OnTileStatusUpdate(path, status, message, d); err != nil {
		e.logger.Warn("OnTileStatusUpdate hook returned an error", slog.String("tile", path), slog.String("error", err.Error()))
	}
}

// aggregateResults is the only reader of resultsChan. Progress is logged as
// results arrive, at most once per interval, plus once at the end.
func (e *Engine) aggregateResults(agg *reportAggregator, resultsChan <-chan TileResult, done chan<- struct{}) { // minimal comment
	defer close(done)
	var lastLog time.Time
	for r := range resultsChan {
		agg.add(r)
		if now := time.Now(); now.Sub(lastLog) >= e.interval {
			lastLog = now
			e.logProgress(agg)
		}
	}
	e.logProgress(agg)
}

func (e *Engine) logProgress(agg *reportAggregator) {
	done, total := agg.progress()
	pct := 100.0
	if total > 0 {
		pct = 100 * float64(done) / float64(total)
	}
	e.logger.Info(fmt.Sprintf("%d/%d = %0.1f%% processed", done, total, pct))
}

// --- reportAggregator ---

// reportAggregator collects results during the run.
type reportAggregator struct {
	mu      sync.Mutex
	queued  int
	results []TileResult
	errors  []ErrorInfo
	success int
}

func newReportAggregator(queued int) *reportAggregator { // minimal comment
	return &reportAggregator{queued: queued, results: make([]TileResult, 0, queued)}
}

func (a *reportAggregator) add(r TileResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, r)
	if r.Status == StatusSuccess {
		a.success++
	} else {
		a.errors = append(a.errors, ErrorInfo{Path: r.Path, Error: r.Error})
	}
}

func (a *reportAggregator) progress() (done, total int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results), a.queued
}

// getReport compiles the final Report. Slices are copied.
func (a *reportAggregator) getReport(opts *Options, startTime time.Time, cancelled bool) Report { // minimal comment
	a.mu.Lock()
	defer a.mu.Unlock()
	tiles := make([]TileResult, len(a.results))
	copy(tiles, a.results)
	errs := make([]ErrorInfo, len(a.errors))
	copy(errs, a.errors)

	return Report{
		Summary: ReportSummary{
			Mode:            opts.Mode,
			Root:            opts.Root,
			ConfigFilePath:  opts.ConfigFilePath,
			Queued:          a.queued,
			Attempted:       len(a.results),
			Succeeded:       a.success,
			Failed:          len(a.results) - a.success,
			Workers:         opts.Workers,
			DryRun:          opts.DryRun,
			Cancelled:       cancelled && len(a.results) < a.queued,
			DurationSeconds: time.Since(startTime).Seconds(),
			Timestamp:       time.Now().UTC(),
			SchemaVersion:   ReportSchemaVersion,
		},
		Tiles:  tiles,
		Errors: errs,
	}
}
