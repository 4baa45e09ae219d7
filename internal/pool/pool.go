// Package pool runs batches of independent simulation replicas in parallel
// and aggregates their DPS.
package pool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/donggangwhy/ClassicSim/internal/config"
	"github.com/donggangwhy/ClassicSim/internal/engine"
	"github.com/donggangwhy/ClassicSim/internal/equipment"
	"github.com/donggangwhy/ClassicSim/internal/random"
)

const tracerName = "github.com/donggangwhy/ClassicSim/internal/pool"

// ErrReplicaPanic marks a replica that panicked instead of returning.
var ErrReplicaPanic = errors.New("replica panicked")

// Runner simulates one replica of spec and returns its DPS.
type Runner func(ctx context.Context, spec *engine.Spec, seed int64) (float64, error)

// Record is the outcome of one replica: a DPS or an error, never both.
type Record struct {
	Replica int
	Seed    int64
	DPS     float64
	Err     error
	Elapsed time.Duration
}

// Failed reports whether the replica produced an error.
func (r Record) Failed() bool { return r.Err != nil }

// Batch sizes one run.
type Batch struct {
	Replicas    int
	Seed        int64
	Concurrency int
}

// BatchResult aggregates the successful replicas of one run.
type BatchResult struct {
	RunID     uuid.UUID
	Seed      int64
	Records   []Record
	Succeeded int
	Failed    int
	Mean      float64
	Min       float64
	Max       float64
	StdDev    float64
	Elapsed   time.Duration
}

// Err combines every replica failure, nil when all succeeded.
func (b *BatchResult) Err() error {
	var errs error
	for _, rec := range b.Records {
		if rec.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("replica %d: %w", rec.Replica, rec.Err))
		}
	}
	return errs
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConcurrency caps parallel replicas, overriding the setup.
func WithConcurrency(n int) Option {
	return func(p *Pool) { p.concurrency = n }
}

// WithRunner replaces the replica function.
func WithRunner(r Runner) Option {
	return func(p *Pool) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithOnResult registers a callback invoked as each replica completes. It
// may be called from several goroutines at once.
func WithOnResult(fn func(Record)) Option {
	return func(p *Pool) { p.onResult = fn }
}

// WithTracer sets the tracer used for batch and replica spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pool) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// WithReplicas fixes the replica count, overriding the setup.
func WithReplicas(n int) Option {
	return func(p *Pool) { p.replicas = n }
}

// WithBaseSeed fixes the base seed, overriding the setup.
func WithBaseSeed(seed int64) Option {
	return func(p *Pool) { p.baseSeed = seed }
}

// WithBaseDir resolves setup file references against dir.
func WithBaseDir(dir string) Option {
	return func(p *Pool) { p.baseDir = dir }
}

// WithEquipment shares db with every replica instead of loading the
// setup's equipment source per run.
func WithEquipment(db *equipment.DB) Option {
	return func(p *Pool) { p.db = db }
}

// Pool is the simulation thread pool. One Pool may run several batches
// concurrently.
type Pool struct {
	logger      *zap.Logger
	concurrency int
	replicas    int
	runner      Runner
	onResult    func(Record)
	tracer      trace.Tracer
	baseSeed    int64
	baseDir     string
	db          *equipment.DB

	running atomic.Int64
}

// New returns a pool running engine.RunReplica by default.
func New(opts ...Option) *Pool {
	p := &Pool{
		logger: zap.NewNop(),
		runner: engine.RunReplica,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Running returns the number of replicas not yet finished.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// RunSim parses setup once and runs its replicas. The error is non-nil only
// when the setup cannot be parsed or resolved; replica failures are
// reported in the result.
func (p *Pool) RunSim(ctx context.Context, setup string) (*BatchResult, error) {
	parsed, err := config.ParseSetup([]byte(setup))
	if err != nil {
		return nil, err
	}
	db := p.db
	if db == nil {
		if db, err = engine.LoadEquipment(ctx, parsed, p.baseDir); err != nil {
			return nil, fmt.Errorf("load equipment: %w", err)
		}
	}
	spec, err := engine.NewSpec(parsed, db, p.baseDir)
	if err != nil {
		return nil, err
	}
	replicas := parsed.Simulation.Replicas
	if p.replicas > 0 {
		replicas = p.replicas
	}
	return p.RunSpec(ctx, spec, Batch{
		Replicas:    replicas,
		Seed:        parsed.Simulation.Seed,
		Concurrency: parsed.Simulation.Concurrency,
	})
}

// RunSpec runs batch.Replicas replicas of an already resolved spec.
func (p *Pool) RunSpec(ctx context.Context, spec *engine.Spec, batch Batch) (*BatchResult, error) {
	if batch.Replicas < 1 {
		return nil, fmt.Errorf("replicas must be positive (%d)", batch.Replicas)
	}
	seed, err := p.seed(batch.Seed)
	if err != nil {
		return nil, err
	}
	limit := p.limit(batch.Concurrency)
	runID := uuid.New()

	ctx, span := p.tracer.Start(ctx, "pool.RunSim", trace.WithAttributes(
		attribute.String("run_id", runID.String()),
		attribute.Int("replicas", batch.Replicas),
		attribute.Int("concurrency", limit),
		attribute.Int64("seed", seed),
	))
	defer span.End()
	start := time.Now()

	records := make([]Record, batch.Replicas)
	p.running.Add(int64(batch.Replicas))
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range records {
		i := i
		g.Go(func() error {
			defer p.running.Add(-1)
			records[i] = p.runReplica(ctx, spec, i, random.ReplicaSeed(seed, i))
			if p.onResult != nil {
				p.onResult(records[i])
			}
			return nil
		})
	}
	// Workers record failures instead of returning them.
	g.Wait()

	result := aggregate(records)
	result.RunID = runID
	result.Seed = seed
	result.Elapsed = time.Since(start)

	span.SetAttributes(
		attribute.Int("succeeded", result.Succeeded),
		attribute.Int("failed", result.Failed),
		attribute.Float64("dps.mean", result.Mean),
	)
	if result.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d replicas failed", result.Failed))
	}
	p.logger.Info("batch finished",
		zap.String("run_id", runID.String()),
		zap.Int64("seed", seed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Float64("dps_mean", result.Mean),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

func (p *Pool) runReplica(ctx context.Context, spec *engine.Spec, replica int, seed int64) (rec Record) {
	rec = Record{Replica: replica, Seed: seed}
	if err := ctx.Err(); err != nil {
		rec.Err = err
		return rec
	}

	ctx, span := p.tracer.Start(ctx, "pool.replica", trace.WithAttributes(
		attribute.Int("replica", replica),
		attribute.Int64("seed", seed),
	))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			rec.DPS = 0
			rec.Err = fmt.Errorf("%w: %v", ErrReplicaPanic, r)
		}
		rec.Elapsed = time.Since(start)
		if rec.Err != nil {
			span.RecordError(rec.Err)
			span.SetStatus(codes.Error, rec.Err.Error())
			p.logger.Warn("replica failed",
				zap.Int("replica", replica),
				zap.Int64("seed", seed),
				zap.Error(rec.Err))
		} else {
			span.SetAttributes(attribute.Float64("dps", rec.DPS))
			p.logger.Debug("replica finished",
				zap.Int("replica", replica),
				zap.Float64("dps", rec.DPS),
				zap.Duration("elapsed", rec.Elapsed))
		}
		span.End()
	}()

	dps, err := p.runner(ctx, spec, seed)
	if err != nil {
		rec.Err = err
		return rec
	}
	rec.DPS = dps
	return rec
}

func (p *Pool) seed(fromSetup int64) (int64, error) {
	switch {
	case p.baseSeed != 0:
		return p.baseSeed, nil
	case fromSetup != 0:
		return fromSetup, nil
	default:
		return random.NewSeed()
	}
}

func (p *Pool) limit(fromSetup int) int {
	switch {
	case p.concurrency > 0:
		return p.concurrency
	case fromSetup > 0:
		return fromSetup
	default:
		return runtime.NumCPU()
	}
}

// aggregate computes statistics over the successful records. Min and Max
// are zero when nothing succeeded.
func aggregate(records []Record) *BatchResult {
	result := &BatchResult{Records: records}
	var sum float64
	for _, rec := range records {
		if rec.Failed() {
			result.Failed++
			continue
		}
		if result.Succeeded == 0 || rec.DPS < result.Min {
			result.Min = rec.DPS
		}
		if result.Succeeded == 0 || rec.DPS > result.Max {
			result.Max = rec.DPS
		}
		result.Succeeded++
		sum += rec.DPS
	}
	if result.Succeeded == 0 {
		return result
	}
	result.Mean = sum / float64(result.Succeeded)
	var squares float64
	for _, rec := range records {
		if !rec.Failed() {
			d := rec.DPS - result.Mean
			squares += d * d
		}
	}
	result.StdDev = math.Sqrt(squares / float64(result.Succeeded))
	return result
}
