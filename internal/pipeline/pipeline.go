package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/couchcryptid/space-weather-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Source fetches and normalizes one upstream feed.
type Source interface {
	// Name identifies the source in logs, metrics, and run status.
	Name() string
	// Default is the contribution used when the source degrades.
	Default() domain.Contribution
	// Collect fetches and normalizes the feed. On error the returned
	// contribution is ignored and Default is used instead.
	Collect(ctx context.Context) (domain.Contribution, error)
}

// MultiAttemptSource is implemented by sources that may make more than one
// sequential fetch per run. Each attempt gets the full per-source timeout.
type MultiAttemptSource interface {
	Source
	Attempts() int
}

// SnapshotWriter persists one snapshot document.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, name string, document any) error
}

// State is the lifecycle state of the pipeline.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Pipeline orchestrates the fetch-classify-write run.
type Pipeline struct {
	sources   []Source
	assembler *Assembler
	writer    SnapshotWriter
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	timeout   time.Duration

	state atomic.Int32
	ready atomic.Bool

	mu         sync.Mutex
	lastStatus *domain.RunStatus
}

// New creates a Pipeline. timeout bounds each source fetch independently.
// clock stamps every snapshot of a run.
func New(sources []Source, assembler *Assembler, writer SnapshotWriter, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, timeout time.Duration) *Pipeline {
	return &Pipeline{
		sources:   sources,
		assembler: assembler,
		writer:    writer,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		timeout:   timeout,
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// CheckReadiness returns nil once at least one run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastStatus returns the status of the most recent run, if any.
func (p *Pipeline) LastStatus() (domain.RunStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastStatus == nil {
		return domain.RunStatus{}, false
	}
	return *p.lastStatus, true
}

// outcome is the settled result of one source.
type outcome struct {
	source       string
	contribution domain.Contribution
	err          error
	elapsed      time.Duration
}

// Run executes one pipeline run: collect every source concurrently, then
// classify, assemble and write. Source failures degrade the run; only a
// write failure or an assembly defect faults it.
func (p *Pipeline) Run(ctx context.Context) (domain.RunStatus, error) {
	if !p.begin() {
		return domain.RunStatus{}, ErrRunInProgress
	}
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	defer func() { p.metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	p.logger.Info("pipeline run started", "sources", len(p.sources))

	var readings domain.Readings
	sources := make([]string, 0, len(p.sources)+1)
	var degraded []string
	for _, o := range p.collect(ctx) {
		o.contribution.Apply(&readings)
		sources = append(sources, o.source)
		if o.err != nil {
			degraded = append(degraded, o.source)
		}
	}
	sources = append(sources, MeteorSourceName)

	now := p.clock.Now().UTC()
	status, err := p.publish(ctx, readings, now, sources, degraded)
	if err != nil {
		return p.fault(ctx, now, sources, degraded, err)
	}

	p.finish(StateCompleted, status)
	p.ready.Store(true)
	p.metrics.RunsTotal.WithLabelValues("completed").Inc()
	p.metrics.LastSuccess.Set(float64(now.Unix()))
	p.metrics.KpIndex.Set(readings.CurrentKp())
	p.metrics.Dst.Set(readings.Dst.Dst)
	p.metrics.XrayFlux.Set(readings.Xray.Flux)
	p.logger.Info("pipeline run completed",
		"degraded", len(degraded),
		"duration", time.Since(start),
	)
	return status, nil
}

func (p *Pipeline) begin() bool {
	for {
		cur := p.state.Load()
		if State(cur) == StateRunning {
			return false
		}
		if p.state.CompareAndSwap(cur, int32(StateRunning)) {
			return true
		}
	}
}

func (p *Pipeline) finish(s State, status domain.RunStatus) {
	p.mu.Lock()
	p.lastStatus = &status
	p.mu.Unlock()
	p.state.Store(int32(s))
}

// collect fans out to every source and waits for all of them to settle.
func (p *Pipeline) collect(ctx context.Context) []outcome {
	outcomes := make([]outcome, len(p.sources))
	var g errgroup.Group
	for i, src := range p.sources {
		g.Go(func() error {
			outcomes[i] = p.collectOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors; failures are carried in outcomes
	return outcomes
}

// collectOne runs one source under its own deadline, scaled by the number of
// sequential fetches the source may make. A source that has not returned by
// the deadline resolves to its default; its goroutine is left to finish on
// its own and its late result is dropped.
func (p *Pipeline) collectOne(parent context.Context, src Source) outcome {
	timeout := p.timeout
	if m, ok := src.(MultiAttemptSource); ok && m.Attempts() > 1 {
		timeout *= time.Duration(m.Attempts())
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("source panicked: %v", r)}
			}
		}()
		c, err := src.Collect(ctx)
		done <- outcome{contribution: c, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = outcome{err: fmt.Errorf("source did not settle: %w", ctx.Err())}
	}
	out.source = src.Name()
	out.elapsed = time.Since(start)
	if out.err == nil && out.contribution == nil {
		out.err = errors.New("source returned no contribution")
	}
	if out.err != nil {
		out.contribution = src.Default()
	}

	p.metrics.SourceDuration.WithLabelValues(out.source).Observe(out.elapsed.Seconds())
	if out.err != nil {
		p.metrics.SourceFetches.WithLabelValues(out.source, "degraded").Inc()
		p.logger.Warn("source degraded, using default",
			"source", out.source,
			"error", out.err,
			"elapsed", out.elapsed,
		)
	} else {
		p.metrics.SourceFetches.WithLabelValues(out.source, "ok").Inc()
		p.logger.Debug("source collected", "source", out.source, "elapsed", out.elapsed)
	}
	return out
}

// publish assembles and writes every snapshot, then the run status. A panic
// in the assembler or a writer is converted into an error so the run faults
// instead of staying in StateRunning.
func (p *Pipeline) publish(ctx context.Context, r domain.Readings, now time.Time, sources, degraded []string) (status domain.RunStatus, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("publish snapshots: %v", rec)
		}
	}()

	for _, s := range p.assembler.Assemble(r, now) {
		if err := p.write(ctx, s.Name, s.Document); err != nil {
			return domain.RunStatus{}, err
		}
	}

	status = p.assembler.Status(r, now, sources, degraded)
	if err := p.write(ctx, domain.SnapshotStatus, status); err != nil {
		return domain.RunStatus{}, err
	}
	return status, nil
}

func (p *Pipeline) write(ctx context.Context, name string, document any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.metrics.WriteErrors.Inc()
			err = &domain.WriteError{Name: name, Err: fmt.Errorf("writer panicked: %v", rec)}
		}
	}()
	if err := p.writer.WriteSnapshot(ctx, name, document); err != nil {
		p.metrics.WriteErrors.Inc()
		var werr *domain.WriteError
		if !errors.As(err, &werr) {
			err = &domain.WriteError{Name: name, Err: err}
		}
		return err
	}
	p.metrics.SnapshotsWritten.WithLabelValues(name).Inc()
	return nil
}

// fault records a faulted run and makes one attempt to publish an error
// status. Snapshots already written are left in place.
func (p *Pipeline) fault(ctx context.Context, now time.Time, sources, degraded []string, cause error) (domain.RunStatus, error) {
	p.logger.Error("pipeline run faulted", "error", cause)
	status := FailureStatus(now, sources, degraded, cause)

	if err := p.write(context.WithoutCancel(ctx), domain.SnapshotStatus, status); err != nil {
		p.logger.Error("write error status failed", "error", err)
	}

	p.finish(StateFaulted, status)
	p.metrics.RunsTotal.WithLabelValues("faulted").Inc()
	return status, cause
}
