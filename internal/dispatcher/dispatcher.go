// Package dispatcher runs invocations either one at a time on the calling
// goroutine or concurrently on a fixed-size worker pool.
package dispatcher

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"yqhp/graph-loadtest/pkg/logger"
	"yqhp/graph-loadtest/pkg/types"
)

// DefaultWorkers is the pool size used when Options.Workers is not positive.
const DefaultWorkers = 10

// InvokeFunc executes one invocation and reports its result.
type InvokeFunc func(ctx context.Context, inv types.TaskInvocation) types.ExecutionResult

// Recorder receives exactly one result per started invocation.
type Recorder interface {
	Record(types.ExecutionResult)
}

// Options configures a Dispatcher.
type Options struct {
	Parallel bool
	Workers  int
}

// Stats summarizes one Dispatch call.
type Stats struct {
	// Submitted is the number of invocations handed to Dispatch.
	Submitted int
	// Started is the number that began executing and produced a result.
	Started int
	// Skipped is the number that never began because ctx was cancelled.
	Skipped int
}

// newPool is swapped in tests.
var newPool = func(size int, opts ...ants.Option) (*ants.Pool, error) {
	return ants.NewPool(size, opts...)
}

// Dispatcher fans invocations out to an InvokeFunc.
type Dispatcher struct {
	opts     Options
	recorder Recorder
}

// New creates a Dispatcher. A nil recorder discards results.
func New(opts Options, recorder Recorder) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Dispatcher{opts: opts, recorder: recorder}
}

// Workers returns the effective pool size.
func (d *Dispatcher) Workers() int {
	return d.opts.Workers
}

// Dispatch runs every invocation through fn and blocks until all started
// invocations completed. A failing or panicking invocation never prevents
// the others from running. Once ctx is cancelled, invocations that have not
// started are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, invs []types.TaskInvocation, fn InvokeFunc) (Stats, error) {
	stats := Stats{Submitted: len(invs)}
	if len(invs) == 0 {
		return stats, nil
	}

	var started int64
	var err error
	if d.opts.Parallel {
		err = d.dispatchParallel(ctx, invs, fn, &started)
	} else {
		d.dispatchSequential(ctx, invs, fn, &started)
	}

	stats.Started = int(atomic.LoadInt64(&started))
	stats.Skipped = stats.Submitted - stats.Started
	if stats.Skipped > 0 {
		logger.Warn("invocations skipped after cancellation",
			zap.Int("skipped", stats.Skipped),
			zap.Int("started", stats.Started))
	}
	return stats, err
}

func (d *Dispatcher) dispatchSequential(ctx context.Context, invs []types.TaskInvocation, fn InvokeFunc, started *int64) {
	for _, inv := range invs {
		if ctx.Err() != nil {
			return
		}
		atomic.AddInt64(started, 1)
		d.invoke(ctx, inv, fn)
	}
}

func (d *Dispatcher) dispatchParallel(ctx context.Context, invs []types.TaskInvocation, fn InvokeFunc, started *int64) error {
	pool, err := newPool(d.opts.Workers, ants.WithPanicHandler(func(r any) {
		logger.Error("worker panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
	}))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	logger.Debug("worker pool started", zap.Int("workers", d.opts.Workers), zap.Int("invocations", len(invs)))

	var wg sync.WaitGroup
	for _, inv := range invs {
		if ctx.Err() != nil {
			break
		}
		inv := inv
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			atomic.AddInt64(started, 1)
			d.invoke(ctx, inv, fn)
		})
		if submitErr != nil {
			wg.Done()
			logger.Error("submit invocation failed", zap.String("invocation", inv.String()), zap.Error(submitErr))
		}
	}
	wg.Wait()
	return nil
}

// invoke runs fn for one invocation and records its result. A panic inside
// fn becomes a failed result.
func (d *Dispatcher) invoke(ctx context.Context, inv types.TaskInvocation, fn InvokeFunc) {
	result := d.safeInvoke(ctx, inv, fn)
	if d.recorder != nil {
		d.recorder.Record(result)
	}
}

func (d *Dispatcher) safeInvoke(ctx context.Context, inv types.TaskInvocation, fn InvokeFunc) (result types.ExecutionResult) {
	startedAt := time.Now()
	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{Invocation: inv.String(), Value: r, Stack: debug.Stack()}
			logger.Error("invocation panic recovered",
				zap.String("invocation", perr.Invocation),
				zap.Any("panic", r),
				zap.ByteString("stack", perr.Stack))

			result = types.ExecutionResult{
				Sequence:  inv.Sequence,
				Outcome:   types.OutcomeFailed,
				StartedAt: startedAt,
				Duration:  time.Since(startedAt),
				Error:     perr.Error(),
			}
			if inv.Task != nil {
				result.TaskName = inv.Task.Name
				result.Kind = inv.Task.Kind
			}
		}
	}()
	return fn(ctx, inv)
}
