// Package executor runs one task invocation inside one explicit transaction
// and decides, by task kind, whether it commits or rolls back.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"yqhp/graph-loadtest/internal/graph"
	"yqhp/graph-loadtest/pkg/logger"
	"yqhp/graph-loadtest/pkg/types"
)

// State is a state of the per-invocation transaction state machine.
type State string

const (
	StateOpened            State = "opened"
	StateStatementsRunning State = "statements_running"
	StateCommitted         State = "committed"
	StateRolledBack        State = "rolled_back"
	StateFailed            State = "failed"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateRolledBack || s == StateFailed
}

// Options configures an Executor.
type Options struct {
	// TxTimeout is passed to every transaction; zero means none.
	TxTimeout time.Duration
}

// Execution is what one invocation produced.
type Execution struct {
	Result types.ExecutionResult
	// Records is the result of the statement of a single-statement task that
	// committed. It is nil for list tasks, rollback tasks and failures.
	Records *graph.Result
	// Err is the failure cause when Result.Outcome is failed.
	Err error
	// Trace lists the states visited, in order.
	Trace []State
}

// State returns the last state reached.
func (e *Execution) State() State {
	if len(e.Trace) == 0 {
		return ""
	}
	return e.Trace[len(e.Trace)-1]
}

func (e *Execution) enter(s State) {
	e.Trace = append(e.Trace, s)
}

// Executor runs invocations against a SessionFactory. It holds no
// per-invocation state and is safe for concurrent use.
type Executor struct {
	sessions graph.SessionFactory
	opts     Options
}

// New creates an Executor.
func New(sessions graph.SessionFactory, opts Options) *Executor {
	return &Executor{sessions: sessions, opts: opts}
}

// Execute runs inv to a terminal state. It never returns an error: failures
// are reported through Execution.Result.Outcome and Execution.Err. The
// duration covers session open through session close. Cancelling ctx only
// stops an invocation whose session has not opened yet.
func (e *Executor) Execute(ctx context.Context, inv types.TaskInvocation) Execution {
	task := inv.Task
	exec := Execution{
		Result: types.ExecutionResult{
			TaskName:  task.Name,
			Sequence:  inv.Sequence,
			Kind:      task.Kind,
			StartedAt: time.Now(),
		},
	}

	err := e.withSession(ctx, task, func(session graph.Session) error {
		exec.enter(StateOpened)
		// 会话已打开即视为调用已开始：取消信号不再中断它，事务超时仍然生效
		return e.runTransaction(context.WithoutCancel(ctx), session, task, &exec)
	})
	exec.Result.Duration = time.Since(exec.Result.StartedAt)

	if err != nil {
		exec.enter(StateFailed)
		exec.Records = nil
		exec.Err = err
		exec.Result.Error = err.Error()
		logger.Error("invocation failed",
			zap.String("task", task.Name),
			zap.Int("sequence", inv.Sequence),
			zap.String("kind", string(task.Kind)),
			zap.Error(err))
	}
	exec.Result.Outcome = outcomeOf(exec.State())

	logger.Info(fmt.Sprintf("Finished %s with %s in %s secs.",
		types.MetricFunctionName, task.Name, types.NewMetricRow(exec.Result).FormattedTime()),
		zap.Int("sequence", inv.Sequence),
		zap.String("outcome", string(exec.Result.Outcome)))

	return exec
}

// withSession acquires a session, runs body and closes the session on every
// path. A session that failed to open is never closed.
func (e *Executor) withSession(ctx context.Context, task *types.QueryTask, body func(graph.Session) error) error {
	mode := graph.AccessWrite
	if task.Kind.ReadOnly() {
		mode = graph.AccessRead
	}

	session, err := e.sessions.OpenSession(ctx, mode)
	if err != nil {
		return NewConnectionError(task.Name, "open session failed", err)
	}
	defer func() {
		if cerr := session.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("close session failed", zap.String("task", task.Name), zap.Error(cerr))
		}
	}()

	return body(session)
}

func (e *Executor) runTransaction(ctx context.Context, session graph.Session, task *types.QueryTask, exec *Execution) error {
	tx, err := session.BeginTransaction(ctx, graph.TxOptions{Timeout: e.opts.TxTimeout})
	if err != nil {
		return NewConnectionError(task.Name, "begin transaction failed", err)
	}
	defer func() {
		if cerr := tx.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("close transaction failed", zap.String("task", task.Name), zap.Error(cerr))
		}
	}()

	exec.enter(StateStatementsRunning)

	var last *graph.Result
	for i, stmt := range task.Statements.All() {
		res, err := tx.Run(ctx, stmt, nil)
		if err != nil {
			rollbackQuietly(ctx, tx, task.Name)
			return NewStatementError(task.Name, i, err)
		}
		exec.Result.Statements++
		last = res
	}

	if task.Kind == types.KindRollback {
		if err := tx.Rollback(ctx); err != nil {
			return NewRollbackError(task.Name, err)
		}
		exec.enter(StateRolledBack)
		logger.Info("forced rollback completed",
			zap.String("task", task.Name),
			zap.Int("statements", exec.Result.Statements))
		return nil
	}

	if err := tx.Commit(ctx); err != nil {
		return NewCommitError(task.Name, err)
	}
	exec.enter(StateCommitted)

	if task.Statements.Single() {
		exec.Records = last
	}
	return nil
}

// rollbackQuietly reverts a transaction after a failure. Its own error is
// logged and dropped so the original cause is reported.
func rollbackQuietly(ctx context.Context, tx graph.Transaction, task string) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("rollback after failure failed", zap.String("task", task), zap.Error(err))
	}
}

func outcomeOf(s State) types.Outcome {
	switch s {
	case StateCommitted:
		return types.OutcomeCommitted
	case StateRolledBack:
		return types.OutcomeRolledBack
	default:
		return types.OutcomeFailed
	}
}
