package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("session is closed")
	// ErrTxClosed is returned when a finished transaction is used.
	ErrTxClosed = errors.New("transaction is already closed")
	// ErrTxOpen is returned when a session already has an open transaction.
	ErrTxOpen = errors.New("session already has an open transaction")
	// ErrWriteInReadMode mirrors the server refusing writes in read sessions.
	ErrWriteInReadMode = errors.New("writing in read access mode not allowed")
)

var writeClause = regexp.MustCompile(`(?i)\b(CREATE|MERGE|SET|DELETE|REMOVE|DROP)\b`)

// MemoryGraph is an in-process SessionFactory. Each committed write statement
// is stored verbatim as a fact; read statements return the visible fact
// count. Transactions buffer their writes and apply them atomically on
// commit, so a rollback leaves the committed facts untouched.
type MemoryGraph struct {
	mu    sync.Mutex
	facts []string

	failOpen     error
	failBegin    error
	failCommit   error
	failRollback error
	failOn       func(statement string) error
	delay        time.Duration

	openSessions int
	peakSessions int
	commits      int
	rollbacks    int
}

// NewMemoryGraph returns an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{}
}

// Seed appends committed facts directly.
func (g *MemoryGraph) Seed(facts ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.facts = append(g.facts, facts...)
}

// FailOpen makes every OpenSession fail with err (nil clears it).
func (g *MemoryGraph) FailOpen(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failOpen = err
}

// FailBegin makes every BeginTransaction fail with err (nil clears it).
func (g *MemoryGraph) FailBegin(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failBegin = err
}

// FailCommit makes every Commit fail with err (nil clears it). The
// buffered writes are discarded and nothing is applied.
func (g *MemoryGraph) FailCommit(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failCommit = err
}

// FailRollback makes every Rollback fail with err (nil clears it).
func (g *MemoryGraph) FailRollback(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failRollback = err
}

// FailOn installs a hook consulted before each statement runs.
func (g *MemoryGraph) FailOn(fn func(statement string) error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failOn = fn
}

// Delay makes every statement sleep for d.
func (g *MemoryGraph) Delay(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
}

// Facts returns a copy of the committed facts in commit order.
func (g *MemoryGraph) Facts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.facts))
	copy(out, g.facts)
	return out
}

// Fingerprint hashes the committed state.
func (g *MemoryGraph) Fingerprint() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	h := sha256.New()
	for _, f := range g.facts {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// OpenSessions returns the number of sessions not yet closed.
func (g *MemoryGraph) OpenSessions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.openSessions
}

// PeakSessions returns the highest number of simultaneously open sessions.
func (g *MemoryGraph) PeakSessions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peakSessions
}

// Commits returns the number of committed transactions.
func (g *MemoryGraph) Commits() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.commits
}

// Rollbacks returns the number of rolled back transactions.
func (g *MemoryGraph) Rollbacks() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rollbacks
}

// OpenSession implements SessionFactory.
func (g *MemoryGraph) OpenSession(ctx context.Context, mode AccessMode) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failOpen != nil {
		return nil, g.failOpen
	}
	g.openSessions++
	if g.openSessions > g.peakSessions {
		g.peakSessions = g.openSessions
	}
	return &memSession{graph: g, mode: mode}, nil
}

// Close implements SessionFactory.
func (g *MemoryGraph) Close(ctx context.Context) error {
	return nil
}

type memSession struct {
	graph  *MemoryGraph
	mode   AccessMode
	tx     *memTx
	closed bool
}

func (s *memSession) BeginTransaction(ctx context.Context, opts TxOptions) (Transaction, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx != nil && !s.tx.done {
		return nil, ErrTxOpen
	}

	s.graph.mu.Lock()
	failBegin := s.graph.failBegin
	s.graph.mu.Unlock()
	if failBegin != nil {
		return nil, failBegin
	}

	s.tx = &memTx{session: s}
	return s.tx, nil
}

func (s *memSession) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	if s.tx != nil && !s.tx.done {
		_ = s.tx.Rollback(ctx)
	}
	s.closed = true

	s.graph.mu.Lock()
	s.graph.openSessions--
	s.graph.mu.Unlock()
	return nil
}

type memTx struct {
	session *memSession
	pending []string
	done    bool
}

func (t *memTx) Run(ctx context.Context, statement string, params map[string]any) (*Result, error) {
	if t.done {
		return nil, ErrTxClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := t.session.graph
	g.mu.Lock()
	failOn, delay := g.failOn, g.delay
	g.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failOn != nil {
		if err := failOn(statement); err != nil {
			return nil, err
		}
	}

	if writeClause.MatchString(statement) {
		if t.session.mode == AccessRead {
			return nil, ErrWriteInReadMode
		}
		t.pending = append(t.pending, strings.TrimSpace(statement))
		return &Result{}, nil
	}

	g.mu.Lock()
	visible := len(g.facts) + len(t.pending)
	g.mu.Unlock()
	return &Result{
		Keys:    []string{"count"},
		Records: []map[string]any{{"count": int64(visible)}},
	}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true

	g := t.session.graph
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCommit != nil {
		t.pending = nil
		return g.failCommit
	}
	g.facts = append(g.facts, t.pending...)
	g.commits++
	t.pending = nil
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	t.pending = nil

	g := t.session.graph
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRollback != nil {
		return g.failRollback
	}
	g.rollbacks++
	return nil
}

func (t *memTx) Close(ctx context.Context) error {
	if t.done {
		return nil
	}
	return t.Rollback(ctx)
}
