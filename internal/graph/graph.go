// Package graph defines the session-scoped transaction contract the harness
// drives, with a Neo4j implementation and an in-memory one.
package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AccessMode is the session access mode.
type AccessMode int

const (
	// AccessWrite routes the session to a writer.
	AccessWrite AccessMode = iota
	// AccessRead routes the session to a reader.
	AccessRead
)

func (m AccessMode) String() string {
	if m == AccessRead {
		return "read"
	}
	return "write"
}

// TxOptions configures one explicit transaction.
type TxOptions struct {
	// Timeout is passed to the server; zero means no timeout.
	Timeout time.Duration
}

// Result is the buffered outcome of one statement.
type Result struct {
	Keys    []string
	Records []map[string]any
}

// SessionFactory opens sessions against one database. Implementations must
// be safe for concurrent use; sessions they return are not.
type SessionFactory interface {
	OpenSession(ctx context.Context, mode AccessMode) (Session, error)
	Close(ctx context.Context) error
}

// Session is a single-use, single-goroutine unit of work.
type Session interface {
	BeginTransaction(ctx context.Context, opts TxOptions) (Transaction, error)
	Close(ctx context.Context) error
}

// Transaction is an explicit transaction inside a session.
type Transaction interface {
	// Run executes one statement. Records are fully buffered so statement
	// errors surface here rather than at commit.
	Run(ctx context.Context, statement string, params map[string]any) (*Result, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options selects and configures a backend.
type Options struct {
	URI      string
	User     string
	Password string
	Database string
}

// Open returns the backend for opts.URI: an in-memory graph for memory://,
// the Neo4j driver otherwise.
func Open(ctx context.Context, opts Options) (SessionFactory, error) {
	u, err := url.Parse(opts.URI)
	if err != nil {
		return nil, fmt.Errorf("parse server uri: %w", err)
	}

	if strings.EqualFold(u.Scheme, "memory") {
		return NewMemoryGraph(), nil
	}
	return NewNeo4jGraph(ctx, opts)
}
