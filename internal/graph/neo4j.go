package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"yqhp/graph-loadtest/pkg/logger"
)

// Neo4jGraph opens sessions through one shared driver. The driver owns the
// connection pool and is safe for concurrent use.
type Neo4jGraph struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jGraph creates the driver. Connectivity is verified eagerly but a
// failure is only logged: each invocation reports its own connection error.
func NewNeo4jGraph(ctx context.Context, opts Options) (*Neo4jGraph, error) {
	auth := neo4j.NoAuth()
	if opts.User != "" {
		auth = neo4j.BasicAuth(opts.User, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		logger.Warn("neo4j connectivity check failed",
			zap.String("uri", opts.URI),
			zap.Error(err))
	} else {
		logger.Info("neo4j connected", zap.String("uri", opts.URI))
	}

	return &Neo4jGraph{driver: driver, database: opts.Database}, nil
}

// OpenSession implements SessionFactory.
func (g *Neo4jGraph) OpenSession(ctx context.Context, mode AccessMode) (Session, error) {
	accessMode := neo4j.AccessModeWrite
	if mode == AccessRead {
		accessMode = neo4j.AccessModeRead
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   accessMode,
		DatabaseName: g.database,
	})
	return &neo4jSession{session: session}, nil
}

// Close closes the driver and its pool.
func (g *Neo4jGraph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

type neo4jSession struct {
	session neo4j.SessionWithContext
}

func (s *neo4jSession) BeginTransaction(ctx context.Context, opts TxOptions) (Transaction, error) {
	var configurers []func(*neo4j.TransactionConfig)
	if opts.Timeout > 0 {
		configurers = append(configurers, neo4j.WithTxTimeout(opts.Timeout))
	}

	tx, err := s.session.BeginTransaction(ctx, configurers...)
	if err != nil {
		return nil, err
	}
	return &neo4jTx{tx: tx}, nil
}

func (s *neo4jSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

type neo4jTx struct {
	tx neo4j.ExplicitTransaction
}

func (t *neo4jTx) Run(ctx context.Context, statement string, params map[string]any) (*Result, error) {
	res, err := t.tx.Run(ctx, statement, params)
	if err != nil {
		return nil, err
	}

	keys, err := res.Keys()
	if err != nil {
		return nil, err
	}

	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}

	out := &Result{Keys: keys, Records: make([]map[string]any, 0, len(records))}
	for _, rec := range records {
		row := make(map[string]any, len(rec.Keys))
		for i, k := range rec.Keys {
			row[k] = rec.Values[i]
		}
		out.Records = append(out.Records, row)
	}
	return out, nil
}

func (t *neo4jTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *neo4jTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *neo4jTx) Close(ctx context.Context) error {
	return t.tx.Close(ctx)
}
