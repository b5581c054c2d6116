package types

import (
	"fmt"
	"strings"
)

// QueryKind classifies a query task. It decides the session access mode and
// whether the transaction is committed or rolled back.
type QueryKind string

const (
	// KindRead runs in a read-access session and commits.
	KindRead QueryKind = "read"
	// KindWrite runs in a write-access session and commits.
	KindWrite QueryKind = "write"
	// KindRollback runs in a write-access session and is always rolled back,
	// even when every statement succeeds.
	KindRollback QueryKind = "rollback"
)

// ParseQueryKind parses a kind from its configuration spelling.
func ParseQueryKind(s string) (QueryKind, error) {
	switch QueryKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindRead:
		return KindRead, nil
	case KindWrite:
		return KindWrite, nil
	case KindRollback:
		return KindRollback, nil
	default:
		return "", fmt.Errorf("unknown query type %q (expected read, write or rollback)", s)
	}
}

// IsValid reports whether k is one of the known kinds.
func (k QueryKind) IsValid() bool {
	_, err := ParseQueryKind(string(k))
	return err == nil
}

// ReadOnly reports whether the task can run in a read-access session.
func (k QueryKind) ReadOnly() bool {
	return k == KindRead
}

// Statements is the ordered Cypher of a task. A task configured with a single
// scalar statement is kept distinct from a one-element list, because only
// single-statement tasks hand their result back to the caller.
type Statements struct {
	items []string
	list  bool
}

// SingleStatement builds Statements from one scalar statement.
func SingleStatement(stmt string) Statements {
	return Statements{items: []string{stmt}}
}

// StatementList builds Statements from an ordered list.
func StatementList(stmts ...string) Statements {
	items := make([]string, len(stmts))
	copy(items, stmts)
	return Statements{items: items, list: true}
}

// All returns a copy of the statements in execution order.
func (s Statements) All() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of statements.
func (s Statements) Len() int {
	return len(s.items)
}

// Single reports whether the statements came from a scalar value.
func (s Statements) Single() bool {
	return !s.list && len(s.items) == 1
}

// QueryTask is a named, classified unit of work loaded from configuration.
// It is never mutated after load.
type QueryTask struct {
	Name       string
	Kind       QueryKind
	Statements Statements
}

// TaskInvocation is one scheduled execution of a QueryTask.
type TaskInvocation struct {
	Task *QueryTask
	// Sequence is the 0-based position in the expanded invocation list.
	Sequence int
}

// String returns "name#sequence".
func (i TaskInvocation) String() string {
	if i.Task == nil {
		return fmt.Sprintf("<nil>#%d", i.Sequence)
	}
	return fmt.Sprintf("%s#%d", i.Task.Name, i.Sequence)
}
