package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"yqhp/graph-loadtest/pkg/types"
)

// CQL holds the `cql` value of a query: either a scalar statement or an
// ordered sequence of statements.
type CQL struct {
	types.Statements
}

// UnmarshalYAML accepts a string or a sequence of strings.
func (c *CQL) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		c.Statements = types.SingleStatement(s)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("line %d: cql list must contain strings: %w", value.Line, err)
		}
		c.Statements = types.StatementList(list...)
		return nil
	default:
		return fmt.Errorf("line %d: cql must be a string or a list of strings", value.Line)
	}
}

// MarshalYAML writes the scalar or list form back.
func (c CQL) MarshalYAML() (interface{}, error) {
	if c.Single() {
		return c.All()[0], nil
	}
	return c.All(), nil
}

// IsZero lets omitempty drop an unset value.
func (c CQL) IsZero() bool {
	return c.Len() == 0
}

// QuerySpec is one entry of the `queries` mapping.
type QuerySpec struct {
	Type string `yaml:"type"`
	CQL  CQL    `yaml:"cql,omitempty"`
	// CQLFiles is a glob; each matching file is one statement.
	CQLFiles string `yaml:"cql_files,omitempty"`

	resolved types.Statements
}

// QueryEntry pairs a task name with its spec.
type QueryEntry struct {
	Name string
	Spec QuerySpec
}

// QuerySet is the `queries` mapping with document order preserved.
type QuerySet struct {
	entries []QueryEntry
}

// NewQuerySet builds a set from entries in order.
func NewQuerySet(entries ...QueryEntry) QuerySet {
	qs := QuerySet{entries: make([]QueryEntry, len(entries))}
	copy(qs.entries, entries)
	return qs
}

// Len returns the number of queries.
func (q QuerySet) Len() int {
	return len(q.entries)
}

// Entries returns the entries in document order.
func (q QuerySet) Entries() []QueryEntry {
	out := make([]QueryEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Names returns the query names in document order.
func (q QuerySet) Names() []string {
	names := make([]string, 0, len(q.entries))
	for _, e := range q.entries {
		names = append(names, e.Name)
	}
	return names
}

// Get looks a query up by name.
func (q QuerySet) Get(name string) (QuerySpec, bool) {
	for _, e := range q.entries {
		if e.Name == name {
			return e.Spec, true
		}
	}
	return QuerySpec{}, false
}

// UnmarshalYAML decodes a mapping while keeping key order.
func (q *QuerySet) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		q.entries = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: queries must be a mapping of name to query", value.Line)
	}

	seen := make(map[string]bool, len(value.Content)/2)
	entries := make([]QueryEntry, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		name := keyNode.Value
		if seen[name] {
			return fmt.Errorf("line %d: duplicate query name %q", keyNode.Line, name)
		}
		seen[name] = true

		var spec QuerySpec
		if err := valNode.Decode(&spec); err != nil {
			return fmt.Errorf("query %q: %w", name, err)
		}
		entries = append(entries, QueryEntry{Name: name, Spec: spec})
	}
	q.entries = entries
	return nil
}

// MarshalYAML encodes the set as an ordered mapping.
func (q QuerySet) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range q.entries {
		var val yaml.Node
		if err := val.Encode(e.Spec); err != nil {
			return nil, fmt.Errorf("query %q: %w", e.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name},
			&val,
		)
	}
	return node, nil
}

// statements returns the effective statements: resolved files when
// cql_files is set, inline cql otherwise.
func (s QuerySpec) statements() types.Statements {
	if s.CQLFiles != "" {
		return s.resolved
	}
	return s.CQL.Statements
}
