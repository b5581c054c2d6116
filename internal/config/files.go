package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"

	"yqhp/graph-loadtest/pkg/types"
)

// ResolveFiles expands every cql_files glob into an ordered statement list.
// Relative patterns are resolved against baseDir. Matches are read in
// lexical order, one statement per file; blank files are skipped.
func ResolveFiles(cfg *RunConfig, baseDir string) error {
	for i := range cfg.Queries.entries {
		e := &cfg.Queries.entries[i]
		if e.Spec.CQLFiles == "" {
			continue
		}

		stmts, err := readStatementFiles(e.Spec.CQLFiles, baseDir)
		if err != nil {
			return fmt.Errorf("query %q: %w", e.Name, err)
		}
		e.Spec.resolved = types.StatementList(stmts...)
	}
	return nil
}

// ListFiles returns the files matching pattern under baseDir, sorted.
func ListFiles(pattern, baseDir string) ([]string, error) {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(baseDir, pattern)
	}

	matches, err := zglob.Glob(pattern)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cql_files %q matched no files", pattern)
		}
		return nil, fmt.Errorf("cql_files %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func readStatementFiles(pattern, baseDir string) ([]string, error) {
	matches, err := ListFiles(pattern, baseDir)
	if err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		stmt := strings.TrimSpace(string(data))
		if stmt == "" {
			continue
		}
		stmts = append(stmts, stmt)
	}

	if len(stmts) == 0 {
		return nil, fmt.Errorf("cql_files %q matched no statements", pattern)
	}
	return stmts, nil
}
