// Package types defines the core data structures shared by the load harness.
//
// This package contains:
//   - Query tasks and their classification (read, write, rollback)
//   - Task invocations produced by the expander
//   - Execution results and report rows recorded by the ledger
package types
