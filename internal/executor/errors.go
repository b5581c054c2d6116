package executor

import (
	"errors"
	"fmt"
)

// ErrorCode represents the type of executor error.
type ErrorCode string

const (
	// ErrCodeConnection indicates the session or transaction could not be opened.
	ErrCodeConnection ErrorCode = "CONNECTION_ERROR"
	// ErrCodeStatement indicates a statement or the commit failed.
	ErrCodeStatement ErrorCode = "STATEMENT_ERROR"
	// ErrCodeRollback indicates a forced rollback could not be completed.
	ErrCodeRollback ErrorCode = "ROLLBACK_ERROR"
	// ErrCodeConfig indicates the run configuration is unusable.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"
)

// ExecutorError represents an error during one invocation.
type ExecutorError struct {
	Code    ErrorCode
	Message string
	Task    string
	// Statement is the 0-based index of the failing statement, -1 if none.
	Statement int
	Cause     error
}

// Error implements the error interface.
func (e *ExecutorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ExecutorError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates an error for an invalid run configuration.
func NewConfigError(message string, cause error) *ExecutorError {
	return &ExecutorError{
		Code:      ErrCodeConfig,
		Message:   message,
		Statement: -1,
		Cause:     cause,
	}
}

// NewConnectionError creates an error for session acquisition failures.
func NewConnectionError(task, message string, cause error) *ExecutorError {
	return &ExecutorError{
		Code:      ErrCodeConnection,
		Message:   message,
		Task:      task,
		Statement: -1,
		Cause:     cause,
	}
}

// NewStatementError creates an error for a failed statement.
func NewStatementError(task string, index int, cause error) *ExecutorError {
	return &ExecutorError{
		Code:      ErrCodeStatement,
		Message:   fmt.Sprintf("statement %d failed", index),
		Task:      task,
		Statement: index,
		Cause:     cause,
	}
}

// NewCommitError creates an error for a failed commit.
func NewCommitError(task string, cause error) *ExecutorError {
	return &ExecutorError{
		Code:      ErrCodeStatement,
		Message:   "commit failed",
		Task:      task,
		Statement: -1,
		Cause:     cause,
	}
}

// NewRollbackError creates an error for a forced rollback that failed.
func NewRollbackError(task string, cause error) *ExecutorError {
	return &ExecutorError{
		Code:      ErrCodeRollback,
		Message:   "forced rollback failed",
		Task:      task,
		Statement: -1,
		Cause:     cause,
	}
}

// CodeOf returns the code of the first ExecutorError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *ExecutorError
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
