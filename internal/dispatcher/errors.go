package dispatcher

import "fmt"

// ErrCodePanic marks a result produced by a recovered panic.
const ErrCodePanic = "PANIC"

// PanicError wraps a value recovered from a panicking invocation.
type PanicError struct {
	Invocation string
	Value      any
	Stack      []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("[%s] invocation %s panicked: %v", ErrCodePanic, e.Invocation, e.Value)
}
