package types

import "fmt"

// Order selects how the expander lays out repeated invocations.
type Order string

const (
	// OrderByRepetition enumerates every task once and repeats the whole
	// list: A, B, A, B, ...
	OrderByRepetition Order = "by-repetition"
	// OrderByTask repeats each task consecutively before moving on:
	// A, A, B, B, ...
	OrderByTask Order = "by-task"
)

// DefaultOrder is used when no order is configured, for both sequential and
// parallel dispatch.
const DefaultOrder = OrderByRepetition

// ParseOrder parses an order name. The empty string yields DefaultOrder.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "":
		return DefaultOrder, nil
	case OrderByRepetition, "grouped-by-repetition":
		return OrderByRepetition, nil
	case OrderByTask, "grouped-by-task":
		return OrderByTask, nil
	default:
		return "", fmt.Errorf("unknown order %q (expected %s or %s)", s, OrderByRepetition, OrderByTask)
	}
}
