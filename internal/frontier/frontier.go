// Package frontier holds the ordered set of discovered but not yet fetched
// URLs that drives a crawl session.
//
// A Frontier is a plain sequence: Push appends to the tail, and Pop removes
// from the head (breadth-first) or the tail (depth-first). It performs no
// deduplication. Push-time deduplication lives in Admission, which pairs a
// Frontier with a membership filter so each key is enqueued at most once
// per session.
package frontier

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFrontier is returned by Pop when no keys are pending.
// Callers are expected to check IsEmpty first; seeing this error means the
// crawl loop is out of sync with the frontier.
var ErrEmptyFrontier = errors.New("frontier is empty")

// ErrUnknownOrder is returned by ParseOrder for unrecognised order names.
var ErrUnknownOrder = errors.New("unknown traversal order")

// Order selects which end of the sequence Pop takes from.
type Order int

const (
	// BreadthFirst pops the oldest key (FIFO).
	BreadthFirst Order = iota

	// DepthFirst pops the newest key (LIFO).
	DepthFirst
)

// String returns the order name used in flags and configuration.
func (o Order) String() string {
	switch o {
	case BreadthFirst:
		return "bfs"
	case DepthFirst:
		return "dfs"
	default:
		return "unknown"
	}
}

// ParseOrder converts "bfs"/"breadth-first" or "dfs"/"depth-first" into an Order.
// The empty string selects BreadthFirst.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bfs", "breadth-first", "breadth":
		return BreadthFirst, nil
	case "dfs", "depth-first", "depth":
		return DepthFirst, nil
	default:
		return BreadthFirst, fmt.Errorf("%w: %q", ErrUnknownOrder, s)
	}
}

// Frontier is an ordered collection of pending keys.
// It is not safe for concurrent use.
type Frontier struct {
	keys  []string
	head  int
	order Order
}

// New creates an empty Frontier with the given traversal order.
func New(order Order) *Frontier {
	return &Frontier{
		keys:  make([]string, 0),
		order: order,
	}
}

// Push appends key to the tail of the sequence.
func (f *Frontier) Push(key string) {
	f.keys = append(f.keys, key)
}

// Pop removes and returns the next key according to the traversal order.
func (f *Frontier) Pop() (string, error) {
	if f.IsEmpty() {
		return "", ErrEmptyFrontier
	}

	var key string
	if f.order == DepthFirst {
		last := len(f.keys) - 1
		key = f.keys[last]
		f.keys[last] = ""
		f.keys = f.keys[:last]
	} else {
		key = f.keys[f.head]
		f.keys[f.head] = ""
		f.head++
	}

	// Reclaim the consumed prefix once it dominates the backing array.
	if f.head > 0 && f.head*2 >= len(f.keys) {
		f.keys = append(f.keys[:0], f.keys[f.head:]...)
		f.head = 0
	}

	return key, nil
}

// IsEmpty reports whether no keys are pending.
func (f *Frontier) IsEmpty() bool {
	return f.Len() == 0
}

// Len returns the number of pending keys.
func (f *Frontier) Len() int {
	return len(f.keys) - f.head
}

// Order returns the traversal order.
func (f *Frontier) Order() Order {
	return f.order
}
