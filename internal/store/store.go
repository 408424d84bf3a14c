package store

import (
	"context"
	"errors"
	"fmt"
)

// Keys of the three persisted records.
const (
	KeySettings     = "clinic:settings"
	KeyBlockedTimes = "clinic:blockedTimes"
	KeyAppointments = "clinic:appointments"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("store unavailable, please try again")
)

// Store is the keyed value/list abstraction the clinic data lives in.
// Values and list items are opaque bytes; typed access goes through the
// JSON helpers in codec.go.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	ListAppend(ctx context.Context, key string, item []byte) error
	// ListRange returns items start..stop inclusive; negative indexes count
	// from the end, so 0, -1 is the whole list.
	ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	Delete(ctx context.Context, key string) error
}

// ListRemover is implemented by backends that can atomically remove a list
// item by value. DeleteByID prefers it over the rewrite strategy.
type ListRemover interface {
	ListRemove(ctx context.Context, key string, item []byte) (int64, error)
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// rangeBounds resolves redis-style start/stop indexes against a list of
// length n. ok is false when the range is empty.
func rangeBounds(n, start, stop int64) (from, to int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop + 1, true
}
