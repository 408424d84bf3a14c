package redisclient

import (
	"context"
	"sync"
	"time"
)

// LocalLocker serializes slots within one process. Only safe when a single
// instance serves bookings.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		slots: make(map[string]chan struct{}),
		wait:  wait,
	}
}

func (l *LocalLocker) WithSlotLock(ctx context.Context, slot string, fn func(ctx context.Context) error) error {
	sem := l.semaphore(slot)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
	case <-timer.C:
		return ErrLockNotAcquired
	case <-ctx.Done():
		return ErrLockNotAcquired
	}
	defer func() { <-sem }()

	return fn(ctx)
}

func (l *LocalLocker) semaphore(slot string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.slots[slot]
	if !ok {
		sem = make(chan struct{}, 1)
		l.slots[slot] = sem
	}
	return sem
}
