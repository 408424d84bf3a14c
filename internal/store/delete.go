package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	readAttempts = 3
	readBackoff  = 50 * time.Millisecond
)

// RetryRead runs fn up to three times while it fails with ErrUnavailable.
// Writes are never retried here.
func RetryRead(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= readAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, ErrUnavailable) {
			return err
		}
		if attempt == readAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return unavailable("retry read", ctx.Err())
		case <-time.After(time.Duration(attempt) * readBackoff):
		}
	}
	return err
}

// DeleteByID removes every list item under key whose "id" field equals id.
//
// Backends implementing ListRemover delete by exact stored value, which is
// atomic per item. Other backends fall back to delete-all and re-append of
// the survivors; an append landing between those two steps is lost.
func DeleteByID(ctx context.Context, s Store, key, id string) error {
	var raws [][]byte
	err := RetryRead(ctx, func(ctx context.Context) error {
		var err error
		raws, err = s.ListRange(ctx, key, 0, -1)
		return err
	})
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}

	var matches [][]byte
	survivors := make([][]byte, 0, len(raws))
	for _, raw := range raws {
		if itemID(raw) == id {
			matches = append(matches, raw)
			continue
		}
		survivors = append(survivors, raw)
	}
	if len(matches) == 0 {
		return ErrNotFound
	}

	if remover, ok := s.(ListRemover); ok {
		var removed int64
		for _, raw := range matches {
			n, err := remover.ListRemove(ctx, key, raw)
			if err != nil {
				return fmt.Errorf("remove from %s: %w", key, err)
			}
			removed += n
		}
		if removed == 0 {
			return ErrNotFound
		}
		return nil
	}

	if err := s.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	for _, raw := range survivors {
		if err := s.ListAppend(ctx, key, raw); err != nil {
			return fmt.Errorf("rewrite %s: %w", key, err)
		}
	}
	return nil
}

func itemID(raw []byte) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := decode(raw, &probe); err != nil {
		return ""
	}
	return probe.ID
}
