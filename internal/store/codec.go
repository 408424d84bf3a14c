package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Entry pairs a decoded list item with the exact bytes it was stored as.
type Entry[T any] struct {
	Raw   []byte
	Value T
}

// GetJSON loads and decodes a single record. ErrNotFound is returned
// unchanged so callers can fall back to defaults.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var out T
	raw, err := s.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := decode(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

func AppendJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s item: %w", key, err)
	}
	return s.ListAppend(ctx, key, data)
}

// ListJSON reads the whole list. Items that do not decode are skipped.
func ListJSON[T any](ctx context.Context, s Store, key string) ([]Entry[T], error) {
	raws, err := s.ListRange(ctx, key, 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]Entry[T], 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := decode(raw, &v); err != nil {
			continue
		}
		out = append(out, Entry[T]{Raw: raw, Value: v})
	}
	return out, nil
}

// Values strips the raw bytes off a decoded list.
func Values[T any](entries []Entry[T]) []T {
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// decode accepts either a JSON object or a JSON string holding one. Older
// writers stored items double-encoded; this is the only place that knows.
func decode(raw []byte, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return errors.New("empty value")
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		raw = []byte(inner)
	}
	return json.Unmarshal(raw, v)
}
