package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestDecodeUnwrapsDoubleEncoded(t *testing.T) {
	var r record
	require.NoError(t, decode([]byte(`"{\"id\":\"a1\",\"name\":\"Ana\"}"`), &r))
	assert.Equal(t, record{ID: "a1", Name: "Ana"}, r)
}

func TestDecodeRejectsEmpty(t *testing.T) {
	var r record
	assert.Error(t, decode([]byte("  "), &r))
}

func TestListJSONSkipsUndecodable(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, AppendJSON(ctx, s, KeyAppointments, record{ID: "1", Name: "first"}))
	require.NoError(t, s.ListAppend(ctx, KeyAppointments, []byte("not json")))
	require.NoError(t, AppendJSON(ctx, s, KeyAppointments, record{ID: "2", Name: "second"}))

	entries, err := ListJSON[record](ctx, s, KeyAppointments)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []record{{ID: "1", Name: "first"}, {ID: "2", Name: "second"}}, Values(entries))
	assert.JSONEq(t, `{"id":"1","name":"first"}`, string(entries[0].Raw))
}

func TestGetJSONRoundTrip(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := GetJSON[record](ctx, s, KeySettings)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SetJSON(ctx, s, KeySettings, record{ID: "cfg"}))
	got, err := GetJSON[record](ctx, s, KeySettings)
	require.NoError(t, err)
	assert.Equal(t, "cfg", got.ID)
}

func TestRangeBounds(t *testing.T) {
	tests := []struct {
		name        string
		n, from, to int64
		wantFrom    int64
		wantTo      int64
		ok          bool
	}{
		{"whole list", 5, 0, -1, 0, 5, true},
		{"last two", 5, -2, -1, 3, 5, true},
		{"stop past end", 3, 1, 10, 1, 3, true},
		{"empty list", 0, 0, -1, 0, 0, false},
		{"start after stop", 5, 3, 1, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, ok := rangeBounds(tt.n, tt.from, tt.to)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.wantFrom, from)
				assert.Equal(t, tt.wantTo, to)
			}
		})
	}
}
