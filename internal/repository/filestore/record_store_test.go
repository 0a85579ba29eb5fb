package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppm-intake-be/pkg/intake/field"
	"ppm-intake-be/pkg/intake/record"
)

func sample(id string) record.Record {
	return record.Record{
		SessionID:   id,
		CreatedAt:   time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2025, 5, 1, 10, 4, 0, 0, time.UTC),
		Fields:      field.Values{U1: "Stanford", C1: "Computer Science", U2: "MIT", C2: "Mathematics"},
	}
}

func TestSaveWritesOneFilePerSession(t *testing.T) {
	dir := t.TempDir()
	store, err := NewRecordStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	rec := sample("abc-123")
	require.NoError(t, store.Save(ctx, rec))
	first, err := os.ReadFile(filepath.Join(dir, "collected_info_abc-123.json"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, rec))
	second, err := os.ReadFile(filepath.Join(dir, "collected_info_abc-123.json"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var shape map[string]interface{}
	require.NoError(t, json.Unmarshal(first, &shape))
	assert.Equal(t, "abc-123", shape["session_id"])
	assert.Contains(t, shape, "created_at")
	assert.Contains(t, shape, "completed_at")
	assert.Equal(t, map[string]interface{}{
		"u1": "Stanford", "c1": "Computer Science", "u2": "MIT", "c2": "Mathematics",
	}, shape["collected_info"])
}

func TestLoadRoundTrip(t *testing.T) {
	store, err := NewRecordStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, found, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	rec := sample("s1")
	require.NoError(t, store.Save(ctx, rec))
	got, found, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec, got)
}

func TestRejectsPathLikeIDs(t *testing.T) {
	store, err := NewRecordStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"../escape", "a/b", "", "with space"} {
		err := store.Save(context.Background(), sample(id))
		assert.ErrorIs(t, err, ErrUnsafeSessionID, id)
	}
}

func TestCorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewRecordStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "collected_info_bad.json"), []byte("{"), 0o644))

	_, _, err = store.Load(context.Background(), "bad")
	assert.Error(t, err)
}
