package records

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/mensa-bot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord() *domain.MealRecord {
	price := 1.85
	record := domain.NewDraftRecord(time.Date(2024, 5, 6, 13, 30, 0, 0, time.UTC))
	record.CanteenName = "Mensa TU Marchstraße"
	record.UserDescription = "Salat"
	record.MatchedItems = domain.MatchResult{"Salads": {{Name: "Große Salatschale", Price: &price}}}
	record.Total = record.MatchedItems.Total()
	return record
}

func TestNewFileStore_CreatesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meals.json")

	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.HealthCheck(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestNewFileStore_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"mensa":"old"}]`), 0o644))

	_, err := NewFileStore(path, testLogger())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"mensa":"old"}]`, string(data))
}

func TestFileStore_AppendPreservesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.json")
	legacy := `[
  {
    "date": "2024-05-03T12:00:00.000Z",
    "mensa": "Mensa TU Hardenbergstraße",
    "userResponse": "Curry",
    "matchedItem": {},
    "legacyField": 1
  }
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)

	record := sampleRecord()
	require.NoError(t, store.Append(context.Background(), record))
	assert.NotEmpty(t, record.ID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \""), "expected two-space indentation, got %s", data)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, float64(1), entries[0]["legacyField"])
	assert.Equal(t, "Mensa TU Hardenbergstraße", entries[0]["mensa"])

	assert.Equal(t, record.ID, entries[1]["id"])
	assert.Equal(t, "Mensa TU Marchstraße", entries[1]["mensa"])
	assert.Equal(t, "Salat", entries[1]["userResponse"])
	assert.Equal(t, 1.85, entries[1]["total"])
	assert.Contains(t, entries[1], "matchedItem")
	assert.Contains(t, entries[1], "date")
}

func TestFileStore_AppendMany(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.json")
	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(context.Background(), sampleRecord()))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []domain.MealRecord
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 3)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStore_AppendRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644))

	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)

	assert.Error(t, store.Append(context.Background(), sampleRecord()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"not":"an array"}`, string(data))
}

func TestFileStore_AppendNil(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "meals.json"), testLogger())
	require.NoError(t, err)

	assert.Error(t, store.Append(context.Background(), nil))
}

func TestFileStore_HealthCheckMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.json")
	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	assert.Error(t, store.HealthCheck(context.Background()))
}
