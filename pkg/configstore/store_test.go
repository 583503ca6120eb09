package configstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOrCreateNewRecord(t *testing.T) {
	store := New()

	record, err := store.FetchOrCreate("com.example.service")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "com.example.service", record.ID())
	assert.Empty(t, record.Properties())
}

func TestFetchOrCreateReturnsSameRecord(t *testing.T) {
	store := New()

	first, err := store.FetchOrCreate("svc")
	require.NoError(t, err)
	require.NoError(t, first.Update(map[string]string{"port": "8080"}))

	second, err := store.FetchOrCreate("svc")
	require.NoError(t, err)
	assert.Equal(t, "8080", second.Properties()["port"])
}

func TestFetchOrCreateEmptyID(t *testing.T) {
	store := New()
	_, err := store.FetchOrCreate("")
	assert.Error(t, err)
	_, err = store.FetchOrCreate("   ")
	assert.Error(t, err)
}

func TestUpdateRoundTrip(t *testing.T) {
	store := New()

	record, err := store.FetchOrCreate("svc")
	require.NoError(t, err)

	props := map[string]string{"host": "localhost", "port": "5432"}
	require.NoError(t, record.Update(props))

	fetched, err := store.FetchOrCreate("svc")
	require.NoError(t, err)
	assert.Equal(t, props, fetched.Properties())
}

func TestUpdateCopiesProperties(t *testing.T) {
	store := New()
	record, err := store.FetchOrCreate("svc")
	require.NoError(t, err)

	props := map[string]string{"key": "original"}
	require.NoError(t, record.Update(props))
	props["key"] = "mutated"

	assert.Equal(t, "original", record.Properties()["key"])
}

func TestUpdateReplacesAllProperties(t *testing.T) {
	store := New()
	record, err := store.FetchOrCreate("svc")
	require.NoError(t, err)

	require.NoError(t, record.Update(map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, record.Update(map[string]string{"c": "3"}))

	props := record.Properties()
	assert.Equal(t, map[string]string{"c": "3"}, props)
}

func TestPersistentStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWithDir(dir)
	require.NoError(t, err)

	record, err := store.FetchOrCreate("com.example/db")
	require.NoError(t, err)
	require.NoError(t, record.Update(map[string]string{"dsn": "postgres://localhost"}))

	// A fresh store over the same directory must see the persisted record.
	reopened, err := NewWithDir(dir)
	require.NoError(t, err)
	loaded, err := reopened.FetchOrCreate("com.example/db")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost", loaded.Properties()["dsn"])
}

func TestPersistentStoreSanitizesFileNames(t *testing.T) {
	dir := t.TempDir()
	store, err := NewWithDir(dir)
	require.NoError(t, err)

	record, err := store.FetchOrCreate("a/b:c d")
	require.NoError(t, err)
	require.NoError(t, record.Update(map[string]string{"k": "v"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a_b_c_d.yaml", entries[0].Name())
}

func TestPersistentStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("{not yaml:\n"), 0644))

	store, err := NewWithDir(dir)
	require.NoError(t, err)

	_, err = store.FetchOrCreate("bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigIO)
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewWithDir(dir)
	require.NoError(t, err)

	record, err := store.FetchOrCreate("svc")
	require.NoError(t, err)
	require.NoError(t, record.Update(map[string]string{"k": "v"}))
	require.NoError(t, store.Delete("svc"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Deleting again is a no-op.
	require.NoError(t, store.Delete("svc"))

	// A fresh fetch creates an empty record.
	fresh, err := store.FetchOrCreate("svc")
	require.NoError(t, err)
	assert.Empty(t, fresh.Properties())
}

func TestList(t *testing.T) {
	store := New()
	_, err := store.FetchOrCreate("one")
	require.NoError(t, err)
	_, err = store.FetchOrCreate("two")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"one", "two"}, store.List())
}
