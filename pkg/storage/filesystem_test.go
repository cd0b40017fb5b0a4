package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndRead(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("a1/agenda.csv", []byte("date,title\n")))
	data, err := store.Read("a1/agenda.csv")
	require.NoError(t, err)
	assert.Equal(t, "date,title\n", string(data))

	_, err = store.Read("a1/missing.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, store.Delete("a1/agenda.csv"))
	require.NoError(t, store.Delete("a1/agenda.csv"))
}

func TestLocalStorageRejectsEscapingNames(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../outside.csv", "a/../../outside.csv", "/etc/passwd"} {
		assert.ErrorIs(t, store.Save(name, []byte("x")), ErrInvalidName, name)
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)
	now := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save("old/agenda.pdf", []byte("%PDF")))
	require.NoError(t, store.Save("new/agenda.pdf", []byte("%PDF")))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old", "agenda.pdf"), now.Add(-48*time.Hour), now.Add(-48*time.Hour)))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "new", "agenda.pdf"), now.Add(-time.Hour), now.Add(-time.Hour)))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old/agenda.pdf"}, deleted)

	_, err = os.Stat(filepath.Join(dir, "old"))
	assert.True(t, os.IsNotExist(err))
	_, err = store.Read("new/agenda.pdf")
	assert.NoError(t, err)
}
