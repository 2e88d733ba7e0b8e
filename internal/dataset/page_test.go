package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSlot(t *testing.T) {
	slot := FileSlot(filepath.Join(t.TempDir(), "nested", "page.sample.zst"))
	assert.False(t, slot.Exists())

	require.NoError(t, slot.Write([]byte("payload")))
	assert.True(t, slot.Exists())

	data, err := slot.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	existed, err := slot.Delete(false)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.False(t, slot.Exists())

	existed, err = slot.Delete(false)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestFileSlotDeleteWithBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.sample.zst")
	slot := FileSlot(path)
	require.NoError(t, slot.Write([]byte("payload")))

	existed, err := slot.Delete(true)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.False(t, slot.Exists())

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), backup)
}

func TestFileSlotWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	slot := FileSlot(filepath.Join(dir, "page.sample.zst"))
	require.NoError(t, slot.Write([]byte("a")))
	require.NoError(t, slot.Write([]byte("b")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := slot.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)
}

func TestMemorySlot(t *testing.T) {
	slot := &MemorySlot{}
	assert.False(t, slot.Exists())
	_, err := slot.Read()
	require.Error(t, err)

	require.NoError(t, slot.Write([]byte("x")))
	assert.True(t, slot.Exists())
	data, err := slot.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	existed, err := slot.Delete(false)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.False(t, slot.Exists())
}
