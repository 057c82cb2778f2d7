package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesParentsAndLeavesNoTemp(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "entry.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":1}`), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":2}`), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"v":2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must be renamed or removed")
}

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, WriteFileAtomic(filepath.Join(dir, "x", "1.json"), []byte("{}"), 0o644))
	require.NoError(t, WriteFileAtomic(filepath.Join(dir, "y", "2.json"), []byte("{}"), 0o644))
	require.NoError(t, WriteFileAtomic(filepath.Join(dir, "y", "notes.txt"), []byte("-"), 0o644))

	files, err := FindFilesByExtension(dir, ".json")
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	t.Parallel()
	files, err := FindFilesByExtension(filepath.Join(t.TempDir(), "absent"), ".json")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestFindFilesByExtension_EmptyExtension(t *testing.T) {
	t.Parallel()
	files, err := FindFilesByExtension(t.TempDir(), "")
	require.ErrorIs(t, err, ErrEmptyExtension)
	require.Nil(t, files)
}

func TestWriteFileAtomic_ConcurrentWriters(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "shared", "entry.json")

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, WriteFileAtomic(path, []byte(fmt.Sprintf(`{"writer":%d,"seq":%d}`, g, i)), 0o644))
			}
		}(g)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Regexp(t, `^\{"writer":\d,"seq":\d+\}$`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must be renamed or removed")
}
