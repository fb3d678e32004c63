package cache_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stackvity/tile-converter/pkg/converter/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideFileCache_MissThenHit(t *testing.T) {
	c := cache.NewSideFileCache(filepath.Join(t.TempDir(), "work"))

	lines, ok, err := c.Load("+51+009")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, lines)

	want := []string{"RASTER_DEF elevation\n", "RASTER_DATA x.raw\n"}
	require.NoError(t, c.Store("+51+009", want), "Store creates the directory on demand")

	got, ok, err := c.Load("+51+009")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
	assert.FileExists(t, filepath.Join(c.Dir, "+51+009.rdata"))
	assert.Equal(t, filepath.Join(c.Dir, "+51+009"+cache.FileExt), c.Path("+51+009"))
}

func TestSideFileCache_EmptyEntryIsHit(t *testing.T) {
	c := cache.NewSideFileCache(t.TempDir())
	require.NoError(t, c.Store("+00+000", nil))

	lines, ok, err := c.Load("+00+000")
	require.NoError(t, err)
	assert.True(t, ok, "a reference tile without raster lines is still cached")
	assert.Empty(t, lines)
}

func TestSideFileCache_UnreadableEntry(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}
	c := cache.NewSideFileCache(t.TempDir())
	// a directory in place of the side-file cannot be read as lines
	require.NoError(t, os.Mkdir(c.Path("+51+009"), 0o755))

	_, ok, err := c.Load("+51+009")
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, cache.ErrCacheLoad))
}

func TestSideFileCache_ConcurrentStoreLastWriterWins(t *testing.T) {
	c := cache.NewSideFileCache(t.TempDir())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.Store("+51+009", []string{fmt.Sprintf("RASTER_DEF w%d\n", i)}))
		}(i)
	}
	wg.Wait()

	lines, ok, err := c.Load("+51+009")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, lines, 1, "each write is whole, never interleaved")
	assert.Regexp(t, `^RASTER_DEF w\d\n$`, lines[0])
}
