package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PutGetExists(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()
	key := HistoricalMapKey("Annual", 2015)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, store.Put(ctx, key, []byte("<html></html>")))

	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, store.Put(context.Background(), "data/cleaned_aqi_data.csv", []byte("Name\n")))

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cleaned_aqi_data.csv", entries[0].Name())
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	store := NewFileStore(t.TempDir())

	for _, key := range []string{"../outside.csv", "/etc/passwd", "data/../../x"} {
		err := store.Put(context.Background(), key, []byte("x"))
		assert.Error(t, err, key)
	}
}

func TestFileStore_ConcurrentPutsStayComplete(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()
	key := "data/summer_aqi_averages.csv"

	payloads := make([][]byte, 8)
	for i := range payloads {
		payloads[i] = bytes.Repeat([]byte(fmt.Sprintf("row-%d\n", i)), 20000)
	}

	var wg sync.WaitGroup
	for _, p := range payloads {
		wg.Add(1)
		go func(p []byte) {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, key, p))
		}(p)
	}
	wg.Wait()

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, payloads, got, "final artifact must equal one complete payload")
}
