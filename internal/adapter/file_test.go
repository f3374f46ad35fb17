package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/sawmill/internal/model"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n"), 0o644))
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, stamp, stamp))

	content, mtime, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(content))
	assert.Equal(t, model.ClassFileMtime, mtime.Class)
	assert.Equal(t, "2024-03-01T12:00:00Z", mtime.Value)
}

func TestLoadFile_Missing(t *testing.T) {
	_, _, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestLoadFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := LoadFile(ctx, "irrelevant")
	assert.ErrorIs(t, err, context.Canceled)
}
