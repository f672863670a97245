package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskImageStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskImageStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.Save(ctx, "Mona.JPG", strings.NewReader("binary"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, UploadURLPrefix))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	path := filepath.Join(dir, strings.TrimPrefix(ref, UploadURLPrefix))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "binary", string(data))

	require.NoError(t, s.Delete(ctx, ref))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// 文件已不存在时删除不报错
	assert.NoError(t, s.Delete(ctx, ref))
	assert.NoError(t, s.Delete(ctx, ""))
}

func TestDiskImageStorageDeleteStaysInsideDir(t *testing.T) {
	parent := t.TempDir()
	outside := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	s, err := NewDiskImageStorage(filepath.Join(parent, "uploads"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(context.Background(), "/uploads/../secret.txt"))

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
