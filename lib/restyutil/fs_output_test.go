package restyutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	out.Write("1.txt", "---- REQUEST ----")
	out.Write("a/b.txt", "nested ids are flattened")

	_, err = os.Stat(filepath.Join(dir, "stale.txt"))
	require.True(t, os.IsNotExist(err))

	contents, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Equal(t, "---- REQUEST ----", string(contents))

	_, err = os.Stat(filepath.Join(dir, "a_b.txt"))
	require.NoError(t, err)
}
