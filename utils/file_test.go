package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampedCopy(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "knowledge.json")
	require.NoError(t, os.WriteFile(source, []byte(`{"entries":[]}`), 0644))

	dest, err := TimestampedCopy(source, "bak")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dest, source+".bak-"))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, `{"entries":[]}`, string(data))
}

func TestTimestampedCopyMissingSource(t *testing.T) {
	_, err := TimestampedCopy(filepath.Join(t.TempDir(), "missing.json"), "bak")
	assert.Error(t, err)
}
