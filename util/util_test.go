package util_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunevault/library-services/util"
)

func TestStringListContains(t *testing.T) {
	list := []string{"salsa", "cumbia", "merengue"}
	assert.True(t, util.StringListContains(list, "cumbia"))
	assert.False(t, util.StringListContains(list, "polka"))
	// Don't crash on nil list
	assert.False(t, util.StringListContains(nil, "salsa"))
}

func TestFileExists(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "exists.txt")
	require.Nil(t, os.WriteFile(tempFile, []byte("x"), 0644))
	assert.True(t, util.FileExists(tempFile))
	assert.False(t, util.FileExists(filepath.Join(t.TempDir(), "missing.txt")))
}

func TestExpandTilde(t *testing.T) {
	expanded, err := util.ExpandTilde("~/tmp")
	require.Nil(t, err)
	assert.True(t, strings.HasSuffix(expanded, "tmp"))
	assert.False(t, strings.HasPrefix(expanded, "~"))

	unchanged, err := util.ExpandTilde("/var/log")
	require.Nil(t, err)
	assert.Equal(t, "/var/log", unchanged)
}

func TestTestsAreRunning(t *testing.T) {
	assert.True(t, util.TestsAreRunning())
}
