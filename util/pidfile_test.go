package util_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunevault/library-services/util"
)

func TestPidFileRoundTrip(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "reconcile.pid")

	require.Nil(t, util.WritePidFile(pidFile))
	assert.Equal(t, os.Getpid(), util.ReadPidFile(pidFile))

	age, err := util.AgeOfPidFile(pidFile)
	require.Nil(t, err)
	assert.True(t, age < time.Minute)

	require.Nil(t, util.DeletePidFile(pidFile))
	assert.False(t, util.FileExists(pidFile))

	// Deleting an already-deleted pid file is fine.
	assert.Nil(t, util.DeletePidFile(pidFile))
}

func TestReadPidFileBadContent(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "garbage.pid")
	require.Nil(t, os.WriteFile(pidFile, []byte("not-a-pid"), 0664))
	assert.Equal(t, 0, util.ReadPidFile(pidFile))
	assert.Equal(t, 0, util.ReadPidFile(filepath.Join(t.TempDir(), "missing.pid")))
}

func TestAnotherRunIsActive(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "reconcile.pid")

	// No pid file at all.
	assert.False(t, util.AnotherRunIsActive(pidFile))

	// Our own pid doesn't count as another run.
	require.Nil(t, util.WritePidFile(pidFile))
	assert.False(t, util.AnotherRunIsActive(pidFile))
}

func TestProcessIsRunning(t *testing.T) {
	assert.True(t, util.ProcessIsRunning(os.Getpid()))
}
