package filelock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_TryLockThenUnlockRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.omrx")
	l := New(path)

	acquired, err := l.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, l.IsLocked())

	require.NoError(t, l.Unlock())
	assert.False(t, l.IsLocked())
}

func TestLock_TryLockFailsWhileHeldByAnotherHandle(t *testing.T) {
	// Given: one handle holding the lock
	path := filepath.Join(t.TempDir(), "scene.omrx")
	first := New(path)
	acquired, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer first.Unlock()

	// When: a second handle on the same path tries to acquire it
	second := New(path)
	acquired, err = second.TryLock()

	// Then: it fails to acquire without blocking
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestLock_UnlockIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.omrx")
	l := New(path)
	require.NoError(t, l.Unlock())
	require.NoError(t, l.Unlock())
}

func TestLock_PathIsContainerPathWithLockSuffix(t *testing.T) {
	l := New("/tmp/scene.omrx")
	assert.Equal(t, "/tmp/scene.omrx.lock", l.Path())
}
