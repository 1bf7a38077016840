package state

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsEmptyState(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := Load()
	require.NoError(t, err)
	assert.Empty(t, s)
	assert.Empty(t, s.PendingDeletions())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	chdir(t, t.TempDir())

	s := make(State)
	s.AddPendingDeletion("s1")
	s.AddPendingDeletion("s2")
	s.AddPendingDeletion("s1") // duplicate is a no-op
	require.NoError(t, Save(s))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, loaded.PendingDeletions())

	loaded.RemovePendingDeletion("s1")
	assert.Equal(t, []string{"s2"}, loaded.PendingDeletions())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
