package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestState(t *testing.T) *State {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := OpenState(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStateConfigRoundTrip(t *testing.T) {
	s := openTestState(t)

	value, err := s.GetConfig("missing")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, s.SetConfig("theme", "dark"))
	require.NoError(t, s.SetConfig("theme", "light"))
	value, err = s.GetConfig("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)
}

func TestStateLastRoom(t *testing.T) {
	s := openTestState(t)

	assert.Empty(t, s.GetLastRoomID())
	require.NoError(t, s.SetLastRoomID("room-7"))
	assert.Equal(t, "room-7", s.GetLastRoomID())
	require.NoError(t, s.SetLastRoomID(""))
	assert.Empty(t, s.GetLastRoomID())
}

func TestStateDrafts(t *testing.T) {
	s := openTestState(t)

	draft, err := s.GetDraft("r1")
	require.NoError(t, err)
	assert.Empty(t, draft)

	require.NoError(t, s.SaveDraft("r1", "half a thought"))
	require.NoError(t, s.SaveDraft("r2", "other room"))

	draft, err = s.GetDraft("r1")
	require.NoError(t, err)
	assert.Equal(t, "half a thought", draft)

	require.NoError(t, s.SaveDraft("r1", ""))
	draft, err = s.GetDraft("r1")
	require.NoError(t, err)
	assert.Empty(t, draft)

	draft, err = s.GetDraft("r2")
	require.NoError(t, err)
	assert.Equal(t, "other room", draft, "drafts are per room")
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenState(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveDraft("r1", "kept"))
	require.NoError(t, s.SetLastRoomID("r1"))
	require.NoError(t, s.Close())

	s, err = OpenState(path)
	require.NoError(t, err)
	defer s.Close()

	draft, err := s.GetDraft("r1")
	require.NoError(t, err)
	assert.Equal(t, "kept", draft)
	assert.Equal(t, "r1", s.GetLastRoomID())
	assert.Equal(t, filepath.Dir(path), s.GetStateDir())
}
