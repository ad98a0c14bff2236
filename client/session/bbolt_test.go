package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	storage, err := OpenBoltStorage(path)
	require.NoError(t, err)

	require.NoError(t, storage.Set("access_token", "abc"))
	v, err := storage.Get("access_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, storage.Delete("access_token"))
	_, err = storage.Get("access_token")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.Get("never-set")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, storage.Close())
}

func TestBoltStorageSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	storage, err := OpenBoltStorage(path)
	require.NoError(t, err)

	store := NewStore(storage)
	store.Set(Session{AccessToken: "a", RefreshToken: "r", ExpiresIn: 120})
	require.NoError(t, store.Persist())
	require.NoError(t, storage.Close())

	reopened, err := OpenBoltStorage(path)
	require.NoError(t, err)
	defer reopened.Close()

	store2 := NewStore(reopened)
	require.NoError(t, store2.LoadFromStorage())

	cur := store2.Current()
	assert.True(t, cur.LoggedIn)
	assert.Equal(t, "a", cur.AccessToken)
	assert.Equal(t, "r", cur.RefreshToken)
	assert.EqualValues(t, 120, cur.ExpiresIn)
}
