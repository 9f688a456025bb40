package sessionstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissing(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	session, err := s.Get("nobody")
	assert.NoError(err)
	assert.Nil(session)
}

func TestPutGetDelete(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	saved := &Session{
		Username:  "clipper",
		Token:     "sessionid=abc123",
		UpdatedAt: time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC),
	}
	assert.NoError(s.Put(saved))

	loaded, err := s.Get("clipper")
	assert.NoError(err)
	assert.Equal(saved, loaded)

	assert.NoError(s.Delete("clipper"))
	loaded, err = s.Get("clipper")
	assert.NoError(err)
	assert.Nil(loaded)
}

func TestPutOverwrites(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)

	assert.NoError(s.Put(&Session{Username: "clipper", Token: "old"}))
	assert.NoError(s.Put(&Session{Username: "clipper", Token: "new"}))

	loaded, err := s.Get("clipper")
	assert.NoError(err)
	assert.Equal("new", loaded.Token)
}
