package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(db.Close)
	return db
}

func TestMigrateTwice(t *testing.T) {
	db := newTestDatabase(t)
	assert.NoError(t, db.Migrate())
}

func TestInsertPublish(t *testing.T) {
	assert := assert.New(t)
	db := newTestDatabase(t)

	p := Publish{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Title:   "Amazing Sunset",
		Caption: "Amazing Sunset #sunset",
		Account: "clipper",
	}
	assert.NoError(db.InsertPublish(&p))
	assert.NotZero(p.ID)
	assert.False(p.PublishedAt.IsZero())
}

func TestGetAllPublishes(t *testing.T) {
	assert := assert.New(t)
	db := newTestDatabase(t)

	all, err := db.GetAllPublishes()
	assert.NoError(err)
	assert.Len(all, 0)

	first := Publish{URL: "https://example.com/1", Title: "one", Caption: "one", Account: "clipper"}
	second := Publish{URL: "https://example.com/2", Title: "two", Caption: "two", Account: "clipper"}
	assert.NoError(db.InsertPublish(&first))
	assert.NoError(db.InsertPublish(&second))

	all, err = db.GetAllPublishes()
	assert.NoError(err)
	if assert.Len(all, 2) {
		// Newest first
		assert.Equal(second.URL, all[0].URL)
		assert.Equal(first.URL, all[1].URL)
	}
}

func TestGetLatestPublishByURL(t *testing.T) {
	assert := assert.New(t)
	db := newTestDatabase(t)

	p, err := db.GetLatestPublishByURL("https://example.com/missing")
	assert.NoError(err)
	assert.Nil(p)

	inserted := Publish{URL: "https://example.com/1", Title: "one", Caption: "one", Account: "clipper"}
	assert.NoError(db.InsertPublish(&inserted))

	p, err = db.GetLatestPublishByURL("https://example.com/1")
	assert.NoError(err)
	if assert.NotNil(p) {
		assert.Equal(inserted.ID, p.ID)
		assert.Equal("one", p.Title)
	}
}
