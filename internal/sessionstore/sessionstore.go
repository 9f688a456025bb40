// Package sessionstore persists login sessions for publish providers, so repeated publishes
// don't have to re-authenticate.
package sessionstore

import (
	"encoding/json"
	"time"

	"go.etcd.io/bbolt"
)

var Buckets = struct {
	Metadata []byte
	Sessions []byte
}{
	Metadata: []byte("__metadata__"),
	Sessions: []byte("sessions"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

// Session is a saved login for one account.
type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store interface {
	Close() error

	// Get returns the saved session for a username, or nil if there is none.
	Get(username string) (*Session, error)
	Put(session *Session) error
	Delete(username string) error
}

type store struct {
	*bbolt.DB
}

func New(path string) (_ Store, err error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		// Ensure buckets exist
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Sessions); err != nil {
			return err
		}

		// Get the current version of the database
		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = 0
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}

		// TODO: perform any migration to get to latest version

		// Set the current version of the database
		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &store{db}, nil
}

func (s *store) Get(username string) (*Session, error) {
	var session *Session
	err := s.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Sessions)
		if data := bucket.Get([]byte(username)); data != nil {
			session = &Session{}
			return json.Unmarshal(data, session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *store) Put(session *Session) error {
	if data, err := json.Marshal(session); err != nil {
		return err
	} else {
		return s.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(Buckets.Sessions)
			return bucket.Put([]byte(session.Username), data)
		})
	}
}

func (s *store) Delete(username string) error {
	return s.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Sessions)
		return bucket.Delete([]byte(username))
	})
}
