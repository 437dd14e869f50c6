package linkage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/racedaylabs/racelink/internal/sdk"
)

// profileRecord is the persisted shape of the local profile. Only the
// linkage fields live here; credentials stay in the credential store.
type profileRecord struct {
	LinkedUserID int64 `json:"linked_user_id,omitempty"`
}

// FileProfileStore persists the linkage marker as a JSON file in the config
// directory. Like the credential file, it is shared across invocations, so
// every read and write holds a file lock.
type FileProfileStore struct {
	dir string
}

var _ sdk.ProfileStore = (*FileProfileStore)(nil)

// NewFileProfileStore creates a profile store rooted at dir.
func NewFileProfileStore(dir string) *FileProfileStore {
	return &FileProfileStore{dir: dir}
}

func (s *FileProfileStore) profilePath() string {
	return filepath.Join(s.dir, "profile.json")
}

func (s *FileProfileStore) withLock(fn func() error) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return &sdk.StoreError{Operation: "save", Cause: err}
	}
	fl := flock.New(s.profilePath() + ".lock")
	if err := fl.Lock(); err != nil {
		return &sdk.StoreError{Operation: "lock", Cause: err}
	}
	defer func() { _ = fl.Unlock() }()
	return fn()
}

func (s *FileProfileStore) read() (*profileRecord, error) {
	data, err := os.ReadFile(s.profilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &profileRecord{}, nil
		}
		return nil, &sdk.StoreError{Operation: "load", Cause: err}
	}
	var rec profileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt profile reads as not linked rather than wedging every
		// command behind a parse error.
		return &profileRecord{}, nil
	}
	return &rec, nil
}

func (s *FileProfileStore) write(rec *profileRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return &sdk.StoreError{Operation: "save", Cause: err}
	}
	tmp, err := os.CreateTemp(s.dir, "profile-*.json.tmp")
	if err != nil {
		return &sdk.StoreError{Operation: "save", Cause: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &sdk.StoreError{Operation: "save", Cause: err}
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &sdk.StoreError{Operation: "save", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &sdk.StoreError{Operation: "save", Cause: err}
	}
	if err := os.Rename(tmpPath, s.profilePath()); err != nil {
		os.Remove(tmpPath)
		return &sdk.StoreError{Operation: "save", Cause: err}
	}
	return nil
}

// Linkage returns the linked external user ID, or false when not linked.
func (s *FileProfileStore) Linkage() (int64, bool) {
	var rec *profileRecord
	err := s.withLock(func() error {
		var readErr error
		rec, readErr = s.read()
		return readErr
	})
	if err != nil || rec.LinkedUserID == 0 {
		return 0, false
	}
	return rec.LinkedUserID, true
}

// SetLinkage records the linked external user ID.
func (s *FileProfileStore) SetLinkage(userID int64) error {
	return s.withLock(func() error {
		rec, err := s.read()
		if err != nil {
			return err
		}
		rec.LinkedUserID = userID
		return s.write(rec)
	})
}

// ClearLinkage removes the linkage marker. Idempotent.
func (s *FileProfileStore) ClearLinkage() error {
	return s.withLock(func() error {
		rec, err := s.read()
		if err != nil {
			return err
		}
		if rec.LinkedUserID == 0 {
			return nil
		}
		rec.LinkedUserID = 0
		return s.write(rec)
	})
}
