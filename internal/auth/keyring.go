package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gofrs/flock"
	"github.com/zalando/go-keyring"

	"github.com/racedaylabs/racelink/internal/sdk"
)

const (
	serviceName = "racelink"
	slotName    = "racelink::credentials"
)

// ErrNoCredentials is returned when no credentials are stored.
var ErrNoCredentials = errors.New("no stored credentials")

// Store handles credential storage, preferring the system keychain.
// Access token, refresh token, and expiry are stored as one JSON blob under a
// fixed slot, so they are always written and cleared as a unit.
type Store struct {
	useKeyring  bool
	fallbackDir string
}

var _ sdk.CredentialStore = (*Store)(nil)

// NewStore creates a credential store.
func NewStore(fallbackDir string) *Store {
	// Skip keyring for tests or when explicitly disabled
	if os.Getenv("RACELINK_NO_KEYRING") != "" {
		return &Store{useKeyring: false, fallbackDir: fallbackDir}
	}

	// Test if keyring is available
	testKey := "racelink::availability"
	err := keyring.Set(serviceName, testKey, "ok")
	if err == nil {
		_ = keyring.Delete(serviceName, testKey) // Best-effort cleanup
		return &Store{useKeyring: true, fallbackDir: fallbackDir}
	}
	fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credentials stored in plaintext at %s\n",
		filepath.Join(fallbackDir, "credentials.json"))
	return &Store{useKeyring: false, fallbackDir: fallbackDir}
}

// NewFileStore creates a store that always uses the file fallback.
// Used by tests and headless environments.
func NewFileStore(dir string) *Store {
	return &Store{useKeyring: false, fallbackDir: dir}
}

// UsingKeyring returns true if the store is using the system keyring.
func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}

// Load retrieves the stored credentials.
func (s *Store) Load() (*sdk.Credentials, error) {
	if s.useKeyring {
		return s.loadFromKeyring()
	}
	return s.loadFromFile()
}

// Save stores credentials as a unit.
func (s *Store) Save(creds *sdk.Credentials) error {
	if s.useKeyring {
		return s.saveToKeyring(creds)
	}
	return s.saveToFile(creds)
}

// Delete removes stored credentials. Missing credentials are not an error so
// logout stays idempotent.
func (s *Store) Delete() error {
	if s.useKeyring {
		err := keyring.Delete(serviceName, slotName)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return &sdk.StoreError{Operation: "delete", Cause: err}
		}
		return nil
	}
	return s.deleteFile()
}

// Keyring methods

func (s *Store) loadFromKeyring() (*sdk.Credentials, error) {
	data, err := keyring.Get(serviceName, slotName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoCredentials
		}
		return nil, &sdk.StoreError{Operation: "load", Cause: err}
	}

	var creds sdk.Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, &sdk.StoreError{Operation: "load", Message: "invalid credentials", Cause: err}
	}
	return &creds, nil
}

func (s *Store) saveToKeyring(creds *sdk.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return &sdk.StoreError{Operation: "save", Cause: err}
	}
	return keyring.Set(serviceName, slotName, string(data))
}

// File fallback methods. The credentials file is shared across CLI
// invocations, so reads and writes hold a file lock.

func (s *Store) credentialsPath() string {
	return filepath.Join(s.fallbackDir, "credentials.json")
}

func (s *Store) lockPath() string {
	return s.credentialsPath() + ".lock"
}

func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return &sdk.StoreError{Operation: "save", Cause: err}
	}
	fl := flock.New(s.lockPath())
	if err := fl.Lock(); err != nil {
		return &sdk.StoreError{Operation: "lock", Cause: err}
	}
	defer func() { _ = fl.Unlock() }()
	return fn()
}

func (s *Store) loadFromFile() (*sdk.Credentials, error) {
	var creds *sdk.Credentials
	err := s.withLock(func() error {
		data, err := os.ReadFile(s.credentialsPath())
		if err != nil {
			if os.IsNotExist(err) {
				return ErrNoCredentials
			}
			return &sdk.StoreError{Operation: "load", Cause: err}
		}
		creds = &sdk.Credentials{}
		if err := json.Unmarshal(data, creds); err != nil {
			return &sdk.StoreError{Operation: "load", Message: "invalid credentials", Cause: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *Store) saveToFile(creds *sdk.Credentials) error {
	return s.withLock(func() error {
		data, err := json.MarshalIndent(creds, "", "  ")
		if err != nil {
			return &sdk.StoreError{Operation: "save", Cause: err}
		}
		return atomicWrite(s.fallbackDir, s.credentialsPath(), data)
	})
}

func (s *Store) deleteFile() error {
	return s.withLock(func() error {
		err := os.Remove(s.credentialsPath())
		if err != nil && !os.IsNotExist(err) {
			return &sdk.StoreError{Operation: "delete", Cause: err}
		}
		return nil
	})
}

// atomicWrite writes data with a randomized temp file and rename.
func atomicWrite(dir, destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	// Unix: rename atomically replaces the destination.
	// Windows: rename fails when destination exists. Try rename first to
	// preserve the old file on unrelated errors; only remove+retry on failure.
	if err := os.Rename(tmpPath, destPath); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath) // Clean up stale temp on failure
		return err
	}
	return nil
}
