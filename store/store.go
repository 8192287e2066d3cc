// Package store is a small file-backed key/value store with crash-safe
// writes: values land in a temp file, are fsynced, then renamed into place
// under an advisory directory lock.
package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// Store persists named values as files under a base directory.
type Store struct {
	base string
}

// DefaultBasePath resolves the per-user data directory, falling back to the
// working directory when the platform gives us nothing.
func DefaultBasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		slog.Warn("could not resolve user config dir", "error", err)
		return filepath.Join(".", "raceline")
	}
	return filepath.Join(dir, "raceline")
}

// Open creates the base directory if needed and returns a store over it.
func Open(base string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(base, "values"), 0o775); err != nil {
		return nil, errors.Wrap(err, "could not create store directory")
	}
	return &Store{base: base}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.base, "values", key)
}

func (s *Store) lockPath() string {
	return filepath.Join(s.base, ".lock")
}

// Get reads the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	return os.ReadFile(s.path(key))
}

// Exists reports whether a value is stored under key.
func (s *Store) Exists(key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "could not stat store value")
}

// List returns the stored keys in sorted order.
func (s *Store) List() ([]string, error) {
	files, err := os.ReadDir(filepath.Join(s.base, "values"))
	if err != nil {
		return nil, errors.Wrap(err, "could not read store directory")
	}
	keys := []string{}
	for _, file := range files {
		name := file.Name()
		if file.Type().IsRegular() && name[0] != '.' {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Put atomically replaces the value under key.
func (s *Store) Put(key string, data []byte) error {
	dir := filepath.Dir(s.path(key))
	file, err := os.CreateTemp(dir, ".tmp_value_"+key)
	if err != nil {
		return errors.Wrap(err, "could not create temp store file")
	}
	tmpName := file.Name()
	defer os.Remove(tmpName)

	if _, err := file.Write(data); err != nil {
		return errors.Wrap(err, "could not write data to temp store file")
	}
	if err := file.Sync(); err != nil {
		return errors.Wrap(err, "could not fsync temp store file")
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, "could not close temp store file")
	}

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return errors.Wrap(err, "could not move temp store file to persistent location")
	}

	directory, err := os.Open(dir)
	if err != nil {
		return errors.Wrap(err, "could not open store directory")
	}
	defer directory.Close()
	if err := directory.Sync(); err != nil {
		return errors.Wrap(err, "could not fsync store directory")
	}
	return nil
}

// Remove deletes the value under key.
func (s *Store) Remove(key string) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "could not remove store value")
	}
	return nil
}

// lock acquires the store's advisory lock, forcing a stale lock file out of
// the way if a previous process died holding it.
func (s *Store) lock() (func(), error) {
	fileLock := flock.New(s.lockPath())

	retries := 0
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return nil, errors.Wrap(err, "could not try locking store directory")
		}
		if locked {
			break
		}
		retries += 1
		if retries > 30 {
			if err := os.Remove(s.lockPath()); err != nil {
				slog.Debug("failed to force delete store lock", "error", err)
			}
		}
		if retries > 50 {
			return nil, errors.New("could not obtain store lock")
		}
		time.Sleep(1 * time.Millisecond)
	}

	return func() {
		if err := fileLock.Unlock(); err != nil {
			slog.Error("could not unlock store directory", "error", err)
		}
		if err := os.Remove(s.lockPath()); err != nil && !os.IsNotExist(err) {
			slog.Error("could not remove store lock file", "error", err)
		}
	}, nil
}
