// Package storage reads and writes files of the sales data directory,
// decrypting age-sealed files transparently once the directory is unlocked.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"filippo.io/age"
)

const (
	// markerFile marks a data directory whose files are sealed
	markerFile = ".sealed"

	// checkFile holds checkPhrase sealed with the directory password
	checkFile = ".sealed-check"

	checkPhrase = `{"kind":"salesdash-data-dir","version":1}`

	// MinPasswordLength is enforced when sealing a directory
	MinPasswordLength = 8
)

var (
	ErrLocked        = errors.New("data directory is sealed and locked")
	ErrWrongPassword = errors.New("incorrect password")
	ErrAlreadySealed = errors.New("data directory is already sealed")
	ErrNotSealed     = errors.New("data directory is not sealed")
)

// Storage gives file access relative to one data directory
type Storage struct {
	dir       string
	sealed    bool
	identity  age.Identity
	recipient age.Recipient
	mu        sync.RWMutex
}

// New opens a data directory. The directory need not exist yet.
func New(dir string) (*Storage, error) {
	s := &Storage{dir: dir}
	if _, err := os.Stat(filepath.Join(dir, markerFile)); err == nil {
		s.sealed = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", markerFile, err)
	}
	return s, nil
}

// Dir returns the data directory
func (s *Storage) Dir() string {
	return s.dir
}

// Path resolves name against the data directory; absolute names pass through
func (s *Storage) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// IsSealed reports whether the directory's files are encrypted at rest
func (s *Storage) IsSealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

// IsUnlocked reports whether sealed files can currently be read
func (s *Storage) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.sealed || s.identity != nil
}

// Unlock checks password against the directory's check file and keeps the
// key in memory. Unlocking an unsealed directory is a no-op.
func (s *Storage) Unlock(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sealed {
		return nil
	}
	identity, recipient, err := s.keys(password)
	if err != nil {
		return err
	}
	s.identity = identity
	s.recipient = recipient
	return nil
}

// keys derives the scrypt pair for password and proves it against the
// check file
func (s *Storage) keys(password string) (age.Identity, age.Recipient, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, nil, fmt.Errorf("derive identity: %w", err)
	}
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, nil, fmt.Errorf("derive recipient: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, checkFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", checkFile, err)
	}
	plain, err := unseal(data, identity)
	if err != nil || string(plain) != checkPhrase {
		return nil, nil, ErrWrongPassword
	}
	return identity, recipient, nil
}

// Lock forgets the key
func (s *Storage) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.recipient = nil
}

// ReadFile returns the plaintext of name
func (s *Storage) ReadFile(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, err
	}
	if !sealed(data) {
		return data, nil
	}
	if s.identity == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrLocked)
	}
	plain, err := unseal(data, s.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", name, err)
	}
	return plain, nil
}

// Open returns a reader over the plaintext of name
func (s *Storage) Open(name string) (io.ReadCloser, error) {
	data, err := s.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// WriteFile replaces name atomically, sealing it when the directory is
// sealed and unlocked. Writing to a sealed, locked directory fails.
func (s *Storage) WriteFile(name string, data []byte, perm os.FileMode) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(name)
	if s.sealed && !bookkeeping(path) {
		if s.recipient == nil {
			return fmt.Errorf("%s: %w", name, ErrLocked)
		}
		out, err := seal(data, s.recipient)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", name, err)
		}
		data = out
	}
	return replaceFile(path, data, perm)
}

// FileInfo describes one data file
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Sealed  bool      `json:"sealed"`
}

// List returns the files at the top of the data directory, sorted by name.
// Bookkeeping and temp files are skipped.
func (s *Storage) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []FileInfo
	for _, e := range entries {
		if e.IsDir() || bookkeeping(e.Name()) || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fi := FileInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()}
		if f, err := os.Open(filepath.Join(s.dir, e.Name())); err == nil {
			head := make([]byte, len(ageHeader))
			n, _ := io.ReadFull(f, head)
			f.Close()
			fi.Sealed = sealed(head[:n])
		}
		out = append(out, fi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove deletes name. Bookkeeping files cannot be removed.
func (s *Storage) Remove(name string) error {
	path := s.Path(name)
	if bookkeeping(path) {
		return fmt.Errorf("%s: refusing to remove bookkeeping file", name)
	}
	return os.Remove(path)
}

// Sealable reports whether name is encrypted at rest in a sealed directory
func Sealable(name string) bool {
	return sealable[strings.ToLower(filepath.Ext(name))]
}

// replaceFile writes through a temp file and renames it into place
func replaceFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// bookkeeping reports files that are never sealed
func bookkeeping(path string) bool {
	base := filepath.Base(path)
	return base == markerFile || base == checkFile
}
