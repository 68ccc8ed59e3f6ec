package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"filippo.io/age"
)

// sealable lists the extensions that are encrypted at rest. SQLite files
// are opened directly by the driver and stay in the clear.
var sealable = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".json": true,
}

// Seal encrypts every data file of the directory in place with password
// and leaves the directory unlocked.
func (s *Storage) Seal(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return ErrAlreadySealed
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return fmt.Errorf("derive recipient: %w", err)
	}
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return fmt.Errorf("derive identity: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	check, err := seal([]byte(checkPhrase), recipient)
	if err != nil {
		return fmt.Errorf("seal %s: %w", checkFile, err)
	}
	checkPath := filepath.Join(s.dir, checkFile)
	if err := os.WriteFile(checkPath, check, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", checkFile, err)
	}

	files, err := s.dataFiles(func(path string, data []byte) bool {
		return Sealable(path) && !sealed(data)
	})
	if err != nil {
		os.Remove(checkPath)
		return err
	}

	var done []string
	for _, path := range files {
		if err := rewrite(path, func(b []byte) ([]byte, error) { return seal(b, recipient) }); err != nil {
			for _, p := range done {
				rewrite(p, func(b []byte) ([]byte, error) { return unseal(b, identity) })
			}
			os.Remove(checkPath)
			return fmt.Errorf("seal %s: %w", filepath.Base(path), err)
		}
		done = append(done, path)
	}

	if err := os.WriteFile(filepath.Join(s.dir, markerFile), []byte("sealed\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", markerFile, err)
	}
	s.sealed = true
	s.identity = identity
	s.recipient = recipient
	return nil
}

// Unseal decrypts every sealed file in place and removes the marker.
func (s *Storage) Unseal(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sealed {
		return ErrNotSealed
	}
	identity, _, err := s.keys(password)
	if err != nil {
		return err
	}

	files, err := s.dataFiles(func(_ string, data []byte) bool { return sealed(data) })
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := rewrite(path, func(b []byte) ([]byte, error) { return unseal(b, identity) }); err != nil {
			return fmt.Errorf("unseal %s: %w", filepath.Base(path), err)
		}
	}

	os.Remove(filepath.Join(s.dir, markerFile))
	os.Remove(filepath.Join(s.dir, checkFile))
	s.sealed = false
	s.identity = nil
	s.recipient = nil
	return nil
}

// dataFiles walks the directory and returns non-bookkeeping files for which
// keep reports true
func (s *Storage) dataFiles(keep func(path string, data []byte) bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || bookkeeping(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if keep(path, data) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.dir, err)
	}
	return out, nil
}

func rewrite(path string, transform func([]byte) ([]byte, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := transform(data)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return replaceFile(path, out, info.Mode().Perm())
}
