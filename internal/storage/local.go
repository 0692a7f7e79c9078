package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// LocalStore keeps uploaded files in a single directory. Every stored file gets a
// random 8-character prefix so same-named uploads never collide on disk.
type LocalStore struct {
	dir string
}

// StoredFile is one file found in the upload directory.
type StoredFile struct {
	Path    string
	ModTime time.Time
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes r under a unique name derived from filename and returns the path
// and the number of bytes written.
func (s *LocalStore) Save(filename string, r io.Reader) (string, int64, error) {
	name := SanitizeFilename(filename)
	path := filepath.Join(s.dir, randomPrefix()+"_"+name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file failed: %w", err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write upload file failed: %w", err)
	}
	return path, n, nil
}

// Remove deletes path. A file that is already gone is not an error.
func (s *LocalStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload file failed: %w", err)
	}
	return nil
}

// List returns the regular files in the upload directory.
func (s *LocalStore) List() ([]StoredFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir failed: %w", err)
	}
	files := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFile{
			Path:    filepath.Join(s.dir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// SanitizeFilename reduces an uploaded filename to a safe base name.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	base := filepath.Base(filename)
	base = strings.Join(strings.Fields(base), "_")
	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}

func randomPrefix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
