package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/mgpai22/vidscribe/internal/subtitle"
)

// Store places subtitle files in an output directory.
//
// Writes go to a temporary file in the target directory and are renamed into
// place, so readers never observe a partial file. Concurrent writers for the
// same name are serialized with an advisory lock; the last one wins.
type Store struct {
	Dir        string
	PerJobDirs bool
}

func NewStore(dir string, perJobDirs bool) *Store {
	return &Store{Dir: dir, PerJobDirs: perJobDirs}
}

// Path returns the destination for an uploaded file name: its base name with
// the extension replaced by .srt. Directory components in the name are
// ignored. With PerJobDirs set, the file goes under a directory named jobID.
func (s *Store) Path(filename, jobID string) (string, error) {
	name := BaseName(filename)
	if name == "" {
		return "", fmt.Errorf("invalid file name %q", filename)
	}

	dir := s.Dir
	if s.PerJobDirs && jobID != "" {
		dir = filepath.Join(dir, jobID)
	}
	return filepath.Join(dir, name+subtitle.Extension), nil
}

// BaseName strips directories and the final extension from an uploaded name.
// Both slash styles are treated as separators since browsers differ.
func BaseName(filename string) string {
	name := strings.ReplaceAll(filename, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.TrimSpace(name)

	if name == "." || name == ".." {
		return ""
	}
	return name
}

// Write creates or replaces path with whatever fill writes.
func (s *Store) Write(path string, fill func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, lock.Unlock())
	}()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
