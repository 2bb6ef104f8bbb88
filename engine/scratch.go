package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Scratch allocates uniquely named files in a scratch directory. Names
// combine a process-monotonic counter with a random component, so concurrent
// calls within one process and racing processes sharing a directory cannot
// collide.
type Scratch struct {
	dir string
	seq atomic.Uint64
}

// NewScratch returns a Scratch rooted at dir, creating the directory when it
// does not exist. An empty dir selects the system temporary directory.
func NewScratch(dir string) (*Scratch, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating scratch directory %q: %w", dir, err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory path.
func (s *Scratch) Dir() string { return s.dir }

// Create reserves a unique scratch path with the given prefix and extension.
// The file itself is not created; the engine or caller writes it. The
// returned release func removes the file and must run on every path out of
// the caller. Releasing a path that was never written is not an error.
func (s *Scratch) Create(prefix, ext string) (string, func()) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := fmt.Sprintf("%s-%06d-%s%s", prefix, s.seq.Add(1), uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)
	release := func() { _ = os.Remove(path) }
	return path, release
}

// WriteFile writes content to a freshly reserved scratch path. On write
// failure any partial file is removed before the error is returned.
func (s *Scratch) WriteFile(content []byte, prefix, ext string) (string, func(), error) {
	path, release := s.Create(prefix, ext)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		release()
		return "", nil, fmt.Errorf("writing scratch file %q: %w", path, err)
	}
	return path, release, nil
}
