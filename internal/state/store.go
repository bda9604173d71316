// Package state persists the last browsed position of each tree source.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/smileynet/meshbrowse/internal/assettree"
)

// Session is the saved browsing state for one tree source.
type Session struct {
	Source  string    `json:"source"`
	Path    string    `json:"path"`
	SavedAt time.Time `json:"saved_at"`
}

// Position parses the saved path.
func (s Session) Position() (assettree.Path, error) {
	return assettree.ParsePath(s.Path)
}

// FileStore persists sessions as JSON files under a base directory.
type FileStore struct {
	baseDir string
	now     func() time.Time
}

// NewFileStore creates a FileStore that saves sessions under baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir, now: time.Now}
}

// Save records p as the last position for source.
func (s *FileStore) Save(source string, p assettree.Path) error {
	path, err := s.path(source)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("state: creating directory: %w", err)
	}

	data, err := json.MarshalIndent(Session{
		Source:  source,
		Path:    p.String(),
		SavedAt: s.now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshaling: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("state: writing %s: %w", path, err)
	}
	return nil
}

// Load reads the session saved for source.
// Returns (session, true, nil) if found, (zero, false, nil) if not found.
func (s *FileStore) Load(source string) (Session, bool, error) {
	path, err := s.path(source)
	if err != nil {
		return Session{}, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("state: reading %s: %w", path, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, fmt.Errorf("state: parsing %s: %w", path, err)
	}
	if sess.Source != source {
		// Hash collision or a hand-edited file; treat as absent.
		return Session{}, false, nil
	}
	return sess, true, nil
}

// Remove deletes the session file for source.
func (s *FileStore) Remove(source string) error {
	path, err := s.path(source)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("state: removing %s: %w", path, err)
	}
	return nil
}

// ErrInvalidSource indicates an empty tree source name.
var ErrInvalidSource = errors.New("state: invalid source")

// Key returns the file name stem used for source. Sources are URLs or
// paths, so they are hashed rather than used as file names.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:12])
}

func (s *FileStore) path(source string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
	return filepath.Join(s.baseDir, Key(source)+".json"), nil
}
