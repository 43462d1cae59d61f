package workspace

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
	"github.com/bmatcuk/doublestar/v4"
)

// Store is the in-memory file set of one workspace
type Store struct {
	mu       sync.RWMutex
	entry    string
	files    map[string]string // Protected by mu
	seed     map[string]string // immutable after construction
	active   string            // Protected by mu
	revision uint64            // Protected by mu
}

// NewStore creates a store seeded with files. The entry path must be part of the seed.
func NewStore(entry string, seed map[string]string) (*Store, error) {
	entry, err := NormalizePath(entry)
	if err != nil {
		return nil, fmt.Errorf("entry file: %w", err)
	}

	normalized := make(map[string]string, len(seed))
	for p, content := range seed {
		np, err := NormalizePath(p)
		if err != nil {
			return nil, fmt.Errorf("seed file: %w", err)
		}
		normalized[np] = content
	}
	if _, ok := normalized[entry]; !ok {
		return nil, fmt.Errorf("%w: entry file %s missing from seed", ErrNotFound, entry)
	}
	for p := range normalized {
		if dir := fileAncestor(normalized, p); dir != "" {
			return nil, fmt.Errorf("%w: seed file %s is also the directory of %s", ErrInvalidPath, dir, p)
		}
	}

	s := &Store{
		entry: entry,
		seed:  normalized,
	}
	s.files = s.copySeed()
	s.active = entry
	return s, nil
}

// Entry returns the protected entry path
func (s *Store) Entry() string {
	return s.entry
}

// Add creates or overwrites a file
func (s *Store) Add(p, content string) (types.FileChange, error) {
	p, err := NormalizePath(p)
	if err != nil {
		return types.FileChange{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	op := types.ChangeAdd
	if _, exists := s.files[p]; exists {
		op = types.ChangeUpdate
	} else if err := s.checkShadowLocked(p); err != nil {
		return types.FileChange{}, err
	}
	s.files[p] = content
	return s.bump(op, p), nil
}

// Delete removes a file. The entry file yields ErrProtectedFile.
func (s *Store) Delete(p string) (types.FileChange, error) {
	p, err := NormalizePath(p)
	if err != nil {
		return types.FileChange{}, err
	}
	if p == s.entry {
		return types.FileChange{}, fmt.Errorf("%w: %s", ErrProtectedFile, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[p]; !ok {
		return types.FileChange{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	delete(s.files, p)
	if s.active == p {
		s.active = s.entry
	}
	return s.bump(types.ChangeDelete, p), nil
}

// Update replaces the content of an existing file.
// changed is false when content equals the stored value.
func (s *Store) Update(p, content string) (change types.FileChange, changed bool, err error) {
	p, err = NormalizePath(p)
	if err != nil {
		return types.FileChange{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.files[p]
	if !ok {
		return types.FileChange{}, false, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if current == content {
		return types.FileChange{}, false, nil
	}
	s.files[p] = content
	return s.bump(types.ChangeUpdate, p), true, nil
}

// SetActive points the active file at p
func (s *Store) SetActive(p string) (change types.FileChange, changed bool, err error) {
	p, err = NormalizePath(p)
	if err != nil {
		return types.FileChange{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[p]; !ok {
		return types.FileChange{}, false, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if s.active == p {
		return types.FileChange{}, false, nil
	}
	s.active = p
	return s.bump(types.ChangeActive, p), true, nil
}

// Reset restores the seed file set and activates the entry file
func (s *Store) Reset() types.FileChange {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = s.copySeed()
	s.active = s.entry
	return s.bump(types.ChangeReset, "")
}

// Active returns the active file path
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Get returns the content of p
func (s *Store) Get(p string) (string, error) {
	p, err := NormalizePath(p)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.files[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return content, nil
}

// Has reports whether p exists
func (s *Store) Has(p string) bool {
	_, err := s.Get(p)
	return err == nil
}

// Snapshot returns a copy of the file set and the revision it belongs to
func (s *Store) Snapshot() (map[string]string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make(map[string]string, len(s.files))
	for p, c := range s.files {
		files[p] = c
	}
	return files, s.revision
}

// Paths returns all paths in lexical order
func (s *Store) Paths() []string {
	s.mu.RLock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	s.mu.RUnlock()

	sort.Strings(paths)
	return paths
}

// Match returns the sorted paths matching a doublestar glob.
// Patterns are relative to the workspace root; a leading "/" is ignored.
func (s *Store) Match(pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(strings.TrimSpace(pattern), Separator)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: bad glob pattern %q", ErrInvalidPath, pattern)
	}

	var matches []string
	for _, p := range s.Paths() {
		if ok, _ := doublestar.Match(pattern, strings.TrimPrefix(p, Separator)); ok {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Len returns the number of files
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Revision returns the current revision
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Seed returns a copy of the initial file set
func (s *Store) Seed() map[string]string {
	return s.copySeed()
}

// bump must be called with mu held
func (s *Store) bump(op types.ChangeOp, p string) types.FileChange {
	s.revision++
	return types.FileChange{
		Revision:   s.revision,
		Op:         op,
		Path:       p,
		ActiveFile: s.active,
	}
}

// checkShadowLocked rejects p when it would be both a file and a directory.
// Must be called with mu held.
func (s *Store) checkShadowLocked(p string) error {
	if dir := fileAncestor(s.files, p); dir != "" {
		return fmt.Errorf("%w: %s is a file, not a directory", ErrInvalidPath, dir)
	}
	prefix := p + Separator
	for existing := range s.files {
		if strings.HasPrefix(existing, prefix) {
			return fmt.Errorf("%w: %s is a directory", ErrInvalidPath, p)
		}
	}
	return nil
}

// fileAncestor returns the first ancestor directory of p that is a file in files
func fileAncestor(files map[string]string, p string) string {
	for dir := Dir(p); dir != Separator; dir = Dir(dir) {
		if _, ok := files[dir]; ok {
			return dir
		}
	}
	return ""
}

func (s *Store) copySeed() map[string]string {
	files := make(map[string]string, len(s.seed))
	for p, c := range s.seed {
		files[p] = c
	}
	return files
}
