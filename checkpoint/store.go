// Package checkpoint persists per-generation champion weights.
//
// Each checkpoint is one JSON file named generation_<N>.json holding a
// serialized neural.Weights value. Files are written once and never
// overwritten.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pthm-cable/strider/neural"
)

const (
	filePrefix = "generation"
	fileExt    = ".json"
)

// Sentinel errors.
var (
	ErrExists        = errors.New("checkpoint already exists")
	ErrNoCheckpoints = errors.New("no checkpoints found")
)

// FormatError reports a checkpoint path whose name does not encode a
// generation number.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("checkpoint %q: %s", e.Path, e.Reason)
}

// ReadError reports a checkpoint that could not be read or decoded.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading checkpoint %q: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Store reads and writes checkpoints in one directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created on the
// first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the checkpoint for generation would live.
func (s *Store) Path(generation int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%d%s", filePrefix, generation, fileExt))
}

// Save writes weights as the checkpoint for generation and returns its path.
// An existing checkpoint for the same generation is left untouched and
// ErrExists is returned.
func (s *Store) Save(generation int, w neural.Weights) (string, error) {
	if generation < 1 {
		return "", fmt.Errorf("save checkpoint: generation %d must be >= 1", generation)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create checkpoint dir: %w", err)
	}

	path := s.Path(generation)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("save %s: %w", path, ErrExists)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("marshal checkpoint: %w", err)
	}

	// The final name only ever refers to a complete file.
	tmp, err := os.CreateTemp(s.dir, filePrefix+"_*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename checkpoint: %w", err)
	}
	return path, nil
}

// ParseGeneration extracts N from a path whose base name is
// <prefix>_<N>.<ext>. The token between the first underscore and the
// extension must be a positive integer.
func ParseGeneration(path string) (int, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return 0, &FormatError{Path: path, Reason: "missing extension"}
	}
	stem := strings.TrimSuffix(base, ext)
	_, token, ok := strings.Cut(stem, "_")
	if !ok {
		return 0, &FormatError{Path: path, Reason: "missing '_' separator"}
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, &FormatError{Path: path, Reason: fmt.Sprintf("generation %q is not a number", token)}
	}
	if n < 1 {
		return 0, &FormatError{Path: path, Reason: fmt.Sprintf("generation %d must be >= 1", n)}
	}
	return n, nil
}

// Load parses the generation from path and decodes the weights it holds.
// Weights whose arrays do not match their declared layout are rejected.
func Load(path string) (int, neural.Weights, error) {
	gen, err := ParseGeneration(path)
	if err != nil {
		return 0, neural.Weights{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, neural.Weights{}, &ReadError{Path: path, Err: err}
	}

	var w neural.Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return 0, neural.Weights{}, &ReadError{Path: path, Err: err}
	}
	if _, err := neural.FromWeights(w); err != nil {
		return 0, neural.Weights{}, &ReadError{Path: path, Err: err}
	}
	return gen, w, nil
}

// Entry is one checkpoint found on disk.
type Entry struct {
	Path       string
	Generation int
}

// List returns every checkpoint in the store ordered by generation.
// Files whose names do not parse are skipped.
func (s *Store) List() ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"_*"+fileExt))
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		if n, err := ParseGeneration(m); err == nil {
			entries = append(entries, Entry{Path: m, Generation: n})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Generation < entries[j].Generation
	})
	return entries, nil
}

// Latest returns the highest-numbered checkpoint.
func (s *Store) Latest() (Entry, error) {
	entries, err := s.List()
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("%s: %w", s.dir, ErrNoCheckpoints)
	}
	return entries[len(entries)-1], nil
}
