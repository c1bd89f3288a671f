package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/coracle/shiftclaim/internal/types"
)

// DefaultPath is where the history list is kept when settings do not name a file.
const DefaultPath = "./history/history.json"

// File persists the history list as a single JSON array, rewritten on every save.
type File struct {
	Path string
}

// NewFile returns a File persistence for path, or DefaultPath when path is empty.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{Path: path}
}

// Load reads the list. A missing file is an empty history.
func (f *File) Load(_ context.Context) ([]types.Shift, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", f.Path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var shifts []types.Shift
	if err := json.Unmarshal(data, &shifts); err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", f.Path, err)
	}
	return shifts, nil
}

// Save writes the list to a temporary file and renames it over the old one.
func (f *File) Save(_ context.Context, shifts []types.Shift) error {
	if shifts == nil {
		shifts = []types.Shift{}
	}
	data, err := json.MarshalIndent(shifts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("failed to replace history file %s: %w", f.Path, err)
	}
	return nil
}
