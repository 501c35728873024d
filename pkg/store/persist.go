package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const DefaultStorageFileName = ".intentswap-state.json"

// Port is the narrow persistence surface the store writes its snapshot
// through. Load returns nil data when no snapshot exists yet.
type Port interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FilePort persists the snapshot as a single JSON file.
type FilePort struct {
	path string
}

// NewFilePort creates a file-backed port. An empty path defaults to
// the user's home directory.
func NewFilePort(path string) (*FilePort, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, DefaultStorageFileName)
	}

	return &FilePort{path: path}, nil
}

// Load reads the snapshot file. A missing file is not an error.
func (p *FilePort) Load() ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save writes the snapshot atomically: to a temp file first, then a
// rename over the real one.
func (p *FilePort) Save(data []byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := p.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := os.Rename(tempFile, p.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Path returns the snapshot file location.
func (p *FilePort) Path() string {
	return p.path
}

// MemoryPort keeps the snapshot in memory. Used in tests.
type MemoryPort struct {
	mu       sync.Mutex
	data     []byte
	LoadErr  error
	SaveErr  error
	SaveHits int
}

func (p *MemoryPort) Load() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.LoadErr != nil {
		return nil, p.LoadErr
	}
	return p.data, nil
}

func (p *MemoryPort) Save(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SaveHits++
	if p.SaveErr != nil {
		return p.SaveErr
	}
	p.data = append([]byte(nil), data...)
	return nil
}

// Bytes returns the last saved snapshot.
func (p *MemoryPort) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.data...)
}
