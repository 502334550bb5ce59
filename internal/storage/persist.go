package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNotFound = errors.New("not found")

// PersistInstance is a flat directory of JSON files, one per logical record.
type PersistInstance struct {
	dir string
}

func NewPersistInstance(dir string) (*PersistInstance, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &PersistInstance{dir: dir}, nil
}

func (p *PersistInstance) Dir() string {
	return p.dir
}

func (p *PersistInstance) SaveJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", name, err)
	}
	if err := os.WriteFile(p.path(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (p *PersistInstance) LoadJSON(name string, dst any) error {
	data, err := os.ReadFile(p.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to deserialize %s: %w", name, err)
	}
	return nil
}

func (p *PersistInstance) Remove(name string) error {
	if err := os.Remove(p.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// AppendLine appends one serialized record plus newline to a rolling file.
func (p *PersistInstance) AppendLine(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s line: %w", name, err)
	}

	f, err := os.OpenFile(p.path(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append to %s: %w", name, err)
	}
	return nil
}

func (p *PersistInstance) path(name string) string {
	return filepath.Join(p.dir, name)
}
