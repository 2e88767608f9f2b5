// Package store persists the last lamp state across restarts.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sweeney/fairy-lamp/internal/lamp"
)

// record is the on-disk layout.
type record struct {
	Power bool `toml:"power"`
	Level int  `toml:"level"`
}

// File stores the lamp state in a TOML file.
type File struct {
	path string
}

// NewFile returns a store backed by path. The file need not exist.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the stored state. A missing file yields the default state
// (off at lamp.DefaultLevel) and no error.
func (f *File) Load() (lamp.State, error) {
	def := lamp.State{Level: lamp.DefaultLevel}

	var r record
	if _, err := toml.DecodeFile(f.path, &r); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return def, nil
		}
		return def, fmt.Errorf("load state %s: %w", f.path, err)
	}
	if r.Level < int(lamp.MinLevel) || r.Level > int(lamp.MaxLevel) {
		return def, fmt.Errorf("load state %s: level %d out of range", f.path, r.Level)
	}
	return lamp.State{Power: r.Power, Level: uint8(r.Level)}, nil
}

// Save writes the state atomically (write to temp file, then rename).
func (f *File) Save(s lamp.State) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".lamp-state-*")
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(record{Power: s.Power, Level: int(s.Level)}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
