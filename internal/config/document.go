// Package config provides the YAML config documents and the cache/reload
// manager that drives Arcanum's runtime configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Document is a YAML-backed key-value store with dotted-path lookups
// ("options.backwards-compatibility"), defaults, reload and save.
type Document struct {
	name string
	path string

	mu sync.RWMutex
	v  *viper.Viper
}

// NewDocument creates a document bound to the YAML file at path.
// The file is not read until Load is called.
func NewDocument(name, path string) *Document {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	return &Document{name: name, path: path, v: v}
}

// Name returns the document's short name ("config", "items", "researches").
func (d *Document) Name() string { return d.name }

// Path returns the backing file path.
func (d *Document) Path() string { return d.path }

// Load reads the document from disk. On any failure the in-memory state
// is left untouched, so previously loaded values stay available.
func (d *Document) Load() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("reading %s document: %w", d.name, err)
	}

	// Validate before handing to viper: viper clears its state before
	// parsing, which would drop the previous values on a parse error.
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("parsing %s document: %w", d.name, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("loading %s document: %w", d.name, err)
	}
	return nil
}

// Save writes the document's merged settings (file values, in-memory
// sets and registered defaults) back to disk atomically.
func (d *Document) Save() error {
	d.mu.RLock()
	settings := d.v.AllSettings()
	d.mu.RUnlock()

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(settings); err != nil {
		return fmt.Errorf("marshaling %s document: %w", d.name, err)
	}
	_ = encoder.Close()

	// Write atomically (write to temp, then rename)
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, d.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// Get returns the raw value at path, or nil if unset.
func (d *Document) Get(path string) any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.v.Get(path)
}

// GetBool returns the boolean at path (false if unset).
func (d *Document) GetBool(path string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.v.GetBool(path)
}

// GetInt returns the integer at path (0 if unset).
func (d *Document) GetInt(path string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.v.GetInt(path)
}

// GetString returns the string at path ("" if unset).
func (d *Document) GetString(path string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.v.GetString(path)
}

// IsSet reports whether path has a value (including registered defaults).
func (d *Document) IsSet(path string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.v.IsSet(path)
}

// Set overrides the value at path in memory. Save persists it.
func (d *Document) Set(path string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.v.Set(path, value)
}

// SetDefault registers a fallback value for path. Defaults survive
// reloads and are included when the document is saved.
func (d *Document) SetDefault(path string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.v.SetDefault(path, value)
}
