// Package store persists the pantry's JSON documents on the local
// filesystem.
package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotFound is returned when a required document does not exist.
var ErrNotFound = errors.New("document not found")

var locks sync.Map

func lockFor(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	mu, _ := locks.LoadOrStore(abs, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// WithLock runs fn while holding the process-wide lock of path. Every
// read-modify-write of a document goes through it.
func WithLock(path string, fn func() error) error {
	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// ReadJSON decodes the document at path into v. A missing file yields an
// error wrapping ErrNotFound.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteJSONAtomic replaces the document at path. The data is written to a
// temporary file in the same directory, synced and renamed over path.
func WriteJSONAtomic(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Info describes the current version of a document for HTTP caching.
type Info struct {
	ETag    string
	ModTime time.Time
}

// Stat hashes the document at path. The ETag is the hex SHA-256 of the file
// bytes.
func Stat(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat %s: %w", filepath.Base(path), err)
	}
	sum := sha256.Sum256(data)
	return Info{ETag: hex.EncodeToString(sum[:]), ModTime: fi.ModTime().UTC()}, nil
}

// Variant derives a distinct ETag for a view of the document, such as one
// page of a listing.
func (i Info) Variant(key string) string {
	if key == "" {
		return i.ETag
	}
	sum := sha256.Sum256([]byte(i.ETag + "?" + key))
	return hex.EncodeToString(sum[:])
}
