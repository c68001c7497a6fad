package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var unsafeScopeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileBackend keeps one JSON document per scope under dir.
// Every write replaces the document through a temp file and rename.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

func ensureDir(dir string) error {
	if dir == "" {
		return errors.New("draft: empty directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("draft: create %s: %w", dir, err)
	}
	return nil
}

func (b *FileBackend) path(scope string) string {
	return filepath.Join(b.dir, unsafeScopeChars.ReplaceAllString(scope, "_")+".json")
}

func (b *FileBackend) read(scope string) (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(b.path(scope))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A corrupt document is treated as empty; the next write replaces it.
		return map[string]json.RawMessage{}, nil
	}
	return doc, nil
}

func (b *FileBackend) write(scope string, doc map[string]json.RawMessage) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.dir, ".draft-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, b.path(scope))
}

func (b *FileBackend) Get(scope, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, err := b.read(scope)
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

func (b *FileBackend) Set(scope, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("draft: value for %s is not JSON", key)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, err := b.read(scope)
	if err != nil {
		return err
	}
	doc[key] = json.RawMessage(value)
	return b.write(scope, doc)
}

func (b *FileBackend) Remove(scope string, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, err := b.read(scope)
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(doc, k)
	}
	if len(doc) == 0 {
		if err := os.Remove(b.path(scope)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return b.write(scope, doc)
}

func (b *FileBackend) Close() error { return nil }
