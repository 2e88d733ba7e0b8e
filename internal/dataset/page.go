package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/halcyon-data/domgraph/internal/dom"
)

// Labels exposes a page's gold annotations.
type Labels interface {
	// LabelKeys returns the page's label keys in a fixed, stable order.
	LabelKeys() []string

	// LabeledNodes returns the raw locations annotated with key, as index
	// paths against the original unfiltered tree.
	LabeledNodes(key string) ([][]int, error)
}

// Page is the fixed interface dataset adapters implement.
type Page interface {
	// Identifier is the page's stable cache key.
	Identifier() string

	// HTMLText returns the raw HTML of the page.
	HTMLText() (string, error)

	// DOM returns the page's parsed tree with nodes initialized. Adapters
	// cache the tree so label resolution and feature extraction share it.
	DOM() (*dom.Tree, error)

	// Fields are the gold field names present on this page.
	Fields() []string

	// Labels exposes the gold annotations.
	Labels() Labels

	// VisualsJSON returns the visual-attribute document for the page, or
	// nil when the adapter has none.
	VisualsJSON() ([]byte, error)

	// Slot is the page's cache slot.
	Slot() Slot
}

// Slot is a page's cache location: a file path or an in-memory cell.
type Slot interface {
	Exists() bool
	Read() ([]byte, error)
	// Write persists atomically: a failed write must not leave a partial
	// entry behind.
	Write(data []byte) error
	// Delete invalidates the slot. With backup, the entry is renamed aside
	// instead of removed. Returns whether an entry existed.
	Delete(backup bool) (bool, error)
}

// FileSlot stores a sample at a filesystem path.
type FileSlot string

func (s FileSlot) Exists() bool {
	_, err := os.Stat(string(s))
	return err == nil
}

func (s FileSlot) Read() ([]byte, error) {
	return os.ReadFile(string(s))
}

func (s FileSlot) Write(data []byte) error {
	path := string(s)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s FileSlot) Delete(backup bool) (bool, error) {
	path := string(s)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if backup {
		return true, os.Rename(path, path+".bak")
	}
	return true, os.Remove(path)
}

// MemorySlot keeps a sample in memory, for pages with no path configured.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
}

func (s *MemorySlot) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data != nil
}

func (s *MemorySlot) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, fmt.Errorf("memory slot is empty")
	}
	return s.data, nil
}

func (s *MemorySlot) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemorySlot) Delete(bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existed := s.data != nil
	s.data = nil
	return existed, nil
}
