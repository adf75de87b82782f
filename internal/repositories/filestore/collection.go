package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"event-ticketing-manager/internal/models"
)

// collection is one JSON file holding an ordered list of records. The list
// is kept in memory and the whole file is rewritten on every write. Both
// id and code must be unique across the list.
type collection[T any] struct {
	mu    sync.RWMutex
	path  string
	items []*T
	id    func(*T) string
	code  func(*T) string
}

func openCollection[T any](path string, id, code func(*T) string) (*collection[T], error) {
	c := &collection[T]{path: path, id: id, code: code, items: []*T{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return c, nil
}

// find returns a copy of the first record matching.
func (c *collection[T]) find(match func(*T) bool) *T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if match(item) {
			cp := *item
			return &cp
		}
	}
	return nil
}

// filter returns copies of every record matching, in file order.
func (c *collection[T]) filter(match func(*T) bool) []*T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []*T{}
	for _, item := range c.items {
		if match(item) {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out
}

func (c *collection[T]) insert(item *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, code := c.id(item), c.code(item)
	for _, existing := range c.items {
		if c.id(existing) == id {
			return fmt.Errorf("record %s already exists", id)
		}
		if c.code(existing) == code {
			return fmt.Errorf("record %s: %w: %s", id, models.ErrDuplicateCode, code)
		}
	}

	cp := *item
	next := append(c.items[:len(c.items):len(c.items)], &cp)
	if err := c.persist(next); err != nil {
		return err
	}
	c.items = next
	return nil
}

// replace swaps the record with item's id for item. check sees the stored
// record first and may veto the write.
func (c *collection[T]) replace(item *T, check func(current *T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.id(item)
	for i, existing := range c.items {
		if c.id(existing) != id {
			continue
		}
		if check != nil {
			if err := check(existing); err != nil {
				return err
			}
		}

		next := make([]*T, len(c.items))
		copy(next, c.items)
		cp := *item
		next[i] = &cp
		if err := c.persist(next); err != nil {
			return err
		}
		c.items = next
		return nil
	}
	return models.ErrRecordNotFound
}

// persist writes items to a temporary file next to the target and renames
// it into place, so readers never see a partial file.
func (c *collection[T]) persist(items []*T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.path, err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", c.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", c.path, err)
	}
	return nil
}
