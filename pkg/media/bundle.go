package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Factory builds a Player for a resolved file path.
type Factory func(path string) (Player, error)

// DefaultExtensions are tried in order when resolving a bundled resource.
var DefaultExtensions = []string{".mov", ".mp4", ".m4v", ".avi"}

// Bundle resolves resource names against a directory of media files.
type Bundle struct {
	dir     string
	exts    []string
	factory Factory
}

// NewBundle creates a bundle rooted at dir. With no extensions given,
// DefaultExtensions is used.
func NewBundle(dir string, factory Factory, exts ...string) *Bundle {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return &Bundle{dir: dir, exts: exts, factory: factory}
}

// Resolve returns the file path for name.
func (b *Bundle) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrResourceNotFound)
	}
	candidates := []string{filepath.Join(b.dir, name)}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range b.exts {
			candidates = append(candidates, filepath.Join(b.dir, name+ext))
		}
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrResourceNotFound, name, b.dir)
}

// Open resolves name and builds a player for it.
func (b *Bundle) Open(name string) (Player, error) {
	path, err := b.Resolve(name)
	if err != nil {
		return nil, err
	}
	p, err := b.factory(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return p, nil
}

// Catalog is an in-memory Library of ClockPlayers keyed by resource name.
type Catalog map[string]time.Duration

// Open returns a new ClockPlayer for name.
func (c Catalog) Open(name string) (Player, error) {
	d, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	if d <= 0 {
		return nil, fmt.Errorf("resource %s has non-positive duration %v", name, d)
	}
	return NewClockPlayer(d), nil
}

// Names returns the catalog's resource names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
