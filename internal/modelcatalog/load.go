// Package modelcatalog loads declarative model descriptors from a directory
// and keeps them fresh. Each file in the directory describes one model.
//
// The catalog re-scans its directory on every read. Sources are fingerprinted
// with xxhash; when no fingerprint changed the cached index is reused as is,
// otherwise a new index is built and swapped in atomically so readers never
// see a partially rebuilt catalog.
package modelcatalog

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// Catalog is a self-refreshing index of model descriptors. It is safe for
// concurrent use.
type Catalog struct {
	fsys   fs.FS
	logger *slog.Logger
	loads  singleflight.Group
	state  atomic.Pointer[snapshot]
}

type snapshot struct {
	fingerprints map[string]uint64
	byID         map[string]*Descriptor
	// ordered holds descriptors in source order.
	ordered []*Descriptor
	docs    []sourceDoc
	// failures holds sources that could not be parsed.
	failures []string
}

type sourceDoc struct {
	name string
	doc  document
}

// New returns a catalog reading descriptor files from the root of fsys.
func New(fsys fs.FS, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{fsys: fsys, logger: logger}
}

// NewDir returns a catalog reading descriptor files from dir. A missing
// directory yields an empty catalog.
func NewDir(dir string, logger *slog.Logger) *Catalog {
	return New(os.DirFS(dir), logger)
}

// Load scans the catalog directory and rebuilds the index when any source was
// added, removed or changed. Concurrent calls share a single scan.
func (c *Catalog) Load() error {
	_, err, _ := c.loads.Do("load", func() (any, error) {
		return nil, c.load()
	})
	return err
}

func (c *Catalog) load() error {
	contents, err := c.readSources()
	if err != nil {
		return err
	}

	fingerprints := make(map[string]uint64, len(contents))
	for name, data := range contents {
		fingerprints[name] = xxhash.Sum64(data)
	}

	if prev := c.state.Load(); prev != nil && maps.Equal(prev.fingerprints, fingerprints) {
		return nil
	}

	c.state.Store(c.build(contents, fingerprints))
	return nil
}

func (c *Catalog) readSources() (map[string][]byte, error) {
	entries, err := fs.ReadDir(c.fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read model catalog directory: %w", err)
	}

	contents := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isSourceFile(entry.Name()) {
			continue
		}
		data, err := fs.ReadFile(c.fsys, entry.Name())
		if err != nil {
			c.logger.Warn("skipping unreadable model descriptor", slog.String("source", entry.Name()), slog.Any("error", err))
			continue
		}
		contents[entry.Name()] = data
	}
	return contents, nil
}

func (c *Catalog) build(contents map[string][]byte, fingerprints map[string]uint64) *snapshot {
	next := &snapshot{
		fingerprints: fingerprints,
		byID:         make(map[string]*Descriptor, len(contents)),
	}

	for _, name := range slices.Sorted(maps.Keys(contents)) {
		doc, err := parseDocument(name, contents[name])
		if err != nil {
			c.logger.Warn("skipping model descriptor", slog.String("source", name), slog.Any("error", err))
			next.failures = append(next.failures, fmt.Sprintf("source %q: %v", name, err))
			continue
		}
		next.docs = append(next.docs, sourceDoc{name: name, doc: doc})

		d := descriptorFrom(doc, name)
		if d.ID == "" {
			c.logger.Warn("skipping model descriptor without id", slog.String("source", name))
			continue
		}
		if prev, ok := next.byID[d.ID]; ok {
			c.logger.Warn("duplicate model id, later source wins",
				slog.String("id", d.ID), slog.String("previous", prev.Source), slog.String("source", name))
			i := slices.Index(next.ordered, prev)
			next.ordered = slices.Delete(next.ordered, i, i+1)
		}
		next.byID[d.ID] = d
		next.ordered = append(next.ordered, d)
	}

	c.logger.Debug("model catalog loaded", slog.Int("sources", len(contents)), slog.Int("models", len(next.ordered)))
	return next
}

// current refreshes the catalog and returns the snapshot to read from. A
// failed refresh keeps serving the last good snapshot.
func (c *Catalog) current() *snapshot {
	if err := c.Load(); err != nil {
		c.logger.Error("model catalog refresh failed", slog.Any("error", err))
	}
	if s := c.state.Load(); s != nil {
		return s
	}
	return &snapshot{}
}

// FindModel returns the descriptor with the given id.
func (c *Catalog) FindModel(id string) (*Descriptor, bool) {
	d, ok := c.current().byID[id]
	return d, ok
}

// List returns every loaded descriptor in source order.
func (c *Catalog) List() []*Descriptor {
	return slices.Clone(c.current().ordered)
}

// ListVisionCapable returns descriptors that support vision and are shown in
// dropdowns, highest priority first. Ties keep source order.
func (c *Catalog) ListVisionCapable() []*Descriptor {
	var out []*Descriptor
	for _, d := range c.current().ordered {
		if d.Capabilities.SupportsVision && d.UIDisplay.ShowInDropdown {
			out = append(out, d)
		}
	}
	SortByPriority(out)
	return out
}

// SortByPriority orders descriptors by descending UI priority, keeping the
// relative order of equal priorities.
func SortByPriority(ds []*Descriptor) {
	slices.SortStableFunc(ds, func(a, b *Descriptor) int {
		return cmp.Compare(b.UIDisplay.Priority, a.UIDisplay.Priority)
	})
}

// Validate checks every parsed source and returns all violations found.
func (c *Catalog) Validate() []string {
	s := c.current()
	issues := slices.Clone(s.failures)
	for _, src := range s.docs {
		for _, err := range checkDocument(src.doc, src.name) {
			issues = append(issues, err.Error())
		}
	}
	return issues
}
