package horntail

import (
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entryCacheChildCap bounds how many resolved children a single
// EntryCache node keeps around at once. Folders in this format can run
// into the thousands of siblings; an unbounded per-node map would mean a
// single deep walk over a large tree never releases memory, so lookups
// are served from a small LRU instead of a growing map (§9, adapting the
// unbounded-but-memoized child map into a bounded one).
const entryCacheChildCap = 256

// EntryCache wraps an Entry with a memoized, bounded-size view of its
// children so repeated path lookups into the same subtree don't re-walk
// the underlying directory listing on every call (§9 "lazy tree vs.
// cached tree").
type EntryCache struct {
	entry    *Entry
	children *lru.Cache[string, *EntryCache]
	loaded   bool
	order    []string
}

// NewEntryCache wraps e for cached traversal.
func NewEntryCache(e *Entry) *EntryCache {
	c, err := lru.New[string, *EntryCache](entryCacheChildCap)
	if err != nil {
		panic(err) // only fails for a non-positive size, which entryCacheChildCap never is
	}
	return &EntryCache{entry: e, children: c}
}

// Entry returns the wrapped navigator.
func (c *EntryCache) Entry() *Entry { return c.entry }

// Name returns the wrapped entry's name.
func (c *EntryCache) Name() string { return c.entry.Name() }

// Kind returns the wrapped entry's kind.
func (c *EntryCache) Kind() EntryKind { return c.entry.Kind() }

// ensure resolves and caches this node's children on first use.
func (c *EntryCache) ensure() error {
	if c.loaded {
		return nil
	}
	kids, err := c.entry.Children()
	if err != nil {
		return err
	}
	c.order = make([]string, 0, len(kids))
	for _, k := range kids {
		c.children.Add(k.Name(), NewEntryCache(k))
		c.order = append(c.order, k.Name())
	}
	c.loaded = true
	return nil
}

// Get resolves name among this node's direct children, returning false if
// absent. It returns ErrInvalidDataType if this node is not a Folder.
func (c *EntryCache) Get(name string) (*EntryCache, bool, error) {
	if err := c.ensure(); err != nil {
		return nil, false, err
	}
	child, ok := c.children.Get(name)
	if !ok && slices.Contains(c.order, name) {
		// evicted since load; resolve it again from the entry itself
		// rather than report a listed child as absent.
		kids, err := c.entry.Children()
		if err != nil {
			return nil, false, err
		}
		for _, k := range kids {
			if k.Name() == name {
				child, ok = NewEntryCache(k), true
				c.children.Add(name, child)
			}
		}
	}
	return child, ok, nil
}

// GetByPath resolves a "/"-separated path of child names from this node,
// returning false if any component is absent.
func (c *EntryCache) GetByPath(path string) (*EntryCache, bool, error) {
	cursor := c
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		next, ok, err := cursor.Get(part)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		cursor = next
	}
	return cursor, true, nil
}

// Children returns every direct child of this node, resolving and
// caching them first if necessary. Order matches the underlying
// directory listing.
func (c *EntryCache) Children() ([]*EntryCache, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	out := make([]*EntryCache, 0, len(c.order))
	for _, name := range c.order {
		child, ok := c.children.Get(name)
		if !ok {
			// evicted since load; re-resolve the listing from the entry
			// itself rather than surface a confusing partial listing.
			kids, err := c.entry.Children()
			if err != nil {
				return nil, err
			}
			out = out[:0]
			for _, k := range kids {
				cached := NewEntryCache(k)
				c.children.Add(k.Name(), cached)
				out = append(out, cached)
			}
			return out, nil
		}
		out = append(out, child)
	}
	return out, nil
}
