// Package catalog holds extracted metadata records in memory and searches
// them with the query filter.
package catalog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"metafilter/internal/filter"
	"metafilter/internal/models"
)

type Entry struct {
	ID       string           `json:"id"`
	AddedAt  time.Time        `json:"addedAt"`
	Metadata *models.Metadata `json:"metadata"`
}

// Catalog is safe for concurrent use. Entries are kept in insertion order.
type Catalog struct {
	mu      sync.RWMutex
	entries []*Entry
	byID    map[string]*Entry
	now     func() time.Time
}

func New() *Catalog {
	return &Catalog{
		byID: make(map[string]*Entry),
		now:  time.Now,
	}
}

// Add stores md under a new ID. The catalog keeps its own copy.
func (c *Catalog) Add(md models.Metadata) *Entry {
	if md.Keywords != nil {
		md.Keywords = append([]string{}, md.Keywords...)
	}
	e := &Entry{
		ID:       uuid.New().String(),
		AddedAt:  c.now().UTC(),
		Metadata: &md,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	c.byID[e.ID] = e
	return e
}

func (c *Catalog) Get(id string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	return e, ok
}

// List returns a snapshot of all entries.
func (c *Catalog) List() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Delete removes the entry and reports whether it existed.
func (c *Catalog) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	for i, e := range c.entries {
		if e.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	return true
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Search returns the entries whose metadata matches query, in the order the
// filter reports them.
func (c *Catalog) Search(query string) []*Entry {
	entries := c.List()
	records := make([]*models.Metadata, len(entries))
	owner := make(map[*models.Metadata]*Entry, len(entries))
	for i, e := range entries {
		records[i] = e.Metadata
		owner[e.Metadata] = e
	}

	matches := filter.Filter(records, query)
	out := make([]*Entry, 0, len(matches))
	for _, md := range matches {
		out = append(out, owner[md])
	}
	return out
}
