package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

// Entry identifies one household board.
type Entry struct {
	EntryID string `json:"entry_id"`
	Title   string `json:"title"`
}

// Registry maps household entry ids to their stores. It is built by the
// composition root and handed to transports and triggers.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]*Store
	order  []string
}

// NewRegistry creates a registry holding the given stores. It panics when
// two stores share an entry id; callers building from configuration should
// use Register and handle the error.
func NewRegistry(stores ...*Store) *Registry {
	r := &Registry{stores: make(map[string]*Store, len(stores))}
	for _, s := range stores {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a store. Entry ids must be unique.
func (r *Registry) Register(s *Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[s.EntryID()]; exists {
		return fmt.Errorf("entry %q already registered", s.EntryID())
	}
	r.stores[s.EntryID()] = s
	r.order = append(r.order, s.EntryID())
	return nil
}

// Get returns the store for entryID or domain.ErrEntryNotFound.
func (r *Registry) Get(entryID string) (*Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stores[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, entryID)
	}
	return s, nil
}

// Stores returns every store in registration order.
func (r *Registry) Stores() []*Store {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Store, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stores[id])
	}
	return out
}

// Entries lists the registered households sorted by title.
func (r *Registry) Entries() []Entry {
	stores := r.Stores()
	entries := make([]Entry, 0, len(stores))
	for _, s := range stores {
		entries = append(entries, Entry{EntryID: s.EntryID(), Title: s.Title()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Title < entries[j].Title
	})
	return entries
}
