package pages

import (
	"fmt"
	"sync"
	"time"
)

// Store is the in-memory page store. Creation order is preserved; an upsert
// for an existing path keeps the page's original position.
type Store struct {
	mu     sync.RWMutex
	byPath map[string]*Page
	order  []string
}

// NewStore creates an empty page store.
func NewStore() *Store {
	return &Store{byPath: make(map[string]*Page)}
}

// Upsert adds a page, replacing any existing page at the same path.
// The path is normalized to a trailing slash first.
func (s *Store) Upsert(p Page) (Page, error) {
	p.Path = NormalizePath(p.Path)
	if err := p.Validate(); err != nil {
		return Page{}, err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byPath[p.Path]; ok {
		if existing.Stateful && existing.Owner != p.Owner {
			return Page{}, fmt.Errorf("page %s is managed statefully by %s", p.Path, existing.Owner)
		}
		p.CreatedAt = existing.CreatedAt
		s.byPath[p.Path] = &p
		return p, nil
	}

	s.byPath[p.Path] = &p
	s.order = append(s.order, p.Path)
	return p, nil
}

// Delete removes the page at path. Stateful pages may only be removed by
// their owner.
func (s *Store) Delete(path, owner string) error {
	path = NormalizePath(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byPath[path]
	if !ok {
		return fmt.Errorf("page %s not found", path)
	}
	if p.Stateful && p.Owner != owner {
		return fmt.Errorf("page %s is managed statefully by %s", path, p.Owner)
	}

	delete(s.byPath, path)
	for i, v := range s.order {
		if v == path {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of the page at path.
func (s *Store) Get(path string) (Page, bool) {
	path = NormalizePath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byPath[path]
	if !ok {
		return Page{}, false
	}
	return copyPage(p), true
}

// All returns copies of every page in creation order.
func (s *Store) All() []Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Page, 0, len(s.order))
	for _, path := range s.order {
		out = append(out, copyPage(s.byPath[path]))
	}
	return out
}

// Len returns the number of pages in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPath)
}

// Reset removes pages ahead of a declarative re-create. With keepStateful,
// pages created through createPagesStatefully survive; their owners manage
// them outside tracked data.
func (s *Store) Reset(keepStateful bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !keepStateful {
		s.byPath = make(map[string]*Page)
		s.order = nil
		return
	}

	kept := make([]string, 0, len(s.order))
	for _, path := range s.order {
		if s.byPath[path].Stateful {
			kept = append(kept, path)
		} else {
			delete(s.byPath, path)
		}
	}
	s.order = kept
}

func copyPage(p *Page) Page {
	out := *p
	if p.Context != nil {
		out.Context = make(map[string]any, len(p.Context))
		for k, v := range p.Context {
			out.Context[k] = v
		}
	}
	return out
}
