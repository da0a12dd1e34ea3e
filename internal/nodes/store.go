package nodes

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Store is the in-memory node store.
//
// Insertion order is preserved globally and per type so hook dispatch over
// nodes is deterministic. Mutations happen only through action sets; reads
// dominate after the source phase, hence the RWMutex.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*Node
	order  []string            // global insertion order
	byType map[string][]string // insertion order per type
}

// NewStore creates an empty node store.
func NewStore() *Store {
	return &Store{
		byID:   make(map[string]*Node),
		byType: make(map[string][]string),
	}
}

// Create adds a node to the store. An empty ID is assigned a UUID.
// Returns the node ID. Creating an existing ID replaces the node in place
// (same position), matching upsert semantics of repeated sourcing.
func (s *Store) Create(n Node) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Fields == nil {
		n.Fields = make(map[string]any)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[n.ID]; ok {
		if existing.Type != n.Type {
			return "", fmt.Errorf("node %s already exists with type %s", n.ID, existing.Type)
		}
		// Preserve links established by transformer plugins.
		n.Children = existing.Children
		if n.Parent == "" {
			n.Parent = existing.Parent
		}
		s.byID[n.ID] = &n
		return n.ID, nil
	}

	s.byID[n.ID] = &n
	s.order = append(s.order, n.ID)
	s.byType[n.Type] = append(s.byType[n.Type], n.ID)
	return n.ID, nil
}

// Delete removes a node and detaches it from its parent. Children are left
// in place with a dangling Parent; callers that cascade do so explicitly.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("node %s not found", id)
	}

	if n.Parent != "" {
		if parent, ok := s.byID[n.Parent]; ok {
			parent.Children = removeID(parent.Children, id)
		}
	}

	delete(s.byID, id)
	s.order = removeID(s.order, id)
	s.byType[n.Type] = removeID(s.byType[n.Type], id)
	if len(s.byType[n.Type]) == 0 {
		delete(s.byType, n.Type)
	}
	return nil
}

// Get returns a copy of the node with the given ID.
func (s *Store) Get(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return Node{}, false
	}
	return copyNode(n), true
}

// All returns copies of every node in insertion order.
func (s *Store) All() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyNode(s.byID[id]))
	}
	return out
}

// ByType returns copies of every node of the given type in insertion order.
func (s *Store) ByType(nodeType string) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byType[nodeType]
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyNode(s.byID[id]))
	}
	return out
}

// Types returns all node types currently in the store, sorted.
func (s *Store) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.byType))
	for t := range s.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// SetField sets a single field on a node.
func (s *Store) SetField(id, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("node %s not found", id)
	}
	if n.Fields == nil {
		n.Fields = make(map[string]any)
	}
	n.Fields[key] = value
	return nil
}

// SetContent replaces a node's content and digest.
func (s *Store) SetContent(id string, content []byte, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("node %s not found", id)
	}
	n.Content = content
	n.ContentDigest = digest
	return nil
}

// Link establishes a parent/child relationship between two existing nodes.
func (s *Store) Link(parentID, childID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.byID[parentID]
	if !ok {
		return fmt.Errorf("parent node %s not found", parentID)
	}
	child, ok := s.byID[childID]
	if !ok {
		return fmt.Errorf("child node %s not found", childID)
	}
	if child.Parent != "" && child.Parent != parentID {
		return fmt.Errorf("node %s already has parent %s", childID, child.Parent)
	}

	child.Parent = parentID
	for _, c := range parent.Children {
		if c == childID {
			return nil
		}
	}
	parent.Children = append(parent.Children, childID)
	return nil
}

// Len returns the number of nodes in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Reset removes all nodes. Used by full rebuilds.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*Node)
	s.order = nil
	s.byType = make(map[string][]string)
}

func copyNode(n *Node) Node {
	out := *n
	if n.Fields != nil {
		out.Fields = make(map[string]any, len(n.Fields))
		for k, v := range n.Fields {
			out.Fields[k] = v
		}
	}
	out.Children = append([]string(nil), n.Children...)
	return out
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
