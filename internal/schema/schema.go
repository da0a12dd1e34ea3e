// Package schema stores what the schema-phase hooks declare: explicit type
// definitions, field additions to inferred types, and resolver bindings.
//
// This is a declaration store, not a query engine. The rest of the build
// reads the snapshot; nothing here executes queries.
package schema

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// FieldKind classifies an inferred or declared field.
type FieldKind string

const (
	KindString  FieldKind = "String"
	KindInt     FieldKind = "Int"
	KindFloat   FieldKind = "Float"
	KindBoolean FieldKind = "Boolean"
	KindDate    FieldKind = "Date"
	KindList    FieldKind = "List"
	KindObject  FieldKind = "Object"
	KindUnknown FieldKind = "Unknown"
)

// FieldDef describes a single field of a type.
type FieldDef struct {
	Kind FieldKind
	// Description is optional documentation carried into the build report.
	Description string
}

// TypeDef is an explicit type declared through createSchemaCustomization.
type TypeDef struct {
	Name   string
	Fields map[string]FieldDef
	Owner  string
}

// ResolverBinding attaches a resolver function to a field, declared through
// createResolvers as the last schema-build step.
type ResolverBinding struct {
	Type  string
	Field string
	Owner string
	// Resolve computes the field value from a node's fields.
	Resolve func(nodeFields map[string]any) (any, error)
}

// FieldExtension is a named, reusable field behavior declared through
// createFieldExtension (e.g. "dateformat"). The host records extensions;
// applying them happens wherever a field declares one.
type FieldExtension struct {
	Name        string
	Owner       string
	Description string
	// Apply transforms a resolved field value.
	Apply func(value any, args map[string]any) (any, error)
}

// Snapshot is a read-only view of the assembled schema declarations.
type Snapshot struct {
	Types      []TypeDef
	Inferred   map[string]map[string]FieldDef
	Resolvers  []ResolverBinding
	Extensions []FieldExtension
}

// Store accumulates schema declarations during the schema phase.
type Store struct {
	mu         sync.RWMutex
	types      map[string]*TypeDef
	typeOrder  []string
	inferred   map[string]map[string]FieldDef
	resolvers  []ResolverBinding
	extensions []FieldExtension
	sealed     bool
}

// NewStore creates an empty schema store.
func NewStore() *Store {
	return &Store{
		types:    make(map[string]*TypeDef),
		inferred: make(map[string]map[string]FieldDef),
	}
}

// DefineType records an explicit type definition. Redefining a type owned by
// another plugin fails; the same owner may refine its own definition.
func (s *Store) DefineType(def TypeDef) error {
	if def.Name == "" {
		return fmt.Errorf("type name is required")
	}
	if def.Owner == "" {
		return fmt.Errorf("type owner is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return fmt.Errorf("schema is sealed; createSchemaCustomization runs before schema build")
	}

	if existing, ok := s.types[def.Name]; ok {
		if existing.Owner != def.Owner {
			return fmt.Errorf("type %s already defined by %s", def.Name, existing.Owner)
		}
		for name, fd := range def.Fields {
			existing.Fields[name] = fd
		}
		return nil
	}

	if def.Fields == nil {
		def.Fields = make(map[string]FieldDef)
	}
	s.types[def.Name] = &def
	s.typeOrder = append(s.typeOrder, def.Name)
	return nil
}

// AddInferredFields merges field definitions into a node type's inferred
// shape. Used both by host-side inference and by
// setFieldsOnGraphQLNodeType implementations.
func (s *Store) AddInferredFields(nodeType string, fields map[string]FieldDef) error {
	if nodeType == "" {
		return fmt.Errorf("node type is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return fmt.Errorf("schema is sealed")
	}

	existing := s.inferred[nodeType]
	if existing == nil {
		existing = make(map[string]FieldDef, len(fields))
		s.inferred[nodeType] = existing
	}
	for name, fd := range fields {
		existing[name] = fd
	}
	return nil
}

// BindResolver records a resolver binding. Binding the same type/field twice
// fails: the last schema step leaves no room to arbitrate.
func (s *Store) BindResolver(b ResolverBinding) error {
	if b.Type == "" || b.Field == "" {
		return fmt.Errorf("resolver binding requires type and field")
	}
	if b.Resolve == nil {
		return fmt.Errorf("resolver binding requires a resolve function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return fmt.Errorf("schema is sealed; createResolvers is the last schema step")
	}

	for _, existing := range s.resolvers {
		if existing.Type == b.Type && existing.Field == b.Field {
			return fmt.Errorf("resolver for %s.%s already bound by %s", b.Type, b.Field, existing.Owner)
		}
	}
	s.resolvers = append(s.resolvers, b)
	return nil
}

// RegisterFieldExtension records a named field extension. Names are unique
// across plugins.
func (s *Store) RegisterFieldExtension(ext FieldExtension) error {
	if ext.Name == "" {
		return fmt.Errorf("field extension name is required")
	}
	if ext.Apply == nil {
		return fmt.Errorf("field extension requires an apply function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return fmt.Errorf("schema is sealed")
	}

	for _, existing := range s.extensions {
		if existing.Name == ext.Name {
			return fmt.Errorf("field extension %s already registered by %s", ext.Name, existing.Owner)
		}
	}
	s.extensions = append(s.extensions, ext)
	return nil
}

// FieldExtensionByName returns a registered field extension, if any.
func (s *Store) FieldExtensionByName(name string) (FieldExtension, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ext := range s.extensions {
		if ext.Name == name {
			return ext, true
		}
	}
	return FieldExtension{}, false
}

// Resolver returns the resolver bound to type/field, if any.
func (s *Store) Resolver(nodeType, field string) (ResolverBinding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.resolvers {
		if b.Type == nodeType && b.Field == field {
			return b, true
		}
	}
	return ResolverBinding{}, false
}

// Seal freezes the store after the schema phase completes.
func (s *Store) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
}

// Reset clears all declarations for a full rebuild.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = make(map[string]*TypeDef)
	s.typeOrder = nil
	s.inferred = make(map[string]map[string]FieldDef)
	s.resolvers = nil
	s.extensions = nil
	s.sealed = false
}

// Snapshot returns a copy of the current declarations, types in declaration
// order.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Inferred: make(map[string]map[string]FieldDef, len(s.inferred)),
	}
	for _, name := range s.typeOrder {
		def := s.types[name]
		fields := make(map[string]FieldDef, len(def.Fields))
		for k, v := range def.Fields {
			fields[k] = v
		}
		snap.Types = append(snap.Types, TypeDef{Name: def.Name, Owner: def.Owner, Fields: fields})
	}
	for t, fields := range s.inferred {
		cp := make(map[string]FieldDef, len(fields))
		for k, v := range fields {
			cp[k] = v
		}
		snap.Inferred[t] = cp
	}
	snap.Resolvers = append(snap.Resolvers, s.resolvers...)
	snap.Extensions = append(snap.Extensions, s.extensions...)
	return snap
}

// InferredTypes returns node types with inferred fields, sorted.
func (s *Store) InferredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.inferred))
	for t := range s.inferred {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// InferValueKind maps an observed node field value to a FieldKind.
func InferValueKind(v any) FieldKind {
	switch v.(type) {
	case string:
		return KindString
	case int, int32, int64, uint, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case bool:
		return KindBoolean
	case time.Time:
		return KindDate
	case []any, []string:
		return KindList
	case map[string]any:
		return KindObject
	default:
		return KindUnknown
	}
}
