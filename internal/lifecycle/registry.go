package lifecycle

import (
	"fmt"
	"reflect"
	"sync"
)

// Registration is one stored hook implementation.
type Registration struct {
	// Owner is the plugin that registered the implementation.
	Owner string
	Hook  HookName
	// Impl is the implementation; its type matches the descriptor's
	// Signature.
	Impl any
}

// Registry stores hook implementations keyed by hook name, preserving
// registration order across plugins.
//
// Registration happens at plugin load time and lookups are read-only
// thereafter; the RWMutex is all the synchronization this needs.
type Registry struct {
	mu   sync.RWMutex
	impl map[HookName][]Registration
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{impl: make(map[HookName][]Registration)}
}

// Register stores an implementation of hook name for the named plugin.
//
// It fails with UnknownHookError when name is outside the contract table,
// SignatureError when impl's type does not match the hook's signature, and
// DuplicateHookError when owner already registered an implementation for
// name.
func (r *Registry) Register(owner string, name HookName, impl any) error {
	if owner == "" {
		return fmt.Errorf("registering owner is required")
	}

	desc, ok := Describe(name)
	if !ok {
		return &UnknownHookError{Name: name}
	}

	if impl == nil {
		return &SignatureError{Name: name, Got: "nil", Want: reflect.TypeOf(desc.Signature).String()}
	}
	want := reflect.TypeOf(desc.Signature)
	got := reflect.TypeOf(impl)
	if got != want {
		// Accept a bare func with the right shape: convert it to the
		// declared signature type so lookups always yield the named type.
		if got.Kind() == reflect.Func && got.ConvertibleTo(want) {
			impl = reflect.ValueOf(impl).Convert(want).Interface()
		} else {
			return &SignatureError{Name: name, Got: got.String(), Want: want.String()}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range r.impl[name] {
		if reg.Owner == owner {
			return &DuplicateHookError{Owner: owner, Name: name}
		}
	}

	r.impl[name] = append(r.impl[name], Registration{Owner: owner, Hook: name, Impl: impl})
	return nil
}

// Lookup returns all implementations registered for name, across plugins,
// in registration (plugin load) order. The result is a copy; repeated calls
// without interleaved registrations return identical sequences.
func (r *Registry) Lookup(name HookName) ([]Registration, error) {
	if !IsKnown(name) {
		return nil, &UnknownHookError{Name: name}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Registration(nil), r.impl[name]...), nil
}

// Implementation returns the implementation owner registered for name, if
// any.
func (r *Registry) Implementation(owner string, name HookName) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reg := range r.impl[name] {
		if reg.Owner == owner {
			return reg, true
		}
	}
	return Registration{}, false
}

// Count returns the total number of stored implementations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, regs := range r.impl {
		n += len(regs)
	}
	return n
}

// Owners returns the plugins that registered any hook. Order follows the
// contract table, then registration order within each hook.
func (r *Registry) Owners() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var owners []string
	for _, name := range Names() {
		for _, reg := range r.impl[name] {
			if _, ok := seen[reg.Owner]; !ok {
				seen[reg.Owner] = struct{}{}
				owners = append(owners, reg.Owner)
			}
		}
	}
	return owners
}
