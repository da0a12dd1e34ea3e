package action

import "sync"

// SideEffect is a query-triggered expensive side effect recorded through the
// triggerSideEffect channel.
type SideEffect struct {
	Plugin string
	Name   string
}

// SideEffectLog collects side effects across hook invocations in trigger
// order.
type SideEffectLog struct {
	mu      sync.Mutex
	entries []SideEffect
}

// NewSideEffectLog creates an empty log.
func NewSideEffectLog() *SideEffectLog {
	return &SideEffectLog{}
}

// Add records one side effect.
func (l *SideEffectLog) Add(plugin, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, SideEffect{Plugin: plugin, Name: name})
}

// All returns recorded side effects in trigger order.
func (l *SideEffectLog) All() []SideEffect {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SideEffect(nil), l.entries...)
}

// Reset clears the log for the next build.
func (l *SideEffectLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
