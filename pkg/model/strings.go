package model

import (
	"strings"
	"sync"
)

// StringID is the interned handle for an object key.
type StringID uint32

// EmptyStringID is the reserved ID of the empty string.
const EmptyStringID StringID = 0

// firstDynamicID leaves room for callers that want to pre-register
// well-known keys at fixed IDs.
const firstDynamicID StringID = 128

// StringPool interns object key strings case-insensitively: "Name" and
// "name" map to the same ID, and Resolve returns the spelling that was
// interned first. Safe for concurrent use.
type StringPool struct {
	mu     sync.RWMutex
	ids    map[string]StringID // lowercased key -> id
	byID   map[StringID]string // id -> original spelling
	nextID StringID
}

// NewStringPool returns a pool with the empty string pre-interned.
func NewStringPool() *StringPool {
	p := &StringPool{
		ids:    make(map[string]StringID),
		byID:   make(map[StringID]string),
		nextID: firstDynamicID,
	}
	p.ids[""] = EmptyStringID
	p.byID[EmptyStringID] = ""
	return p
}

// Emplace returns the ID for s, interning it if needed.
func (p *StringPool) Emplace(s string) StringID {
	key := strings.ToLower(s)

	p.mu.RLock()
	id, ok := p.ids[key]
	p.mu.RUnlock()
	if ok {
		return id
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok = p.ids[key]; ok {
		return id
	}
	id = p.nextID
	p.nextID++
	p.ids[key] = id
	p.byID[id] = s
	return id
}

// Get returns the ID for s without interning. ok=false if s was never
// interned.
func (p *StringPool) Get(s string) (StringID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.ids[strings.ToLower(s)]
	return id, ok
}

// Resolve returns the original spelling for id.
func (p *StringPool) Resolve(id StringID) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.byID[id]
	return s, ok
}

// AddStatic registers a fixed key-to-ID mapping below the dynamic ID
// range. Not safe to call concurrently with Emplace.
func (p *StringPool) AddStatic(id StringID, s string) {
	if id >= firstDynamicID {
		panic("model: static string id in dynamic range")
	}
	p.ids[strings.ToLower(s)] = id
	p.byID[id] = s
}

// Size returns the number of interned strings.
func (p *StringPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

// Each calls fn for every interned string in unspecified order.
func (p *StringPool) Each(fn func(id StringID, s string) bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, s := range p.byID {
		if !fn(id, s) {
			return
		}
	}
}
