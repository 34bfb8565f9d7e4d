package glyph

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// NoCodepoint is never allocated. Composers emit it for names that are not
// registered so the renderer falls back to its default glyph.
const NoCodepoint rune = 0

// reservedSpace is skipped by the cursor: renderers treat it as whitespace
// with its own layout rules.
const reservedSpace rune = ' '

// Binding is one name to codepoint assignment.
type Binding struct {
	Namespace Namespace
	Name      string
	Codepoint rune
}

// cursor hands out codepoints shared by every namespace.
type cursor struct {
	next atomic.Int32
}

func (c *cursor) init() {
	c.next.Store(1)
}

// UTF-16 surrogates are not valid runes and flatten to U+FFFD.
const (
	surrogateMin rune = 0xD800
	surrogateMax rune = 0xDFFF
)

// take returns the current value and advances past it, skipping the
// reserved space codepoint and the surrogate block. Codepoints past
// utf8.MaxRune are still handed out but do not survive conversion to a
// string.
func (c *cursor) take() rune {
	for {
		cur := c.next.Load()
		n := cur + 1
		switch {
		case n == reservedSpace:
			n++
		case n == surrogateMin:
			n = surrogateMax + 1
		}
		if c.next.CompareAndSwap(cur, n) {
			return cur
		}
	}
}

// table is the binding map of one namespace. mu guards both the membership
// check and the allocation so a name can never be bound twice.
type table struct {
	mu    sync.RWMutex
	names map[string]rune
}

// Registry assigns codepoints to names and remembers them for the lifetime
// of the process. Bindings are never removed or changed.
//
// Registry is safe for concurrent use.
type Registry struct {
	cursor cursor
	tables [namespaceCount]table
}

// NewRegistry creates an empty registry whose first codepoint is 1.
func NewRegistry() *Registry {
	r := &Registry{}
	r.cursor.init()
	for i := range r.tables {
		r.tables[i].names = make(map[string]rune)
	}
	return r
}

func (r *Registry) table(ns Namespace) *table {
	if !ns.Valid() {
		panic(fmt.Sprintf("glyph: invalid namespace %d", ns))
	}
	return &r.tables[ns]
}

// Register returns the codepoint bound to name in ns, allocating one if the
// name is new. The second result reports whether a codepoint was allocated.
func (r *Registry) Register(ns Namespace, name string) (rune, bool) {
	t := r.table(ns)

	t.mu.Lock()
	defer t.mu.Unlock()

	if cp, ok := t.names[name]; ok {
		return cp, false
	}
	cp := r.cursor.take()
	t.names[name] = cp
	return cp, true
}

// Lookup returns the codepoint bound to name in ns.
func (r *Registry) Lookup(ns Namespace, name string) (rune, bool) {
	t := r.table(ns)

	t.mu.RLock()
	cp, ok := t.names[name]
	t.mu.RUnlock()
	return cp, ok
}

// Len returns the number of bindings in ns.
func (r *Registry) Len(ns Namespace) int {
	t := r.table(ns)

	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}

// Bindings returns a snapshot of the bindings in ns ordered by codepoint.
func (r *Registry) Bindings(ns Namespace) []Binding {
	t := r.table(ns)

	t.mu.RLock()
	out := make([]Binding, 0, len(t.names))
	for name, cp := range t.names {
		out = append(out, Binding{Namespace: ns, Name: name, Codepoint: cp})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Codepoint < out[j].Codepoint })
	return out
}
