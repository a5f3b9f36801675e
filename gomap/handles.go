package gomap

import (
	"fmt"
	"reflect"
)

type handleKey struct {
	ptr uintptr
	typ reflect.Type
}

// HandleRegistry assigns handles to aliasable values during one encode
// session. Identity is the pointer and its type, never value equality.
// Handles are assigned in first-visit order starting at 1.
type HandleRegistry struct {
	ids      map[handleKey]int64
	expanded map[int64]bool
	next     int64
}

func NewHandleRegistry() *HandleRegistry {
	r := &HandleRegistry{}
	r.Reset()
	return r
}

func keyOf(v reflect.Value) handleKey {
	return handleKey{ptr: v.Pointer(), typ: v.Type()}
}

// RegisterOrLookup returns the handle of the pointer v. alreadySeen is
// true if v was expanded before; otherwise v is marked expanded and the
// caller must write its full node.
func (r *HandleRegistry) RegisterOrLookup(v reflect.Value) (id int64, alreadySeen bool) {
	id = r.Reserve(v)
	if r.expanded[id] {
		return id, true
	}
	r.expanded[id] = true
	return id, false
}

// Reserve returns the handle of v without marking it expanded. It is used
// for back-edges, which never expand their target.
func (r *HandleRegistry) Reserve(v reflect.Value) int64 {
	k := keyOf(v)
	if id, ok := r.ids[k]; ok {
		return id
	}
	r.next++
	r.ids[k] = r.next
	return r.next
}

// Len is the number of handles assigned.
func (r *HandleRegistry) Len() int {
	return len(r.ids)
}

// Reset forgets every handle.
func (r *HandleRegistry) Reset() {
	r.ids = map[handleKey]int64{}
	r.expanded = map[int64]bool{}
	r.next = 0
}

type fixup struct {
	binding string
	path    string
	set     func(reflect.Value) error
}

// HandleMap maps the handles of one decode session to the values built
// for them. References to handles not yet built wait as fixups and are
// applied when the handle is recorded.
type HandleMap struct {
	objs   map[int64]reflect.Value
	fixups map[int64][]fixup
	warn   func(error)
}

func NewHandleMap() *HandleMap {
	m := &HandleMap{}
	m.Reset()
	return m
}

// Record binds id to v, which must be a pointer, and applies waiting
// fixups.
func (m *HandleMap) Record(id int64, v reflect.Value) error {
	if prev, ok := m.objs[id]; ok {
		return fmt.Errorf("handle %d already bound to %s", id, prev.Type())
	}
	m.objs[id] = v
	fs := m.fixups[id]
	delete(m.fixups, id)
	for _, f := range fs {
		if err := f.set(v); err != nil && m.warn != nil {
			m.warn(err)
		}
	}
	return nil
}

func (m *HandleMap) Resolve(id int64) (reflect.Value, bool) {
	v, ok := m.objs[id]
	return v, ok
}

func (m *HandleMap) await(id int64, f fixup) {
	m.fixups[id] = append(m.fixups[id], f)
}

// unresolved removes and returns the fixups still waiting, by handle.
func (m *HandleMap) unresolved() map[int64][]fixup {
	res := m.fixups
	m.fixups = map[int64][]fixup{}
	return res
}

func (m *HandleMap) Len() int {
	return len(m.objs)
}

// Snapshot copies the map from handle to built value.
func (m *HandleMap) Snapshot() map[int64]any {
	res := make(map[int64]any, len(m.objs))
	for id, v := range m.objs {
		res[id] = v.Interface()
	}
	return res
}

func (m *HandleMap) Reset() {
	m.objs = map[int64]reflect.Value{}
	m.fixups = map[int64][]fixup{}
}

