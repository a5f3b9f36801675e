package gomap

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/signadot/objgraph/ir"
	"github.com/signadot/objgraph/numeric"
)

// Types is the closed table of struct types the engine will encode and
// decode. A Types must be fully registered before it is shared between
// goroutines.
type Types struct {
	mu     sync.RWMutex
	byName map[string]*typeInfo
	byType map[reflect.Type]*typeInfo
}

type typeInfo struct {
	name   string
	typ    reflect.Type
	fields []fieldInfo
	owner  int // index into fields, -1 if none
}

type fieldInfo struct {
	name    string
	index   []int
	typ     reflect.Type
	backref bool
	owner   bool
}

func NewTypes() *Types {
	return &Types{
		byName: map[string]*typeInfo{},
		byType: map[reflect.Type]*typeInfo{},
	}
}

// Register adds struct type T to types under the wire name name.
//
// Exported fields are walked in declaration order, embedded structs are
// flattened, and fields are configured with `graph` struct tags:
//
//	Name   string   `graph:"field=name"`
//	Parent *Group   `graph:"owner"`
//	Peer   *Channel `graph:"backref"`
//	Cache  []byte   `graph:"-"`
//
// A backref field is always written as a reference. An owner field is a
// backref that also names the object a node must wait for while decoding.
func Register[T any](types *Types, name string) error {
	return types.register(reflect.TypeFor[T](), name)
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](types *Types, name string) {
	if err := Register[T](types, name); err != nil {
		panic(err)
	}
}

func (t *Types) register(rt reflect.Type, name string) error {
	if rt.Kind() != reflect.Struct {
		return fmt.Errorf("cannot register %s: not a struct", rt)
	}
	switch rt {
	case objectType, callbackType:
		return fmt.Errorf("cannot register %s: built in", rt)
	}
	if err := checkTypeName(name); err != nil {
		return err
	}
	ti := &typeInfo{name: name, typ: rt, owner: -1}
	if err := collectFields(ti, rt, nil); err != nil {
		return fmt.Errorf("cannot register %s as %q: %w", rt, name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.byName[name]; ok && prev.typ != rt {
		return fmt.Errorf("name %q already registered for %s", name, prev.typ)
	}
	if prev, ok := t.byType[rt]; ok && prev.name != name {
		return fmt.Errorf("%s already registered as %q", rt, prev.name)
	}
	t.byName[name] = ti
	t.byType[rt] = ti
	return nil
}

func checkTypeName(name string) error {
	if name == "" || strings.HasPrefix(name, "_") {
		return fmt.Errorf("invalid type name %q", name)
	}
	switch name {
	case ir.TagHandle, ir.TagMap, ir.TagList, ir.TagString, ir.TagCallback:
		return fmt.Errorf("type name %q is reserved", name)
	}
	if _, ok := numeric.KindOf(name); ok {
		return fmt.Errorf("type name %q is reserved", name)
	}
	return nil
}

func collectFields(ti *typeInfo, rt reflect.Type, prefix []int) error {
	for i := range rt.NumField() {
		sf := rt.Field(i)
		tag, err := parseGraphTag(sf.Tag.Get("graph"))
		if err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
		if tag.Skip {
			continue
		}
		index := append(slices.Clone(prefix), i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && tag.Name == "" {
			if err := collectFields(ti, sf.Type, index); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		fi := fieldInfo{
			name:    sf.Name,
			index:   index,
			typ:     sf.Type,
			backref: tag.Backref || tag.Owner,
			owner:   tag.Owner,
		}
		if tag.Name != "" {
			fi.name = tag.Name
		}
		if strings.HasPrefix(fi.name, "_") {
			return fmt.Errorf("field %s: wire name %q starts with '_'", sf.Name, fi.name)
		}
		if fi.backref && !canReference(sf.Type) {
			return fmt.Errorf("field %s: %s cannot hold a reference", sf.Name, sf.Type)
		}
		for _, prev := range ti.fields {
			if prev.name == fi.name {
				return fmt.Errorf("duplicate field name %q", fi.name)
			}
		}
		if fi.owner {
			if ti.owner >= 0 {
				return fmt.Errorf("field %s: more than one owner field", sf.Name)
			}
			ti.owner = len(ti.fields)
		}
		ti.fields = append(ti.fields, fi)
	}
	return nil
}

// canReference reports whether a field of type t can hold a handle
// reference.
func canReference(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct && t != callbackPtrType
	}
	return false
}

func (t *Types) lookupType(rt reflect.Type) *typeInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byType[rt]
}

func (t *Types) lookupName(name string) *typeInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byName[name]
}

// Names returns the registered names, sorted.
func (t *Types) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res := make([]string, 0, len(t.byName))
	for n := range t.byName {
		res = append(res, n)
	}
	slices.Sort(res)
	return res
}

func (ti *typeInfo) field(name string) (*fieldInfo, bool) {
	for i := range ti.fields {
		if ti.fields[i].name == name {
			return &ti.fields[i], true
		}
	}
	return nil, false
}
