package gomap

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/signadot/objgraph/debug"
	"github.com/signadot/objgraph/ir"
	"github.com/signadot/objgraph/numeric"
)

var (
	arrayIface  = reflect.TypeFor[numeric.Array]()
	sparseIface = reflect.TypeFor[numeric.SparseArray]()
)

// Encoder maps Go values to wire nodes. One Encoder is one session: a
// value reachable from several entries is expanded once and referenced
// thereafter. An Encoder is not safe for concurrent use.
type Encoder struct {
	cfg      *mapConfig
	handles  *HandleRegistry
	visiting map[handleKey]string
}

func NewEncoder(opts ...MapOption) *Encoder {
	return &Encoder{
		cfg:      newMapConfig(opts),
		handles:  NewHandleRegistry(),
		visiting: map[handleKey]string{},
	}
}

// ToIR maps a single value in its own session.
func ToIR(v any, opts ...MapOption) (*ir.Node, error) {
	e := NewEncoder(opts...)
	defer e.Reset()
	return e.Encode("", v)
}

// Encode maps v. name prefixes the paths of reported errors. An error is
// returned only when v itself cannot be encoded; failures below it are
// reported as warnings and the failing parts omitted.
func (e *Encoder) Encode(name string, v any) (*ir.Node, error) {
	node, err := e.walk(reflect.ValueOf(v), name)
	if err != nil {
		e.warning(err)
		return nil, err
	}
	return node, nil
}

// Handles is the number of handles assigned so far.
func (e *Encoder) Handles() int {
	return e.handles.Len()
}

// Reset ends the session.
func (e *Encoder) Reset() {
	e.handles.Reset()
	clear(e.visiting)
}

func (e *Encoder) warning(err error) {
	e.cfg.logger.Warn("encode", zap.Error(err))
	if e.cfg.warn != nil {
		e.cfg.warn(err)
	}
}

func encodingErrorf(path string, t reflect.Type, f string, args ...any) *EncodingError {
	gt := "<nil>"
	if t != nil {
		gt = t.String()
	}
	return &EncodingError{Path: path, GoType: gt, Message: fmt.Sprintf(f, args...)}
}

// aliasable returns v as a pointer with identity: a non-nil pointer to a
// registered struct, or an *Object.
func (e *Encoder) aliasable(v reflect.Value) (reflect.Value, bool) {
	if v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, false
	}
	if v.Type() == objectPtrType || e.cfg.types.lookupType(v.Type().Elem()) != nil {
		return v, true
	}
	return reflect.Value{}, false
}

// asArray returns v as a numeric.Array, taking the address of
// non-pointer Dense values.
func asArray[I any](v reflect.Value, iface reflect.Type) (I, bool) {
	var zero I
	t := v.Type()
	switch {
	case t.Implements(iface):
		if t.Kind() == reflect.Pointer && v.IsNil() {
			return zero, false
		}
		return v.Interface().(I), true
	case t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(iface):
		if v.CanAddr() {
			return v.Addr().Interface().(I), true
		}
		p := reflect.New(t)
		p.Elem().Set(v)
		return p.Interface().(I), true
	}
	return zero, false
}

func (e *Encoder) walk(v reflect.Value, path string) (*ir.Node, error) {
	if !v.IsValid() {
		return ir.Null(), nil
	}
	t := v.Type()
	if debug.Walk() {
		e.cfg.logger.Debug("walk", zap.String("path", path), zap.Stringer("type", t))
	}
	switch t {
	case recordType:
		return e.recordNode(v.Interface().(Record), path), nil
	case objectType:
		o := v.Interface().(Object)
		return e.objectNode(&o, 0, path)
	case callbackType:
		cb := v.Interface().(Callback)
		return e.callbackNode(&cb, path), nil
	case callbackPtrType:
		if v.IsNil() {
			return ir.Null(), nil
		}
		return e.callbackNode(v.Interface().(*Callback), path), nil
	}
	if t.Kind() != reflect.Interface {
		if a, ok := asArray[numeric.Array](v, arrayIface); ok {
			return e.denseNode(a), nil
		}
		if s, ok := asArray[numeric.SparseArray](v, sparseIface); ok {
			return e.sparseNode(s), nil
		}
	}

	switch t.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return ir.Null(), nil
		}
		return e.walk(v.Elem(), path)

	case reflect.Pointer:
		if v.IsNil() {
			return ir.Null(), nil
		}
		if ptr, ok := e.aliasable(v); ok {
			return e.identityNode(ptr, path)
		}
		if err := e.enter(v, path); err != nil {
			return nil, err
		}
		defer e.leave(v)
		return e.walk(v.Elem(), path)

	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		if node, ok := scalarNode(v); ok {
			return node, nil
		}

	case reflect.Slice:
		if v.IsNil() {
			return ir.Null(), nil
		}
		if k, ok := numeric.KindOfType(t.Elem()); ok {
			return e.vectorNode(k, v), nil
		}
		if v.Len() > 0 {
			if err := e.enter(v, path); err != nil {
				return nil, err
			}
			defer e.leave(v)
		}
		return e.listNode(v, path), nil

	case reflect.Array:
		if k, ok := numeric.KindOfType(t.Elem()); ok {
			return e.vectorNode(k, v), nil
		}
		return e.listNode(v, path), nil

	case reflect.Map:
		if v.IsNil() {
			return ir.Null(), nil
		}
		if err := e.enter(v, path); err != nil {
			return nil, err
		}
		defer e.leave(v)
		return e.mapNode(v, path)

	case reflect.Struct:
		ti := e.cfg.types.lookupType(t)
		if ti == nil {
			return nil, encodingErrorf(path, t, "struct type is not registered")
		}
		return e.structNode(ti, v, 0, path), nil
	}
	return nil, encodingErrorf(path, t, "unsupported kind %s", t.Kind())
}

// enter guards against cycles through values without identity, such as
// a slice of any that contains itself.
func (e *Encoder) enter(v reflect.Value, path string) error {
	k := keyOf(v)
	if prev, busy := e.visiting[k]; busy {
		return encodingErrorf(path, v.Type(), "cycle through value without identity (first seen at %s)", prev)
	}
	e.visiting[k] = path
	return nil
}

func (e *Encoder) leave(v reflect.Value) {
	delete(e.visiting, keyOf(v))
}

// identityNode writes the full node of ptr on its first visit and a
// reference on every later one.
func (e *Encoder) identityNode(ptr reflect.Value, path string) (*ir.Node, error) {
	id, seen := e.handles.RegisterOrLookup(ptr)
	if seen {
		return ir.Reference(id), nil
	}
	if ptr.Type() == objectPtrType {
		return e.objectNode(ptr.Interface().(*Object), id, path)
	}
	ti := e.cfg.types.lookupType(ptr.Type().Elem())
	return e.structNode(ti, ptr.Elem(), id, path), nil
}

func (e *Encoder) structNode(ti *typeInfo, sv reflect.Value, id int64, path string) *ir.Node {
	node := ir.NewObject().Add(ir.KeyType, ir.FromString(ti.name))
	if id > 0 {
		node.Add(ir.KeyHandle, ir.FromInt(id))
	}
	for i := range ti.fields {
		fi := &ti.fields[i]
		fv := sv.FieldByIndex(fi.index)
		fp := path + "." + fi.name
		var (
			child *ir.Node
			err   error
		)
		if fi.backref {
			child, err = e.backrefNode(fv, fp)
		} else {
			child, err = e.walk(fv, fp)
		}
		if err != nil {
			e.warning(err)
			continue
		}
		node.Add(fi.name, child)
	}
	return node
}

// backrefNode writes a back-edge, which is a reference even on the first
// visit of its target.
func (e *Encoder) backrefNode(fv reflect.Value, path string) (*ir.Node, error) {
	if fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return ir.Null(), nil
		}
		fv = fv.Elem()
	}
	if fv.Kind() == reflect.Pointer && fv.IsNil() {
		return ir.Null(), nil
	}
	ptr, ok := e.aliasable(fv)
	if !ok {
		return nil, encodingErrorf(path, fv.Type(), "back-reference to a value without identity")
	}
	return ir.Reference(e.handles.Reserve(ptr)), nil
}

func (e *Encoder) objectNode(o *Object, id int64, path string) (*ir.Node, error) {
	if err := checkTypeName(o.Type); err != nil {
		return nil, encodingErrorf(path, objectType, "%v", err)
	}
	node := ir.NewObject().Add(ir.KeyType, ir.FromString(o.Type))
	if id > 0 {
		node.Add(ir.KeyHandle, ir.FromInt(id))
	}
	e.addFields(node, o.Fields, path)
	return node, nil
}

func (e *Encoder) recordNode(r Record, path string) *ir.Node {
	node := ir.NewObject()
	e.addFields(node, r, path)
	return node
}

func (e *Encoder) addFields(node *ir.Node, fields Record, path string) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		fp := path + "." + f.Name
		if seen[f.Name] {
			e.warning(encodingErrorf(fp, recordType, "duplicate field %q", f.Name))
			continue
		}
		seen[f.Name] = true
		child, err := e.walk(reflect.ValueOf(f.Value), fp)
		if err != nil {
			e.warning(err)
			continue
		}
		node.Add(ir.EscapeKey(f.Name), child)
	}
}

// listTag is the _type of a list whose elements have type et.
func (e *Encoder) listTag(et reflect.Type) string {
	if et.Kind() == reflect.String {
		return ir.TagString
	}
	st := et
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if ti := e.cfg.types.lookupType(st); ti != nil {
		return ti.name
	}
	return ir.TagList
}

func (e *Encoder) listNode(v reflect.Value, path string) *ir.Node {
	n := v.Len()
	node := ir.NewObject().
		Add(ir.KeyType, ir.FromString(e.listTag(v.Type().Elem()))).
		Add(ir.KeySize, ir.FromSize([]int{n}))
	for i := range n {
		child, err := e.walk(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			e.warning(err)
			continue
		}
		node.Add(ir.ElementKey(i), child)
	}
	return node
}

// mapNode writes a map with string or integer keys, sorted.
func (e *Encoder) mapNode(v reflect.Value, path string) (*ir.Node, error) {
	kt := v.Type().Key()
	keys := v.MapKeys()
	var keyType string
	switch {
	case kt.Kind() == reflect.String:
		keyType = ir.TagString
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) })
	default:
		k, ok := numeric.KindOfType(kt)
		switch {
		case ok && k.IsSigned():
			slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) })
		case ok && k.IsUnsigned():
			slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) })
		default:
			return nil, encodingErrorf(path, v.Type(), "unsupported map key type %s", kt)
		}
		keyType = k.Tag()
	}
	node := ir.NewObject()
	if !(e.cfg.passthroughMap && keyType == ir.TagString) {
		node.Add(ir.KeyType, ir.FromString(ir.TagMap)).Add(ir.KeyKeyType, ir.FromString(keyType))
	}
	for _, k := range keys {
		var ks string
		switch k.Kind() {
		case reflect.String:
			ks = k.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			ks = strconv.FormatInt(k.Int(), 10)
		default:
			ks = strconv.FormatUint(k.Uint(), 10)
		}
		child, err := e.walk(v.MapIndex(k), path+"."+ks)
		if err != nil {
			e.warning(err)
			continue
		}
		node.Add(ir.EscapeKey(ks), child)
	}
	return node, nil
}
