package gomap

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/signadot/objgraph/debug"
	"github.com/signadot/objgraph/ir"
	"github.com/signadot/objgraph/numeric"
)

// Decoder rebuilds Go values from wire nodes. One Decoder is one session:
// handles are shared by every entry decoded with it. Call Finish once all
// entries are decoded. A Decoder is not safe for concurrent use.
type Decoder struct {
	cfg      *unmapConfig
	log      *zap.Logger
	handles  *HandleMap
	queue    *DeferredBuildQueue
	relinker *CallbackRelinker

	finalizers []func()
	warnings   []error
	binding    string
	secondPass bool
	finished   bool
}

func NewDecoder(opts ...UnmapOption) *Decoder {
	cfg := newUnmapConfig(opts)
	d := &Decoder{
		cfg:      cfg,
		log:      cfg.logger,
		handles:  NewHandleMap(),
		queue:    &DeferredBuildQueue{},
		relinker: &CallbackRelinker{},
	}
	d.handles.warn = d.warning
	return d
}

// FromIR decodes a single node into v, which must be a non-nil pointer.
// The returned error joins every warning of the session.
func FromIR(n *ir.Node, v any, opts ...UnmapOption) error {
	d := NewDecoder(opts...)
	if err := d.Decode("", n, v); err != nil {
		var fe *FormatError
		if !errors.As(err, &fe) {
			return err
		}
	}
	return errors.Join(d.Finish()...)
}

// Decode decodes n into dst, which must be a non-nil pointer, as the
// entry called name. Values referring to objects that are not built yet
// are filled in by Finish.
func (d *Decoder) Decode(name string, n *ir.Node, dst any) error {
	if d.finished {
		return errors.New("decoder already finished")
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode %q: destination must be a non-nil pointer, got %T", name, dst)
	}
	d.binding = name
	if err := d.decodeInto(n, rv.Elem(), name); err != nil {
		d.warning(err)
		return err
	}
	return nil
}

// Finish runs the second pass over deferred nodes, relinks callbacks,
// reports references that never resolved and returns all warnings.
func (d *Decoder) Finish() []error {
	if d.finished {
		return d.warnings
	}
	d.finished = true
	d.drain()
	d.relinker.relink(d)
	left := d.handles.unresolved()
	ids := make([]int64, 0, len(left))
	for id := range left {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		for _, f := range left[id] {
			d.warning(&ReferenceError{
				Binding: f.binding,
				Path:    f.path,
				Handle:  id,
				Message: "handle never decoded",
			})
		}
	}
	for _, f := range d.finalizers {
		f()
	}
	d.finalizers = nil
	return d.warnings
}

// Handles returns a copy of the handle map.
func (d *Decoder) Handles() map[int64]any {
	return d.handles.Snapshot()
}

func (d *Decoder) Warnings() []error {
	return d.warnings
}

func (d *Decoder) warning(err error) {
	d.log.Warn("decode", zap.Error(err))
	d.warnings = append(d.warnings, err)
	if d.cfg.warn != nil {
		d.cfg.warn(err)
	}
}

// later registers f to run after every reference is resolved.
func (d *Decoder) later(f func()) {
	d.finalizers = append(d.finalizers, f)
}

func (d *Decoder) decodeInto(n *ir.Node, dst reflect.Value, path string) error {
	if n == nil || n.Type == ir.NullType {
		dst.SetZero()
		return nil
	}
	shape := ir.ShapeOf(n)
	if debug.Decode() {
		d.log.Debug("decode", zap.String("path", path), zap.Stringer("shape", shape), zap.Stringer("into", dst.Type()))
	}
	switch shape {
	case ir.ReferenceShape:
		return d.reference(n, dst, path)
	case ir.ObjectShape:
		if ir.TypeTag(n) == ir.TagCallback {
			return d.callback(n, dst, path)
		}
		if d.deferIfPending(n, dst, path) {
			return nil
		}
	}
	switch dst.Kind() {
	case reflect.Interface:
		return d.intoInterface(n, shape, dst, path)
	case reflect.Pointer:
		if shape == ir.ObjectShape {
			if _, ok, _ := ir.HandleOf(n); ok {
				return d.identity(n, dst, path)
			}
		}
		p := reflect.New(dst.Type().Elem())
		if err := d.decodeInto(n, p.Elem(), path); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	switch shape {
	case ir.ScalarShape:
		return d.scalar(n, dst, path)
	case ir.TypedScalarShape:
		return d.typedScalar(n, dst, path)
	case ir.ArrayShape:
		return d.array(n, dst, path)
	}
	return d.object(n, dst, path)
}

// intoInterface picks the Go type for n, decodes into a fresh value of
// that type and stores it in dst.
func (d *Decoder) intoInterface(n *ir.Node, shape ir.Shape, dst reflect.Value, path string) error {
	t, err := d.inferType(n, shape)
	if err != nil {
		return &FormatError{Path: path, Type: ir.TypeTag(n), Message: "cannot infer type", Err: err}
	}
	if !t.Implements(dst.Type()) {
		return formatErrorf(path, ir.TypeTag(n), nil, "%s does not implement %s", t, dst.Type())
	}
	tmp := reflect.New(t).Elem()
	if err := d.decodeInto(n, tmp, path); err != nil {
		return err
	}
	dst.Set(tmp)
	switch t.Kind() {
	case reflect.Struct, reflect.Array:
		d.later(func() { dst.Set(tmp) })
	}
	return nil
}

func (d *Decoder) inferType(n *ir.Node, shape ir.Shape) (reflect.Type, error) {
	switch shape {
	case ir.ScalarShape:
		switch n.Type {
		case ir.BoolType:
			return reflect.TypeFor[bool](), nil
		case ir.StringType:
			return reflect.TypeFor[string](), nil
		case ir.NumberType:
			return reflect.TypeFor[float64](), nil
		case ir.ArrayType:
			for _, v := range n.Values {
				if v == nil || v.Type != ir.NumberType {
					return reflect.TypeFor[[]any](), nil
				}
			}
			return reflect.TypeFor[[]float64](), nil
		}
	case ir.TypedScalarShape:
		k, ok := numeric.KindOf(ir.TypeTag(n))
		if !ok {
			return nil, fmt.Errorf("unknown scalar type %q", ir.TypeTag(n))
		}
		return k.Type(), nil
	case ir.ArrayShape:
		k, err := arrayKind(n)
		if err != nil {
			return nil, err
		}
		if ir.EncodingOf(n) == ir.Sparse {
			s, err := numeric.NewSparseArray(k)
			if err != nil {
				return nil, err
			}
			return reflect.TypeOf(s), nil
		}
		dims, err := ir.SizeOf(n)
		if err != nil {
			return nil, err
		}
		if len(dims) > 1 {
			a, err := numeric.NewArray(k, nil)
			if err != nil {
				return nil, err
			}
			return reflect.TypeOf(a), nil
		}
		return reflect.SliceOf(k.Type()), nil
	case ir.ObjectShape:
		return d.inferObjectType(n)
	}
	return nil, fmt.Errorf("cannot infer type of %s", shape)
}

func (d *Decoder) inferObjectType(n *ir.Node) (reflect.Type, error) {
	tag := ir.TypeTag(n)
	isList := ir.Get(n, ir.KeySize) != nil
	switch tag {
	case "":
		return recordType, nil
	case ir.TagMap:
		kt := ir.Get(n, ir.KeyKeyType)
		if kt == nil || kt.String == ir.TagString {
			return reflect.TypeFor[map[string]any](), nil
		}
		k, ok := numeric.KindOf(kt.String)
		switch {
		case ok && k.IsSigned():
			return reflect.TypeFor[map[int64]any](), nil
		case ok && k.IsUnsigned():
			return reflect.TypeFor[map[uint64]any](), nil
		}
		return nil, fmt.Errorf("unsupported key type %q", kt.String)
	case ir.TagList:
		return reflect.TypeFor[[]any](), nil
	case ir.TagString:
		if isList {
			return reflect.TypeFor[[]string](), nil
		}
		return nil, fmt.Errorf("%q object without %s", tag, ir.KeySize)
	}
	ti := d.cfg.types.lookupName(tag)
	if ti == nil {
		if isList {
			return reflect.TypeFor[[]any](), nil
		}
		return objectPtrType, nil
	}
	if isList {
		for _, kv := range ir.UserFields(n) {
			if ir.ShapeOf(kv.Val) == ir.ReferenceShape {
				return reflect.SliceOf(reflect.PointerTo(ti.typ)), nil
			}
			if _, ok, _ := ir.HandleOf(kv.Val); ok {
				return reflect.SliceOf(reflect.PointerTo(ti.typ)), nil
			}
		}
		return reflect.SliceOf(ti.typ), nil
	}
	if _, ok, _ := ir.HandleOf(n); ok {
		return reflect.PointerTo(ti.typ), nil
	}
	return ti.typ, nil
}

// reference resolves a handle now, or leaves a fixup that fills dst when
// the handle is built.
func (d *Decoder) reference(n *ir.Node, dst reflect.Value, path string) error {
	id, err := ir.ReferenceID(n)
	if err != nil {
		return &FormatError{Path: path, Type: ir.TagHandle, Message: "bad reference", Err: err}
	}
	set := func(v reflect.Value) error { return assignRef(dst, v, path) }
	if v, ok := d.handles.Resolve(id); ok {
		return set(v)
	}
	d.handles.await(id, fixup{binding: d.binding, path: path, set: set})
	return nil
}

func assignRef(dst, v reflect.Value, path string) error {
	switch {
	case v.Type().AssignableTo(dst.Type()):
		dst.Set(v)
		return nil
	case dst.Kind() == reflect.Struct && v.Elem().Type() == dst.Type():
		dst.Set(v.Elem())
		return nil
	}
	return formatErrorf(path, ir.TagHandle, nil, "reference to %s cannot be stored in %s", v.Type(), dst.Type())
}

// identity builds the shell of an object with a handle, records it, and
// then fills its fields.
func (d *Decoder) identity(n *ir.Node, dst reflect.Value, path string) error {
	id, _, err := ir.HandleOf(n)
	if err != nil {
		return &FormatError{Path: path, Type: ir.TypeTag(n), Message: "bad handle", Err: err}
	}
	et := dst.Type().Elem()
	if et != objectType {
		ti := d.cfg.types.lookupType(et)
		if ti == nil {
			return formatErrorf(path, ir.TypeTag(n), nil, "%s is not registered", et)
		}
		if tag := ir.TypeTag(n); tag != ti.name {
			return formatErrorf(path, tag, nil, "cannot decode into %s (registered as %q)", et, ti.name)
		}
	}
	shell := reflect.New(et)
	if err := d.handles.Record(id, shell); err != nil {
		return &FormatError{Path: path, Type: ir.TypeTag(n), Message: "duplicate handle", Err: err}
	}
	dst.Set(shell)
	return d.object(n, shell.Elem(), path)
}

func (d *Decoder) object(n *ir.Node, dst reflect.Value, path string) error {
	tag := ir.TypeTag(n)
	t := dst.Type()
	switch t {
	case recordType:
		if tag != "" {
			return formatErrorf(path, tag, nil, "typed object into %s", recordType)
		}
		return d.record(n, dst, path)
	case objectType:
		dst.FieldByName("Type").SetString(tag)
		return d.record(n, dst.FieldByName("Fields"), path)
	}
	if ir.Get(n, ir.KeySize) != nil {
		return d.list(n, dst, path)
	}
	switch t.Kind() {
	case reflect.Map:
		return d.mapInto(n, dst, path)
	case reflect.Struct:
		ti := d.cfg.types.lookupType(t)
		if ti == nil {
			return formatErrorf(path, tag, nil, "%s is not registered", t)
		}
		if tag != "" && tag != ti.name {
			return formatErrorf(path, tag, nil, "cannot decode into %s (registered as %q)", t, ti.name)
		}
		d.structFields(ti, n, dst, path)
		return nil
	}
	return formatErrorf(path, tag, nil, "cannot decode object into %s", t)
}

// structFields fills sv from n. The owner field is set first so children
// decoded below can reach it.
func (d *Decoder) structFields(ti *typeInfo, n *ir.Node, sv reflect.Value, path string) {
	if ti.owner >= 0 {
		fi := &ti.fields[ti.owner]
		if on := ir.Get(n, fi.name); on != nil {
			if err := d.decodeInto(on, sv.FieldByIndex(fi.index), path+"."+fi.name); err != nil {
				d.warning(err)
			}
		}
	}
	for _, kv := range ir.UserFields(n) {
		fp := path + "." + kv.Key
		fi, ok := ti.field(kv.Key)
		if !ok {
			d.warning(formatErrorf(fp, ti.name, nil, "unknown field %q", kv.Key))
			continue
		}
		if fi.owner {
			continue
		}
		if fi.backref {
			if s := ir.ShapeOf(kv.Val); s != ir.ReferenceShape && kv.Val.Type != ir.NullType {
				d.warning(formatErrorf(fp, ti.name, nil, "back-reference field holds %s", s))
				continue
			}
		}
		if err := d.decodeInto(kv.Val, sv.FieldByIndex(fi.index), fp); err != nil {
			d.warning(err)
		}
	}
}

func (d *Decoder) record(n *ir.Node, dst reflect.Value, path string) error {
	fields := ir.UserFields(n)
	rv := reflect.MakeSlice(recordType, len(fields), len(fields))
	dst.Set(rv)
	for i, kv := range fields {
		el := rv.Index(i)
		el.Field(0).SetString(kv.Key)
		if err := d.decodeInto(kv.Val, el.Field(1), path+"."+kv.Key); err != nil {
			d.warning(err)
		}
	}
	return nil
}

func (d *Decoder) list(n *ir.Node, dst reflect.Value, path string) error {
	tag := ir.TypeTag(n)
	dims, err := ir.SizeOf(n)
	if err != nil {
		return &FormatError{Path: path, Type: tag, Message: "bad list", Err: err}
	}
	count, err := ir.ElementCount(dims)
	if err != nil {
		return &FormatError{Path: path, Type: tag, Message: "bad list", Err: err}
	}
	var elems reflect.Value
	switch dst.Kind() {
	case reflect.Slice:
		elems = reflect.MakeSlice(dst.Type(), count, count)
		dst.Set(elems)
	case reflect.Array:
		if dst.Len() != count {
			return formatErrorf(path, tag, nil, "%d elements into %s", count, dst.Type())
		}
		elems = dst
	default:
		return formatErrorf(path, tag, nil, "cannot decode list into %s", dst.Type())
	}
	for _, kv := range ir.UserFields(n) {
		i, ok := ir.ParseElementKey(kv.Key)
		fp := path + kv.Key
		if !ok || i >= count {
			d.warning(formatErrorf(fp, tag, nil, "bad element key %q", kv.Key))
			continue
		}
		if err := d.decodeInto(kv.Val, elems.Index(i), fp); err != nil {
			d.warning(err)
		}
	}
	return nil
}

func (d *Decoder) mapInto(n *ir.Node, dst reflect.Value, path string) error {
	tag := ir.TypeTag(n)
	if tag != "" && tag != ir.TagMap {
		return formatErrorf(path, tag, nil, "cannot decode into %s", dst.Type())
	}
	t := dst.Type()
	fields := ir.UserFields(n)
	m := reflect.MakeMapWithSize(t, len(fields))
	dst.Set(m)
	for _, kv := range fields {
		fp := path + "." + kv.Key
		key, err := mapKey(kv.Key, t.Key())
		if err != nil {
			d.warning(&FormatError{Path: fp, Type: ir.TagMap, Message: "bad key", Err: err})
			continue
		}
		val := reflect.New(t.Elem()).Elem()
		if err := d.decodeInto(kv.Val, val, fp); err != nil {
			d.warning(err)
			continue
		}
		m.SetMapIndex(key, val)
		d.later(func() { m.SetMapIndex(key, val) })
	}
	return nil
}

func mapKey(s string, kt reflect.Type) (reflect.Value, error) {
	key := reflect.New(kt).Elem()
	switch kt.Kind() {
	case reflect.String:
		key.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, kt.Bits())
		if err != nil {
			return key, err
		}
		key.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(s, 10, kt.Bits())
		if err != nil {
			return key, err
		}
		key.SetUint(u)
	default:
		return key, fmt.Errorf("unsupported key type %s", kt)
	}
	return key, nil
}

func (d *Decoder) scalar(n *ir.Node, dst reflect.Value, path string) error {
	switch n.Type {
	case ir.BoolType:
		return assignScalar(dst, reflect.ValueOf(n.Bool), path)
	case ir.StringType:
		return assignScalar(dst, reflect.ValueOf(n.String), path)
	case ir.NumberType:
		k, ok := numeric.KindOfType(dst.Type())
		if !ok || k == numeric.Logical {
			k = numeric.Double
		}
		v, err := parseElem(k, n)
		if err != nil {
			return &FormatError{Path: path, Type: k.Tag(), Message: "bad number", Err: err}
		}
		return assignScalar(dst, v, path)
	case ir.ArrayType:
		return d.bareArray(n, dst, path)
	}
	return formatErrorf(path, "", nil, "unexpected %s", n.Type)
}

// bareArray accepts a plain JSON array as a list of elements.
func (d *Decoder) bareArray(n *ir.Node, dst reflect.Value, path string) error {
	count := len(n.Values)
	var elems reflect.Value
	switch dst.Kind() {
	case reflect.Slice:
		elems = reflect.MakeSlice(dst.Type(), count, count)
		dst.Set(elems)
	case reflect.Array:
		if dst.Len() != count {
			return formatErrorf(path, "", nil, "%d elements into %s", count, dst.Type())
		}
		elems = dst
	default:
		return formatErrorf(path, "", nil, "cannot decode array into %s", dst.Type())
	}
	for i, v := range n.Values {
		if err := d.decodeInto(v, elems.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
			d.warning(err)
		}
	}
	return nil
}

func (d *Decoder) typedScalar(n *ir.Node, dst reflect.Value, path string) error {
	tag := ir.TypeTag(n)
	k, ok := numeric.KindOf(tag)
	if !ok {
		return formatErrorf(path, tag, nil, "unknown scalar type")
	}
	v, err := parseElem(k, ir.Get(n, ir.KeyValue))
	if err != nil {
		return &FormatError{Path: path, Type: tag, Message: "bad value", Err: err}
	}
	return assignScalar(dst, v, path)
}
