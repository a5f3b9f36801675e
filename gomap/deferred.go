package gomap

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/signadot/objgraph/debug"
	"github.com/signadot/objgraph/ir"
)

type deferredItem struct {
	node    *ir.Node
	dst     reflect.Value
	binding string
	path    string
	owner   int64
}

// DeferredBuildQueue holds object nodes whose owner had not been built
// when the node was reached. It is drained once, after the first pass.
type DeferredBuildQueue struct {
	items []deferredItem
}

func (q *DeferredBuildQueue) push(it deferredItem) {
	q.items = append(q.items, it)
}

func (q *DeferredBuildQueue) Len() int {
	return len(q.items)
}

func (q *DeferredBuildQueue) take() []deferredItem {
	items := q.items
	q.items = nil
	return items
}

// ownerPending returns the handle of n's owner when n has an owner field
// holding a reference that is not yet built.
func (d *Decoder) ownerPending(n *ir.Node) (int64, bool) {
	ti := d.cfg.types.lookupName(ir.TypeTag(n))
	if ti == nil || ti.owner < 0 {
		return 0, false
	}
	on := ir.Get(n, ti.fields[ti.owner].name)
	if ir.ShapeOf(on) != ir.ReferenceShape {
		return 0, false
	}
	id, err := ir.ReferenceID(on)
	if err != nil {
		return 0, false
	}
	if _, ok := d.handles.Resolve(id); ok {
		return 0, false
	}
	return id, true
}

// deferIfPending queues n when its owner is not built yet. During the
// second pass nothing is queued; the node is reported instead and its
// slot stays empty.
func (d *Decoder) deferIfPending(n *ir.Node, dst reflect.Value, path string) bool {
	id, pending := d.ownerPending(n)
	if !pending {
		return false
	}
	if d.secondPass {
		d.warning(&ReferenceError{
			Binding: d.binding,
			Path:    path,
			Handle:  id,
			Message: "owner never decoded",
		})
		return true
	}
	if debug.Defer() {
		d.log.Debug("defer", zap.String("binding", d.binding), zap.String("path", path), zap.Int64("owner", id))
	}
	d.queue.push(deferredItem{node: n, dst: dst, binding: d.binding, path: path, owner: id})
	return true
}

// drain runs the second pass over the deferred nodes.
func (d *Decoder) drain() {
	items := d.queue.take()
	if len(items) == 0 {
		return
	}
	d.secondPass = true
	defer func() { d.secondPass = false }()
	saved := d.binding
	defer func() { d.binding = saved }()
	for _, it := range items {
		d.binding = it.binding
		if debug.Defer() {
			d.log.Debug("build deferred", zap.String("binding", it.binding), zap.String("path", it.path), zap.Int64("owner", it.owner))
		}
		if err := d.decodeInto(it.node, it.dst, it.path); err != nil {
			d.warning(err)
		}
	}
}
