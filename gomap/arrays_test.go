package gomap

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/signadot/objgraph/ir"
	"github.com/signadot/objgraph/numeric"
)

func arange[T int32 | float64 | float32 | uint32](n int, start, step T) []T {
	res := make([]T, n)
	for i := range res {
		res[i] = start + T(i)*step
	}
	return res
}

func fill[T any](n int, v T) []T {
	res := make([]T, n)
	for i := range res {
		res[i] = v
	}
	return res
}

func squares(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = float64(i * i)
	}
	return res
}

func TestChooseEncoding(t *testing.T) {
	tests := []struct {
		name   string
		kind   numeric.Kind
		dims   []int
		data   any
		base64 bool
		want   ir.Encoding
	}{
		{"constant at threshold", numeric.Int32, nil, fill[int32](10, 4), false, ir.Plain},
		{"constant above threshold", numeric.Int32, nil, fill[int32](11, 4), false, ir.Constant},
		{"nan at threshold", numeric.Double, nil, fill(10, math.NaN()), false, ir.Textual},
		{"nan above threshold", numeric.Double, nil, fill(11, math.NaN()), false, ir.Constant},
		{"mixed zero signs", numeric.Double, nil, append(fill(10, 0.0), math.Copysign(0, -1)), false, ir.Plain},
		{"double range at threshold", numeric.Double, nil, arange(20, 0.0, 1), false, ir.Plain},
		{"double range above threshold", numeric.Double, nil, arange(21, 0.0, 1), false, ir.Range},
		{"int range at threshold", numeric.Int32, nil, arange[int32](10, 5, -2), false, ir.Plain},
		{"int range above threshold", numeric.Int32, nil, arange[int32](11, 5, -2), false, ir.Range},
		{"single range", numeric.Single, nil, arange[float32](11, 0, 0.5), false, ir.Range},
		{"unsigned descending range", numeric.Uint32, nil, []uint32{100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 0}, false, ir.Range},
		{"matrix is never a range", numeric.Double, []int{3, 7}, arange(21, 0.0, 1), false, ir.Plain},
		{"infinite element", numeric.Double, nil, []float64{1, math.Inf(1)}, false, ir.Textual},
		{"complex", numeric.CDouble, nil, []complex128{1, 2}, false, ir.Textual},
		{"base64 at threshold", numeric.Double, nil, squares(50), true, ir.Plain},
		{"base64 above threshold", numeric.Double, nil, squares(51), true, ir.Base64},
		{"base64 not requested", numeric.Double, nil, squares(51), false, ir.Plain},
		{"logical constant", numeric.Logical, nil, fill(11, true), false, ir.Constant},
		{"logical mixed", numeric.Logical, nil, append(fill(10, true), false), false, ir.Plain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := reflect.ValueOf(tt.data)
			dims := tt.dims
			if dims == nil {
				dims = []int{v.Len()}
			}
			el := collect(tt.kind, dims, v, nil)
			if got := chooseEncoding(el, tt.base64); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestArrayWire(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"empty", []float64{}, `{"_type":"double","_size":[0],"_data":[]}`},
		{"plain", []float64{1, 2.5}, `{"_type":"double","_size":[2],"_data":[1,2.5]}`},
		{
			"range",
			arange[int32](11, 0, 1),
			`{"_type":"int32","_size":[11],"_encoding":"range","_start":0,"_end":10,"_step":1}`,
		},
		{
			"constant",
			fill[uint8](12, 7),
			`{"_type":"uint8","_size":[12],"_encoding":"constant","_value":7}`,
		},
		{
			"textual",
			[]float32{1, float32(math.Inf(1))},
			`{"_type":"single","_size":[2],"_encoding":"textual","_data":["1","Inf"]}`,
		},
		{
			"column major",
			&numeric.Dense[float64]{Shape: []int{2, 3}, Data: []float64{1, 2, 3, 4, 5, 6}},
			`{"_type":"double","_size":[2,3],"_data":[1,4,2,5,3,6]}`,
		},
		{"go array", [3]int16{1, -1, 1}, `{"_type":"int16","_size":[3],"_data":[1,-1,1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ToIR(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := wire(t, n); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestArrayRoundTrip(t *testing.T) {
	alternating := make([]int16, 60)
	for i := range alternating {
		alternating[i] = int16(i * i)
		if i%2 == 1 {
			alternating[i] = -alternating[i]
		}
	}
	sp := numeric.NewSparse[float64](3, 4)
	sp.Set(0, 1, 2.5)
	sp.Set(2, 1, -1)
	sp.Set(1, 3, 7)
	tests := []struct {
		name string
		in   any
	}{
		{"double range", arange(30, -1.5, 0.25)},
		{"int range", arange[int32](15, 100, -7)},
		{"unsigned descending", []uint32{100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 0}},
		{"single range", arange[float32](12, 1, 0.5)},
		{"constant", fill(20, 3.5)},
		{"base64 double", squares(64)},
		{"base64 int16", alternating},
		{"textual", []float32{1, float32(math.NaN()), float32(math.Inf(-1))}},
		{"complex", []complex128{complex(1, 2), complex(3, -4)}},
		{"logical", fill(11, true)},
		{"bools", []bool{true, false}},
		{"matrix", &numeric.Dense[int8]{Shape: []int{2, 3}, Data: []int8{1, 2, 3, 4, 5, 6}}},
		{"cube", &numeric.Dense[float64]{Shape: []int{2, 2, 2}, Data: []float64{1, 2, 3, 4, 5, 6, 7, 8}}},
		{"sparse", sp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ToIR(tt.in, Base64(true))
			if err != nil {
				t.Fatal(err)
			}
			var got any
			if err := FromIR(n, &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.in, got, cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestArrayIntoTypedSlots(t *testing.T) {
	n, err := ToIR(arange[int32](11, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	var f []float64
	if err := FromIR(n, &f); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(arange(11, 0.0, 1), f); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	var a [11]int64
	if err := FromIR(n, &a); err != nil {
		t.Fatal(err)
	}
	if a[10] != 10 {
		t.Errorf("got %v", a)
	}

	var short [3]int64
	if err := FromIR(n, &short); err == nil {
		t.Error("expected error for wrong array length")
	}

	m, _ := ToIR(&numeric.Dense[float64]{Shape: []int{2, 2}, Data: []float64{1, 2, 3, 4}})
	var v []float64
	if err := FromIR(m, &v); err == nil {
		t.Error("expected error decoding a matrix into a slice")
	}
	var d numeric.Dense[float64]
	if err := FromIR(m, &d); err != nil {
		t.Fatal(err)
	}
	if d.At(1, 0) != 3 {
		t.Errorf("got %v", d)
	}
}

func TestSparseScatter(t *testing.T) {
	sp := numeric.NewSparse[float64](3, 4)
	sp.Set(2, 1, -1)
	sp.Set(1, 3, 7)
	n, err := ToIR(sp)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"_type":"double","_size":[3,4],"_encoding":"sparse","_valuetype":"real","_rows":[2,1],"_cols":[1,3],"_data":[-1,7]}`
	if got := wire(t, n); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
	var d numeric.Dense[float64]
	if err := FromIR(n, &d); err != nil {
		t.Fatal(err)
	}
	if d.At(2, 1) != -1 || d.At(1, 3) != 7 || d.At(0, 0) != 0 {
		t.Errorf("got %v", d)
	}
}

func TestArrayFormatErrors(t *testing.T) {
	obj := func(kvs ...ir.KeyVal) *ir.Node { return ir.FromKeyVals(kvs) }
	kv := func(k string, v *ir.Node) ir.KeyVal { return ir.KeyVal{Key: k, Val: v} }
	nums := func(xs ...int64) *ir.Node {
		res := make([]*ir.Node, len(xs))
		for i, x := range xs {
			res[i] = ir.FromInt(x)
		}
		return ir.FromSlice(res)
	}
	tests := []struct {
		name string
		node *ir.Node
	}{
		{"size mismatch", obj(kv(ir.KeyType, ir.FromString("double")), kv(ir.KeySize, ir.FromSize([]int{3})), kv(ir.KeyData, nums(1, 2)))},
		{"unknown kind", obj(kv(ir.KeyType, ir.FromString("quad")), kv(ir.KeySize, ir.FromSize([]int{1})), kv(ir.KeyData, nums(1)))},
		{"short base64", obj(kv(ir.KeyType, ir.FromString("int32")), kv(ir.KeySize, ir.FromSize([]int{2})), kv(ir.KeyEncoding, ir.FromString("base64")), kv(ir.KeyData, ir.FromString("AAAA")))},
		{"sparse out of range", obj(
			kv(ir.KeyType, ir.FromString("double")), kv(ir.KeySize, ir.FromSize([]int{2, 2})), kv(ir.KeyEncoding, ir.FromString("sparse")),
			kv(ir.KeyRows, nums(2)), kv(ir.KeyCols, nums(0)), kv(ir.KeyData, nums(1)))},
		{"sparse unsorted", obj(
			kv(ir.KeyType, ir.FromString("double")), kv(ir.KeySize, ir.FromSize([]int{2, 2})), kv(ir.KeyEncoding, ir.FromString("sparse")),
			kv(ir.KeyRows, nums(0, 0)), kv(ir.KeyCols, nums(1, 0)), kv(ir.KeyData, nums(1, 2)))},
		{"range end mismatch", obj(
			kv(ir.KeyType, ir.FromString("int32")), kv(ir.KeySize, ir.FromSize([]int{3})), kv(ir.KeyEncoding, ir.FromString("range")),
			kv(ir.KeyStart, ir.FromInt(0)), kv(ir.KeyEnd, ir.FromInt(5)), kv(ir.KeyStep, ir.FromInt(1)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got any
			err := FromIR(tt.node, &got)
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if got != nil {
				t.Errorf("slot set to %#v", got)
			}
		})
	}
}

func TestArraySizeLimits(t *testing.T) {
	obj := func(kvs ...ir.KeyVal) *ir.Node { return ir.FromKeyVals(kvs) }
	kv := func(k string, v *ir.Node) ir.KeyVal { return ir.KeyVal{Key: k, Val: v} }
	huge := ir.FromSize([]int{math.MaxInt32, math.MaxInt32, 4})
	tests := []struct {
		name string
		node *ir.Node
	}{
		{"overflowing constant", obj(
			kv(ir.KeyType, ir.FromString("double")), kv(ir.KeySize, huge),
			kv(ir.KeyEncoding, ir.FromString("constant")), kv(ir.KeyValue, ir.FromInt(1)))},
		{"overflowing list", obj(kv(ir.KeyType, ir.FromString(ir.TagList)), kv(ir.KeySize, huge))},
		{"constant over limit", obj(
			kv(ir.KeyType, ir.FromString("int8")), kv(ir.KeySize, ir.FromSize([]int{ir.MaxElements, 2})),
			kv(ir.KeyEncoding, ir.FromString("constant")), kv(ir.KeyValue, ir.FromInt(3)))},
		{"list over limit", obj(kv(ir.KeyType, ir.FromString(ir.TagList)), kv(ir.KeySize, ir.FromSize([]int{ir.MaxElements + 1})))},
		{"plain with short data", obj(
			kv(ir.KeyType, ir.FromString("double")), kv(ir.KeySize, ir.FromSize([]int{1 << 26})),
			kv(ir.KeyData, ir.FromSlice([]*ir.Node{ir.FromInt(1)})))},
		{"base64 with short data", obj(
			kv(ir.KeyType, ir.FromString("double")), kv(ir.KeySize, ir.FromSize([]int{1 << 26})),
			kv(ir.KeyEncoding, ir.FromString("base64")), kv(ir.KeyData, ir.FromString("AAAAAAAAAAA=")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ws warnings
			d := NewDecoder(ws.collect())
			var before, bad, after any
			if err := d.Decode("a", ir.FromInt(1), &before); err != nil {
				t.Fatal(err)
			}
			err := d.Decode("b", tt.node, &bad)
			var fe *FormatError
			if !errors.As(err, &fe) || !errors.Is(err, ir.ErrSize) {
				t.Fatalf("expected FormatError wrapping ErrSize, got %v", err)
			}
			if err := d.Decode("c", ir.FromString("ok"), &after); err != nil {
				t.Fatal(err)
			}
			if errs := d.Finish(); len(errs) != 1 {
				t.Errorf("warnings %v", errs)
			}
			if bad != nil {
				t.Errorf("slot set to %T", bad)
			}
			if before != 1.0 || after != "ok" {
				t.Errorf("siblings: %v %v", before, after)
			}
			if len(ws) != 1 {
				t.Errorf("reported %v", ws)
			}
		})
	}
}
