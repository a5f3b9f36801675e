package objgraph

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signadot/objgraph/gomap"
)

type child struct {
	Label string
}

type holder struct {
	A, B *child
}

type parent struct {
	Name string
	Kids []*kid
}

type kid struct {
	Name   string
	Parent *parent `graph:"owner"`
}

func testTypes() *gomap.Types {
	types := gomap.NewTypes()
	gomap.MustRegister[child](types, "Child")
	gomap.MustRegister[holder](types, "Holder")
	gomap.MustRegister[parent](types, "Parent")
	gomap.MustRegister[kid](types, "Kid")
	return types
}

func TestNaNScalar(t *testing.T) {
	data, err := Encode([]any{1.1, math.NaN()}, Names("x", "y"))
	require.NoError(t, err)
	require.Equal(t, `{"x":1.1,"y":{"_type":"double","_value":"NaN"}}`, string(data))

	res, err := Decode(data)
	require.NoError(t, err)
	require.Empty(t, res.Warnings)
	require.Equal(t, []string{"x", "y"}, res.Names)
	x, _ := res.Get("x")
	require.Equal(t, 1.1, x)
	y, _ := res.Get("y")
	require.True(t, math.IsNaN(y.(float64)))
}

func TestNonFiniteVector(t *testing.T) {
	negZero := math.Copysign(0, -1)
	in := []float64{math.NaN(), math.Inf(1), math.Inf(-1), negZero, 0, 1}
	data, err := Encode([]any{in}, Names("v"))
	require.NoError(t, err)
	require.Equal(t, `{"v":{"_type":"double","_size":[6],"_encoding":"textual","_data":["NaN","Inf","-Inf","-0","0","1"]}}`, string(data))

	res, err := Decode(data)
	require.NoError(t, err)
	got, ok := res.Values[0].([]float64)
	require.True(t, ok)
	require.Len(t, got, len(in))
	require.True(t, math.IsNaN(got[0]))
	for i := 1; i < len(in); i++ {
		require.Equal(t, math.Float64bits(in[i]), math.Float64bits(got[i]), "element %d", i)
	}
}

func TestConstantVector(t *testing.T) {
	in := make([]float64, 1000)
	for i := range in {
		in[i] = 1
	}
	data, err := Encode([]any{in}, Names("ones"))
	require.NoError(t, err)
	require.Equal(t, `{"ones":{"_type":"double","_size":[1000],"_encoding":"constant","_value":1}}`, string(data))

	res, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, in, res.Values[0])
}

func TestSharedChild(t *testing.T) {
	types := testTypes()
	c := &child{Label: "c"}
	data, err := Encode([]any{&holder{A: c, B: c}}, Names("h"), WithTypes(types))
	require.NoError(t, err)
	require.Equal(t, `{"h":{"_type":"Holder","_handle":1,"A":{"_type":"Child","_handle":2,"Label":"c"},"B":{"_type":"handle","_value":2}}}`, string(data))

	res, err := Decode(data, WithTypes(types))
	require.NoError(t, err)
	h, ok := res.Values[0].(*holder)
	require.True(t, ok)
	require.Same(t, h.A, h.B)
	require.Equal(t, "c", h.A.Label)
	require.Len(t, res.Handles, 2)
	require.Same(t, h.A, res.Handles[2])
}

func TestParentBackReference(t *testing.T) {
	types := testTypes()
	p := &parent{Name: "p"}
	p.Kids = []*kid{{Name: "k1", Parent: p}, {Name: "k2", Parent: p}}
	data, err := Encode([]any{p}, WithTypes(types))
	require.NoError(t, err)
	require.Contains(t, string(data), `"Parent":{"_type":"handle","_value":1}`)

	res, err := Decode(data, WithTypes(types))
	require.NoError(t, err)
	require.Empty(t, res.Warnings)
	require.Equal(t, []string{"[0]"}, res.Names)
	got := res.Values[0].(*parent)
	require.Len(t, got.Kids, 2)
	for _, k := range got.Kids {
		require.Same(t, got, k.Parent)
	}
}

func TestDuplicateRequest(t *testing.T) {
	data, err := Encode([]any{1.0}, Names("x"))
	require.NoError(t, err)
	var calls int
	res, err := Decode(data, Requested("x", "x"), OnWarning(func(error) { calls++ }))
	require.Nil(t, res)
	var dre *gomap.DuplicateRequestError
	require.ErrorAs(t, err, &dre)
	require.Equal(t, "x", dre.Name)
	require.Zero(t, calls)
}

func TestRequestedOrderAndMissing(t *testing.T) {
	data, err := Encode([]any{1.0, "two"}, Names("a", "b"))
	require.NoError(t, err)
	var warned []error
	res, err := Decode(data, Requested("b", "zz", "a"), OnWarning(func(err error) { warned = append(warned, err) }))
	require.NoError(t, err)
	require.Equal(t, []string{"b", "zz", "a"}, res.Names)
	require.Equal(t, []any{"two", nil, 1.0}, res.Values)
	require.Len(t, res.Warnings, 1)
	require.ErrorIs(t, res.Warnings[0], ErrMissingEntry)
	require.Len(t, warned, 1)
}

func TestEncodeNames(t *testing.T) {
	data, err := Encode([]any{1.0, 2.0}, Names("a"))
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"[1]":2}`, string(data))

	_, err = Encode([]any{1.0, 2.0}, Names("a", "a"))
	require.ErrorIs(t, err, ErrDuplicateName)

	_, err = Encode([]any{1.0}, Names("a", "b"))
	require.Error(t, err)
}

func TestEncodeOmitsUnsupported(t *testing.T) {
	var warned []error
	data, err := Encode([]any{make(chan int), "ok"}, Names("c", "s"), OnWarning(func(err error) { warned = append(warned, err) }))
	require.NoError(t, err)
	require.Equal(t, `{"s":"ok"}`, string(data))
	require.Len(t, warned, 1)
	var ee *gomap.EncodingError
	require.ErrorAs(t, warned[0], &ee)
}

func TestGzipBytes(t *testing.T) {
	data, err := Encode([]any{"hello"}, Names("greeting"), Gzip(true))
	require.NoError(t, err)
	require.Equal(t, []byte{0x1f, 0x8b}, data[:2])
	res, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, []any{"hello"}, res.Values)
}

func TestFileRoundTrip(t *testing.T) {
	types := testTypes()
	dir := t.TempDir()
	p := &parent{Name: "root"}
	p.Kids = []*kid{{Name: "only", Parent: p}}
	path, err := EncodeToFile(filepath.Join(dir, "session.json"), []any{p, []uint8{1, 2, 3}},
		Names("tree", "bytes"), WithTypes(types), Gzip(true), Base64(true))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "session.json.gz"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	names, err := ListEntries(path)
	require.NoError(t, err)
	require.Equal(t, []string{"tree", "bytes"}, names)

	res, err := DecodeFromFile(path, WithTypes(types), Requested("bytes", "tree"))
	require.NoError(t, err)
	require.Empty(t, res.Warnings)
	require.Equal(t, []uint8{1, 2, 3}, res.Values[0])
	tree := res.Values[1].(*parent)
	require.Same(t, tree, tree.Kids[0].Parent)

	var small []int
	require.NoError(t, res.Bind("bytes", &small))
	require.Equal(t, []int{1, 2, 3}, small)
}

func TestEncodeToFileFlushes(t *testing.T) {
	dir := t.TempDir()
	vals := make([]float64, 20000)
	for i := range vals {
		vals[i] = float64(i*i%97) / 7
	}
	path, err := EncodeToFile(filepath.Join(dir, "big.json"), []any{vals}, Names("v"))
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(4096))

	res, err := DecodeFromFile(path)
	require.NoError(t, err)
	require.Empty(t, res.Warnings)
	require.Equal(t, vals, res.Values[0])
}

func TestEncodeToFileFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := EncodeToFile(filepath.Join(dir, "missing", "out.json"), []any{1.0})
	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
	require.Equal(t, "create", ioe.Op)

	_, err = DecodeFromFile(filepath.Join(dir, "nope.json"))
	require.ErrorAs(t, err, &ioe)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestBareArrays(t *testing.T) {
	res, err := Decode([]byte(`{"a":[1,2,3],"b":["x",1]}`))
	require.NoError(t, err)
	require.Equal(t, []any{[]float64{1, 2, 3}, []any{"x", 1.0}}, res.Values)
}

func TestGenericObjects(t *testing.T) {
	types := testTypes()
	c := &child{Label: "shared"}
	data, err := Encode([]any{c, c}, Names("a", "b"), WithTypes(types))
	require.NoError(t, err)

	// Without the type table the objects come back generic, identity intact.
	res, err := Decode(data)
	require.NoError(t, err)
	a := res.Values[0].(*gomap.Object)
	require.Equal(t, "Child", a.Type)
	require.Same(t, a, res.Values[1])

	again, err := Encode(res.Values, Names(res.Names...))
	require.NoError(t, err)
	require.Equal(t, string(data), string(again))
}

func TestNotDocument(t *testing.T) {
	_, err := Decode([]byte(`[1,2]`))
	require.ErrorIs(t, err, ErrNotDocument)
	_, err = Decode([]byte(`{"a":`))
	require.Error(t, err)
}
