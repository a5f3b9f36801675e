package encode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/signadot/objgraph/format"
	"github.com/signadot/objgraph/ir"
)

func sample() *ir.Node {
	return ir.FromKeyVals([]ir.KeyVal{
		{Key: "x", Val: ir.FromFloat(1.1, 64)},
		{Key: "y", Val: ir.TypedScalar("double", ir.FromString("NaN"))},
		{Key: "s", Val: ir.FromString("a<b\"c")},
		{Key: "v", Val: ir.FromSlice([]*ir.Node{ir.FromInt(1), ir.FromInt(2)})},
		{Key: "e", Val: ir.NewObject()},
		{Key: "n", Val: ir.Null()},
		{Key: "b", Val: ir.FromBool(true)},
	})
}

func TestEncodeWire(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(sample(), &buf, EncodeWire(true)); err != nil {
		t.Fatal(err)
	}
	want := `{"x":1.1,"y":{"_type":"double","_value":"NaN"},"s":"a<b\"c","v":[1,2],"e":{},"n":null,"b":true}`
	if got := buf.String(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestEncodePretty(t *testing.T) {
	n := ir.FromKeyVals([]ir.KeyVal{
		{Key: "a", Val: ir.FromSlice([]*ir.Node{ir.FromInt(1), ir.FromInt(2)})},
		{Key: "b", Val: ir.FromSlice([]*ir.Node{ir.NewObject().Set("c", ir.FromBool(false))})},
	})
	var buf bytes.Buffer
	if err := Encode(n, &buf); err != nil {
		t.Fatal(err)
	}
	want := `{
  "a": [1, 2],
  "b": [
    {
      "c": false
    }
  ]
}
`
	if got := buf.String(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestEncodeColors(t *testing.T) {
	var plain, colored bytes.Buffer
	if err := Encode(sample(), &plain); err != nil {
		t.Fatal(err)
	}
	c := NewColors()
	c.Map = nil
	if err := Encode(sample(), &colored, EncodeColors(c)); err != nil {
		t.Fatal(err)
	}
	if plain.String() != colored.String() {
		t.Error("default colors should not change output")
	}
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(sample(), &buf, EncodeFormat(format.YAMLFormat)); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	ix, iy := strings.Index(got, "x:"), strings.Index(got, "y:")
	if ix < 0 || iy < 0 || ix > iy {
		t.Errorf("field order not kept:\n%s", got)
	}
	if !strings.Contains(got, "_type: double") {
		t.Errorf("missing typed scalar:\n%s", got)
	}
}

func TestEncodeBadNumber(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&ir.Node{Type: ir.NumberType}, &buf); err == nil {
		t.Error("expected error")
	}
}
