package parse

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/signadot/objgraph/encode"
	"github.com/signadot/objgraph/ir"
)

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		`null`,
		`true`,
		`"hi"`,
		`-0`,
		`1e+300`,
		`[]`,
		`{}`,
		`{"b":1,"a":[1,2.5,"x",null],"c":{"_type":"double","_value":"NaN"}}`,
		`{"z":{"y":{"x":[{"w":false}]}}}`,
	}
	for _, in := range inputs {
		node, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		var buf bytes.Buffer
		if err := encode.Encode(node, &buf, encode.EncodeWire(true)); err != nil {
			t.Fatal(err)
		}
		if got := buf.String(); got != in {
			t.Errorf("got %s, want %s", got, in)
		}
	}
}

func TestParseKeepsLiterals(t *testing.T) {
	node, err := Parse([]byte(`{"a":0.1000,"b":-0,"c":12345678901234567890}`))
	if err != nil {
		t.Fatal(err)
	}
	got := []string{}
	for _, v := range node.Values {
		got = append(got, v.Number)
	}
	if diff := cmp.Diff([]string{"0.1000", "-0", "12345678901234567890"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{``, `{`, `[1,`, `{"a":1,"a":2}`, `{} {}`} {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrParse) {
			t.Errorf("%q: expected ErrParse, got %v", in, err)
		}
	}
}

func TestParseMaxDepth(t *testing.T) {
	in := strings.Repeat("[", 10) + strings.Repeat("]", 10)
	if _, err := Parse([]byte(in), MaxDepth(5)); !errors.Is(err, ErrParse) {
		t.Errorf("expected depth error, got %v", err)
	}
	if _, err := Parse([]byte(in), MaxDepth(10)); err != nil {
		t.Error(err)
	}
}

func TestKeys(t *testing.T) {
	in := `{"b":{"x":[1,{"y":2}]},"[1]":3,"a":[[]],"c":"s"}`
	keys, err := Keys(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "[1]", "a", "c"}, keys); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if _, err := Keys(strings.NewReader(`[1]`)); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
	if _, err := Keys(strings.NewReader(`{"a":[1`)); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestParseObjectOrder(t *testing.T) {
	node, err := Parse([]byte(`{"z":1,"a":2,"m":3}`))
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, f := range node.Fields {
		keys = append(keys, f.String)
	}
	if diff := cmp.Diff([]string{"z", "a", "m"}, keys); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if ir.Get(node, "a").Number != "2" {
		t.Error("a")
	}
}
