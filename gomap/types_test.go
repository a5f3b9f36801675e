package gomap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegisterNames(t *testing.T) {
	for _, name := range []string{"", "_hidden", "handle", "map", "list", "string", "callback", "double", "uint8", "logical"} {
		if err := Register[testPoint](NewTypes(), name); err == nil {
			t.Errorf("%q: expected error", name)
		}
	}
	types := NewTypes()
	if err := Register[testPoint](types, "Point"); err != nil {
		t.Fatal(err)
	}
	if err := Register[testPoint](types, "Point"); err != nil {
		t.Errorf("re-registering the same pair: %v", err)
	}
	if err := Register[testNode](types, "Point"); err == nil {
		t.Error("expected error for a taken name")
	}
	if err := Register[testPoint](types, "Other"); err == nil {
		t.Error("expected error for a second name")
	}
	if err := Register[int](types, "Int"); err == nil {
		t.Error("expected error for a non-struct")
	}
	if diff := cmp.Diff([]string{"Point"}, types.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestRegisterFields(t *testing.T) {
	type twoOwners struct {
		A *testGroup `graph:"owner"`
		B *testGroup `graph:"owner"`
	}
	type badBackref struct {
		Name string `graph:"backref"`
	}
	type badTag struct {
		Name string `graph:"colour=red"`
	}
	type underscore struct {
		Name string `graph:"field=_name"`
	}
	type dup struct {
		A string `graph:"field=x"`
		B string `graph:"field=x"`
	}
	types := NewTypes()
	for name, err := range map[string]error{
		"twoOwners":  Register[twoOwners](types, "TwoOwners"),
		"badBackref": Register[badBackref](types, "BadBackref"),
		"badTag":     Register[badTag](types, "BadTag"),
		"underscore": Register[underscore](types, "Underscore"),
		"dup":        Register[dup](types, "Dup"),
	} {
		if err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestEmbeddedFieldsFlatten(t *testing.T) {
	type base struct {
		ID int64
	}
	type derived struct {
		base
		Label string
	}
	types := NewTypes()
	MustRegister[derived](types, "Derived")
	n, err := ToIR(derived{base: base{ID: 9}, Label: "l"}, WithTypes(types))
	if err != nil {
		t.Fatal(err)
	}
	if got := wire(t, n); got != `{"_type":"Derived","ID":{"_type":"int64","_value":9},"Label":"l"}` {
		t.Fatalf("got %s", got)
	}
	var got derived
	if err := FromIR(n, &got, WithTypes(types)); err != nil {
		t.Fatal(err)
	}
	if got.ID != 9 || got.Label != "l" {
		t.Errorf("got %+v", got)
	}
}

func TestParseStructTag(t *testing.T) {
	got, err := ParseStructTag("field='a b',owner")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"field": "a b", "owner": ""}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
