package gomap

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScalarWire(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"double", 1.5, `1.5`},
		{"integral double", 3.0, `3`},
		{"negative zero", math.Copysign(0, -1), `{"_type":"double","_value":"-0"}`},
		{"nan", math.NaN(), `{"_type":"double","_value":"NaN"}`},
		{"inf", math.Inf(-1), `{"_type":"double","_value":"-Inf"}`},
		{"single", float32(1.5), `{"_type":"single","_value":1.5}`},
		{"single nan", float32(math.NaN()), `{"_type":"single","_value":"NaN"}`},
		{"int", 7, `{"_type":"int64","_value":7}`},
		{"int8", int8(-3), `{"_type":"int8","_value":-3}`},
		{"uint16", uint16(65535), `{"_type":"uint16","_value":65535}`},
		{"complex", complex(1, -2), `{"_type":"cdouble","_value":"1-2i"}`},
		{"csingle", complex64(complex(0.5, 2)), `{"_type":"csingle","_value":"0.5+2i"}`},
		{"bool", true, `true`},
		{"string", "hi", `"hi"`},
		{"nil", nil, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ToIR(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := wire(t, n); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestScalarRoundTripInterface(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"double", 2.25, 2.25},
		{"int becomes int64", 7, int64(7)},
		{"uint8", uint8(200), uint8(200)},
		{"int32", int32(-5), int32(-5)},
		{"single", float32(0.1), float32(0.1)},
		{"cdouble", complex(3, 4), complex(3, 4)},
		{"csingle", complex64(complex(-1, 0.5)), complex64(complex(-1, 0.5))},
		{"string", "x", "x"},
		{"bool", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ToIR(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			var got any
			if err := FromIR(n, &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScalarSpecialFloats(t *testing.T) {
	for _, f := range []float64{math.Copysign(0, -1), math.NaN(), math.Inf(1)} {
		n, err := ToIR(f)
		if err != nil {
			t.Fatal(err)
		}
		var got float64
		if err := FromIR(n, &got); err != nil {
			t.Fatal(err)
		}
		if math.Float64bits(got) != math.Float64bits(f) && !(math.IsNaN(f) && math.IsNaN(got)) {
			t.Errorf("got %v, want %v", got, f)
		}
	}
	n, _ := ToIR(math.Copysign(0, -1))
	var got any
	if err := FromIR(n, &got); err != nil {
		t.Fatal(err)
	}
	if f, ok := got.(float64); !ok || !math.Signbit(f) {
		t.Errorf("got %#v, want -0", got)
	}
}

func TestScalarConversion(t *testing.T) {
	n, _ := ToIR(int64(300))
	var small int16
	if err := FromIR(n, &small); err != nil {
		t.Fatal(err)
	}
	if small != 300 {
		t.Errorf("got %d", small)
	}

	var tiny int8
	err := FromIR(n, &tiny)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if tiny != 0 {
		t.Errorf("slot changed to %d", tiny)
	}

	frac, _ := ToIR(2.5)
	var i int
	if err := FromIR(frac, &i); !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	whole, _ := ToIR(2.0)
	if err := FromIR(whole, &i); err != nil || i != 2 {
		t.Fatalf("got %d, %v", i, err)
	}
}
