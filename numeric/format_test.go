package numeric

import (
	"math"
	"testing"
)

func TestRealRoundTrip(t *testing.T) {
	vals := []float64{0, math.Copysign(0, -1), 1, -1.5, 1.1, 1e-300, math.MaxFloat64,
		math.SmallestNonzeroFloat64, math.Inf(1), math.Inf(-1), 123456789012345678}
	for _, f := range vals {
		s := FormatReal(f, 64)
		g, err := ParseReal(s, 64)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if math.Float64bits(f) != math.Float64bits(g) {
			t.Errorf("%v -> %q -> %v", f, s, g)
		}
	}
	nan, err := ParseReal(FormatReal(math.NaN(), 64), 64)
	if err != nil || !math.IsNaN(nan) {
		t.Errorf("NaN -> %v %v", nan, err)
	}
}

func TestRealSingle(t *testing.T) {
	f := float32(0.1)
	s := FormatReal(float64(f), 32)
	if s != "0.1" {
		t.Errorf("got %q", s)
	}
	g, err := ParseReal(s, 32)
	if err != nil || float32(g) != f {
		t.Errorf("got %v %v", g, err)
	}
}

func TestFormatComplex(t *testing.T) {
	negZero := math.Copysign(0, -1)
	tests := []struct {
		c    complex128
		want string
	}{
		{complex(1, 2), "1+2i"},
		{complex(1, -2), "1-2i"},
		{complex(-1.5, 0), "-1.5+0i"},
		{complex(0, negZero), "0-0i"},
		{complex(1e-5, 3e21), "1e-05+3e+21i"},
		{complex(math.Inf(1), math.Inf(-1)), "Inf-Infi"},
		{complex(math.NaN(), math.NaN()), "NaN+NaNi"},
	}
	for _, tc := range tests {
		got := FormatComplex(tc.c, 64)
		if got != tc.want {
			t.Errorf("FormatComplex(%v) = %q, want %q", tc.c, got, tc.want)
			continue
		}
		back, err := ParseComplex(got, 64)
		if err != nil {
			t.Errorf("ParseComplex(%q): %v", got, err)
			continue
		}
		if !sameBits(real(back), real(tc.c)) || !sameBits(imag(back), imag(tc.c)) {
			t.Errorf("%q -> %v", got, back)
		}
	}
}

func TestParseComplexErrors(t *testing.T) {
	for _, s := range []string{"i", "xi", "1+i", "1+2j"} {
		if _, err := ParseComplex(s, 64); err == nil {
			t.Errorf("%q parsed", s)
		}
	}
	c, err := ParseComplex("3", 64)
	if err != nil || c != 3 {
		t.Errorf("bare real: %v %v", c, err)
	}
}

func sameBits(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Float64bits(a) == math.Float64bits(b)
}
