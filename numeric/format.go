package numeric

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatReal renders f with the shortest text that parses back to the same
// bits at the given bit size. Non-finite values render as NaN, Inf and
// -Inf.
func FormatReal(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}

// ParseReal is the inverse of FormatReal.
func ParseReal(s string, bitSize int) (float64, error) {
	t := strings.TrimPrefix(s, "+")
	switch t {
	case "NaN", "nan":
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(t, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid real %q: %w", s, err)
	}
	return f, nil
}

// FormatComplex renders c as re±imi. Both parts share FormatReal; the
// joiner is '-' exactly when the imaginary part carries a sign bit and is
// not NaN.
func FormatComplex(c complex128, bitSize int) string {
	re := FormatReal(real(c), bitSize)
	im := FormatReal(imag(c), bitSize)
	if strings.HasPrefix(im, "-") {
		return re + im + "i"
	}
	return re + "+" + im + "i"
}

// ParseComplex is the inverse of FormatComplex. A bare real is accepted
// as a complex with zero imaginary part.
func ParseComplex(s string, bitSize int) (complex128, error) {
	if !strings.HasSuffix(s, "i") {
		f, err := ParseReal(s, bitSize)
		if err != nil {
			return 0, err
		}
		return complex(f, 0), nil
	}
	body := s[:len(s)-1]
	split := -1
	for i := len(body) - 1; i > 0; i-- {
		if body[i] != '+' && body[i] != '-' {
			continue
		}
		if p := body[i-1]; p == 'e' || p == 'E' {
			continue
		}
		split = i
		break
	}
	if split < 0 {
		return 0, fmt.Errorf("invalid complex %q", s)
	}
	re, err := ParseReal(body[:split], bitSize)
	if err != nil {
		return 0, err
	}
	im, err := ParseReal(body[split:], bitSize)
	if err != nil {
		return 0, err
	}
	return complex(re, im), nil
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsNegZero reports whether f is -0.
func IsNegZero(f float64) bool {
	return f == 0 && math.Signbit(f)
}
