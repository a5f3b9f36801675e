package numeric

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKindTags(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := KindOf(k.Tag())
		if !ok || got != k {
			t.Errorf("%s: KindOf = %v %v", k, got, ok)
		}
		kt, ok := KindOfType(k.Type())
		if !ok || kt != k {
			t.Errorf("%s: KindOfType = %v %v", k, kt, ok)
		}
	}
	if _, ok := KindOf("handle"); ok {
		t.Error("handle is not a numeric tag")
	}
}

func TestDenseIndex(t *testing.T) {
	d := NewDense[int32](2, 3)
	d.Set(5, 1, 2)
	if d.Data[5] != 5 || d.At(1, 2) != 5 {
		t.Errorf("data %v", d.Data)
	}
	if d.Kind() != Int32 {
		t.Errorf("kind %s", d.Kind())
	}
}

func TestColumnMajor(t *testing.T) {
	tests := []struct {
		dims []int
		want []int
	}{
		{[]int{4}, []int{0, 1, 2, 3}},
		// 2x3 row-major offsets visited with the first index fastest
		{[]int{2, 3}, []int{0, 3, 1, 4, 2, 5}},
		{[]int{2, 1, 2}, []int{0, 2, 1, 3}},
		{[]int{0, 3}, []int{}},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.want, ColumnMajor(tc.dims)); diff != "" {
			t.Errorf("%v (-want +got):\n%s", tc.dims, diff)
		}
	}
}

func TestNewArray(t *testing.T) {
	for _, k := range Kinds() {
		a, err := NewArray(k, []int{2, 2})
		if err != nil {
			t.Fatal(err)
		}
		if a.Kind() != k {
			t.Errorf("%s: got %s", k, a.Kind())
		}
	}
	if _, err := NewArray(Invalid, nil); err == nil {
		t.Error("expected error")
	}
}

func TestSparse(t *testing.T) {
	s := NewSparse[float64](3, 2)
	s.Set(2, 1, 4)
	s.Set(0, 0, 1)
	s.Set(1, 1, 3)
	s.Set(0, 1, 2)
	s.Set(0, 1, 0)
	if diff := cmp.Diff([]int{0, 1, 2}, s.RowIdx); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 1}, s.ColIdx); diff != "" {
		t.Errorf("cols (-want +got):\n%s", diff)
	}
	if s.At(1, 1) != 3 || s.At(1, 0) != 0 {
		t.Errorf("At wrong")
	}
	d := &Dense[float64]{}
	if err := Scatter(s, d); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s.Dense(), d); diff != "" {
		t.Errorf("scatter (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 0, 0, 3, 0, 4}, d.Data); diff != "" {
		t.Errorf("dense (-want +got):\n%s", diff)
	}
}
