package internal

import (
	"reflect"
	"testing"
)

func TestComputeNofBatches(t *testing.T) {
	if got := ComputeNofBatches(0, 0, 5); got != 1 {
		t.Errorf("empty range: got %d batches, want 1", got)
	}
	if got := ComputeNofBatches(0, 3, 10); got != 3 {
		t.Errorf("batches capped at range size: got %d, want 3", got)
	}
	if got := ComputeNofBatches(0, 100, 4); got != 4 {
		t.Errorf("got %d batches, want 4", got)
	}
}

func TestTypeHasPointers(t *testing.T) {
	type flat struct {
		A int
		B [4]float64
	}
	type deep struct {
		flat
		S []byte
	}
	cases := []struct {
		v    interface{}
		want bool
	}{
		{int(0), false},
		{float64(0), false},
		{[8]uint32{}, false},
		{flat{}, false},
		{"", true},
		{[]int{}, true},
		{map[int]int{}, true},
		{deep{}, true},
		{new(int), true},
	}
	for _, c := range cases {
		if got := TypeHasPointers(reflect.TypeOf(c.v)); got != c.want {
			t.Errorf("TypeHasPointers(%T) = %v, want %v", c.v, got, c.want)
		}
	}
	if !TypeHasPointers(nil) {
		t.Error("nil type must be conservatively pointerful")
	}
}
