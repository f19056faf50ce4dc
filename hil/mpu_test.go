package hil

import "testing"

func TestRegionContains(t *testing.T) {
	r := Region{Start: 0x100, End: 0x200}
	cases := []struct {
		addr, length uintptr
		want         bool
	}{
		{0x100, 0x100, true},
		{0x100, 0, true},
		{0x1ff, 1, true},
		{0x1ff, 2, false},
		{0xff, 1, false},
		{0x200, 1, false},
		{0x180, ^uintptr(0), false}, // wrapping range
	}
	for _, c := range cases {
		if got := r.Contains(c.addr, c.length); got != c.want {
			t.Fatalf("Contains(%#x, %#x)=%v, want %v", c.addr, c.length, got, c.want)
		}
	}
}
