package router

import "testing"

func TestClassIndexCoversEveryByteSize(t *testing.T) {
	cases := []struct {
		size uint32
		want int
	}{
		{1, 0}, {8, 0},
		{9, 1}, {16, 1},
		{17, 2}, {32, 2},
		{33, 3}, {64, 3},
		{65, 4}, {128, 4},
		{129, 5}, {256, 5},
	}
	for _, c := range cases {
		idx, ok := ClassIndex(c.size)
		if !ok {
			t.Fatalf("size %d: expected a class, got none", c.size)
		}
		if idx != c.want {
			t.Fatalf("size %d: class %d, want %d", c.size, idx, c.want)
		}
		if got := Classes[idx].Object; got < c.size {
			t.Fatalf("size %d: class %d only covers %d bytes", c.size, idx, got)
		}
	}
}

func TestClassIndexRejectsOutOfRange(t *testing.T) {
	for _, size := range []uint32{0, 257, 1 << 20} {
		if _, ok := ClassIndex(size); ok {
			t.Fatalf("size %d should be rejected", size)
		}
	}
}

func TestAlignedSizeRoundsUp(t *testing.T) {
	cases := []struct{ size, align, want uint32 }{
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{200, 8, 200},
		{201, 8, 208},
	}
	for _, c := range cases {
		if got := AlignedSize(c.size, c.align); got != c.want {
			t.Fatalf("AlignedSize(%d, %d) = %d, want %d", c.size, c.align, got, c.want)
		}
	}
}
