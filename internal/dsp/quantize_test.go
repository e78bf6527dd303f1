package dsp

import "testing"

func TestQuantizeLine(t *testing.T) {
	coef := []int32{0, 100, -100, 1 << 20, -7}
	levels := make([]int32, len(coef))
	delta := make([]int32, len(coef))
	// QP 22 at 4x4, 8-bit: scale 16384, qBits 14+3+5.
	qBits := 22
	add := int64(171) << (qBits - 9)
	sum := QuantizeLine(coef, levels, 16384, qBits, add, delta)
	want := []int32{0, 0, 0, 4096, 0}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("level %d = %d, want %d", i, levels[i], want[i])
		}
	}
	if sum != 4096 {
		t.Fatalf("abs sum = %d, want 4096", sum)
	}
	if delta[1] != int32((100*16384)>>(qBits-8)) {
		t.Fatalf("delta = %d", delta[1])
	}
}

func TestQuantizeLineSaturates(t *testing.T) {
	levels := make([]int32, 2)
	QuantizeLine([]int32{1 << 30, -(1 << 30)}, levels, 26214, 14, 0, nil)
	if levels[0] != MaxLevel || levels[1] != -MaxLevel {
		t.Fatalf("levels = %v, want ±%d", levels, MaxLevel)
	}
}

func TestDequantizeLine(t *testing.T) {
	levels := []int32{0, 1, -1, 3, 32767}
	coef := make([]int32, len(levels))
	DequantizeLine(levels, coef, 64, 2, -32768, 32767)
	want := []int32{0, 16, -16, 48, 32767}
	for i := range want {
		if coef[i] != want[i] {
			t.Fatalf("coef %d = %d, want %d", i, coef[i], want[i])
		}
	}

	DequantizeLine([]int32{2, -3}, coef, 40, -3, -32768, 32767)
	if coef[0] != 640 || coef[1] != -960 {
		t.Fatalf("left shift: got %v", coef[:2])
	}
}

func TestClipPel(t *testing.T) {
	for _, tc := range []struct {
		v, bd, want int32
	}{
		{-5, 8, 0}, {0, 8, 0}, {255, 8, 255}, {256, 8, 255}, {1023, 10, 1023}, {5000, 10, 1023},
	} {
		if got := ClipPel(tc.v, int(tc.bd)); got != tc.want {
			t.Errorf("ClipPel(%d, %d) = %d, want %d", tc.v, tc.bd, got, tc.want)
		}
	}
	if Clip3(-4, 4, 9) != 4 || Clip3(-4, 4, -9) != -4 || Clip3(-4, 4, 1) != 1 {
		t.Fatal("Clip3")
	}
}
