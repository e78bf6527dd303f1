package dsp

import (
	"fmt"
	"math/rand"
	"testing"
)

func randBlock(rng *rand.Rand, n, amp int) []int32 {
	buf := make([]int32, n)
	for i := range buf {
		buf[i] = int32(rng.Intn(2*amp+1) - amp)
	}
	return buf
}

func equalInt32(t *testing.T, what string, got, want []int32) {
	t.Helper()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: index %d: got %d, want %d", what, i, got[i], want[i])
		}
	}
}

func TestDCT2MatrixRows(t *testing.T) {
	m4 := DCT2Matrix(2)
	want4 := []int32{
		64, 64, 64, 64,
		83, 36, -36, -83,
		64, -64, -64, 64,
		36, -83, 83, -36,
	}
	equalInt32(t, "dct2 4", m4.C, want4)

	for log2 := MinLog2Size; log2 <= MaxLog2Size; log2++ {
		m := DCT2Matrix(log2)
		n := m.N
		for i := 0; i < n; i++ {
			if m.At(0, i) != 64 {
				t.Fatalf("N=%d: DC row entry %d = %d", n, i, m.At(0, i))
			}
		}
		for k := 0; k < n; k++ {
			sign := int32(1)
			if k&1 == 1 {
				sign = -1
			}
			for i := 0; i < n/2; i++ {
				if m.At(k, n-1-i) != sign*m.At(k, i) {
					t.Fatalf("N=%d row %d not symmetric at %d", n, k, i)
				}
			}
		}
		if log2 < MaxLog2Size {
			big := DCT2Matrix(log2 + 1)
			for k := 0; k < n; k++ {
				for i := 0; i < n; i++ {
					if big.At(2*k, i) != m.At(k, i) {
						t.Fatalf("N=%d even row %d differs from N=%d row", 2*n, 2*k, n)
					}
				}
			}
		}
	}
}

func TestDCT2Matrix64Row1(t *testing.T) {
	want := []int32{
		91, 90, 90, 90, 88, 87, 86, 84, 83, 81, 79, 77, 73, 71, 69, 65,
		62, 59, 56, 52, 48, 44, 41, 37, 33, 28, 24, 20, 15, 11, 7, 2,
	}
	equalInt32(t, "dct2 64 row 1", DCT2Matrix(6).Row(1)[:32], want)
}

func TestDST7Matrix4(t *testing.T) {
	want := []int32{
		29, 55, 74, 84,
		74, 74, 0, -74,
		84, -29, -74, 55,
		55, -84, 74, -29,
	}
	equalInt32(t, "dst7 4", DST7Matrix(2).C, want)
}

func TestKLTMatrixNorms(t *testing.T) {
	for log2 := 2; log2 <= 4; log2++ {
		for _, hp := range []bool{false, true} {
			m := KLTMatrix(log2, hp)
			n := m.N
			target := float64(int64(1)<<(2*m.Shift)) * float64(n)
			for k := 0; k < n; k++ {
				var norm float64
				for _, c := range m.Row(k) {
					norm += float64(c) * float64(c)
				}
				if d := norm/target - 1; d > 0.03 || d < -0.03 {
					t.Errorf("N=%d hp=%v row %d: norm %.0f, want about %.0f", n, hp, k, norm, target)
				}
			}
		}
	}
}

func TestDCT2ButterflyMatchesMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(101))
	for log2 := MinLog2Size; log2 <= MaxLog2Size; log2++ {
		n := 1 << log2
		m := DCT2Matrix(log2)
		for _, tc := range []struct{ line, skipLine, skipLine2 int }{
			{4, 0, 0},
			{8, 3, 0},
			{16, 0, n / 2},
			{4, 1, n - 1},
		} {
			name := fmt.Sprintf("N%d/line%d/skip%d/%d", n, tc.line, tc.skipLine, tc.skipLine2)
			t.Run(name, func(t *testing.T) {
				src := randBlock(rng, n*tc.line, 4096)
				want := make([]int32, n*tc.line)
				got := make([]int32, n*tc.line)
				for i := range got {
					got[i] = -1
				}
				ForwardMM(m, src, want, 7, tc.line, tc.skipLine, tc.skipLine2)
				Forward1D(Descriptor{SizeLog2: log2, Basis: DCT2, SkipLine: tc.skipLine, SkipLine2: tc.skipLine2}, src, got, 7, tc.line)
				equalInt32(t, "forward", got, want)

				coef := randBlock(rng, n*tc.line, 32768)
				for k := n - tc.skipLine2; k < n; k++ {
					clear(coef[k*tc.line : (k+1)*tc.line])
				}
				wantInv := make([]int32, n*tc.line)
				gotInv := make([]int32, n*tc.line)
				InverseMM(m, coef, wantInv, 12, tc.line, tc.skipLine, tc.skipLine2, ResidualMin, ResidualMax)
				Inverse1D(Descriptor{SizeLog2: log2, Direction: Inverse, Basis: DCT2, SkipLine: tc.skipLine, SkipLine2: tc.skipLine2},
					coef, gotInv, 12, tc.line, ResidualMin, ResidualMax)
				equalInt32(t, "inverse", gotInv, wantInv)
			})
		}
	}
}

func TestDST7FastMatchesMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(102))
	m := DST7Matrix(2)
	for iter := 0; iter < 200; iter++ {
		line := 1 + rng.Intn(16)
		src := randBlock(rng, 4*line, 1023)
		want := make([]int32, 4*line)
		got := make([]int32, 4*line)
		ForwardMM(m, src, want, 3, line, 0, 0)
		fwdDST7B4(src, got, 3, line, 0, 0)
		equalInt32(t, "forward", got, want)

		inv := make([]int32, 4*line)
		invWant := make([]int32, 4*line)
		InverseMM(m, want, invWant, 7, line, 0, 0, -32768, 32767)
		invDST7B4(want, inv, 7, line, 0, 0, -32768, 32767)
		equalInt32(t, "inverse", inv, invWant)
	}
}

func TestForwardSkipWritesZeros(t *testing.T) {
	const n, line = 16, 8
	src := make([]int32, n*line)
	for i := range src {
		src[i] = 100
	}
	dst := make([]int32, n*line)
	for i := range dst {
		dst[i] = 12345
	}
	Forward1D(Descriptor{SizeLog2: 4, Basis: DCT2, SkipLine: 2, SkipLine2: 8}, src, dst, 4, line)
	for k := 0; k < n; k++ {
		for j := 0; j < line; j++ {
			v := dst[k*line+j]
			if (k >= n-8 || j >= line-2) && v != 0 {
				t.Fatalf("row %d line %d: got %d, want 0", k, j, v)
			}
		}
	}
	if dst[0] != 100*64*16>>4 {
		t.Fatalf("DC = %d, want %d", dst[0], 100*64*16>>4)
	}
}

func TestInverseClips(t *testing.T) {
	const n = 8
	coef := make([]int32, n)
	coef[0] = 32767
	dst := make([]int32, n)
	Inverse1D(Descriptor{SizeLog2: 3, Direction: Inverse, Basis: DCT2}, coef, dst, 0, 1, -100, 100)
	for i, v := range dst {
		if v != 100 {
			t.Fatalf("sample %d = %d, want clipped 100", i, v)
		}
	}
}

func TestUnsupportedSizePanics(t *testing.T) {
	for _, d := range []Descriptor{
		{SizeLog2: 6, Basis: DST7},
		{SizeLog2: 1, Basis: DST7},
		{SizeLog2: 5, Basis: KLT},
		{SizeLog2: 8, Basis: DCT2},
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%v size %d: no panic", d.Basis, d.Size())
				}
			}()
			LookupForward(d)
		}()
	}
	if !Supported(DCT2, 7) || !Supported(DST7, 5) || !Supported(KLT, 4) {
		t.Fatal("expected kernels missing")
	}
}

func BenchmarkForwardDCT2B32(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	src := randBlock(rng, 32*32, 255)
	dst := make([]int32, 32*32)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fwdDCT2B32(src, dst, 4, 32, 0, 0)
	}
}

func BenchmarkForwardMM32(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	src := randBlock(rng, 32*32, 255)
	dst := make([]int32, 32*32)
	m := DCT2Matrix(5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ForwardMM(m, src, dst, 4, 32, 0, 0)
	}
}
