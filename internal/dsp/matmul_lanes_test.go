package dsp

import (
	"fmt"
	"math/rand"
	"testing"
)

// Lane kernels must agree with the scalar matrix kernels for every input
// inside the 10-bit dynamic range, whatever the lane width.

func laneMatrices() []*Matrix {
	return []*Matrix{
		DST7Matrix(3), DST7Matrix(4), DST7Matrix(5),
		KLTMatrix(2, false), KLTMatrix(3, false), KLTMatrix(4, false),
	}
}

func TestForwardLanesConformance(t *testing.T) {
	rng := rand.New(rand.NewSource(201))
	for _, m := range laneMatrices() {
		for _, lanes := range []int{4, 8} {
			for _, line := range []int{4, 8, 13, 32} {
				t.Run(fmt.Sprintf("N%d/lanes%d/line%d", m.N, lanes, line), func(t *testing.T) {
					src := randBlock(rng, m.N*line, 1023)
					want := make([]int32, m.N*line)
					got := make([]int32, m.N*line)
					ForwardMM(m, src, want, m.Log2+1, line, line/4, m.N/4)
					forwardLanes(m, lanes, src, got, m.Log2+1, line, line/4, m.N/4)
					equalInt32(t, "forward", got, want)
				})
			}
		}
	}
}

func TestInverseLanesConformance(t *testing.T) {
	rng := rand.New(rand.NewSource(202))
	lo, hi := CoeffRange(15)
	for _, m := range laneMatrices() {
		for _, lanes := range []int{4, 8} {
			for _, line := range []int{4, 8, 13, 32} {
				t.Run(fmt.Sprintf("N%d/lanes%d/line%d", m.N, lanes, line), func(t *testing.T) {
					coef := randBlock(rng, m.N*line, 32767)
					want := make([]int32, m.N*line)
					got := make([]int32, m.N*line)
					InverseMM(m, coef, want, 7, line, 0, 0, lo, hi)
					inverseLanes(m, lanes, coef, got, 7, line, 0, 0, lo, hi)
					equalInt32(t, "inverse", got, want)
				})
			}
		}
	}
}

// boundaryBlock fills n samples with one of the extreme input patterns.
func boundaryBlock(pattern string, n int, lo, hi int32) []int32 {
	b := make([]int32, n)
	for i := range b {
		switch pattern {
		case "max":
			b[i] = hi
		case "min":
			b[i] = lo
		case "alternating":
			b[i] = hi
			if i&1 == 1 {
				b[i] = -hi
			}
		}
	}
	return b
}

func TestLanesBoundaryInputs(t *testing.T) {
	lo, hi := CoeffRange(15)
	patterns := []string{"zero", "max", "min", "alternating"}
	for _, m := range laneMatrices() {
		for _, pattern := range patterns {
			for _, lanes := range []int{4, 8} {
				for _, line := range []int{8, 13} {
					name := fmt.Sprintf("N%d/%s/lanes%d/line%d", m.N, pattern, lanes, line)
					src := boundaryBlock(pattern, m.N*line, lo, hi)
					t.Run("forward/"+name, func(t *testing.T) {
						want := make([]int32, m.N*line)
						got := make([]int32, m.N*line)
						ForwardMM(m, src, want, m.Log2+6, line, 0, 0)
						forwardLanes(m, lanes, src, got, m.Log2+6, line, 0, 0)
						equalInt32(t, "forward", got, want)
					})
					t.Run("inverse/"+name, func(t *testing.T) {
						want := make([]int32, m.N*line)
						got := make([]int32, m.N*line)
						InverseMM(m, src, want, 7, line, 0, 0, lo, hi)
						inverseLanes(m, lanes, src, got, 7, line, 0, 0, lo, hi)
						equalInt32(t, "inverse", got, want)
						if pattern == "zero" {
							for i, v := range got {
								if v != 0 {
									t.Fatalf("zero input gave %d at %d", v, i)
								}
							}
						}
					})
				}
			}
		}
	}
}

func TestDepth10DispatchConformance(t *testing.T) {
	rng := rand.New(rand.NewSource(203))
	for _, b := range []Basis{DST7, KLT} {
		for log2 := 2; log2 <= 4; log2++ {
			n := 1 << log2
			src := randBlock(rng, n*16, 1023)
			want := make([]int32, n*16)
			got := make([]int32, n*16)
			Forward1D(Descriptor{SizeLog2: log2, Basis: b}, src, want, 5, 16)
			Forward1D(Descriptor{SizeLog2: log2, Basis: b, Depth10: true}, src, got, 5, 16)
			equalInt32(t, b.String(), got, want)
		}
	}
	if w := LaneWidth(); w != 0 && w != 4 && w != 8 {
		t.Fatalf("LaneWidth() = %d", w)
	}
}

func BenchmarkForwardLanesDST7B32(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	src := randBlock(rng, 32*32, 255)
	dst := make([]int32, 32*32)
	m := DST7Matrix(5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		forwardLanes(m, 8, src, dst, 4, 32, 0, 0)
	}
}
