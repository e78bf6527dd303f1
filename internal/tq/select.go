package tq

import "github.com/deepteams/vvc/internal/dsp"

// TransformSet is the separable transform pair of one block.
type TransformSet struct {
	Hor, Ver      dsp.Basis
	HighPrecision bool
}

// DCT2Set is the default transform pair.
var DCT2Set = TransformSet{Hor: dsp.DCT2, Ver: dsp.DCT2}

// Select picks the transform pair of a log2W×log2H block. useKLT is the
// block-level flag requesting the learned basis; it only takes effect for
// square 4..16 blocks when KLT is enabled. Otherwise intra blocks use
// DST-VII along every side of 4..16 samples when enabled, and DCT-II
// elsewhere.
func (p Params) Select(log2W, log2H int, intra, useKLT bool) TransformSet {
	if useKLT && p.EnableKLT && log2W == log2H && log2W >= 2 && log2W <= 4 {
		return TransformSet{Hor: dsp.KLT, Ver: dsp.KLT, HighPrecision: p.KLTHighPrecision}
	}
	ts := DCT2Set
	if intra && p.EnableDST7 {
		if log2W >= 2 && log2W <= 4 {
			ts.Hor = dsp.DST7
		}
		if log2H >= 2 && log2H <= 4 {
			ts.Ver = dsp.DST7
		}
	}
	return ts
}

// KeptSize returns how many low-frequency coefficients a transform of
// 1<<log2 points keeps; the rest are zeroed out.
func KeptSize(b dsp.Basis, log2 int) int {
	n := 1 << log2
	switch {
	case b == dsp.DCT2 && n > 32:
		return 32
	case b == dsp.DST7 && n == 32:
		return 16
	}
	return n
}

func (ts TransformSet) descriptor(b dsp.Basis, log2 int, dir dsp.Direction, depth10 bool) dsp.Descriptor {
	return dsp.Descriptor{
		SizeLog2:      log2,
		Direction:     dir,
		Basis:         b,
		HighPrecision: ts.HighPrecision && b == dsp.KLT,
		Depth10:       depth10,
	}
}

func (ts TransformSet) matrixShift() int {
	if ts.HighPrecision && ts.Hor == dsp.KLT {
		return dsp.MatrixShiftHighPrecision
	}
	return dsp.MatrixShift
}
