package tq

import (
	"github.com/deepteams/vvc/internal/dsp"
	"github.com/deepteams/vvc/internal/pool"
)

// Forward2D transforms a (1<<log2W)×(1<<log2H) residual block into coef,
// both row-major. The horizontal pass runs first; coefficients beyond the
// kept low-frequency region are written as zero.
func (p Params) Forward2D(resi, coef []int32, log2W, log2H int, ts TransformSet) {
	p.checkBlock(log2W, log2H)
	w, h := 1<<log2W, 1<<log2H
	keepW, keepH := KeptSize(ts.Hor, log2W), KeptSize(ts.Ver, log2H)
	shift1, shift2 := p.ForwardShifts(log2W, log2H, ts.matrixShift())
	depth10 := p.BitDepth <= 10

	tmp := pool.Get(w * h)
	defer pool.Put(tmp)

	hor := ts.descriptor(ts.Hor, log2W, dsp.Forward, depth10)
	hor.SkipLine2 = w - keepW
	dsp.Forward1D(hor, resi, tmp, shift1, h)

	ver := ts.descriptor(ts.Ver, log2H, dsp.Forward, depth10)
	ver.SkipLine = w - keepW
	ver.SkipLine2 = h - keepH
	dsp.Forward1D(ver, tmp, coef, shift2, w)
}

// Inverse2D reconstructs residual samples from coef. The vertical pass
// runs first and is clipped to the coefficient range, the horizontal pass
// is clipped to the 16-bit residual range.
func (p Params) Inverse2D(coef, resi []int32, log2W, log2H int, ts TransformSet) {
	p.checkBlock(log2W, log2H)
	w, h := 1<<log2W, 1<<log2H
	keepW, keepH := KeptSize(ts.Hor, log2W), KeptSize(ts.Ver, log2H)
	shift1, shift2 := p.InverseShifts(ts.matrixShift())
	depth10 := p.BitDepth <= 10
	lo, hi := dsp.CoeffRange(p.DynRange())

	tmp := pool.Get(w * h)
	defer pool.Put(tmp)

	ver := ts.descriptor(ts.Ver, log2H, dsp.Inverse, depth10)
	ver.SkipLine = w - keepW
	ver.SkipLine2 = h - keepH
	dsp.Inverse1D(ver, coef, tmp, shift1, w, lo, hi)

	hor := ts.descriptor(ts.Hor, log2W, dsp.Inverse, depth10)
	hor.SkipLine2 = w - keepW
	dsp.Inverse1D(hor, tmp, resi, shift2, h, dsp.ResidualMin, dsp.ResidualMax)
}

// Reconstruct adds resi to pred and clips to the sample range.
func (p Params) Reconstruct(pred, resi, rec []int32) {
	rec = rec[:len(pred)]
	for i, v := range pred {
		rec[i] = dsp.ClipPel(v+resi[i], p.BitDepth)
	}
}
