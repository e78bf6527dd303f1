package tq

import (
	"fmt"
	"math"

	"github.com/deepteams/vvc/internal/dsp"
)

// QuantContext carries the per-block quantization state.
type QuantContext struct {
	QP         int
	Intra      bool  // selects the intra rounding offset
	Lambda     int64 // Lagrange multiplier in 1/256 units; 0 derives it from QP
	RDOQ       bool
	SignHiding bool
}

// Validate checks the QP against the range of the bit depth.
func (q QuantContext) Validate(p Params) error {
	if q.QP < p.MinQP() || q.QP > MaxQP {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrQP, q.QP, p.MinQP(), MaxQP)
	}
	return nil
}

// DefaultLambda returns 0.57*2^((qp-12)/3) in 1/256 units.
func DefaultLambda(qp int) int64 {
	return int64(math.Round(0.57 * math.Exp2(float64(qp-12)/3) * 256))
}

// LambdaFix returns the effective Lagrange multiplier of q.
func (q QuantContext) LambdaFix() int64 {
	if q.Lambda > 0 {
		return q.Lambda
	}
	return DefaultLambda(q.QP)
}

// Rounding offsets in 1/512 of a quantization step.
const (
	intraRounding = 171
	interRounding = 85
)

// blockQuant holds the derived quantizer of one block size.
type blockQuant struct {
	scale    int32 // forward scale
	qBits    int
	add      int64
	invScale int32
	invShift int // positive: round and shift right; otherwise shift left
	tShift   int
	coefLo   int32
	coefHi   int32
}

func (p Params) blockQuant(q QuantContext, log2W, log2H int) blockQuant {
	qp := q.QP + 6*(p.BitDepth-8)
	per, rem := qp/6, qp%6
	odd := (log2W + log2H) & 1
	tShift := p.TransformShift(log2W, log2H)
	qBits := 14 + per + tShift
	rounding := int64(interRounding)
	if q.Intra {
		rounding = intraRounding
	}
	lo, hi := dsp.CoeffRange(p.DynRange())
	return blockQuant{
		scale:    dsp.QuantScales[odd][rem],
		qBits:    qBits,
		add:      rounding << (qBits - 9),
		invScale: dsp.DequantScales[odd][rem],
		invShift: 6 - (tShift + per),
		tShift:   tShift,
		coefLo:   lo,
		coefHi:   hi,
	}
}

// Quantize applies plain scalar quantization to the kept region of coef
// and returns the number of non-zero levels. Levels outside the region
// are zero.
func (p Params) Quantize(coef, levels []int32, log2W, log2H int, ts TransformSet, q QuantContext) int {
	bq := p.blockQuant(q, log2W, log2H)
	w := 1 << log2W
	keepW, keepH := KeptSize(ts.Hor, log2W), KeptSize(ts.Ver, log2H)
	clear(levels[:w<<log2H])
	nz := 0
	for y := 0; y < keepH; y++ {
		row := y * w
		dsp.QuantizeLine(coef[row:row+keepW], levels[row:row+keepW], bq.scale, bq.qBits, bq.add, nil)
		for _, l := range levels[row : row+keepW] {
			if l != 0 {
				nz++
			}
		}
	}
	return nz
}

// Dequantize reconstructs coefficients from levels, clipped to the
// coefficient range.
func (p Params) Dequantize(levels, coef []int32, log2W, log2H int, q QuantContext) {
	bq := p.blockQuant(q, log2W, log2H)
	n := 1 << (log2W + log2H)
	dsp.DequantizeLine(levels[:n], coef[:n], bq.invScale, bq.invShift, bq.coefLo, bq.coefHi)
}
