package tq

import (
	"github.com/deepteams/vvc/internal/pool"
	"github.com/deepteams/vvc/internal/residual"
)

// Result describes the levels chosen for one block.
type Result struct {
	Shape      residual.Shape
	NumNonZero int
	AbsSum     int64
	FracBits   uint64 // estimated residual rate in 1/256 bit, 0 without rates
	Cost       int64  // coefficient-domain Lagrangian cost of the choice
}

// Shape returns the residual shape of a log2W×log2H block coded with ts.
func (p Params) Shape(log2W, log2H int, ts TransformSet, q QuantContext) residual.Shape {
	return residual.NewShape(log2W, log2H, KeptSize(ts.Hor, log2W), KeptSize(ts.Ver, log2H), q.SignHiding)
}

// TransformQuantize transforms a residual block and quantizes the result
// into levels. With q.RDOQ set and rates available the levels minimise the
// estimated rate-distortion cost; the choice is never worse than coding
// the block as all zero or than plain scalar quantization.
func (p Params) TransformQuantize(resi, levels []int32, log2W, log2H int, ts TransformSet, q QuantContext, rates residual.Rates) Result {
	p.checkBlock(log2W, log2H)
	coef := pool.Get(1 << (log2W + log2H))
	defer pool.Put(coef)
	p.Forward2D(resi, coef, log2W, log2H, ts)
	return p.QuantizeBlock(coef, levels, log2W, log2H, ts, q, rates)
}

// QuantizeBlock quantizes transform coefficients into levels, see
// TransformQuantize.
func (p Params) QuantizeBlock(coef, levels []int32, log2W, log2H int, ts TransformSet, q QuantContext, rates residual.Rates) Result {
	sh := p.Shape(log2W, log2H, ts, q)
	st := p.newRDState(coef, sh, log2W, log2H, q)
	defer st.release()

	p.Quantize(coef, levels, log2W, log2H, ts, q)
	if q.SignHiding {
		st.hideSigns(levels)
	}
	if rates == nil {
		return summarize(levels, sh, 0, 0)
	}
	scalarCost, scalarBits := st.exactCost(levels, rates)
	if !q.RDOQ {
		return summarize(levels, sh, scalarBits, scalarCost)
	}

	n := sh.Size()
	rd := pool.Get(n)
	defer pool.Put(rd)
	st.rdoq(rates, rd)
	if q.SignHiding {
		st.hideSigns(rd)
	}
	rdCost, rdBits := st.exactCost(rd, rates)

	zeroCost := st.zeroCost(rates)
	switch {
	case zeroCost <= rdCost && zeroCost <= scalarCost:
		clear(levels[:n])
		return summarize(levels, sh, uint64(residual.CbfRate(rates, false)), zeroCost)
	case rdCost <= scalarCost:
		copy(levels[:n], rd[:n])
		return summarize(levels, sh, rdBits, rdCost)
	}
	return summarize(levels, sh, scalarBits, scalarCost)
}

func summarize(levels []int32, sh residual.Shape, bits uint64, cost int64) Result {
	r := Result{Shape: sh, FracBits: bits, Cost: cost}
	for _, l := range levels[:sh.Size()] {
		if l != 0 {
			r.NumNonZero++
			r.AbsSum += int64(abs32(l))
		}
	}
	return r
}

// InvQuantTransform dequantizes levels and inverse transforms them into a
// residual block.
func (p Params) InvQuantTransform(levels, resi []int32, log2W, log2H int, ts TransformSet, q QuantContext) {
	p.checkBlock(log2W, log2H)
	coef := pool.Get(1 << (log2W + log2H))
	defer pool.Put(coef)
	p.Dequantize(levels, coef, log2W, log2H, q)
	p.Inverse2D(coef, resi, log2W, log2H, ts)
}
