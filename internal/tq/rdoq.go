package tq

import (
	"math"
	"sync"

	"github.com/deepteams/vvc/internal/dsp"
	"github.com/deepteams/vvc/internal/residual"
)

const (
	maxCoded   = 1 << (2 * residual.MaxCodedLog2)
	maxGroups  = maxCoded / 16
	distFrac   = 10 // fractional bits of a level error in the distortion domain
	deltaFrac  = 8  // fractional bits of the sign hiding rounding error
	maxLambdaL = int64(1) << 32
	maxDistErr = int64(1) << 26
)

// rdScratch is the per-block working set of rate-distortion optimised
// quantization, indexed by scan position unless noted.
type rdScratch struct {
	scaled    [maxCoded]int64 // |coef| * scale
	neg       [maxCoded]bool
	decided   [maxCoded]int32
	abs       [maxCoded]int32 // decided levels by region position
	costCoded [maxCoded]int64
	costZero  [maxCoded]int64
	costLast  [maxCoded]int64
	before    [maxCoded]int64 // coded cost of the lower positions of the group
	groupCost [maxGroups]int64
	coded     [maxGroups]bool
}

var scratchPool = sync.Pool{New: func() any { return new(rdScratch) }}

// rdState is the quantizer of one block in the coefficient domain.
// Distortion is the squared level error in units of 2^-2*distFrac, rate is
// in 1/256 bit, and lambda converts rate to distortion units.
type rdState struct {
	sh       residual.Shape
	scan     *residual.Scan
	bq       blockQuant
	lambda   int64
	errShift int
	sc       *rdScratch
}

func (p Params) newRDState(coef []int32, sh residual.Shape, log2W, log2H int, q QuantContext) *rdState {
	bq := p.blockQuant(q, log2W, log2H)
	st := &rdState{
		sh:       sh,
		scan:     residual.ScanFor(sh.CodedW, sh.CodedH),
		bq:       bq,
		errShift: bq.qBits - distFrac,
		sc:       scratchPool.Get().(*rdScratch),
	}
	st.lambda = coefLambda(q.LambdaFix(), bq, 2*(p.DynRange()-p.BitDepth)-(log2W+log2H))

	stride := sh.Stride()
	for s, pos := range st.scan.Pos {
		c := coef[int(pos.Y)*stride+int(pos.X)]
		a := int64(c)
		if a < 0 {
			a = -a
		}
		st.sc.scaled[s] = a * int64(bq.scale)
		st.sc.neg[s] = c < 0
	}
	return st
}

func (st *rdState) release() {
	scratchPool.Put(st.sc)
	st.sc = nil
}

// coefLambda rescales the sample-domain multiplier (1/256 units) to the
// level domain: the transform scales energy by 2^energyShift and one level
// step spans 2^qBits/scale coefficient units.
func coefLambda(lambdaFix int64, bq blockQuant, energyShift int) int64 {
	s := float64(bq.scale)
	l := math.Ldexp(float64(lambdaFix)*s*s, energyShift+4-2*bq.qBits)
	v := int64(math.Round(l))
	return min(max(v, 1), maxLambdaL)
}

// dist returns the distortion of coding scan position s with level l.
func (st *rdState) dist(s int, l int32) int64 {
	e := st.sc.scaled[s] - int64(l)<<st.bq.qBits
	e = (e + int64(1)<<(st.errShift-1)) >> st.errShift
	e = min(max(e, -maxDistErr), maxDistErr)
	return e * e
}

func (st *rdState) rateCost(bits uint32) int64 { return int64(bits) * st.lambda }

// zeroCost is the cost of coding the block as all zero.
func (st *rdState) zeroCost(rates residual.Rates) int64 {
	var d int64
	for s := range st.scan.Pos {
		d += st.dist(s, 0)
	}
	return d + st.rateCost(residual.CbfRate(rates, false))
}

// exactCost prices levels with the full residual syntax.
func (st *rdState) exactCost(levels []int32, rates residual.Rates) (cost int64, bits uint64) {
	stride := st.sh.Stride()
	var d int64
	for s, pos := range st.scan.Pos {
		l := levels[int(pos.Y)*stride+int(pos.X)]
		if l < 0 {
			l = -l
		}
		d += st.dist(s, l)
	}
	bits = residual.EstimateBits(rates, levels, st.sh)
	return d + int64(bits)*st.lambda, bits
}

// rdoq decides the levels of the block. Each coefficient, in reverse scan
// order, picks the cheapest of {0, L-1, L, L+1} around its rounded level
// L; whole groups are then zeroed when cheaper, and finally the last
// position minimising the total cost is chosen.
func (st *rdState) rdoq(rates residual.Rates, levels []int32) {
	sc, scan := st.sc, st.scan
	w, h := scan.W, scan.H
	stride := st.sh.Stride()
	clear(levels[:st.sh.Size()])
	clear(sc.abs[:w*h])
	qBits := st.bq.qBits
	half := int64(1) << (qBits - 1)

	lastStart := -1
	for s := range scan.Pos {
		sc.decided[s] = 0
		if (sc.scaled[s]+half)>>qBits > 0 {
			lastStart = s
		}
	}
	if lastStart < 0 {
		return
	}

	cgSize := 1 << scan.Log2CGSize
	lastCG := lastStart >> scan.Log2CGSize
	clear(sc.coded[:scan.NumCG])

	for cg := lastCG; cg >= 0; cg-- {
		start := cg << scan.Log2CGSize
		hi := min(start+cgSize-1, lastStart)
		var sumCoded, sumZero int64
		nz := 0
		for s := hi; s >= start; s-- {
			pos := scan.Pos[s]
			x, y := int(pos.X), int(pos.Y)
			lc := residual.LevelContext(sc.abs[:w*h], w, h, x, y)

			d0 := st.dist(s, 0)
			best := d0 + st.rateCost(lc.SigRate(rates, false))
			var bestL int32
			rounded := min((sc.scaled[s]+half)>>qBits, residual.MaxLevel)
			if rounded > 0 {
				L := int32(rounded)
				sig := lc.SigRate(rates, true)
				for l := max(L-1, 1); l <= min(L+1, residual.MaxLevel); l++ {
					d := st.dist(s, l)
					r := lc.LevelRate(rates, l)
					if c := d + st.rateCost(sig+r); c < best {
						best, bestL = c, l
						sc.costLast[s] = d + st.rateCost(r)
					}
				}
			}
			sc.decided[s] = bestL
			sc.abs[y*w+x] = bestL
			sc.costCoded[s] = best
			sc.costZero[s] = d0
			sumCoded += best
			sumZero += d0
			if bestL > 0 {
				nz++
			}
		}

		switch {
		case cg == 0:
			sc.groupCost[cg] = sumCoded
			sc.coded[cg] = true
		case nz == 0:
			sc.groupCost[cg] = sumZero + st.rateCost(residual.CsbfRate(rates, scan, sc.coded[:], cg, false))
		default:
			codedCost := sumCoded + st.rateCost(residual.CsbfRate(rates, scan, sc.coded[:], cg, true))
			zeroCost := sumZero + st.rateCost(residual.CsbfRate(rates, scan, sc.coded[:], cg, false))
			if zeroCost < codedCost {
				for s := start; s <= hi; s++ {
					pos := scan.Pos[s]
					sc.decided[s] = 0
					sc.abs[int(pos.Y)*w+int(pos.X)] = 0
				}
				sc.groupCost[cg] = zeroCost
			} else {
				sc.groupCost[cg] = codedCost
				sc.coded[cg] = true
			}
		}
	}

	// Running coded cost of the lower positions of each group.
	for cg := 0; cg <= lastCG; cg++ {
		start := cg << scan.Log2CGSize
		var acc int64
		for s := start; s < start+cgSize && s <= lastStart; s++ {
			sc.before[s] = acc
			acc += sc.costCoded[s]
		}
	}

	cbf := st.rateCost(residual.CbfRate(rates, true))
	bestS := -1
	var bestTotal, above int64
	var lower [maxGroups + 1]int64
	for cg := 0; cg <= lastCG; cg++ {
		lower[cg+1] = lower[cg] + sc.groupCost[cg]
	}
	for s := lastStart; s >= 0; s-- {
		if sc.decided[s] > 0 {
			pos := scan.Pos[s]
			total := cbf + st.rateCost(residual.LastRate(rates, int(pos.X), int(pos.Y), w, h)) +
				sc.costLast[s] + sc.before[s] + lower[s>>scan.Log2CGSize] + above
			if bestS < 0 || total < bestTotal {
				bestS, bestTotal = s, total
			}
		}
		above += sc.costZero[s]
	}

	for s := 0; s <= bestS; s++ {
		l := sc.decided[s]
		if l == 0 {
			continue
		}
		if sc.neg[s] {
			l = -l
		}
		pos := scan.Pos[s]
		levels[int(pos.Y)*stride+int(pos.X)] = l
	}
}

// hideSigns adjusts levels so that every group that hides a sign has a
// level-sum parity matching that sign (even for positive). The cheapest
// single ±1 change, measured on the rounding error, is applied.
func (st *rdState) hideSigns(levels []int32) {
	scan := st.scan
	stride := st.sh.Stride()
	qBits := st.bq.qBits
	idx := func(s int) int {
		pos := scan.Pos[s]
		return int(pos.Y)*stride + int(pos.X)
	}
	blockLast := residual.LastScanPos(levels, st.sh)
	if blockLast < 0 {
		return
	}
	cgSize := 1 << scan.Log2CGSize
	for cg := 0; cg <= blockLast>>scan.Log2CGSize; cg++ {
		first, hidden := residual.HiddenSign(levels, st.sh, scan, cg)
		if !hidden {
			continue
		}
		start := cg << scan.Log2CGSize
		hi := start + cgSize - 1
		if cg == blockLast>>scan.Log2CGSize {
			hi = blockLast
		}
		var sum int32
		for s := start; s <= hi; s++ {
			sum += abs32(levels[idx(s)])
		}
		firstNeg := levels[idx(first)] < 0
		if (sum&1 == 1) == firstNeg {
			continue
		}

		bestCost := int64(math.MaxInt64)
		bestS, bestStep := -1, int32(0)
		for s := hi; s >= start; s-- {
			l := abs32(levels[idx(s)])
			delta := (st.sc.scaled[s] - int64(l)<<qBits) >> (qBits - deltaFrac)
			up := int64(1)<<(2*deltaFrac) - delta<<(deltaFrac+1)
			down := int64(1)<<(2*deltaFrac) + delta<<(deltaFrac+1)
			if l == 0 {
				if s < first && st.sc.neg[s] != firstNeg {
					continue
				}
				if up < bestCost {
					bestCost, bestS, bestStep = up, s, 1
				}
				continue
			}
			if l < dsp.MaxLevel && up < bestCost {
				bestCost, bestS, bestStep = up, s, 1
			}
			if !(s == first && l == 1) && down < bestCost {
				bestCost, bestS, bestStep = down, s, -1
			}
		}
		if bestS < 0 {
			continue
		}
		i := idx(bestS)
		l := abs32(levels[i]) + bestStep
		neg := levels[i] < 0
		if levels[i] == 0 {
			neg = st.sc.neg[bestS]
		}
		if neg {
			l = -l
		}
		levels[i] = l
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
