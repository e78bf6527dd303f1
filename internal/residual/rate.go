package residual

// Rate helpers price individual syntax elements for rate-distortion
// optimised quantization. They use the same binarization and context
// derivation as Encode. All costs are in 1/256 bit.

// LevelCtx holds the contexts of one coefficient derived from its
// already-decided neighbourhood.
type LevelCtx struct {
	c ctxSet
}

// LevelContext derives the contexts of position (x, y) from abs, the
// decided absolute levels of a w×h coded region.
func LevelContext(abs []int32, w, h, x, y int) LevelCtx {
	sumAbs, numPos := template(abs, w, h, x, y)
	return LevelCtx{c: deriveCtx(sumAbs, numPos, x, y)}
}

// SigRate returns the cost of the significance flag alone.
func (lc LevelCtx) SigRate(r Rates, sig bool) uint32 {
	return r.Cost(lc.c.sig, b2u(sig))
}

// LevelRate returns the cost of a non-zero absolute level a excluding the
// significance flag but including its sign.
func (lc LevelCtx) LevelRate(r Rates, a int32) uint32 {
	c := lc.c
	cost := r.Cost(ctxGt1+c.gtx, b2u(a > 1)) + costBypass
	if a < 2 {
		return cost
	}
	cost += r.Cost(ctxPar+c.gtx, uint32(a-2)&1)
	cost += r.Cost(ctxGt3+c.gtx, b2u(a > 3))
	if a > 3 {
		cost += uint32(remainderLen(uint32(a-4)>>1, c.rice)) * costBypass
	}
	return cost
}

// LastRate returns the cost of signalling (x, y) as the last position of a
// w×h coded region.
func LastRate(r Rates, x, y, w, h int) uint32 {
	return lastPrefixRate(r, x, log2Of(w), ctxLastX) + lastPrefixRate(r, y, log2Of(h), ctxLastY)
}

func lastPrefixRate(r Rates, v, log2, base int) uint32 {
	g := int(groupIdx[v])
	maxG := int(groupIdx[(1<<log2)-1])
	offset, shift := lastCtxOffset(log2)
	var cost uint32
	for i := 0; i < g; i++ {
		cost += r.Cost(base+offset+(i>>uint(shift)), 1)
	}
	if g < maxG {
		cost += r.Cost(base+offset+(g>>uint(shift)), 0)
	}
	return cost + uint32(suffixLen(g))*costBypass
}

// CbfRate returns the cost of the coded block flag.
func CbfRate(r Rates, cbf bool) uint32 {
	return r.Cost(ctxCbf, b2u(cbf))
}

// CsbfRate returns the cost of the coded sub-block flag of group cg given
// the flags already decided for later groups.
func CsbfRate(r Rates, scan *Scan, coded []bool, cg int, flag bool) uint32 {
	return r.Cost(csbfCtx(coded, scan, cg), b2u(flag))
}
