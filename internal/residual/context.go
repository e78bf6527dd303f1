package residual

// Context model layout of residual coding. Indices are absolute positions
// in the caller's context set; callers coding additional syntax place
// their models from NumContexts upwards.
const (
	ctxCbf   = 0
	ctxLastX = ctxCbf + 1
	ctxLastY = ctxLastX + numLastCtx
	ctxCsbf  = ctxLastY + numLastCtx
	ctxSig   = ctxCsbf + 2
	ctxGt1   = ctxSig + 12
	ctxPar   = ctxGt1 + numGtxCtx
	ctxGt3   = ctxPar + numGtxCtx

	// NumContexts is the number of context models residual coding uses.
	NumContexts = ctxGt3 + numGtxCtx

	numLastCtx = 20
	numGtxCtx  = 20
)

// riceTable maps the template sum to the Rice parameter of the remainder.
var riceTable = [32]int{
	0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3,
}

// template sums the absolute levels and counts the non-zero levels among
// the already coded neighbours (x+1,y), (x+2,y), (x,y+1), (x,y+2) and
// (x+1,y+1) of a w×h region.
func template(abs []int32, w, h, x, y int) (sumAbs, numPos int) {
	add := func(nx, ny int) {
		if nx < w && ny < h {
			if a := abs[ny*w+nx]; a != 0 {
				sumAbs += int(a)
				numPos++
			}
		}
	}
	add(x+1, y)
	add(x+2, y)
	add(x, y+1)
	add(x, y+2)
	add(x+1, y+1)
	return sumAbs, numPos
}

// Template is the exported form of the neighbourhood sum used by rate
// estimation outside the package.
func Template(abs []int32, w, h, x, y int) (sumAbs, numPos int) {
	return template(abs, w, h, x, y)
}

// ctxSet holds the context indices of one coefficient.
type ctxSet struct {
	sig  int
	gtx  int
	rice int
}

func deriveCtx(sumAbs, numPos, x, y int) ctxSet {
	d := x + y
	sig := min((sumAbs+1)>>1, 3)
	switch {
	case d < 2:
		sig += 8
	case d < 5:
		sig += 4
	}

	gtx := min(sumAbs-numPos, 4)
	switch {
	case d == 0:
		gtx += 15
	case d < 3:
		gtx += 10
	case d < 10:
		gtx += 5
	}
	return ctxSet{sig: ctxSig + sig, gtx: gtx, rice: riceTable[min(sumAbs, 31)]}
}

// lastCtxOffset returns the first context and the shift of the last
// position prefix for a coded side of 1<<log2 coefficients.
func lastCtxOffset(log2 int) (offset, shift int) {
	if log2 < 2 {
		return 0, 0
	}
	return 3*(log2-2) + ((log2 - 1) >> 2), (log2 + 1) >> 2
}

// csbfCtx derives the coded sub-block flag context from the right and
// below neighbour groups.
func csbfCtx(coded []bool, scan *Scan, cg int) int {
	gw, gh := scan.W/scan.CGW, scan.H/scan.CGH
	p := scan.CG[cg]
	x, y := int(p.X), int(p.Y)
	right := x+1 < gw && coded[cgIndex(scan, x+1, y)]
	below := y+1 < gh && coded[cgIndex(scan, x, y+1)]
	if right || below {
		return ctxCsbf + 1
	}
	return ctxCsbf
}

// cgIndex returns the group scan index of group coordinates (x, y).
func cgIndex(scan *Scan, x, y int) int {
	return int(scan.Index[y*scan.CGH*scan.W+x*scan.CGW]) >> scan.Log2CGSize
}
