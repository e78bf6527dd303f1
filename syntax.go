package vvc

import (
	"github.com/deepteams/vvc/internal/bitio"
	"github.com/deepteams/vvc/internal/dsp"
	"github.com/deepteams/vvc/internal/modectrl"
	"github.com/deepteams/vvc/internal/pool"
	"github.com/deepteams/vvc/internal/residual"
	"github.com/deepteams/vvc/internal/tq"
)

// Context models of the coding-tree syntax follow the residual ones. The
// split flag has one model per tree depth up to 2; split kinds, terminal
// modes and motion vector components are coded with truncated unary
// indices over their own models.
const (
	ctxSplitFlag = residual.NumContexts
	ctxSplitKind = ctxSplitFlag + 3
	ctxMode      = ctxSplitKind + int(modectrl.NumSplitKinds) - 2
	ctxKLT       = ctxMode + 3
	ctxMVZero    = ctxKLT + 1
	numContexts  = ctxMVZero + 2
)

// maxEGPrefix bounds the Exp-Golomb prefix of a motion vector component.
const maxEGPrefix = 16

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func encodeIndex(enc residual.BinEncoder, idx, n, ctx int) {
	for i := 0; i < n-1; i++ {
		bin := b2u(idx > i)
		enc.EncodeBin(bin, ctx+i)
		if bin == 0 {
			return
		}
	}
}

func decodeIndex(dec residual.BinDecoder, n, ctx int) int {
	i := 0
	for i < n-1 && dec.DecodeBin(ctx+i) != 0 {
		i++
	}
	return i
}

func splitIndex(allowed []modectrl.SplitKind, s modectrl.SplitKind) int {
	for i, a := range allowed {
		if a == s {
			return i
		}
	}
	panic("vvc: split " + s.String() + " not allowed")
}

func treeDepth(n modectrl.Node) int { return min(n.QTDepth+n.MTDepth, 2) }

// encodeSplit writes the partition s of a node offering allowed splits.
// canStop reports whether the node may stay unsplit.
func encodeSplit(enc residual.BinEncoder, n modectrl.Node, s modectrl.SplitKind, allowed []modectrl.SplitKind, canStop bool) {
	if len(allowed) == 0 {
		return
	}
	if canStop {
		enc.EncodeBin(b2u(s != modectrl.NoSplit), ctxSplitFlag+treeDepth(n))
		if s == modectrl.NoSplit {
			return
		}
	}
	encodeIndex(enc, splitIndex(allowed, s), len(allowed), ctxSplitKind)
}

func decodeSplit(dec residual.BinDecoder, n modectrl.Node, allowed []modectrl.SplitKind, canStop bool) (modectrl.SplitKind, error) {
	switch {
	case len(allowed) == 0 && !canStop:
		return 0, ErrCorrupt
	case len(allowed) == 0:
		return modectrl.NoSplit, nil
	}
	if canStop && dec.DecodeBin(ctxSplitFlag+treeDepth(n)) == 0 {
		return modectrl.NoSplit, nil
	}
	return allowed[decodeIndex(dec, len(allowed), ctxSplitKind)], nil
}

func encodeMode(enc residual.BinEncoder, k modectrl.Kind, terms []modectrl.Kind) {
	for i, t := range terms {
		if t == k {
			encodeIndex(enc, i, len(terms), ctxMode)
			return
		}
	}
	panic("vvc: mode " + k.String() + " not available")
}

func encodeMVD(enc residual.BinEncoder, mv modectrl.MotionVector) {
	for i, v := range [2]int16{mv.X, mv.Y} {
		enc.EncodeBin(b2u(v != 0), ctxMVZero+i)
		if v == 0 {
			continue
		}
		a := int32(v)
		enc.EncodeBinEP(b2u(a < 0))
		if a < 0 {
			a = -a
		}
		encodeEG0(enc, uint32(a-1))
	}
}

func decodeMVD(dec residual.BinDecoder) (modectrl.MotionVector, error) {
	var c [2]int16
	for i := range c {
		if dec.DecodeBin(ctxMVZero+i) == 0 {
			continue
		}
		neg := dec.DecodeBinEP() != 0
		m, err := decodeEG0(dec)
		if err != nil {
			return modectrl.MotionVector{}, err
		}
		if m >= 1<<15-1 {
			return modectrl.MotionVector{}, ErrCorrupt
		}
		v := int16(m + 1)
		if neg {
			v = -v
		}
		c[i] = v
	}
	return modectrl.MotionVector{X: c[0], Y: c[1]}, nil
}

// encodeEG0 writes v as a zeroth order Exp-Golomb code in bypass bins.
func encodeEG0(enc residual.BinEncoder, v uint32) {
	v++
	n := 0
	for v>>uint(n+1) != 0 {
		n++
	}
	enc.EncodeBinsEP(0, n)
	enc.EncodeBinsEP(v, n+1)
}

func decodeEG0(dec residual.BinDecoder) (uint32, error) {
	n := 0
	for dec.DecodeBinEP() == 0 {
		n++
		if n > maxEGPrefix {
			return 0, ErrCorrupt
		}
	}
	v := uint32(1)<<uint(n) | dec.DecodeBinsEP(n)
	return v - 1, nil
}

// rateSink prices bins with frozen context rates.
type rateSink struct {
	r    residual.Rates
	bits uint64
}

func (rs *rateSink) EncodeBin(bin uint32, ctx int) { rs.bits += uint64(rs.r.Cost(ctx, bin)) }
func (rs *rateSink) EncodeBinEP(uint32)            { rs.bits += bitio.CostOneBit }
func (rs *rateSink) EncodeBinsEP(_ uint32, n int)  { rs.bits += uint64(n) * bitio.CostOneBit }

// codingParams is the part of the configuration encoder and decoder
// share: it fixes the tree, the transform units and the residual shapes.
type codingParams struct {
	tree       *modectrl.Config
	params     tq.Params
	qp         int
	signHiding bool
}

// tuSize returns the transform unit size of a coding unit.
func (cp *codingParams) tuSize(a Area) (w, h int) {
	m := 1 << cp.params.MaxTransformLog2
	return min(a.W, m), min(a.H, m)
}

// kltAllowed reports whether an intra unit over a signals the KLT flag.
func (cp *codingParams) kltAllowed(a Area) bool {
	w, h := cp.tuSize(a)
	return cp.params.EnableKLT && w == h && w >= 4 && w <= 16
}

func (cp *codingParams) quant(intra bool) tq.QuantContext {
	return tq.QuantContext{QP: cp.qp, Intra: intra, SignHiding: cp.signHiding}
}

func (cp *codingParams) shape(tu *modectrl.TransformUnit) residual.Shape {
	lw, lh := tu.Area.Log2()
	return cp.params.Shape(lw, lh, tu.Set, cp.quant(false))
}

// writeTree writes the coding tree of cs rooted at n.
func (cp *codingParams) writeTree(enc residual.BinEncoder, n modectrl.Node, cs *modectrl.CodingStructure) {
	a := n.Area
	s := cs.Mode.Kind().Split()
	terms := cp.tree.TerminalKinds(a)
	encodeSplit(enc, n, s, cp.tree.AllowedSplits(a, n.QTDepth, n.MTDepth), len(terms) > 0)
	if s == modectrl.NoSplit {
		cp.writeCU(enc, terms, cs.CUs[0])
		return
	}
	qt, mt := modectrl.ChildDepths(s, n.QTDepth, n.MTDepth)
	j := 0
	for _, c := range modectrl.Partition(a, s) {
		if !cp.tree.Visible(c) {
			continue
		}
		cp.writeTree(enc, modectrl.Node{Area: c, QTDepth: qt, MTDepth: mt, QP: n.QP}, cs.Parts[j])
		j++
	}
}

// writeCU writes the mode and the payload of one coding unit.
func (cp *codingParams) writeCU(enc residual.BinEncoder, terms []modectrl.Kind, cu *modectrl.CodingUnit) {
	k := cu.Mode.Kind()
	encodeMode(enc, k, terms)
	switch k {
	case modectrl.KindMergeSkip:
		return
	case modectrl.KindPCM:
		for _, v := range cu.PCM {
			enc.EncodeBinsEP(uint32(v), cp.params.BitDepth)
		}
		return
	case modectrl.KindInterME:
		encodeMVD(enc, cu.MV)
	case modectrl.KindIntra:
		if cp.kltAllowed(cu.Area) {
			enc.EncodeBin(b2u(cu.TUs[0].Set.Hor == dsp.KLT), ctxKLT)
		}
	}
	for i := range cu.TUs {
		tu := &cu.TUs[i]
		residual.Encode(enc, tu.Levels, cp.shape(tu))
	}
}

// reconstruct adds the decoded residual of tu to the prediction of its
// coding unit. pred and recon are laid out over the unit area cu.
func (cp *codingParams) reconstruct(tu *modectrl.TransformUnit, cu Area, pred, recon []int32) {
	w, h := tu.Area.W, tu.Area.H
	resi := pool.Get(w * h)
	defer pool.Put(resi)
	if tu.NumNonZero == 0 {
		clear(resi)
	} else {
		lw, lh := tu.Area.Log2()
		cp.params.InvQuantTransform(tu.Levels, resi, lw, lh, tu.Set, cp.quant(false))
	}
	off := (tu.Area.Y-cu.Y)*cu.W + tu.Area.X - cu.X
	for y := 0; y < h; y++ {
		o := off + y*cu.W
		cp.params.Reconstruct(pred[o:o+w], resi[y*w:(y+1)*w], recon[o:o+w])
	}
}
