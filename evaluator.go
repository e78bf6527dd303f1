package vvc

import (
	"math"

	"github.com/deepteams/vvc/internal/bitio"
	"github.com/deepteams/vvc/internal/modectrl"
	"github.com/deepteams/vvc/internal/pool"
	"github.com/deepteams/vvc/internal/tq"
)

// maxCTUSize is the largest CTU the tree configuration accepts.
const maxCTUSize = 128

// ctuShared is the read-only state of every evaluator working on one CTU.
type ctuShared struct {
	cp          *codingParams
	pred        Predictor
	src         *Picture
	ref         *Picture
	rates       *bitio.ContextSet // frozen at the start of the CTU
	intraQ      tq.QuantContext
	interQ      tq.QuantContext
	lambda      int64
	mvLambda    int64 // sqrt(lambda), weights motion vector bits against SATD
	searchRange int
}

func newCTUShared(cfg *Config, cp *codingParams, pred Predictor, src, ref *Picture, rates *bitio.ContextSet) *ctuShared {
	s := &ctuShared{
		cp:          cp,
		pred:        pred,
		src:         src,
		ref:         ref,
		rates:       rates,
		intraQ:      cfg.quant(true),
		interQ:      cfg.quant(false),
		searchRange: cfg.SearchRange,
	}
	s.lambda = s.intraQ.LambdaFix()
	s.mvLambda = int64(math.Round(math.Sqrt(float64(s.lambda) * 256)))
	return s
}

// ctuEval codes the areas of one CTU for the coding-tree search. It
// implements modectrl.Evaluator; its reconstruction window covers the CTU
// plus the row above and the column to its left.
type ctuEval struct {
	sh  *ctuShared
	rec *canvas
}

func newCTUEval(sh *ctuShared, rec *Picture, ctu Area) *ctuEval {
	n := ctu.W + 1
	c := &canvas{x0: ctu.X - 1, y0: ctu.Y - 1, stride: n, pix: make([]int32, n*(ctu.H+1))}
	if ctu.Y > 0 {
		w := min(ctu.X+ctu.W, rec.Width) - max(ctu.X-1, 0)
		o := (ctu.Y-1)*rec.Width + max(ctu.X-1, 0)
		copy(c.pix[max(ctu.X-1, 0)-c.x0:], rec.Pix[o:o+w])
	}
	if ctu.X > 0 {
		for y := ctu.Y; y < min(ctu.Y+ctu.H, rec.Height); y++ {
			c.pix[(y-c.y0)*n] = rec.Pix[y*rec.Width+ctu.X-1]
		}
	}
	return &ctuEval{sh: sh, rec: c}
}

func (e *ctuEval) Lambda() int64 { return e.sh.lambda }

func (e *ctuEval) Fork() modectrl.Evaluator {
	return &ctuEval{sh: e.sh, rec: e.rec.clone()}
}

func (e *ctuEval) Commit(cs *modectrl.CodingStructure) {
	for _, cu := range cs.CUs {
		e.rec.set(cu.Area, cu.Recon)
	}
}

func (e *ctuEval) SplitBits(n modectrl.Node, s modectrl.SplitKind) uint64 {
	tree := e.sh.cp.tree
	rs := rateSink{r: e.sh.rates}
	encodeSplit(&rs, n, s, tree.AllowedSplits(n.Area, n.QTDepth, n.MTDepth), len(tree.TerminalKinds(n.Area)) > 0)
	return rs.bits
}

// trial is one coded candidate of a coding unit.
type trial struct {
	cu      *modectrl.CodingUnit
	dist    uint64
	bits    uint64
	hadCost uint64
	cost    uint64
}

func (e *ctuEval) Evaluate(n modectrl.Node, m modectrl.TestMode, info modectrl.BlockInfoSource) *modectrl.CodingStructure {
	a := n.Area
	tree := e.sh.cp.tree
	rs := rateSink{r: e.sh.rates}
	encodeSplit(&rs, n, modectrl.NoSplit, tree.AllowedSplits(a, n.QTDepth, n.MTDepth), true)
	splitBits := rs.bits

	org := make([]int32, a.Size())
	e.sh.src.block(a, org)

	var t *trial
	switch m.Kind() {
	case modectrl.KindMergeSkip:
		t = e.mergeSkip(a, m, org)
	case modectrl.KindInterME:
		t = e.interME(a, m, org, info)
	case modectrl.KindIntra:
		t = e.intra(a, m, org, false)
		if e.sh.cp.kltAllowed(a) {
			if k := e.intra(a, m, org, true); k != nil && (t == nil || k.cost < t.cost) {
				t = k
			}
		}
	case modectrl.KindPCM:
		t = e.pcm(a, m, org)
	}
	if t == nil {
		return nil
	}

	bits := splitBits + t.bits
	cs := &modectrl.CodingStructure{
		Area:     a,
		Mode:     m,
		CUs:      []*modectrl.CodingUnit{t.cu},
		Dist:     t.dist,
		FracBits: bits,
		Cost:     tq.Cost(t.dist, bits, e.sh.lambda),
		HadCost:  t.hadCost,
	}
	// A skip whose prediction error stays below one per sample is taken
	// as is.
	cs.EarlySkip = m.Kind() == modectrl.KindMergeSkip && t.dist <= uint64(a.Size())
	return cs
}

// finish prices a candidate whose reconstruction is complete.
func (e *ctuEval) finish(t *trial, org []int32) *trial {
	t.dist = tq.SSE(org, t.cu.Recon)
	rs := rateSink{r: e.sh.rates}
	e.sh.cp.writeCU(&rs, e.sh.cp.tree.TerminalKinds(t.cu.Area), t.cu)
	t.bits = rs.bits
	t.cost = tq.Cost(t.dist, t.bits, e.sh.lambda)
	return t
}

func (e *ctuEval) mergeSkip(a Area, m modectrl.TestMode, org []int32) *trial {
	if e.sh.ref == nil {
		return nil
	}
	cu := &modectrl.CodingUnit{Area: a, Mode: m, Recon: make([]int32, a.Size())}
	e.sh.pred.Inter(cu.Recon, a, MotionVector{}, e.sh.ref)
	t := e.finish(&trial{cu: cu}, org)
	t.hadCost = satd(org, cu.Recon, a.W, a.H)
	return t
}

func (e *ctuEval) interME(a Area, m modectrl.TestMode, org []int32, info modectrl.BlockInfoSource) *trial {
	if e.sh.ref == nil {
		return nil
	}
	var start MotionVector
	if bi, ok := info.BlockInfo(a); ok && bi.MVValid {
		start = bi.MV
	}
	pred := make([]int32, a.Size())
	mv, had := e.motionSearch(a, org, start, pred)
	e.sh.pred.Inter(pred, a, mv, e.sh.ref)

	cu := &modectrl.CodingUnit{Area: a, Mode: m, MV: mv, Recon: make([]int32, a.Size())}
	e.codeResidual(cu, org, pred, e.sh.interQ, false)
	t := e.finish(&trial{cu: cu}, org)
	t.hadCost = had
	return t
}

// motionSearch tests every full-sample vector within the search range of
// start and returns the one with the lowest SATD plus weighted vector
// rate. pred is used as scratch.
func (e *ctuEval) motionSearch(a Area, org []int32, start MotionVector, pred []int32) (MotionVector, uint64) {
	r := e.sh.searchRange
	best, bestHad, bestCost := start, uint64(0), uint64(math.MaxUint64)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			x, y := int(start.X)+dx, int(start.Y)+dy
			if x < math.MinInt16 || x > math.MaxInt16 || y < math.MinInt16 || y > math.MaxInt16 {
				continue
			}
			mv := MotionVector{X: int16(x), Y: int16(y)}
			e.sh.pred.Inter(pred, a, mv, e.sh.ref)
			had := satd(org, pred, a.W, a.H)
			rs := rateSink{r: e.sh.rates}
			encodeMVD(&rs, mv)
			if c := tq.Cost(had, rs.bits, e.sh.mvLambda); c < bestCost {
				best, bestHad, bestCost = mv, had, c
			}
		}
	}
	return best, bestHad
}

func (e *ctuEval) intra(a Area, m modectrl.TestMode, org []int32, useKLT bool) *trial {
	var above, left [maxCTUSize]int32
	pred := make([]int32, a.Size())
	e.sh.pred.Intra(pred, a, e.rec.neighbours(a, above[:], left[:]), e.sh.cp.params.BitDepth)

	cu := &modectrl.CodingUnit{Area: a, Mode: m, Recon: make([]int32, a.Size())}
	e.codeResidual(cu, org, pred, e.sh.intraQ, useKLT)
	return e.finish(&trial{cu: cu}, org)
}

func (e *ctuEval) pcm(a Area, m modectrl.TestMode, org []int32) *trial {
	cu := &modectrl.CodingUnit{Area: a, Mode: m, Recon: org, PCM: org}
	return e.finish(&trial{cu: cu}, org)
}

// codeResidual transforms and quantizes the prediction error of cu one
// transform unit at a time and reconstructs it.
func (e *ctuEval) codeResidual(cu *modectrl.CodingUnit, org, pred []int32, q tq.QuantContext, useKLT bool) {
	cp := e.sh.cp
	a := cu.Area
	tw, th := cp.tuSize(a)
	lw, lh := Area{W: tw, H: th}.Log2()
	resi := pool.Get(tw * th)
	defer pool.Put(resi)

	for ty := 0; ty < a.H; ty += th {
		for tx := 0; tx < a.W; tx += tw {
			tu := modectrl.TransformUnit{
				Area:   Area{X: a.X + tx, Y: a.Y + ty, W: tw, H: th},
				Set:    cp.params.Select(lw, lh, q.Intra, useKLT),
				Levels: make([]int32, tw*th),
			}
			for y := 0; y < th; y++ {
				o := (ty+y)*a.W + tx
				for x := 0; x < tw; x++ {
					resi[y*tw+x] = org[o+x] - pred[o+x]
				}
			}
			r := cp.params.TransformQuantize(resi, tu.Levels, lw, lh, tu.Set, q, e.sh.rates)
			tu.NumNonZero = r.NumNonZero
			cp.reconstruct(&tu, a, pred, cu.Recon)
			cu.TUs = append(cu.TUs, tu)
		}
	}
}

// satd returns the 4×4 Hadamard transformed difference of two w×h blocks.
func satd(a, b []int32, w, h int) uint64 {
	var sum uint64
	var d [16]int32
	for by := 0; by < h; by += 4 {
		for bx := 0; bx < w; bx += 4 {
			for y := 0; y < 4; y++ {
				o := (by+y)*w + bx
				for x := 0; x < 4; x++ {
					d[y*4+x] = a[o+x] - b[o+x]
				}
			}
			sum += hadamard4x4(&d)
		}
	}
	return sum
}

func hadamard4x4(d *[16]int32) uint64 {
	var m [16]int32
	for i := 0; i < 4; i++ {
		r := d[i*4 : i*4+4]
		s0, s1 := r[0]+r[1], r[0]-r[1]
		s2, s3 := r[2]+r[3], r[2]-r[3]
		m[i*4], m[i*4+1], m[i*4+2], m[i*4+3] = s0+s2, s1+s3, s0-s2, s1-s3
	}
	var sum uint64
	for j := 0; j < 4; j++ {
		s0, s1 := m[j]+m[4+j], m[j]-m[4+j]
		s2, s3 := m[8+j]+m[12+j], m[8+j]-m[12+j]
		for _, v := range [4]int32{s0 + s2, s1 + s3, s0 - s2, s1 - s3} {
			if v < 0 {
				v = -v
			}
			sum += uint64(v)
		}
	}
	return (sum + 1) >> 1
}
