// Package residual implements the coefficient coding syntax: coded block
// flag, last significant position, coded sub-block flags, significance and
// greater-than flags with template contexts, Rice/Exp-Golomb remainders
// and bypass signs with optional sign hiding.
//
// Encode, Decode and EstimateBits walk the same syntax with the same
// context derivation, so a rate estimate agrees with the coder bin for bin.
package residual

import "errors"

// ErrCorrupt is returned by Decode on malformed residual data.
var ErrCorrupt = errors.New("residual: corrupt coefficient data")

// MaxLevel is the largest absolute level the syntax carries.
const MaxLevel = 32767

// SignHidingThreshold is the minimum scan distance between the first and
// the last non-zero level of a group for its first sign to be hidden.
const SignHidingThreshold = 4

// BinEncoder consumes context-coded and bypass bins.
type BinEncoder interface {
	EncodeBin(bin uint32, ctx int)
	EncodeBinEP(bin uint32)
	EncodeBinsEP(value uint32, n int)
}

// BinDecoder produces the bins written by a BinEncoder.
type BinDecoder interface {
	DecodeBin(ctx int) uint32
	DecodeBinEP() uint32
	DecodeBinsEP(n int) uint32
}

// Rates prices one context-coded bin in 1/256 bit without adapting.
type Rates interface {
	Cost(ctx int, bin uint32) uint32
}

// Shape describes the block whose levels are coded. Levels are stored
// row-major with a stride of 1<<Log2W; only the top-left CodedW×CodedH
// region may hold non-zero levels.
type Shape struct {
	Log2W, Log2H   int
	CodedW, CodedH int
	SignHiding     bool
}

// NewShape returns the shape of a w×h block (log2 sides) coding at most
// codedW×codedH levels.
func NewShape(log2W, log2H, codedW, codedH int, signHiding bool) Shape {
	return Shape{
		Log2W: log2W, Log2H: log2H,
		CodedW: min(codedW, 1<<log2W, 1<<MaxCodedLog2),
		CodedH: min(codedH, 1<<log2H, 1<<MaxCodedLog2),
		SignHiding: signHiding,
	}
}

// Stride returns the row stride of the level buffer.
func (s Shape) Stride() int { return 1 << s.Log2W }

// Size returns the number of levels of the block.
func (s Shape) Size() int { return 1 << (s.Log2W + s.Log2H) }

// LastScanPos returns the scan index of the last non-zero level inside the
// coded region, or -1 for an all-zero block.
func LastScanPos(levels []int32, sh Shape) int {
	scan := ScanFor(sh.CodedW, sh.CodedH)
	stride := sh.Stride()
	for s := len(scan.Pos) - 1; s >= 0; s-- {
		p := scan.Pos[s]
		if levels[int(p.Y)*stride+int(p.X)] != 0 {
			return s
		}
	}
	return -1
}

// HiddenSign reports whether coefficient group cg hides the sign of its
// first non-zero level, and returns that level's scan index (-1 when the
// group is empty).
func HiddenSign(levels []int32, sh Shape, scan *Scan, cg int) (first int, hidden bool) {
	if !sh.SignHiding {
		return -1, false
	}
	stride := sh.Stride()
	start := cg << scan.Log2CGSize
	end := start + 1<<scan.Log2CGSize
	first, last := -1, -1
	for s := start; s < end; s++ {
		p := scan.Pos[s]
		if levels[int(p.Y)*stride+int(p.X)] != 0 {
			if first < 0 {
				first = s
			}
			last = s
		}
	}
	return first, first >= 0 && last-first >= SignHidingThreshold
}

// Encode writes the residual syntax of levels.
func Encode(enc BinEncoder, levels []int32, sh Shape) {
	scan := ScanFor(sh.CodedW, sh.CodedH)
	stride := sh.Stride()
	last := LastScanPos(levels, sh)
	if last < 0 {
		enc.EncodeBin(0, ctxCbf)
		return
	}
	enc.EncodeBin(1, ctxCbf)
	lp := scan.Pos[last]
	encodeLast(enc, int(lp.X), int(lp.Y), scan.W, scan.H)

	var absBuf [1 << (2 * MaxCodedLog2)]int32
	abs := absBuf[:scan.W*scan.H]
	var coded [1 << (2 * MaxCodedLog2)]bool
	lastCG := last >> scan.Log2CGSize
	cgSize := 1 << scan.Log2CGSize

	for cg := lastCG; cg >= 0; cg-- {
		start := cg << scan.Log2CGSize
		hi := start + cgSize - 1
		if cg == lastCG {
			hi = last
		}
		inferLast := false
		if cg != lastCG && cg != 0 {
			nonZero := false
			for s := start; s <= hi; s++ {
				p := scan.Pos[s]
				if levels[int(p.Y)*stride+int(p.X)] != 0 {
					nonZero = true
					break
				}
			}
			enc.EncodeBin(b2u(nonZero), csbfCtx(coded[:], scan, cg))
			if !nonZero {
				continue
			}
			inferLast = true
		}
		coded[cg] = true

		numSig := 0
		for s := hi; s >= start; s-- {
			p := scan.Pos[s]
			x, y := int(p.X), int(p.Y)
			a := absLevel(levels[y*stride+x])
			sumAbs, numPos := template(abs, scan.W, scan.H, x, y)
			c := deriveCtx(sumAbs, numPos, x, y)
			switch {
			case s == last:
			case inferLast && s == start && numSig == 0:
			default:
				enc.EncodeBin(b2u(a != 0), c.sig)
			}
			if a != 0 {
				numSig++
				encodeTail(enc, a, c)
			}
			abs[y*scan.W+x] = a
		}

		first, hidden := HiddenSign(levels, sh, scan, cg)
		for s := hi; s >= start; s-- {
			p := scan.Pos[s]
			l := levels[int(p.Y)*stride+int(p.X)]
			if l == 0 || (hidden && s == first) {
				continue
			}
			enc.EncodeBinEP(b2u(l < 0))
		}
	}
}

func encodeTail(enc BinEncoder, a int32, c ctxSet) {
	enc.EncodeBin(b2u(a > 1), ctxGt1+c.gtx)
	if a < 2 {
		return
	}
	enc.EncodeBin(uint32(a-2)&1, ctxPar+c.gtx)
	enc.EncodeBin(b2u(a > 3), ctxGt3+c.gtx)
	if a > 3 {
		encodeRemainder(enc, uint32(a-4)>>1, c.rice)
	}
}

// Decode parses the residual syntax into levels, which must hold
// sh.Size() entries and is fully overwritten.
func Decode(dec BinDecoder, levels []int32, sh Shape) error {
	levels = levels[:sh.Size()]
	clear(levels)
	if dec.DecodeBin(ctxCbf) == 0 {
		return nil
	}
	scan := ScanFor(sh.CodedW, sh.CodedH)
	stride := sh.Stride()
	lx, ly, err := decodeLast(dec, scan.W, scan.H)
	if err != nil {
		return err
	}
	last := int(scan.Index[ly*scan.W+lx])

	var absBuf [1 << (2 * MaxCodedLog2)]int32
	abs := absBuf[:scan.W*scan.H]
	var coded [1 << (2 * MaxCodedLog2)]bool
	lastCG := last >> scan.Log2CGSize
	cgSize := 1 << scan.Log2CGSize

	for cg := lastCG; cg >= 0; cg-- {
		start := cg << scan.Log2CGSize
		hi := start + cgSize - 1
		if cg == lastCG {
			hi = last
		}
		inferLast := false
		if cg != lastCG && cg != 0 {
			if dec.DecodeBin(csbfCtx(coded[:], scan, cg)) == 0 {
				continue
			}
			inferLast = true
		}
		coded[cg] = true

		numSig := 0
		for s := hi; s >= start; s-- {
			p := scan.Pos[s]
			x, y := int(p.X), int(p.Y)
			sumAbs, numPos := template(abs, scan.W, scan.H, x, y)
			c := deriveCtx(sumAbs, numPos, x, y)
			sig := true
			switch {
			case s == last:
			case inferLast && s == start && numSig == 0:
			default:
				sig = dec.DecodeBin(c.sig) != 0
			}
			if !sig {
				continue
			}
			numSig++
			a, err := decodeTail(dec, c)
			if err != nil {
				return err
			}
			abs[y*scan.W+x] = a
			levels[y*stride+x] = a
		}

		first, hidden := HiddenSign(levels, sh, scan, cg)
		var sum int32
		for s := hi; s >= start; s-- {
			p := scan.Pos[s]
			i := int(p.Y)*stride + int(p.X)
			if levels[i] == 0 {
				continue
			}
			sum += levels[i]
			if hidden && s == first {
				continue
			}
			if dec.DecodeBinEP() != 0 {
				levels[i] = -levels[i]
			}
		}
		if hidden && sum&1 == 1 {
			p := scan.Pos[first]
			i := int(p.Y)*stride + int(p.X)
			levels[i] = -levels[i]
		}
	}
	return nil
}

func decodeTail(dec BinDecoder, c ctxSet) (int32, error) {
	if dec.DecodeBin(ctxGt1+c.gtx) == 0 {
		return 1, nil
	}
	a := 2 + int32(dec.DecodeBin(ctxPar+c.gtx))
	if dec.DecodeBin(ctxGt3+c.gtx) == 0 {
		return a, nil
	}
	rem, err := decodeRemainder(dec, c.rice)
	if err != nil {
		return 0, err
	}
	v := int64(a) + 2 + 2*int64(rem)
	if v > MaxLevel {
		return 0, ErrCorrupt
	}
	return int32(v), nil
}

// rateSink prices bins with frozen rates.
type rateSink struct {
	r    Rates
	bits uint64
}

func (rs *rateSink) EncodeBin(bin uint32, ctx int) { rs.bits += uint64(rs.r.Cost(ctx, bin)) }
func (rs *rateSink) EncodeBinEP(uint32)            { rs.bits += costBypass }
func (rs *rateSink) EncodeBinsEP(_ uint32, n int)  { rs.bits += uint64(n) * costBypass }

// costBypass is the price of one bypass bin in 1/256 bit.
const costBypass = 256

// EstimateBits returns the cost of coding levels in 1/256 bit with frozen
// context rates.
func EstimateBits(r Rates, levels []int32, sh Shape) uint64 {
	rs := rateSink{r: r}
	Encode(&rs, levels, sh)
	return rs.bits
}

func absLevel(l int32) int32 {
	if l < 0 {
		return -l
	}
	return l
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
