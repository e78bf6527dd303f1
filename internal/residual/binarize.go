package residual

// remainderCutoff is the prefix length after which the remainder switches
// from Rice to Exp-Golomb style escape codes.
const remainderCutoff = 5

// maxRemainderPrefix bounds the escape prefix a decoder accepts.
const maxRemainderPrefix = 32

// remainderBins returns the prefix and suffix of the remainder binarization
// of sym with Rice parameter r. The prefix is a run of ones closed by a
// zero, coded as the (prefixLen) low bits of prefix.
func remainderBins(sym uint32, r int) (prefix uint32, prefixLen int, suffix uint32, suffixLen int) {
	if sym < remainderCutoff<<uint(r) {
		n := int(sym >> uint(r))
		return 1<<uint(n+1) - 2, n + 1, sym & (1<<uint(r) - 1), r
	}
	length := r
	sym -= remainderCutoff << uint(r)
	for sym >= 1<<uint(length) {
		sym -= 1 << uint(length)
		length++
	}
	n := remainderCutoff + length - r
	return 1<<uint(n+1) - 2, n + 1, sym, length
}

func remainderLen(sym uint32, r int) int {
	_, pl, _, sl := remainderBins(sym, r)
	return pl + sl
}

func encodeRemainder(enc BinEncoder, sym uint32, r int) {
	prefix, pl, suffix, sl := remainderBins(sym, r)
	enc.EncodeBinsEP(prefix, pl)
	if sl > 0 {
		enc.EncodeBinsEP(suffix, sl)
	}
}

func decodeRemainder(dec BinDecoder, r int) (uint32, error) {
	n := 0
	for dec.DecodeBinEP() != 0 {
		n++
		if n > maxRemainderPrefix {
			return 0, ErrCorrupt
		}
	}
	if n < remainderCutoff {
		return uint32(n)<<uint(r) | dec.DecodeBinsEP(r), nil
	}
	m := n - remainderCutoff
	length := r + m
	if length > 31 {
		return 0, ErrCorrupt
	}
	base := uint32(remainderCutoff)<<uint(r) + (1<<uint(m)-1)<<uint(r)
	return base + dec.DecodeBinsEP(length), nil
}

// encodeLastPrefix codes the prefix group of coordinate v as truncated
// unary up to the largest group of a side of 1<<log2 coefficients.
func encodeLastPrefix(enc BinEncoder, v, log2, base int) {
	g := int(groupIdx[v])
	maxG := int(groupIdx[(1<<log2)-1])
	offset, shift := lastCtxOffset(log2)
	for i := 0; i < g; i++ {
		enc.EncodeBin(1, base+offset+(i>>uint(shift)))
	}
	if g < maxG {
		enc.EncodeBin(0, base+offset+(g>>uint(shift)))
	}
}

func decodeLastPrefix(dec BinDecoder, log2, base int) int {
	offset, shift := lastCtxOffset(log2)
	maxG := int(groupIdx[(1<<log2)-1])
	g := 0
	for g < maxG && dec.DecodeBin(base+offset+(g>>uint(shift))) != 0 {
		g++
	}
	return g
}

func suffixLen(g int) int {
	if g <= 3 {
		return 0
	}
	return (g >> 1) - 1
}

// encodeLast codes the last significant position (x, y) of a w×h region:
// both prefixes first, then both bypass suffixes.
func encodeLast(enc BinEncoder, x, y, w, h int) {
	lw, lh := log2Of(w), log2Of(h)
	encodeLastPrefix(enc, x, lw, ctxLastX)
	encodeLastPrefix(enc, y, lh, ctxLastY)
	if gx := int(groupIdx[x]); gx > 3 {
		enc.EncodeBinsEP(uint32(x-minInGroup[gx]), suffixLen(gx))
	}
	if gy := int(groupIdx[y]); gy > 3 {
		enc.EncodeBinsEP(uint32(y-minInGroup[gy]), suffixLen(gy))
	}
}

func decodeLast(dec BinDecoder, w, h int) (x, y int, err error) {
	lw, lh := log2Of(w), log2Of(h)
	gx := decodeLastPrefix(dec, lw, ctxLastX)
	gy := decodeLastPrefix(dec, lh, ctxLastY)
	x, y = minInGroup[gx], minInGroup[gy]
	if gx > 3 {
		x += int(dec.DecodeBinsEP(suffixLen(gx)))
	}
	if gy > 3 {
		y += int(dec.DecodeBinsEP(suffixLen(gy)))
	}
	if x >= w || y >= h {
		return 0, 0, ErrCorrupt
	}
	return x, y, nil
}
