package bitio

// BinWriter is the binary arithmetic bin encoder. Context-coded bins take
// their probability from a ContextSet and adapt it; bypass bins are coded
// at probability 1/2.
//
// The underlying engine is a boolean range coder with an 8-bit split: the
// interval is narrowed per bin and a byte is emitted whenever the range
// drops below 128, with carries propagated through pending 0xff bytes.
type BinWriter struct {
	ctx *ContextSet

	rng    int32 // current range, renormalised into 127..254
	low    int32
	run    int // pending 0xff bytes awaiting a possible carry
	nbBits int // pending bits; a byte is flushed when positive
	buf    []byte
}

// NewBinWriter returns a writer coding with ctx and an output buffer
// pre-sized for expectedSize bytes.
func NewBinWriter(ctx *ContextSet, expectedSize int) *BinWriter {
	bw := &BinWriter{ctx: ctx}
	bw.Reset(expectedSize)
	return bw
}

// Reset restarts the coder, keeping the buffer when large enough. The
// context set is not reset.
func (bw *BinWriter) Reset(expectedSize int) {
	if expectedSize < 1024 {
		expectedSize = 1024
	}
	if cap(bw.buf) >= expectedSize {
		bw.buf = bw.buf[:0]
	} else {
		bw.buf = make([]byte, 0, expectedSize)
	}
	bw.rng = 255 - 1
	bw.low = 0
	bw.run = 0
	bw.nbBits = -8
}

// Contexts returns the context set the writer adapts.
func (bw *BinWriter) Contexts() *ContextSet { return bw.ctx }

// EncodeBin codes bin with context model ctx and adapts the model.
func (bw *BinWriter) EncodeBin(bin uint32, ctx int) {
	m := &bw.ctx.models[ctx]
	bw.put(bin, int32(m.prob8()))
	m.Update(bin)
}

// EncodeBinEP codes one bypass bin.
func (bw *BinWriter) EncodeBinEP(bin uint32) {
	bw.put(bin, 128)
}

// EncodeBinsEP codes the n low bits of value as bypass bins, MSB first.
func (bw *BinWriter) EncodeBinsEP(value uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		bw.put((value>>uint(i))&1, 128)
	}
}

func (bw *BinWriter) put(bin uint32, prob int32) {
	split := (bw.rng * prob) >> 8
	if bin != 0 {
		bw.low += split + 1
		bw.rng -= split + 1
	} else {
		bw.rng = split
	}
	if bw.rng < 127 {
		shift := normShift[bw.rng]
		bw.rng = int32(normRange[bw.rng])
		bw.low <<= uint(shift)
		bw.nbBits += int(shift)
		if bw.nbBits > 0 {
			bw.flush()
		}
	}
}

func (bw *BinWriter) flush() {
	s := 8 + bw.nbBits
	bits := bw.low >> uint(s)
	bw.low -= bits << uint(s)
	bw.nbBits -= 8
	if bits&0xff == 0xff {
		bw.run++
		return
	}
	if bits&0x100 != 0 && len(bw.buf) > 0 {
		bw.buf[len(bw.buf)-1]++
	}
	if bw.run > 0 {
		fill := byte(0xff)
		if bits&0x100 != 0 {
			fill = 0x00
		}
		for ; bw.run > 0; bw.run-- {
			bw.buf = append(bw.buf, fill)
		}
	}
	bw.buf = append(bw.buf, byte(bits&0xff))
}

// Finish terminates the arithmetic codeword and returns the coded bytes.
func (bw *BinWriter) Finish() []byte {
	bw.EncodeBinsEP(0, 9-bw.nbBits)
	bw.nbBits = 0
	bw.flush()
	return bw.buf
}

// BitsWritten returns the approximate number of bits produced so far.
func (bw *BinWriter) BitsWritten() uint64 {
	return uint64(len(bw.buf)+bw.run)*8 + uint64(8+bw.nbBits)
}

// normShift[r] is the left shift renormalising a range r < 127.
var normShift = [128]uint8{
	7, 6, 6, 5, 5, 5, 5, 4, 4, 4, 4, 4, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0,
}

// normRange[r] is ((r + 1) << normShift[r]) - 1.
var normRange = [128]uint8{
	127, 127, 191, 127, 159, 191, 223, 127, 143, 159, 175, 191, 207, 223, 239,
	127, 135, 143, 151, 159, 167, 175, 183, 191, 199, 207, 215, 223, 231, 239,
	247, 127, 131, 135, 139, 143, 147, 151, 155, 159, 163, 167, 171, 175, 179,
	183, 187, 191, 195, 199, 203, 207, 211, 215, 219, 223, 227, 231, 235, 239,
	243, 247, 251, 127, 129, 131, 133, 135, 137, 139, 141, 143, 145, 147, 149,
	151, 153, 155, 157, 159, 161, 163, 165, 167, 169, 171, 173, 175, 177, 179,
	181, 183, 185, 187, 189, 191, 193, 195, 197, 199, 201, 203, 205, 207, 209,
	211, 213, 215, 217, 219, 221, 223, 225, 227, 229, 231, 233, 235, 237, 239,
	241, 243, 245, 247, 249, 251, 253, 127,
}
