package bitio

import (
	"encoding/binary"
	"math/bits"
)

// readerBits is the number of look-ahead bits loaded at once.
const readerBits = 56

// BinReader decodes bins written by BinWriter, adapting an identical
// ContextSet in lock step.
type BinReader struct {
	ctx *ContextSet

	value uint64 // look-ahead register
	rng   uint32 // range minus 1, kept in [127, 254]
	bits  int    // valid bits remaining in value
	buf   []byte
	pos   int
	eof   bool
	over  int // zero bytes synthesised past the end of buf
}

// NewBinReader returns a reader over data decoding with ctx.
func NewBinReader(ctx *ContextSet, data []byte) *BinReader {
	br := &BinReader{
		ctx:  ctx,
		rng:  255 - 1,
		bits: -8,
		buf:  data,
	}
	br.load()
	return br
}

// Contexts returns the context set the reader adapts.
func (br *BinReader) Contexts() *ContextSet { return br.ctx }

func (br *BinReader) load() {
	if br.pos+8 <= len(br.buf) {
		in := binary.BigEndian.Uint64(br.buf[br.pos:])
		in >>= 64 - readerBits
		br.value = in | (br.value << readerBits)
		br.pos += readerBits >> 3
		br.bits += readerBits
		return
	}
	if br.pos < len(br.buf) {
		br.bits += 8
		br.value = uint64(br.buf[br.pos]) | (br.value << 8)
		br.pos++
		return
	}
	br.value <<= 8
	br.bits += 8
	br.eof = true
	br.over++
}

func (br *BinReader) get(prob uint32) uint32 {
	rng := br.rng
	if br.bits < 0 {
		br.load()
	}
	pos := br.bits
	split := (rng * prob) >> 8
	v := uint32(br.value >> uint(pos))

	var bin uint32
	if v > split {
		bin = 1
		rng -= split
		br.value -= uint64(split+1) << uint(pos)
	} else {
		rng = split + 1
	}
	shift := 7 ^ (bits.Len32(rng) - 1)
	rng <<= uint(shift)
	br.bits -= shift
	br.rng = rng - 1
	return bin
}

// DecodeBin decodes one bin with context model ctx and adapts the model.
func (br *BinReader) DecodeBin(ctx int) uint32 {
	m := &br.ctx.models[ctx]
	bin := br.get(uint32(m.prob8()))
	m.Update(bin)
	return bin
}

// DecodeBinEP decodes one bypass bin.
func (br *BinReader) DecodeBinEP() uint32 { return br.get(128) }

// DecodeBinsEP decodes n bypass bins, MSB first.
func (br *BinReader) DecodeBinsEP(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<1 | br.get(128)
	}
	return v
}

// Overrun reports whether decoding consumed noticeably more input than
// the buffer holds, which only happens on truncated or corrupt data.
func (br *BinReader) Overrun() bool {
	return br.over > 2
}

// EOF reports whether the end of the input has been reached.
func (br *BinReader) EOF() bool { return br.eof }
