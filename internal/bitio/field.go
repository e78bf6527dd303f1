package bitio

import "encoding/binary"

// FieldWriter packs raw bit fields LSB first into little-endian bytes.
// It carries the fixed-length stream header that precedes the arithmetic
// coded payload.
type FieldWriter struct {
	acc  uint64
	used int
	buf  []byte
}

// NewFieldWriter returns a writer with room for expectedSize bytes.
func NewFieldWriter(expectedSize int) *FieldWriter {
	return &FieldWriter{buf: make([]byte, 0, expectedSize)}
}

// WriteBits appends the n (0..32) low bits of v.
func (fw *FieldWriter) WriteBits(v uint32, n int) {
	if n == 0 {
		return
	}
	if fw.used >= 32 {
		fw.buf = binary.LittleEndian.AppendUint32(fw.buf, uint32(fw.acc))
		fw.acc >>= 32
		fw.used -= 32
	}
	fw.acc |= uint64(v&uint32(1<<uint(n)-1)) << uint(fw.used)
	fw.used += n
}

// Finish flushes the pending bits, padding the last byte with zeros.
func (fw *FieldWriter) Finish() []byte {
	for fw.used > 0 {
		fw.buf = append(fw.buf, byte(fw.acc))
		fw.acc >>= 8
		fw.used -= 8
	}
	fw.used = 0
	return fw.buf
}

// NumBytes returns the encoded size including a partial final byte.
func (fw *FieldWriter) NumBytes() int {
	return len(fw.buf) + (fw.used+7)/8
}

// FieldReader reads fields written by FieldWriter.
type FieldReader struct {
	buf    []byte
	bitPos int
	eos    bool
}

// NewFieldReader returns a reader over data.
func NewFieldReader(data []byte) *FieldReader {
	return &FieldReader{buf: data}
}

// ReadBits reads n (0..32) bits. Reading past the end returns zero bits
// and marks the stream as exhausted.
func (fr *FieldReader) ReadBits(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		byteIdx := fr.bitPos >> 3
		if byteIdx >= len(fr.buf) {
			fr.eos = true
			return 0
		}
		bit := uint32(fr.buf[byteIdx]>>uint(fr.bitPos&7)) & 1
		v |= bit << uint(i)
		fr.bitPos++
	}
	return v
}

// BytesConsumed returns the number of whole or partial bytes read.
func (fr *FieldReader) BytesConsumed() int { return (fr.bitPos + 7) >> 3 }

// IsEndOfStream reports whether a read went past the end of the data.
func (fr *FieldReader) IsEndOfStream() bool { return fr.eos }
