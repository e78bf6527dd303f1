package vvc

import (
	"fmt"
	"math/bits"

	"github.com/deepteams/vvc/internal/bitio"
	"github.com/deepteams/vvc/internal/modectrl"
	"github.com/deepteams/vvc/internal/tq"
)

var streamMagic = [4]byte{'V', 'V', 'C', '1'}

// header is the fixed-length picture header that precedes the arithmetic
// coded payload.
type header struct {
	cp    *codingParams
	inter bool
}

func log2Field(v int) uint32 {
	if v <= 0 {
		return 0
	}
	return uint32(bits.TrailingZeros(uint(v)))
}

func (h header) marshal() []byte {
	t, p := h.cp.tree, h.cp.params
	fw := bitio.NewFieldWriter(24)
	for _, c := range streamMagic {
		fw.WriteBits(uint32(c), 8)
	}
	fw.WriteBits(uint32(t.PictureW-1), 16)
	fw.WriteBits(uint32(t.PictureH-1), 16)
	fw.WriteBits(uint32(p.BitDepth-8), 4)
	fw.WriteBits(uint32(h.cp.qp+64), 7)
	for _, f := range []bool{
		h.inter, h.cp.signHiding, p.ExtendedPrecision, p.EnableDST7, p.EnableKLT,
		p.KLTHighPrecision, t.EnableBT, t.EnableTT, t.EnablePCM,
	} {
		fw.WriteBits(b2u(f), 1)
	}
	fw.WriteBits(uint32(p.MaxTransformLog2), 3)
	for _, v := range []int{t.CTUSize, t.MinCUSize, t.MinQTSize, t.MaxBTSize, t.MaxTTSize} {
		fw.WriteBits(log2Field(v), 4)
	}
	fw.WriteBits(uint32(t.MaxMTDepth), 4)
	if t.EnablePCM {
		fw.WriteBits(log2Field(t.PCMMinSize), 4)
		fw.WriteBits(log2Field(t.PCMMaxSize), 4)
	} else {
		fw.WriteBits(0, 8)
	}
	return fw.Finish()
}

// parseHeader reads and validates the picture header and returns the
// payload that follows it.
func parseHeader(data []byte) (header, []byte, error) {
	fr := bitio.NewFieldReader(data)
	for _, c := range streamMagic {
		if fr.ReadBits(8) != uint32(c) {
			return header{}, nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
		}
	}
	t := &modectrl.Config{}
	var p tq.Params
	t.PictureW = int(fr.ReadBits(16)) + 1
	t.PictureH = int(fr.ReadBits(16)) + 1
	p.BitDepth = int(fr.ReadBits(4)) + 8
	qp := int(fr.ReadBits(7)) - 64

	var flags [9]bool
	for i := range flags {
		flags[i] = fr.ReadBits(1) != 0
	}
	h := header{inter: flags[0]}
	p.ExtendedPrecision, p.EnableDST7, p.EnableKLT, p.KLTHighPrecision = flags[2], flags[3], flags[4], flags[5]
	t.EnableBT, t.EnableTT, t.EnablePCM = flags[6], flags[7], flags[8]
	t.InterSlice = h.inter

	p.MaxTransformLog2 = int(fr.ReadBits(3))
	for _, v := range []*int{&t.CTUSize, &t.MinCUSize, &t.MinQTSize, &t.MaxBTSize, &t.MaxTTSize} {
		*v = 1 << fr.ReadBits(4)
	}
	t.MaxMTDepth = int(fr.ReadBits(4))
	t.PCMMinSize = 1 << fr.ReadBits(4)
	t.PCMMaxSize = 1 << fr.ReadBits(4)
	if fr.IsEndOfStream() {
		return header{}, nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}

	if err := p.Validate(); err != nil {
		return header{}, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := (tq.QuantContext{QP: qp}).Validate(p); err != nil {
		return header{}, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := t.Validate(); err != nil {
		return header{}, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	h.cp = &codingParams{tree: t, params: p, qp: qp, signHiding: flags[1]}
	return h, data[fr.BytesConsumed():], nil
}

// Info describes a coded picture without decoding it.
type Info struct {
	Width, Height int
	BitDepth      int
	QP            int
	Inter         bool // needs a reference picture
	CTUSize       int
	MaxTransform  int // largest transform side
	BT, TT        bool
	PCM           bool
	KLT           bool
	PayloadBytes  int
}

// GetInfo parses the picture header of data.
func GetInfo(data []byte) (*Info, error) {
	h, payload, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	t, p := h.cp.tree, h.cp.params
	return &Info{
		Width:        t.PictureW,
		Height:       t.PictureH,
		BitDepth:     p.BitDepth,
		QP:           h.cp.qp,
		Inter:        h.inter,
		CTUSize:      t.CTUSize,
		MaxTransform: 1 << p.MaxTransformLog2,
		BT:           t.EnableBT,
		TT:           t.EnableTT,
		PCM:          t.EnablePCM,
		KLT:          p.EnableKLT,
		PayloadBytes: len(payload),
	}, nil
}
