// Package tq is the transform/quantization layer: it validates the
// transform configuration, derives the pass shifts, selects the transform
// pair of a block, runs the separable 2D transform, quantizes with plain
// scalar quantization or rate-distortion optimised quantization, hides
// signs, and runs the inverse path back to residual samples.
package tq

import (
	"errors"
	"fmt"

	"github.com/deepteams/vvc/internal/dsp"
)

// Configuration errors.
var (
	ErrBitDepth          = errors.New("tq: unsupported bit depth")
	ErrExtendedPrecision = errors.New("tq: bit depth requires extended precision")
	ErrTransformSize     = errors.New("tq: unsupported maximum transform size")
	ErrKLTPrecision      = errors.New("tq: high precision KLT requires KLT")
	ErrQP                = errors.New("tq: QP out of range")
	ErrBlockSize         = errors.New("tq: unsupported block size")
)

// Bit depth and QP limits.
const (
	MinBitDepth = 8
	MaxBitDepth = 16
	MaxQP       = 63
)

// Params is the transform configuration of a coding pass. It is read-only
// once validated.
type Params struct {
	BitDepth          int
	ExtendedPrecision bool // dynamic range grows with bit depth
	MaxTransformLog2  int  // 2..7
	EnableDST7        bool // implicit DST-VII for intra blocks with sides 4..16
	EnableKLT         bool // KLT for square 4..16 blocks that request it
	KLTHighPrecision  bool
}

// DefaultParams returns the 8-bit configuration with transforms up to 64.
func DefaultParams() Params {
	return Params{
		BitDepth:         8,
		MaxTransformLog2: 6,
		EnableDST7:       true,
	}
}

// Validate reports configuration errors before any block is processed.
func (p Params) Validate() error {
	if p.BitDepth < MinBitDepth || p.BitDepth > MaxBitDepth {
		return fmt.Errorf("%w: %d", ErrBitDepth, p.BitDepth)
	}
	if p.BitDepth > 12 && !p.ExtendedPrecision {
		return fmt.Errorf("%w: %d bits", ErrExtendedPrecision, p.BitDepth)
	}
	if p.MaxTransformLog2 < 2 || p.MaxTransformLog2 > dsp.MaxLog2Size {
		return fmt.Errorf("%w: log2 %d", ErrTransformSize, p.MaxTransformLog2)
	}
	if p.KLTHighPrecision && !p.EnableKLT {
		return ErrKLTPrecision
	}
	return nil
}

// DynRange returns the coefficient dynamic range in bits.
func (p Params) DynRange() int {
	if p.ExtendedPrecision {
		return max(15, p.BitDepth+6)
	}
	return 15
}

// MinQP returns the lowest valid QP at the configured bit depth.
func (p Params) MinQP() int { return -6 * (p.BitDepth - 8) }

// ForwardShifts returns the shifts of the horizontal and the vertical
// forward pass.
func (p Params) ForwardShifts(log2W, log2H, matShift int) (shift1, shift2 int) {
	return log2W + p.BitDepth + matShift - p.DynRange(), log2H + matShift
}

// InverseShifts returns the shifts of the vertical and the horizontal
// inverse pass.
func (p Params) InverseShifts(matShift int) (shift1, shift2 int) {
	return matShift + 1, matShift + p.DynRange() - 1 - p.BitDepth
}

// TransformShift is the scaling of transformed coefficients relative to an
// orthonormal transform, in bits.
func (p Params) TransformShift(log2W, log2H int) int {
	return p.DynRange() - p.BitDepth - ((log2W + log2H) >> 1)
}

func (p Params) checkBlock(log2W, log2H int) {
	if err := p.CheckBlock(log2W, log2H); err != nil {
		panic(err.Error())
	}
}

// CheckBlock returns ErrBlockSize when a block cannot be transformed with
// p.
func (p Params) CheckBlock(log2W, log2H int) error {
	if log2W < dsp.MinLog2Size || log2H < dsp.MinLog2Size || log2W > p.MaxTransformLog2 || log2H > p.MaxTransformLog2 {
		return fmt.Errorf("%w: log2 %dx%d", ErrBlockSize, log2W, log2H)
	}
	return nil
}
