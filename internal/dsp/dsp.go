// Package dsp provides the integer transform kernels shared by the encoder
// and the decoder: DCT-II butterflies for every supported size, DST-VII,
// learned KLT bases, generic matrix kernels and their lane-parallel
// variants, plus the clipping and scalar quantization helpers used by the
// transform/quantization layer.
//
// All kernels operate on int32 coefficient buffers. A forward kernel reads
// `line` input vectors of N samples stored contiguously ([line][N]) and
// writes N output rows of `line` coefficients ([N][line]); an inverse kernel
// does the opposite. Two passes therefore realise a separable 2D transform
// without an explicit transposition step.
//
// Lane kernels exist only for the DST-VII and KLT matrix kernels of the
// <=10-bit depth class (Descriptor.Depth10). DCT-II always runs the scalar
// butterflies, as does every kernel of the wider depth class.
package dsp

import "fmt"

// Supported transform sizes, as log2 of the number of points.
const (
	MinLog2Size = 1 // 2-point
	MaxLog2Size = 7 // 128-point

	MaxSize = 1 << MaxLog2Size
)

// MatrixShift is the fixed-point precision of the standard coefficient
// matrices (64 == 1.0 for the DC basis row).
const MatrixShift = 6

// MatrixShiftHighPrecision is the precision of the high precision KLT
// matrices.
const MatrixShiftHighPrecision = 8

// Basis identifies an integer transform matrix family.
type Basis uint8

const (
	DCT2 Basis = iota
	DST7
	KLT
	NumBases
)

func (b Basis) String() string {
	switch b {
	case DCT2:
		return "DCT2"
	case DST7:
		return "DST7"
	case KLT:
		return "KLT"
	}
	return fmt.Sprintf("Basis(%d)", uint8(b))
}

// Direction selects the forward or the inverse kernel.
type Direction uint8

const (
	Forward Direction = iota
	Inverse
)

// Descriptor fully selects one 1D kernel invocation. It is a value type and
// is never mutated after construction.
type Descriptor struct {
	SizeLog2      int
	Direction     Direction
	Basis         Basis
	HighPrecision bool // KLT only: use the extended precision matrix
	Depth10       bool // input fits the <=10-bit dynamic range; lane kernels allowed
	SkipLine      int  // trailing input lines known to be (or forced to) zero
	SkipLine2     int  // trailing frequency rows zeroed (forward) or known zero (inverse)
}

// Size returns the number of points of the described transform.
func (d Descriptor) Size() int { return 1 << d.SizeLog2 }

// MatrixShift returns the matrix precision for the described kernel.
func (d Descriptor) MatrixShift() int {
	if d.Basis == KLT && d.HighPrecision {
		return MatrixShiftHighPrecision
	}
	return MatrixShift
}

// FwdFunc is a forward 1D kernel: src is [line][N], dst is [N][line].
type FwdFunc func(src, dst []int32, shift, line, skipLine, skipLine2 int)

// InvFunc is an inverse 1D kernel: src is [N][line], dst is [line][N]. Every
// output sample is clipped to [outMin, outMax].
type InvFunc func(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32)

// Kernel dispatch tables indexed by [basis][sizeLog2]. Entries are nil for
// combinations without a kernel. Filled by Init; read-only afterwards.
var (
	fwdTable [NumBases][MaxLog2Size + 1]FwdFunc
	invTable [NumBases][MaxLog2Size + 1]InvFunc

	// High precision KLT kernels, same indexing.
	fwdKLTHP [MaxLog2Size + 1]FwdFunc
	invKLTHP [MaxLog2Size + 1]InvFunc
)

// Supported reports whether a kernel exists for the basis and size.
func Supported(b Basis, sizeLog2 int) bool {
	if b >= NumBases || sizeLog2 < MinLog2Size || sizeLog2 > MaxLog2Size {
		return false
	}
	return fwdTable[b][sizeLog2] != nil
}

// LookupForward returns the forward kernel for d. It panics when the
// descriptor names an unsupported combination: the size set is closed and
// callers validate it at configuration time.
func LookupForward(d Descriptor) FwdFunc {
	if !Supported(d.Basis, d.SizeLog2) {
		panic(fmt.Sprintf("dsp: no forward kernel for %v size %d", d.Basis, d.Size()))
	}
	if d.Basis == KLT && d.HighPrecision {
		return fwdKLTHP[d.SizeLog2]
	}
	if d.Depth10 {
		if f := laneForward(d); f != nil {
			return f
		}
	}
	return fwdTable[d.Basis][d.SizeLog2]
}

// LookupInverse returns the inverse kernel for d, panicking like
// LookupForward on unsupported combinations.
func LookupInverse(d Descriptor) InvFunc {
	if !Supported(d.Basis, d.SizeLog2) {
		panic(fmt.Sprintf("dsp: no inverse kernel for %v size %d", d.Basis, d.Size()))
	}
	if d.Basis == KLT && d.HighPrecision {
		return invKLTHP[d.SizeLog2]
	}
	if d.Depth10 {
		if f := laneInverse(d); f != nil {
			return f
		}
	}
	return invTable[d.Basis][d.SizeLog2]
}

// Forward1D runs the forward kernel selected by d.
func Forward1D(d Descriptor, src, dst []int32, shift, line int) {
	LookupForward(d)(src, dst, shift, line, d.SkipLine, d.SkipLine2)
}

// Inverse1D runs the inverse kernel selected by d.
func Inverse1D(d Descriptor, src, dst []int32, shift, line int, outMin, outMax int32) {
	LookupInverse(d)(src, dst, shift, line, d.SkipLine, d.SkipLine2, outMin, outMax)
}

// Init builds the coefficient matrices and fills the dispatch tables. It is
// called from the package init and is idempotent.
func Init() {
	initMatrices()

	fwdTable[DCT2] = [MaxLog2Size + 1]FwdFunc{
		1: fwdDCT2B2,
		2: fwdDCT2B4,
		3: fwdDCT2B8,
		4: fwdDCT2B16,
		5: fwdDCT2B32,
		6: fwdDCT2B64,
		7: fwdDCT2B128,
	}
	invTable[DCT2] = [MaxLog2Size + 1]InvFunc{
		1: invDCT2B2,
		2: invDCT2B4,
		3: invDCT2B8,
		4: invDCT2B16,
		5: invDCT2B32,
		6: invDCT2B64,
		7: invDCT2B128,
	}

	// DST-VII: fast 4-point, matrix kernels above.
	fwdTable[DST7][2] = fwdDST7B4
	invTable[DST7][2] = invDST7B4
	for log2 := 3; log2 <= 5; log2++ {
		m := &dst7Matrices[log2]
		fwdTable[DST7][log2] = m.forwardKernel()
		invTable[DST7][log2] = m.inverseKernel()
	}

	for log2 := 2; log2 <= 4; log2++ {
		fwdTable[KLT][log2] = kltMatrices[log2].forwardKernel()
		invTable[KLT][log2] = kltMatrices[log2].inverseKernel()
		fwdKLTHP[log2] = kltMatricesHP[log2].forwardKernel()
		invKLTHP[log2] = kltMatricesHP[log2].inverseKernel()
	}

	initLanes()
}

func init() {
	Init()
}
