package dsp

// Matrix is an immutable N×N integer transform matrix. Row k holds basis
// function k, so C[k*N+n] is the weight of input sample n in output k.
type Matrix struct {
	N     int
	Log2  int
	Shift int // fixed-point precision, MatrixShift or MatrixShiftHighPrecision
	C     []int32
}

// At returns the coefficient of basis row k at sample n.
func (m *Matrix) At(k, n int) int32 { return m.C[k*m.N+n] }

// Row returns basis row k. The slice aliases the shared table and must not
// be modified.
func (m *Matrix) Row(k int) []int32 { return m.C[k*m.N : (k+1)*m.N] }

func (m *Matrix) forwardKernel() FwdFunc {
	return func(src, dst []int32, shift, line, skipLine, skipLine2 int) {
		ForwardMM(m, src, dst, shift, line, skipLine, skipLine2)
	}
}

func (m *Matrix) inverseKernel() InvFunc {
	return func(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
		InverseMM(m, src, dst, shift, line, skipLine, skipLine2, outMin, outMax)
	}
}

// cosTable[m] is the integer magnitude of 64*sqrt(2)*cos(m*pi/256) used by
// every DCT-II matrix. Even entries are the normative 64-point values; odd
// entries extend the table to the 128-point transform. cosTable[0] is the
// DC weight.
var cosTable [129]int32

// Normative DCT-II weights grouped by the transform size that introduces
// them (angles in units of pi/128).
var (
	dct2P4Even  = [3]int32{64, 83, 36}
	dct2P8Odd   = [4]int32{89, 75, 50, 18}
	dct2P16Odd  = [8]int32{90, 87, 80, 70, 57, 43, 25, 9}
	dct2P32Odd  = [16]int32{90, 90, 88, 85, 82, 78, 73, 67, 61, 54, 46, 38, 31, 22, 13, 4}
	dct2P64Odd  = [32]int32{91, 90, 90, 90, 88, 87, 86, 84, 83, 81, 79, 77, 73, 71, 69, 65, 62, 59, 56, 52, 48, 44, 41, 37, 33, 28, 24, 20, 15, 11, 7, 2}
	dct2P128Odd = [64]int32{
		91, 90, 90, 90, 90, 90, 89, 89, 89, 88, 88, 87, 86, 86, 85, 84,
		83, 82, 81, 80, 79, 78, 77, 76, 75, 73, 72, 71, 69, 68, 66, 65,
		63, 62, 60, 58, 57, 55, 53, 51, 49, 47, 46, 44, 42, 40, 38, 36,
		34, 32, 29, 27, 25, 23, 21, 19, 17, 14, 12, 10, 8, 6, 3, 1,
	}
)

// Normative DST-VII sine magnitudes: entry j-1 is the weight for angle
// j*pi/(2N+1).
var (
	dst7P4  = []int32{29, 55, 74, 84}
	dst7P8  = []int32{17, 32, 46, 60, 71, 78, 85, 86}
	dst7P16 = []int32{8, 17, 25, 33, 40, 48, 55, 62, 68, 73, 77, 81, 85, 87, 88, 88}
	dst7P32 = []int32{
		4, 9, 13, 17, 21, 26, 30, 34, 38, 42, 45, 50, 53, 56, 60, 63,
		66, 68, 72, 74, 77, 78, 80, 82, 84, 85, 86, 88, 88, 89, 90, 90,
	}
)

// Process-lifetime coefficient matrices, indexed by log2 size.
var (
	dct2Matrices  [MaxLog2Size + 1]Matrix
	dst7Matrices  [MaxLog2Size + 1]Matrix
	kltMatrices   [MaxLog2Size + 1]Matrix
	kltMatricesHP [MaxLog2Size + 1]Matrix
)

// DCT2Matrix returns the shared DCT-II matrix for the given log2 size.
func DCT2Matrix(log2 int) *Matrix { return &dct2Matrices[log2] }

// DST7Matrix returns the shared DST-VII matrix for the given log2 size.
func DST7Matrix(log2 int) *Matrix { return &dst7Matrices[log2] }

// KLTMatrix returns the shared KLT matrix for the given log2 size and
// precision.
func KLTMatrix(log2 int, highPrecision bool) *Matrix {
	if highPrecision {
		return &kltMatricesHP[log2]
	}
	return &kltMatrices[log2]
}

// MatrixFor returns the coefficient matrix backing basis b at size log2, or
// nil when the combination has no matrix.
func MatrixFor(b Basis, log2 int, highPrecision bool) *Matrix {
	var m *Matrix
	switch b {
	case DCT2:
		m = &dct2Matrices[log2]
	case DST7:
		m = &dst7Matrices[log2]
	case KLT:
		m = KLTMatrix(log2, highPrecision)
	}
	if m == nil || m.N == 0 {
		return nil
	}
	return m
}

func initCosTable() {
	cosTable[0] = dct2P4Even[0]
	cosTable[64] = dct2P4Even[0] // cos(pi/4)
	cosTable[32] = dct2P4Even[1]
	cosTable[96] = dct2P4Even[2]
	for i, v := range dct2P8Odd {
		cosTable[16+32*i] = v
	}
	for i, v := range dct2P16Odd {
		cosTable[8+16*i] = v
	}
	for i, v := range dct2P32Odd {
		cosTable[4+8*i] = v
	}
	for i, v := range dct2P64Odd {
		cosTable[2+4*i] = v
	}
	for i, v := range dct2P128Odd {
		cosTable[1+2*i] = v
	}
	cosTable[128] = 0
}

// dct2Coeff128 returns entry (k, n) of the 128-point DCT-II matrix.
func dct2Coeff128(k, n int) int32 {
	if k == 0 {
		return cosTable[0]
	}
	m := ((2*n + 1) * k) % 512
	if m > 256 {
		m = 512 - m
	}
	if m > 128 {
		return -cosTable[256-m]
	}
	return cosTable[m]
}

func buildDCT2(log2 int) Matrix {
	n := 1 << log2
	step := 128 / n
	c := make([]int32, n*n)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			c[k*n+i] = dct2Coeff128(k*step, i)
		}
	}
	return Matrix{N: n, Log2: log2, Shift: MatrixShift, C: c}
}

func buildDST7(log2 int, mags []int32) Matrix {
	n := 1 << log2
	period := 2*n + 1
	c := make([]int32, n*n)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			s := ((2*k + 1) * (i + 1)) % (2 * period)
			if s == 0 || s == period {
				continue
			}
			neg := false
			if s > period {
				s -= period
				neg = true
			}
			j := s
			if period-s < j {
				j = period - s
			}
			v := mags[j-1]
			if neg {
				v = -v
			}
			c[k*n+i] = v
		}
	}
	return Matrix{N: n, Log2: log2, Shift: MatrixShift, C: c}
}

func wrapTable(log2, shift int, tab []int32) Matrix {
	return Matrix{N: 1 << log2, Log2: log2, Shift: shift, C: tab}
}

func initMatrices() {
	initCosTable()
	for log2 := MinLog2Size; log2 <= MaxLog2Size; log2++ {
		dct2Matrices[log2] = buildDCT2(log2)
	}
	dst7Matrices[2] = buildDST7(2, dst7P4)
	dst7Matrices[3] = buildDST7(3, dst7P8)
	dst7Matrices[4] = buildDST7(4, dst7P16)
	dst7Matrices[5] = buildDST7(5, dst7P32)

	kltMatrices[2] = wrapTable(2, MatrixShift, kltCoeffs4[:])
	kltMatrices[3] = wrapTable(3, MatrixShift, kltCoeffs8[:])
	kltMatrices[4] = wrapTable(4, MatrixShift, kltCoeffs16[:])
	kltMatricesHP[2] = wrapTable(2, MatrixShiftHighPrecision, kltCoeffsHP4[:])
	kltMatricesHP[3] = wrapTable(3, MatrixShiftHighPrecision, kltCoeffsHP8[:])
	kltMatricesHP[4] = wrapTable(4, MatrixShiftHighPrecision, kltCoeffsHP16[:])
}
