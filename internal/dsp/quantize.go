package dsp

// Forward quantization scales for QP%6, second row for blocks whose log2
// area is odd (pre-multiplied by 1/sqrt(2)).
var QuantScales = [2][6]int32{
	{26214, 23302, 20560, 18396, 16384, 14564},
	{18396, 16384, 14564, 13107, 11651, 10280},
}

// Dequantization scales for QP%6, with the same row convention as
// QuantScales.
var DequantScales = [2][6]int32{
	{40, 45, 51, 57, 64, 72},
	{57, 64, 72, 80, 90, 102},
}

// MaxLevel is the largest coded level magnitude.
const MaxLevel = 32767

// QuantizeLine quantizes coef into levels with
// level = min((|c|*scale + add) >> qBits, MaxLevel), keeping the sign of c.
// When deltaU is non-nil it receives the rounding error of every position
// in units of 2^(qBits-8), as used by sign data hiding. It returns the sum
// of the absolute levels.
func QuantizeLine(coef, levels []int32, scale int32, qBits int, add int64, deltaU []int32) int64 {
	levels = levels[:len(coef)]
	var absSum int64
	for i, c := range coef {
		a := int64(c)
		if a < 0 {
			a = -a
		}
		scaled := a * int64(scale)
		l := (scaled + add) >> qBits
		if deltaU != nil {
			deltaU[i] = int32((scaled - l<<qBits) >> (qBits - 8))
		}
		if l > MaxLevel {
			l = MaxLevel
		}
		absSum += l
		if c < 0 {
			l = -l
		}
		levels[i] = int32(l)
	}
	return absSum
}

// DequantizeLine reconstructs coefficients from levels. A positive shift
// rounds and shifts right, a non-positive shift scales left. Results are
// clipped to [outMin, outMax].
func DequantizeLine(levels, coef []int32, scale int32, shift int, outMin, outMax int32) {
	coef = coef[:len(levels)]
	if shift > 0 {
		rnd := int64(1) << (shift - 1)
		for i, l := range levels {
			if l == 0 {
				coef[i] = 0
				continue
			}
			coef[i] = clipInt64((int64(l)*int64(scale)+rnd)>>shift, outMin, outMax)
		}
		return
	}
	left := -shift
	for i, l := range levels {
		coef[i] = clipInt64((int64(l)*int64(scale))<<left, outMin, outMax)
	}
}
