package bitio

import "math"

// CostOneBit is the cost of one equiprobable (bypass) bin in 1/256 bit.
const CostOneBit = 256

// entropyCost[p] is -log2(p/256) in 1/256 bit for p in 1..256.
var entropyCost [257]uint32

func init() {
	for p := 1; p <= 256; p++ {
		entropyCost[p] = uint32(math.Round(-math.Log2(float64(p)/256) * 256))
	}
	entropyCost[0] = entropyCost[1]
}

// BinCounter measures the fractional size of a bin sequence without
// producing output. It adapts its contexts exactly like BinWriter, so an
// encode pass run through a BinCounter predicts the writer's cost.
type BinCounter struct {
	ctx  *ContextSet
	bits uint64 // 1/256 bit
}

// NewBinCounter returns a counter coding with (and adapting) ctx.
func NewBinCounter(ctx *ContextSet) *BinCounter {
	return &BinCounter{ctx: ctx}
}

// EncodeBin accounts one context-coded bin.
func (bc *BinCounter) EncodeBin(bin uint32, ctx int) {
	m := &bc.ctx.models[ctx]
	bc.bits += uint64(m.Cost(bin))
	m.Update(bin)
}

// EncodeBinEP accounts one bypass bin.
func (bc *BinCounter) EncodeBinEP(uint32) { bc.bits += CostOneBit }

// EncodeBinsEP accounts n bypass bins.
func (bc *BinCounter) EncodeBinsEP(_ uint32, n int) { bc.bits += uint64(n) * CostOneBit }

// FracBits returns the accumulated cost in 1/256 bit.
func (bc *BinCounter) FracBits() uint64 { return bc.bits }

// Reset clears the accumulated cost; the contexts are left untouched.
func (bc *BinCounter) Reset() { bc.bits = 0 }

// Contexts returns the context set the counter adapts.
func (bc *BinCounter) Contexts() *ContextSet { return bc.ctx }
