// Package bitio provides the entropy-coding primitives of the codec:
// adaptive binary context models, a binary arithmetic bin writer and
// reader built on a boolean range coder, a fractional-bit counter for rate
// estimation, and raw little-endian bit fields for stream headers.
package bitio

// Context probabilities are 15-bit estimates of the probability that the
// next bin is 1.
const (
	ProbBits = 15
	ProbOne  = 1 << ProbBits
)

// Adaptation rates (as right shifts) of the fast and slow estimators.
const (
	rateFast = 4
	rateSlow = 7
)

// ContextModel is one adaptive binary probability model. It tracks two
// exponentially decaying estimates and codes with their average.
type ContextModel struct {
	fast, slow uint16
}

func newContextModel() ContextModel {
	return ContextModel{fast: ProbOne / 2, slow: ProbOne / 2}
}

// P1 returns the current probability of a 1 bin in 1/32768 units.
func (c *ContextModel) P1() uint32 {
	return (uint32(c.fast) + uint32(c.slow)) >> 1
}

// Update moves both estimates towards the coded bin.
func (c *ContextModel) Update(bin uint32) {
	if bin != 0 {
		c.fast += (ProbOne - c.fast) >> rateFast
		c.slow += (ProbOne - c.slow) >> rateSlow
	} else {
		c.fast -= c.fast >> rateFast
		c.slow -= c.slow >> rateSlow
	}
}

// prob8 returns the 8-bit probability of a 0 bin as consumed by the range
// coder (1..255).
func (c *ContextModel) prob8() uint8 {
	p0 := (ProbOne - c.P1()) >> (ProbBits - 8)
	if p0 < 1 {
		return 1
	}
	if p0 > 255 {
		return 255
	}
	return uint8(p0)
}

// Cost returns the cost of coding bin with this model in 1/256 bit,
// without adapting it.
func (c *ContextModel) Cost(bin uint32) uint32 {
	p0 := c.prob8()
	if bin != 0 {
		return entropyCost[256-int(p0)]
	}
	return entropyCost[p0]
}

// ContextSet is the full set of context models of one coding pass.
// Snapshots (Clone/CopyFrom) let a trial encode roll back its adaptation.
type ContextSet struct {
	models []ContextModel
}

// NewContextSet returns n models at the equiprobable state.
func NewContextSet(n int) *ContextSet {
	cs := &ContextSet{models: make([]ContextModel, n)}
	cs.Reset()
	return cs
}

// Reset returns every model to the equiprobable state.
func (cs *ContextSet) Reset() {
	for i := range cs.models {
		cs.models[i] = newContextModel()
	}
}

// Len returns the number of models.
func (cs *ContextSet) Len() int { return len(cs.models) }

// Model returns model i.
func (cs *ContextSet) Model(i int) *ContextModel { return &cs.models[i] }

// Cost returns the cost of coding bin with model ctx in 1/256 bit.
func (cs *ContextSet) Cost(ctx int, bin uint32) uint32 {
	return cs.models[ctx].Cost(bin)
}

// Clone returns an independent copy.
func (cs *ContextSet) Clone() *ContextSet {
	c := &ContextSet{models: make([]ContextModel, len(cs.models))}
	copy(c.models, cs.models)
	return c
}

// CopyFrom overwrites cs with the state of src. Both sets must have the
// same size.
func (cs *ContextSet) CopyFrom(src *ContextSet) {
	if len(cs.models) != len(src.models) {
		panic("bitio: context set size mismatch")
	}
	copy(cs.models, src.models)
}
