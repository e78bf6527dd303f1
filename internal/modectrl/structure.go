package modectrl

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/deepteams/vvc/internal/tq"
)

// Area is a rectangle of luma samples in picture coordinates.
type Area struct {
	X, Y, W, H int
}

// Size returns the number of samples of a.
func (a Area) Size() int { return a.W * a.H }

// Log2 returns the log2 width and height of a power-of-two area.
func (a Area) Log2() (int, int) {
	return bits.TrailingZeros(uint(a.W)), bits.TrailingZeros(uint(a.H))
}

func (a Area) String() string { return fmt.Sprintf("%dx%d@(%d,%d)", a.W, a.H, a.X, a.Y) }

// SplitKind is the partition applied to a node of the coding tree.
type SplitKind uint8

const (
	NoSplit SplitKind = iota
	QuadSplit
	BinaryHSplit
	BinaryVSplit
	TernaryHSplit
	TernaryVSplit
	NumSplitKinds
)

var splitNames = [NumSplitKinds]string{"none", "qt", "bt-h", "bt-v", "tt-h", "tt-v"}

func (s SplitKind) String() string {
	if s < NumSplitKinds {
		return splitNames[s]
	}
	return "invalid"
}

// Mode returns the test mode kind that tries split s.
func (s SplitKind) Mode() Kind {
	switch s {
	case QuadSplit:
		return KindSplitQuad
	case BinaryHSplit:
		return KindSplitBinaryH
	case BinaryVSplit:
		return KindSplitBinaryV
	case TernaryHSplit:
		return KindSplitTernaryH
	case TernaryVSplit:
		return KindSplitTernaryV
	}
	return KindPostNoSplit
}

// Partition returns the child areas of a in coding order. Horizontal
// splits stack children vertically.
func Partition(a Area, s SplitKind) []Area {
	switch s {
	case QuadSplit:
		w, h := a.W/2, a.H/2
		return []Area{
			{a.X, a.Y, w, h}, {a.X + w, a.Y, w, h},
			{a.X, a.Y + h, w, h}, {a.X + w, a.Y + h, w, h},
		}
	case BinaryHSplit:
		h := a.H / 2
		return []Area{{a.X, a.Y, a.W, h}, {a.X, a.Y + h, a.W, h}}
	case BinaryVSplit:
		w := a.W / 2
		return []Area{{a.X, a.Y, w, a.H}, {a.X + w, a.Y, w, a.H}}
	case TernaryHSplit:
		q := a.H / 4
		return []Area{{a.X, a.Y, a.W, q}, {a.X, a.Y + q, a.W, 2 * q}, {a.X, a.Y + 3*q, a.W, q}}
	case TernaryVSplit:
		q := a.W / 4
		return []Area{{a.X, a.Y, q, a.H}, {a.X + q, a.Y, 2 * q, a.H}, {a.X + 3*q, a.Y, q, a.H}}
	}
	return []Area{a}
}

// ChildDepths returns the quad-tree and multi-type-tree depths of the
// children of a node split with s.
func ChildDepths(s SplitKind, qtDepth, mtDepth int) (int, int) {
	if s == QuadSplit {
		return qtDepth + 1, 0
	}
	return qtDepth, mtDepth + 1
}

// MotionVector is a full-sample displacement into the reference picture.
type MotionVector struct {
	X, Y int16
}

// TransformUnit holds the levels of one transform block of a coding unit.
type TransformUnit struct {
	Area       Area
	Set        tq.TransformSet
	Levels     []int32 // row-major, Area.W×Area.H
	NumNonZero int
}

// CodingUnit is one leaf of the coding tree.
type CodingUnit struct {
	Area  Area
	Mode  TestMode
	MV    MotionVector
	Recon []int32 // reconstructed samples of Area
	PCM   []int32 // raw samples of a PCM unit
	TUs   []TransformUnit
}

// MaxCost marks an unknown cost.
const MaxCost = math.MaxUint64

// CodingStructure is the coded representation of an area under one test
// mode, with its cost. Split structures list the leaves of every child in
// coding order, and the child structures of their visible children.
type CodingStructure struct {
	Area     Area
	Mode     TestMode
	CUs      []*CodingUnit
	Parts    []*CodingStructure
	Dist     uint64
	FracBits uint64 // 1/256 bit
	Cost     uint64
	HadCost  uint64 // Hadamard cost of an inter prediction error, 0 when unknown
	// EarlySkip reports that the remaining candidates of the node need not
	// be tried once this structure is the best.
	EarlySkip bool
}

// Config errors.
var (
	ErrPictureSize = errors.New("modectrl: invalid picture size")
	ErrTreeConfig  = errors.New("modectrl: invalid coding tree configuration")
)

// Config constrains the coding tree and the candidate modes. It is
// read-only during a search.
type Config struct {
	PictureW, PictureH int
	CTUSize            int
	MinCUSize          int
	MinQTSize          int // smallest quad-tree leaf
	MaxBTSize          int
	MaxTTSize          int
	MaxMTDepth         int
	EnableBT           bool
	EnableTT           bool
	InterSlice         bool
	EnablePCM          bool
	PCMMinSize         int
	PCMMaxSize         int
	EarlySkip          bool // stop at a merge-skip with negligible residual
	UseSplitHints      bool
	ParallelSplit      bool // evaluate binary split pairs on two goroutines
}

// DefaultConfig returns a tree configuration for a w×h picture.
func DefaultConfig(w, h int) Config {
	return Config{
		PictureW:   w,
		PictureH:   h,
		CTUSize:    64,
		MinCUSize:  4,
		MinQTSize:  8,
		MaxBTSize:  32,
		MaxTTSize:  32,
		MaxMTDepth: 2,
		EnableBT:   true,
		EnableTT:   true,
		PCMMinSize: 8,
		PCMMaxSize: 32,
		EarlySkip:  true,
	}
}

func isPow2(v int) bool { return v > 0 && v&(v-1) == 0 }

// Validate reports configuration errors before a search starts.
func (c Config) Validate() error {
	if c.PictureW <= 0 || c.PictureH <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrPictureSize, c.PictureW, c.PictureH)
	}
	for _, v := range []struct {
		name string
		val  int
	}{
		{"CTU size", c.CTUSize}, {"min CU size", c.MinCUSize}, {"min QT size", c.MinQTSize},
		{"max BT size", c.MaxBTSize}, {"max TT size", c.MaxTTSize},
	} {
		if !isPow2(v.val) {
			return fmt.Errorf("%w: %s %d is not a power of two", ErrTreeConfig, v.name, v.val)
		}
	}
	if c.MinCUSize < 4 || c.CTUSize > 128 {
		return fmt.Errorf("%w: CU sizes %d..%d", ErrTreeConfig, c.MinCUSize, c.CTUSize)
	}
	if c.MinQTSize < c.MinCUSize || c.MinQTSize > c.CTUSize {
		return fmt.Errorf("%w: min QT size %d", ErrTreeConfig, c.MinQTSize)
	}
	if c.MaxMTDepth < 0 {
		return fmt.Errorf("%w: MT depth %d", ErrTreeConfig, c.MaxMTDepth)
	}
	if c.PictureW%c.MinCUSize != 0 || c.PictureH%c.MinCUSize != 0 {
		return fmt.Errorf("%w: %dx%d not a multiple of %d", ErrPictureSize, c.PictureW, c.PictureH, c.MinCUSize)
	}
	if c.EnablePCM && (!isPow2(c.PCMMinSize) || !isPow2(c.PCMMaxSize) || c.PCMMinSize > c.PCMMaxSize) {
		return fmt.Errorf("%w: PCM sizes %d..%d", ErrTreeConfig, c.PCMMinSize, c.PCMMaxSize)
	}
	return nil
}

// Inside reports whether a lies entirely inside the picture.
func (c *Config) Inside(a Area) bool {
	return a.X+a.W <= c.PictureW && a.Y+a.H <= c.PictureH
}

// Visible reports whether a overlaps the picture.
func (c *Config) Visible(a Area) bool {
	return a.X < c.PictureW && a.Y < c.PictureH
}

// AllowedSplits returns the partitions available to a node in a fixed
// order. Nodes crossing the picture boundary may only split, and binary
// splits across the boundary are allowed regardless of the multi-type
// tree limits. Encoder and decoder derive the same set.
func (c *Config) AllowedSplits(a Area, qtDepth, mtDepth int) []SplitKind {
	out := make([]SplitKind, 0, NumSplitKinds-1)
	inside := c.Inside(a)
	if a.W == a.H && mtDepth == 0 && a.W > c.MinQTSize {
		out = append(out, QuadSplit)
	}
	btOK := c.EnableBT && mtDepth < c.MaxMTDepth && a.W <= c.MaxBTSize && a.H <= c.MaxBTSize
	if (btOK || !inside && a.Y+a.H > c.PictureH) && a.H/2 >= c.MinCUSize {
		out = append(out, BinaryHSplit)
	}
	if (btOK || !inside && a.X+a.W > c.PictureW) && a.W/2 >= c.MinCUSize {
		out = append(out, BinaryVSplit)
	}
	if !inside {
		return out
	}
	ttOK := c.EnableTT && mtDepth < c.MaxMTDepth && a.W <= c.MaxTTSize && a.H <= c.MaxTTSize
	if ttOK && a.H/4 >= c.MinCUSize {
		out = append(out, TernaryHSplit)
	}
	if ttOK && a.W/4 >= c.MinCUSize {
		out = append(out, TernaryVSplit)
	}
	return out
}

// TerminalKinds returns the non-split modes available to a, in trial
// order. It is empty for nodes crossing the picture boundary.
func (c *Config) TerminalKinds(a Area) []Kind {
	if !c.Inside(a) {
		return nil
	}
	out := make([]Kind, 0, 4)
	if c.InterSlice && a.Size() > 16 {
		out = append(out, KindMergeSkip, KindInterME)
	}
	out = append(out, KindIntra)
	if c.EnablePCM && a.W >= c.PCMMinSize && a.H >= c.PCMMinSize && a.W <= c.PCMMaxSize && a.H <= c.PCMMaxSize {
		out = append(out, KindPCM)
	}
	return out
}
