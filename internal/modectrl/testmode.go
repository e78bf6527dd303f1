package modectrl

// Kind enumerates the test modes of a coding-unit search.
type Kind uint8

const (
	KindMergeSkip Kind = iota
	KindInterME
	KindIntra
	KindPCM
	KindSplitQuad
	KindSplitBinaryH
	KindSplitBinaryV
	KindSplitTernaryH
	KindSplitTernaryV
	KindPostNoSplit
	NumKinds
)

var kindNames = [NumKinds]string{
	"merge-skip", "inter-me", "intra", "pcm",
	"split-qt", "split-bt-h", "split-bt-v", "split-tt-h", "split-tt-v",
	"post-no-split",
}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return "invalid"
}

// Split returns the partition a split kind applies, NoSplit otherwise.
func (k Kind) Split() SplitKind {
	switch k {
	case KindSplitQuad:
		return QuadSplit
	case KindSplitBinaryH:
		return BinaryHSplit
	case KindSplitBinaryV:
		return BinaryVSplit
	case KindSplitTernaryH:
		return TernaryHSplit
	case KindSplitTernaryV:
		return TernaryVSplit
	}
	return NoSplit
}

// Terminal reports whether k codes the area as one coding unit.
func (k Kind) Terminal() bool { return k <= KindPCM }

// Opts qualifies merge and motion-estimation trials.
type Opts uint8

const (
	OptStandard Opts = iota
	OptForcedMerge
	OptDummy
)

// ModeParams is the payload every test mode carries.
type ModeParams struct {
	QP       int
	Lossless bool
}

// TestMode is one candidate of a coding-unit search. The concrete types
// below are its only implementations; a nil TestMode is invalid. Values
// are comparable with ==.
type TestMode interface {
	Kind() Kind
	Params() ModeParams
	isTestMode()
}

type (
	MergeSkip struct {
		ModeParams
		Opts Opts
	}
	InterME struct {
		ModeParams
		Opts Opts
	}
	Intra         struct{ ModeParams }
	PCM           struct{ ModeParams }
	SplitQuad     struct{ ModeParams }
	SplitBinaryH  struct{ ModeParams }
	SplitBinaryV  struct{ ModeParams }
	SplitTernaryH struct{ ModeParams }
	SplitTernaryV struct{ ModeParams }
	PostNoSplit   struct{ ModeParams }
)

func (MergeSkip) Kind() Kind     { return KindMergeSkip }
func (InterME) Kind() Kind       { return KindInterME }
func (Intra) Kind() Kind         { return KindIntra }
func (PCM) Kind() Kind           { return KindPCM }
func (SplitQuad) Kind() Kind     { return KindSplitQuad }
func (SplitBinaryH) Kind() Kind  { return KindSplitBinaryH }
func (SplitBinaryV) Kind() Kind  { return KindSplitBinaryV }
func (SplitTernaryH) Kind() Kind { return KindSplitTernaryH }
func (SplitTernaryV) Kind() Kind { return KindSplitTernaryV }
func (PostNoSplit) Kind() Kind   { return KindPostNoSplit }

func (m ModeParams) Params() ModeParams { return m }

func (ModeParams) isTestMode() {}

// NewMode builds the test mode of kind k. It panics on an invalid kind.
func NewMode(k Kind, p ModeParams) TestMode {
	switch k {
	case KindMergeSkip:
		return MergeSkip{ModeParams: p}
	case KindInterME:
		return InterME{ModeParams: p}
	case KindIntra:
		return Intra{p}
	case KindPCM:
		return PCM{p}
	case KindSplitQuad:
		return SplitQuad{p}
	case KindSplitBinaryH:
		return SplitBinaryH{p}
	case KindSplitBinaryV:
		return SplitBinaryV{p}
	case KindSplitTernaryH:
		return SplitTernaryH{p}
	case KindSplitTernaryV:
		return SplitTernaryV{p}
	case KindPostNoSplit:
		return PostNoSplit{p}
	}
	panic("modectrl: invalid test mode kind")
}

// IsSplit reports whether m partitions its area.
func IsSplit(m TestMode) bool {
	return m != nil && m.Kind().Split() != NoSplit
}

// IsTerminal reports whether m codes its area as one coding unit.
func IsTerminal(m TestMode) bool {
	return m != nil && m.Kind().Terminal()
}
