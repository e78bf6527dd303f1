package modectrl

// State is the search state of one trial context.
type State uint8

const (
	StateInit State = iota
	StateTrying
	StateEvaluated
	StateSplitRecurse
	StateCommitted
)

var stateNames = [...]string{"init", "trying", "evaluated", "split-recurse", "committed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "invalid"
}

// Features are the heuristic signals gathered while trying the modes of
// one node. Unknown costs are MaxCost.
type Features struct {
	BestNoSplitCost  uint64
	BestSplitCost    [NumSplitKinds]uint64
	BestInterCost    uint64
	BestInterHadCost uint64
	EarlySkip        bool
}

func (f *Features) reset() {
	f.BestNoSplitCost = MaxCost
	for i := range f.BestSplitCost {
		f.BestSplitCost[i] = MaxCost
	}
	f.BestInterCost = MaxCost
	f.BestInterHadCost = MaxCost
	f.EarlySkip = false
}

// TrialContext is the search frame of one coding-tree node.
type TrialContext struct {
	Area    Area
	QTDepth int
	MTDepth int
	QP      int

	Features Features
	State    State

	queue    []TestMode
	next     int
	lastMode TestMode
	best     *CodingStructure
	bestMode TestMode
}

func (tc *TrialContext) reset(a Area, qtDepth, mtDepth, qp int) {
	tc.Area = a
	tc.QTDepth, tc.MTDepth, tc.QP = qtDepth, mtDepth, qp
	tc.Features.reset()
	tc.State = StateInit
	tc.queue = tc.queue[:0]
	tc.next = 0
	tc.lastMode = nil
	tc.best = nil
	tc.bestMode = nil
}

// Pending returns the candidates not yet handed out.
func (tc *TrialContext) Pending() []TestMode { return tc.queue[tc.next:] }

// LastMode returns the mode most recently handed out.
func (tc *TrialContext) LastMode() TestMode { return tc.lastMode }

// BestCS returns the best structure so far, nil before the first result.
func (tc *TrialContext) BestCS() *CodingStructure { return tc.best }

// BestMode returns the mode of BestCS.
func (tc *TrialContext) BestMode() TestMode { return tc.bestMode }

// BestCU returns the coding unit of a non-split best structure.
func (tc *TrialContext) BestCU() *CodingUnit {
	if tc.best == nil || len(tc.best.CUs) != 1 || IsSplit(tc.bestMode) {
		return nil
	}
	return tc.best.CUs[0]
}

// BestTU returns the first transform unit of BestCU.
func (tc *TrialContext) BestTU() *TransformUnit {
	cu := tc.BestCU()
	if cu == nil || len(cu.TUs) == 0 {
		return nil
	}
	return &cu.TUs[0]
}

// BestCost returns the cost of BestCS, MaxCost before the first result.
func (tc *TrialContext) BestCost() uint64 {
	if tc.best == nil {
		return MaxCost
	}
	return tc.best.Cost
}

// contextStack is an arena of trial contexts. Popped frames keep their
// queue storage for the next push at the same depth.
type contextStack struct {
	frames []*TrialContext
	n      int
}

func (s *contextStack) push() *TrialContext {
	if s.n == len(s.frames) {
		s.frames = append(s.frames, &TrialContext{queue: make([]TestMode, 0, NumKinds)})
	}
	s.n++
	return s.frames[s.n-1]
}

func (s *contextStack) top() *TrialContext {
	if s.n == 0 {
		panic("modectrl: trial context stack is empty")
	}
	return s.frames[s.n-1]
}

func (s *contextStack) pop() {
	if s.n == 0 {
		panic("modectrl: pop of an empty trial context stack")
	}
	s.n--
	s.frames[s.n].best = nil
}
