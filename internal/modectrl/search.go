package modectrl

import (
	"sync"
	"sync/atomic"

	"github.com/deepteams/vvc/internal/tq"
)

// Node identifies one node of the coding tree.
type Node struct {
	Area    Area
	QTDepth int
	MTDepth int
	QP      int
}

// BlockInfoSource gives evaluators access to committed block info.
type BlockInfoSource interface {
	BlockInfo(a Area) (BlockInfo, bool)
}

// Evaluator codes areas for the search. Implementations hold the
// reconstruction that later trials predict from.
type Evaluator interface {
	// Evaluate codes n.Area with the terminal mode m, including the cost
	// of signalling that n is not split. It returns nil when m cannot
	// code the area.
	Evaluate(n Node, m TestMode, info BlockInfoSource) *CodingStructure
	// SplitBits returns the rate of signalling split s at n, in 1/256 bit.
	SplitBits(n Node, s SplitKind) uint64
	// Commit makes the reconstruction of cs visible to later trials.
	Commit(cs *CodingStructure)
	// Fork returns an independent copy for a speculative trial.
	Fork() Evaluator
	// Lambda returns the Lagrange multiplier in 1/256 units.
	Lambda() int64
}

// SearchStats counts the work of a search.
type SearchStats struct {
	Nodes     int64
	Evaluated int64
	Pruned    int64 // split trials abandoned once over budget
	Forks     int64
}

// Search runs the depth-first coding-tree search on an explicit stack.
// The two binary splits of a node are always tried on forked state and
// joined in order, on two goroutines when the configuration asks for it,
// so both modes choose the same tree.
type Search struct {
	ctrl     *Controller
	parallel bool

	nodes, evaluated, pruned, forks atomic.Int64
}

// NewSearch returns a search driven by ctrl.
func NewSearch(ctrl *Controller) *Search {
	return &Search{ctrl: ctrl, parallel: ctrl.cfg.ParallelSplit}
}

// Stats returns the counters accumulated so far.
func (s *Search) Stats() SearchStats {
	return SearchStats{
		Nodes:     s.nodes.Load(),
		Evaluated: s.evaluated.Load(),
		Pruned:    s.pruned.Load(),
		Forks:     s.forks.Load(),
	}
}

// Run searches node n, commits the winner into ev and returns it.
func (s *Search) Run(ev Evaluator, n Node) *CodingStructure {
	s.enter(s.ctrl, n)
	return s.run(s.ctrl, []*frame{{node: n, ev: ev}})
}

type frame struct {
	node   Node
	ev     Evaluator
	split  *splitTrial
	branch bool // runs one split trial without a trial context
}

type splitTrial struct {
	mode     TestMode
	children []Area
	next     int
	qtDepth  int
	mtDepth  int
	ev       Evaluator
	parts    []*CodingStructure
	dist     uint64
	bits     uint64
	bound    uint64
	pruned   bool
}

func newSplitTrial(n Node, m TestMode, ev Evaluator, bound uint64) *splitTrial {
	split := m.Kind().Split()
	qt, mt := ChildDepths(split, n.QTDepth, n.MTDepth)
	return &splitTrial{
		mode:     m,
		children: Partition(n.Area, split),
		qtDepth:  qt,
		mtDepth:  mt,
		ev:       ev,
		bits:     ev.SplitBits(n, split),
		bound:    bound,
	}
}

// nextChild returns the next visible child to search, or false when the
// trial is complete or over budget.
func (st *splitTrial) nextChild(cfg *Config, n Node) (Node, bool) {
	if st.next > 0 && tq.Cost(st.dist, st.bits, st.ev.Lambda()) >= st.bound {
		st.pruned = true
		return Node{}, false
	}
	for st.next < len(st.children) {
		a := st.children[st.next]
		st.next++
		if cfg.Visible(a) {
			return Node{Area: a, QTDepth: st.qtDepth, MTDepth: st.mtDepth, QP: n.QP}, true
		}
	}
	return Node{}, false
}

func (st *splitTrial) add(cs *CodingStructure) {
	st.parts = append(st.parts, cs)
	st.dist += cs.Dist
	st.bits += cs.FracBits
}

func (st *splitTrial) result(a Area) *CodingStructure {
	if st.pruned || len(st.parts) == 0 {
		return nil
	}
	cs := &CodingStructure{Area: a, Mode: st.mode, Parts: st.parts, Dist: st.dist, FracBits: st.bits}
	for _, p := range st.parts {
		cs.CUs = append(cs.CUs, p.CUs...)
	}
	cs.Cost = tq.Cost(cs.Dist, cs.FracBits, st.ev.Lambda())
	return cs
}

func (s *Search) enter(ctrl *Controller, n Node) {
	s.nodes.Add(1)
	ctrl.InitCULevel(n.Area, n.QTDepth, n.MTDepth, n.QP)
}

func (s *Search) run(ctrl *Controller, stack []*frame) *CodingStructure {
	var done *CodingStructure
	for len(stack) > 0 {
		f := stack[len(stack)-1]

		if st := f.split; st != nil {
			if child, ok := st.nextChild(ctrl.cfg, f.node); ok {
				s.enter(ctrl, child)
				stack = append(stack, &frame{node: child, ev: st.ev})
				continue
			}
			f.split = nil
			cs := st.result(f.node.Area)
			if st.pruned {
				s.pruned.Add(1)
			}
			if f.branch {
				stack = stack[:len(stack)-1]
				done = cs
				continue
			}
			ctrl.UseModeResult(st.mode, cs)
			continue
		}

		m, ok := ctrl.NextMode()
		if !ok {
			best := ctrl.FinishCULevel()
			f.ev.Commit(best)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				done = best
				continue
			}
			stack[len(stack)-1].split.add(best)
			continue
		}

		k := m.Kind()
		switch {
		case k == KindPostNoSplit:
		case k.Terminal():
			s.evaluated.Add(1)
			cs := f.ev.Evaluate(f.node, m, ctrl)
			if ctrl.UseModeResult(m, cs) && k == KindMergeSkip && cs.EarlySkip && ctrl.cfg.EarlySkip {
				ctrl.SetEarlySkipDetected()
			}
		case k == KindSplitBinaryH:
			if v, ok := ctrl.NextModeOfKind(KindSplitBinaryV); ok {
				s.forkPair(ctrl, f, [2]TestMode{m, v})
				break
			}
			fallthrough
		default:
			ctrl.BeginSplit(m)
			f.split = newSplitTrial(f.node, m, f.ev.Fork(), ctrl.Current().BestCost())
		}
	}
	return done
}

// forkPair tries the horizontal and the vertical binary split of f on
// separate controller and evaluator forks, then feeds both results to the
// controller in that order.
func (s *Search) forkPair(ctrl *Controller, f *frame, modes [2]TestMode) {
	s.forks.Add(1)
	ctrl.BeginSplit(modes[0])
	bound := ctrl.Current().BestCost()

	var (
		ctrls [2]*Controller
		evs   [2]Evaluator
		res   [2]*CodingStructure
	)
	for i := range modes {
		ctrls[i] = ctrl.Fork()
		evs[i] = f.ev.Fork()
	}
	branch := func(i int) {
		fr := &frame{node: f.node, ev: evs[i], branch: true}
		fr.split = newSplitTrial(f.node, modes[i], evs[i], bound)
		res[i] = s.run(ctrls[i], []*frame{fr})
	}

	if s.parallel {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			branch(1)
		}()
		branch(0)
		wg.Wait()
	} else {
		branch(0)
		branch(1)
	}

	for i, m := range modes {
		ctrl.Join(ctrls[i])
		ctrl.UseModeResult(m, res[i])
	}
}
