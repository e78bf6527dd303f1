package modectrl

import "fmt"

// Controller drives the mode decision of a coding tree. Each node of the
// tree pushes a TrialContext with InitCULevel, hands out candidates with
// NextMode, collects results with UseModeResult and commits with
// FinishCULevel. A Controller is used by one goroutine; Fork gives a
// parallel branch its own.
type Controller struct {
	cfg   *Config
	stack contextStack
	blk   *BlockInfoCache
	hints *SplitHintCache
	prior *SplitHintCache
}

// NewController validates cfg and returns a controller with empty caches.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		cfg:   &cfg,
		blk:   NewBlockInfoCache(),
		hints: NewSplitHintCache(),
	}, nil
}

// Config returns the tree configuration.
func (c *Controller) Config() *Config { return c.cfg }

// Depth returns the number of open trial contexts.
func (c *Controller) Depth() int { return c.stack.n }

// Current returns the innermost trial context. It panics when no level is
// open.
func (c *Controller) Current() *TrialContext { return c.stack.top() }

// BlockInfo returns the committed info of a, if any.
func (c *Controller) BlockInfo(a Area) (BlockInfo, bool) { return c.blk.Lookup(a) }

// Hints returns the split decisions committed so far.
func (c *Controller) Hints() *SplitHintCache { return c.hints }

// SetPriorHints installs the decisions of an earlier pass. They bias the
// search and are never written.
func (c *Controller) SetPriorHints(h *SplitHintCache) { c.prior = h }

func (c *Controller) splitHint(a Area) (SplitHint, bool) {
	if h, ok := c.hints.Lookup(a); ok {
		return h, true
	}
	if c.prior != nil {
		return c.prior.Lookup(a)
	}
	return SplitHint{}, false
}

// InitCULevel opens the trial context of node a and queues its
// candidates in trial order. It panics when the configuration leaves the
// node with neither a terminal mode nor a split.
func (c *Controller) InitCULevel(a Area, qtDepth, mtDepth, qp int) {
	tc := c.stack.push()
	tc.reset(a, qtDepth, mtDepth, qp)
	p := ModeParams{QP: qp}

	for _, k := range c.cfg.TerminalKinds(a) {
		tc.queue = append(tc.queue, NewMode(k, p))
	}
	terminals := len(tc.queue)
	for _, s := range c.cfg.AllowedSplits(a, qtDepth, mtDepth) {
		tc.queue = append(tc.queue, NewMode(s.Mode(), p))
	}
	if len(tc.queue) == 0 {
		c.stack.pop()
		panic(fmt.Sprintf("modectrl: no applicable mode for %v (qt %d, mt %d)", a, qtDepth, mtDepth))
	}
	if terminals > 0 {
		tc.queue = append(tc.queue, NewMode(KindPostNoSplit, p))
	}
}

// TryMode reports whether m should be tried at the current node. It has
// no side effects.
func (c *Controller) TryMode(m TestMode) bool {
	if m == nil {
		return false
	}
	tc := c.stack.top()
	if tc.Features.EarlySkip {
		return false
	}
	f := &tc.Features
	switch m.Kind() {
	case KindSplitTernaryH:
		if f.BestNoSplitCost != MaxCost && f.BestSplitCost[BinaryHSplit] != MaxCost &&
			f.BestSplitCost[BinaryHSplit] >= f.BestNoSplitCost {
			return false
		}
		return !c.hintPrunesTernary(tc)
	case KindSplitTernaryV:
		if f.BestNoSplitCost != MaxCost && f.BestSplitCost[BinaryVSplit] != MaxCost &&
			f.BestSplitCost[BinaryVSplit] >= f.BestNoSplitCost {
			return false
		}
		return !c.hintPrunesTernary(tc)
	}
	return true
}

func (c *Controller) hintPrunesTernary(tc *TrialContext) bool {
	if !c.cfg.UseSplitHints || tc.best == nil {
		return false
	}
	h, ok := c.splitHint(tc.Area)
	return ok && h.Split == NoSplit
}

// NextMode hands out the next applicable candidate of the current node.
// It returns false once the queue is drained.
func (c *Controller) NextMode() (TestMode, bool) {
	tc := c.stack.top()
	for tc.next < len(tc.queue) {
		m := tc.queue[tc.next]
		tc.next++
		if c.TryMode(m) {
			tc.lastMode = m
			tc.State = StateTrying
			return m, true
		}
	}
	return nil, false
}

// NextModeOfKind hands out the next applicable candidate only when it is
// of kind k; otherwise the queue is left untouched.
func (c *Controller) NextModeOfKind(k Kind) (TestMode, bool) {
	tc := c.stack.top()
	for i := tc.next; i < len(tc.queue); i++ {
		m := tc.queue[i]
		if !c.TryMode(m) {
			continue
		}
		if m.Kind() != k {
			return nil, false
		}
		tc.next = i + 1
		tc.lastMode = m
		tc.State = StateTrying
		return m, true
	}
	return nil, false
}

// BeginSplit marks the current node as recursing into the children of m.
func (c *Controller) BeginSplit(m TestMode) {
	tc := c.stack.top()
	tc.lastMode = m
	tc.State = StateSplitRecurse
}

// UseModeResult compares the result of m with the best so far and keeps
// it when strictly cheaper, so ties stay with the earlier mode. It
// reports whether cs became the best.
func (c *Controller) UseModeResult(m TestMode, cs *CodingStructure) bool {
	tc := c.stack.top()
	tc.State = StateEvaluated
	if cs == nil {
		return false
	}
	f := &tc.Features
	k := m.Kind()
	switch {
	case k.Terminal():
		f.BestNoSplitCost = min(f.BestNoSplitCost, cs.Cost)
		if k == KindMergeSkip || k == KindInterME {
			f.BestInterCost = min(f.BestInterCost, cs.Cost)
			if cs.HadCost > 0 {
				f.BestInterHadCost = min(f.BestInterHadCost, cs.HadCost)
			}
		}
	case k.Split() != NoSplit:
		f.BestSplitCost[k.Split()] = min(f.BestSplitCost[k.Split()], cs.Cost)
	}
	if cs.Cost < tc.BestCost() {
		tc.best = cs
		tc.bestMode = m
		return true
	}
	return false
}

// SetEarlySkipDetected drops the remaining candidates of the current node.
func (c *Controller) SetEarlySkipDetected() {
	tc := c.stack.top()
	tc.Features.EarlySkip = true
	tc.next = len(tc.queue)
}

// FinishCULevel commits the best structure of the current node, records
// it in the caches and closes the level. It panics when no mode produced
// a result or when candidates are still pending without an early skip.
func (c *Controller) FinishCULevel() *CodingStructure {
	tc := c.stack.top()
	if tc.best == nil {
		panic(fmt.Sprintf("modectrl: no mode produced a result for %v", tc.Area))
	}
	if tc.next < len(tc.queue) && !tc.Features.EarlySkip {
		panic(fmt.Sprintf("modectrl: %d candidates pending at %v", len(tc.queue)-tc.next, tc.Area))
	}
	best, mode := tc.best, tc.bestMode
	c.hints.Store(tc.Area, SplitHint{Split: mode.Kind().Split(), QP: tc.QP})
	if IsTerminal(mode) {
		cu := best.CUs[0]
		k := mode.Kind()
		c.blk.Store(tc.Area, BlockInfo{
			Mode:    k,
			Cost:    best.Cost,
			MV:      cu.MV,
			MVValid: k == KindMergeSkip || k == KindInterME,
		})
	}
	tc.State = StateCommitted
	c.stack.pop()
	return best
}

// Fork returns a controller for a parallel branch. It shares the
// configuration and sees the caches of c; its own writes stay private
// until Join. c must not commit while forks are alive.
func (c *Controller) Fork() *Controller {
	return &Controller{
		cfg:   c.cfg,
		blk:   c.blk.fork(),
		hints: c.hints.fork(),
		prior: c.prior,
	}
}

// Join folds the cache writes of a finished fork into c.
func (c *Controller) Join(f *Controller) {
	if f.stack.n != 0 {
		panic("modectrl: join of a fork with open levels")
	}
	c.blk.merge(f.blk)
	c.hints.merge(f.hints)
}
