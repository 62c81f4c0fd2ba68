// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package pipeline

import (
	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/compilestats"
	"grimm.is/camus/internal/field"
	"grimm.is/camus/internal/formula"
	"grimm.is/camus/internal/predicate"
	"grimm.is/camus/internal/queryconst"
	"grimm.is/camus/internal/rule"
)

// Options configures one compilation run.
type Options struct {
	// PriorityStart is the initial value of the monotonically decreasing
	// ternary-priority counter. Earlier-emitted ternary entries get
	// higher priority, preserving "earlier rules win".
	PriorityStart int64
	// Stats, if non-nil, receives per-run compiler counters.
	Stats *compilestats.Metrics
}

// Compiler transforms a rule.RuleSet into an AbstractPipeline. It is
// single-use: construct one per compilation run.
type Compiler struct {
	opts            Options
	priorityCounter int64
	nextState       uint16

	tableOrder []field.Field
	tables     map[field.Field]*TransitionTable
	// index[f][stateIn] lists indices into tables[f].Transitions sharing
	// that StateIn, so structurally identical branches reuse one state.
	index map[field.Field]map[uint16][]int

	terminal      *TerminalTable
	terminalIndex map[uint16]int
}

// NewCompiler returns a Compiler configured with opts.
func NewCompiler(opts Options) *Compiler {
	if opts.PriorityStart <= 0 {
		opts.PriorityStart = 65000
	}
	return &Compiler{
		opts:            opts,
		priorityCounter: opts.PriorityStart,
		tables:          make(map[field.Field]*TransitionTable),
		index:           make(map[field.Field]map[uint16][]int),
		terminal:        &TerminalTable{},
		terminalIndex:   make(map[uint16]int),
	}
}

// Compile walks rs's rules in order, normalizing each rule's formula to
// DNF and threading one state sequence per conjunct through a fixed,
// priority-ordered sequence of per-field tables.
func (c *Compiler) Compile(rs rule.RuleSet) (*AbstractPipeline, error) {
	c.layoutFields(rs)

	for ri, r := range rs.Rules {
		actions := r.Actions
		if len(actions) == 0 && rs.DefaultAction != nil {
			actions = rs.DefaultAction
		}
		conjuncts := formula.DNF(r.Formula)
		for _, conjunct := range conjuncts {
			state, ok, err := c.compileConjunct(conjunct)
			if err != nil {
				return nil, camuserr.Wrapf(err, camuserr.GetKind(err), "rule %d", ri)
			}
			if !ok {
				continue // structurally contradictory conjunct; pruned, not an error
			}
			c.recordTerminal(state, actions)
		}
	}

	if c.opts.Stats != nil {
		c.opts.Stats.ObserveCompile(len(rs.Rules), int(c.nextState)+1, c.terminalPriorityCount(), len(c.terminal.Entries))
	}

	return &AbstractPipeline{Tables: c.orderedTables(), Terminal: c.terminal}, nil
}

// layoutFields selects the field order: ascending field.Compare
// (priority), derived from every field any rule's formula references.
func (c *Compiler) layoutFields(rs rule.RuleSet) {
	seen := make(map[field.Field]bool)
	var order []field.Field
	for _, r := range rs.Rules {
		collectFields(r.Formula, seen, &order)
	}
	sortFields(order)
	for _, f := range order {
		c.tableOrder = append(c.tableOrder, f)
		c.tables[f] = &TransitionTable{Field: f}
		c.index[f] = make(map[uint16][]int)
	}
}

func collectFields(f formula.Formula, seen map[field.Field]bool, order *[]field.Field) {
	switch n := f.(type) {
	case formula.And:
		for _, t := range n.Terms {
			collectFields(t, seen, order)
		}
	case formula.Or:
		for _, t := range n.Terms {
			collectFields(t, seen, order)
		}
	case formula.Not:
		collectFields(n.X, seen, order)
	case formula.Lit:
		fld := n.P.Field()
		if !seen[fld] {
			seen[fld] = true
			*order = append(*order, fld)
		}
	}
}

func sortFields(fs []field.Field) {
	for i := 1; i < len(fs); i++ {
		for j := i; j > 0 && field.Compare(fs[j-1], fs[j]) > 0; j-- {
			fs[j-1], fs[j] = fs[j], fs[j-1]
		}
	}
}

// compileConjunct folds one DNF conjunct's literals into a match per
// field, pruning contradictory conjuncts, then threads a state sequence
// through the fixed table order. ok is false when the conjunct is
// structurally unsatisfiable.
func (c *Compiler) compileConjunct(conjunct []formula.Literal) (uint16, bool, error) {
	positives := make([]predicate.Predicate, 0, len(conjunct))
	for _, lit := range conjunct {
		p := lit.P
		if lit.Negated {
			np, ok := predicate.Negate(p)
			if !ok {
				return 0, false, camuserr.Errorf(camuserr.KindUnsupported,
					"cannot negate %s atom on %s structurally", p.Kind(), p.Field().QualifiedName())
			}
			p = np
		}
		positives = append(positives, p)
	}
	sortPredicates(positives)

	cs := predicate.NewConstraintSet()
	lpmByField := make(map[field.Field]predicate.Predicate)
	atomsByField := make(map[field.Field][]predicate.Predicate)

	for _, p := range positives {
		f := p.Field()
		for _, existing := range atomsByField[f] {
			if predicate.Disjoint(existing, p) {
				return 0, false, nil
			}
		}
		atomsByField[f] = append(atomsByField[f], p)
		if p.Kind() == predicate.KindLpm {
			if prior, ok := lpmByField[f]; ok && predicate.Disjoint(prior, p) {
				return 0, false, nil
			}
			lpmByField[f] = p
			continue
		}
		if cs.ImpliesTrue(p) {
			continue // already implied by an earlier atom on this field
		}
		cs.AddConstraint(p)
	}

	stateIn := uint16(0)
	for _, f := range c.tableOrder {
		m := deriveMatch(f, cs, lpmByField)
		stateOut, err := c.emitTransition(f, stateIn, m)
		if err != nil {
			return 0, false, err
		}
		stateIn = stateOut
	}
	return stateIn, true, nil
}

func sortPredicates(ps []predicate.Predicate) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && predicate.Compare(ps[j-1], ps[j]) > 0; j-- {
			ps[j-1], ps[j] = ps[j], ps[j-1]
		}
	}
}

// deriveMatch resolves the net match for field f after folding every
// atom the conjunct carries on f: an Lpm atom wins outright (Lpm atoms
// never interact with ConstraintSet); otherwise an Eq atom dominates any
// accumulated range (the range becomes implied-redundant);
// otherwise the accumulated range yields Lt, Gt, Range, or Wildcard.
func deriveMatch(f field.Field, cs *predicate.ConstraintSet, lpmByField map[field.Field]predicate.Predicate) Match {
	if lp, ok := lpmByField[f]; ok {
		return Match{Kind: MatchLpm, C: lp.Const(), C2: lp.PrefixLen()}
	}
	if eqC, ok := cs.Eq(f); ok {
		return Match{Kind: MatchEq, C: eqC}
	}
	r, ok := cs.Range(f)
	if !ok {
		return Match{Kind: MatchWildcard}
	}
	lo, hasLo := r.Lo()
	hi, hasHi := r.Hi()
	switch {
	case hasLo && hasHi:
		return Match{Kind: MatchRange, C: lo, C2: hi}
	case hasHi:
		v, _ := hi.ToInt()
		return Match{Kind: MatchLt, C: queryconst.Number(v + 1)}
	case hasLo:
		v, _ := lo.ToInt()
		return Match{Kind: MatchGt, C: queryconst.Number(v - 1)}
	default:
		return Match{Kind: MatchWildcard}
	}
}

// emitTransition reuses an existing transition out of stateIn whose match
// is identical to m, or allocates a fresh state and appends a new one.
// Ternary matches (Lt/Gt/Range) receive a unique, monotonically
// decreasing priority so earlier-emitted entries win ties on the target.
func (c *Compiler) emitTransition(f field.Field, stateIn uint16, m Match) (uint16, error) {
	t, ok := c.tables[f]
	if !ok {
		return 0, camuserr.Errorf(camuserr.KindInvariant, "no transition table laid out for field %s", f.QualifiedName())
	}
	for _, idx := range c.index[f][stateIn] {
		if Equal(t.Transitions[idx].Match, m) {
			return t.Transitions[idx].StateOut, nil
		}
	}
	c.nextState++
	stateOut := c.nextState

	var priority *int
	if m.Kind == MatchLt || m.Kind == MatchGt || m.Kind == MatchRange {
		p := int(c.priorityCounter)
		priority = &p
		c.priorityCounter--
	}

	t.Transitions = append(t.Transitions, Transition{StateIn: stateIn, StateOut: stateOut, Match: m, Priority: priority})
	c.index[f][stateIn] = append(c.index[f][stateIn], len(t.Transitions)-1)
	return stateOut, nil
}

// recordTerminal appends a new terminal entry for state, or merges
// actions into the existing entry when two conjuncts reach the same
// terminal state.
func (c *Compiler) recordTerminal(state uint16, actions []rule.Action) {
	if idx, ok := c.terminalIndex[state]; ok {
		c.terminal.Entries[idx].Actions = append(c.terminal.Entries[idx].Actions, actions...)
		return
	}
	c.terminalIndex[state] = len(c.terminal.Entries)
	c.terminal.Entries = append(c.terminal.Entries, TerminalEntry{State: state, Actions: append([]rule.Action(nil), actions...)})
}

func (c *Compiler) orderedTables() []*TransitionTable {
	out := make([]*TransitionTable, 0, len(c.tableOrder))
	for _, f := range c.tableOrder {
		out = append(out, c.tables[f])
	}
	return out
}

func (c *Compiler) terminalPriorityCount() int {
	n := 0
	for _, t := range c.tables {
		for _, tr := range t.Transitions {
			if tr.Priority != nil {
				n++
			}
		}
	}
	return n
}
