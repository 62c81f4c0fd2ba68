// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package predicate

import (
	"grimm.is/camus/internal/field"
	"grimm.is/camus/internal/queryconst"
)

// Assignment maps fields to concrete values, used to evaluate a predicate
// against a hypothetical packet.
type Assignment map[field.Field]queryconst.Const

// ConstRange is a half-open pair of optional constant endpoints tracked
// per field during compilation.
type ConstRange struct {
	lo, hi *queryconst.Const
}

// SetEq narrows the range to the single point x.
func (r ConstRange) SetEq(x queryconst.Const) ConstRange {
	lo, hi := x, x
	return ConstRange{lo: &lo, hi: &hi}
}

// SetLt narrows the range's upper bound to x-1, keeping the existing
// lower bound.
func (r ConstRange) SetLt(x queryconst.Const) ConstRange {
	v, err := x.ToInt()
	if err != nil {
		return r
	}
	hi := queryconst.Number(v - 1)
	return ConstRange{lo: r.lo, hi: &hi}
}

// SetGt narrows the range's lower bound to x+1, keeping the existing
// upper bound.
func (r ConstRange) SetGt(x queryconst.Const) ConstRange {
	v, err := x.ToInt()
	if err != nil {
		return r
	}
	lo := queryconst.Number(v + 1)
	return ConstRange{lo: &lo, hi: r.hi}
}

// Lo returns the lower bound, if any.
func (r ConstRange) Lo() (queryconst.Const, bool) {
	if r.lo == nil {
		return queryconst.Const{}, false
	}
	return *r.lo, true
}

// Hi returns the upper bound, if any.
func (r ConstRange) Hi() (queryconst.Const, bool) {
	if r.hi == nil {
		return queryconst.Const{}, false
	}
	return *r.hi, true
}

// ImpliesTrueEq reports whether the range has collapsed to exactly x.
func (r ConstRange) ImpliesTrueEq(x queryconst.Const) bool {
	if r.lo == nil || r.hi == nil {
		return false
	}
	return queryconst.Equal(*r.lo, x) && queryconst.Equal(*r.hi, x)
}

// ImpliesTrueLt reports whether the range's upper bound is already below x.
func (r ConstRange) ImpliesTrueLt(x queryconst.Const) bool {
	if r.hi == nil {
		return false
	}
	hv, err1 := r.hi.ToInt()
	xv, err2 := x.ToInt()
	return err1 == nil && err2 == nil && hv < xv
}

// ImpliesTrueGt reports whether the range's lower bound is already above x.
func (r ConstRange) ImpliesTrueGt(x queryconst.Const) bool {
	if r.lo == nil {
		return false
	}
	lv, err1 := r.lo.ToInt()
	xv, err2 := x.ToInt()
	return err1 == nil && err2 == nil && lv > xv
}

// ConstraintSet is a field-keyed map of ConstRange, recording the
// constraints accumulated along one compilation path.
type ConstraintSet struct {
	ranges map[field.Field]ConstRange
	eq     map[field.Field]queryconst.Const
	hasEq  map[field.Field]bool
}

// NewConstraintSet returns an empty constraint set.
func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{
		ranges: make(map[field.Field]ConstRange),
		eq:     make(map[field.Field]queryconst.Const),
		hasEq:  make(map[field.Field]bool),
	}
}

// Clone returns an independent copy, used when a compilation path
// branches into multiple continuations that must not share mutable state.
func (cs *ConstraintSet) Clone() *ConstraintSet {
	out := NewConstraintSet()
	for f, r := range cs.ranges {
		out.ranges[f] = r
	}
	for f, c := range cs.eq {
		out.eq[f] = c
	}
	for f, v := range cs.hasEq {
		out.hasEq[f] = v
	}
	return out
}

// Range returns the accumulated range for f, if any.
func (cs *ConstraintSet) Range(f field.Field) (ConstRange, bool) {
	r, ok := cs.ranges[f]
	return r, ok
}

// Eq returns the accumulated Eq constant for f, if any.
func (cs *ConstraintSet) Eq(f field.Field) (queryconst.Const, bool) {
	if !cs.hasEq[f] {
		return queryconst.Const{}, false
	}
	return cs.eq[f], true
}

// AddConstraint folds p into the range for Field(p). Lpm atoms
// contribute nothing to the constraint set (documented limitation; see
// DESIGN.md, open question 2).
func (cs *ConstraintSet) AddConstraint(p Predicate) {
	f := p.Field()
	switch p.Kind() {
	case KindEq:
		cs.eq[f] = p.Const()
		cs.hasEq[f] = true
		cs.ranges[f] = cs.ranges[f].SetEq(p.Const())
	case KindLt:
		cs.ranges[f] = cs.ranges[f].SetLt(p.Const())
	case KindGt:
		cs.ranges[f] = cs.ranges[f].SetGt(p.Const())
	case KindLpm:
		// no-op by design
	}
}

// ImpliesTrue reports whether p is already implied by the constraints
// accumulated so far on Field(p).
func (cs *ConstraintSet) ImpliesTrue(p Predicate) bool {
	r, ok := cs.ranges[p.Field()]
	if !ok {
		return false
	}
	switch p.Kind() {
	case KindEq:
		return r.ImpliesTrueEq(p.Const())
	case KindLt:
		return r.ImpliesTrueLt(p.Const())
	case KindGt:
		return r.ImpliesTrueGt(p.Const())
	default:
		return false
	}
}

// ImpliesFalse is reserved but not defined in this revision; signalling
// "unknown" is acceptable provided it stays conservative. This
// implementation always returns false (never asserts contradiction);
// callers needing contradiction detection use Disjoint directly against
// the atoms already seen on the same field instead.
func (cs *ConstraintSet) ImpliesFalse(p Predicate) bool {
	return false
}
