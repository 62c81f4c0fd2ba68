// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package predicate implements the atomic predicate algebra: Eq/Lt/Gt/Lpm
// comparisons over a single field, their ordering,
// disjointness/subset/independence relations, and the per-field
// ConstraintSet used to prune redundant atoms during compilation.
//
// The reasoning here is structural, not SMT-level: disjoint/subset return
// a conservative "false" (never asserting satisfiability or containment)
// whenever the source pair isn't covered by the contracts below.
package predicate

import (
	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/field"
	"grimm.is/camus/internal/queryconst"
)

// Kind discriminates the four atomic predicate shapes. The set is closed
// by design; completeness of compilation depends on exhaustive handling
// of all four.
type Kind int

const (
	KindEq Kind = iota
	KindLt
	KindGt
	KindLpm
)

func (k Kind) String() string {
	switch k {
	case KindEq:
		return "eq"
	case KindLt:
		return "lt"
	case KindGt:
		return "gt"
	case KindLpm:
		return "lpm"
	default:
		return "unknown"
	}
}

// Predicate is one atomic comparison: Eq(F,C), Lt(F,C), Gt(F,C), or
// Lpm(F, addr, prefixLen).
type Predicate struct {
	kind  Kind
	field field.Field
	c     queryconst.Const // Eq/Lt/Gt constant, or Lpm address
	plen  queryconst.Const // Lpm prefix length (Number); zero value unused otherwise
}

// Eq builds an equality predicate. Eq may carry any QueryConst variant.
func Eq(f field.Field, c queryconst.Const) Predicate {
	return Predicate{kind: KindEq, field: f, c: c}
}

// Lt builds a less-than predicate. Lt applies only to Number constants.
func Lt(f field.Field, c queryconst.Const) (Predicate, error) {
	if c.Kind() != queryconst.KindNumber {
		return Predicate{}, camuserr.Errorf(camuserr.KindShape, "Lt(%s) requires a Number constant, got %s", f.QualifiedName(), c.Kind())
	}
	return Predicate{kind: KindLt, field: f, c: c}, nil
}

// Gt builds a greater-than predicate. Gt applies only to Number constants.
func Gt(f field.Field, c queryconst.Const) (Predicate, error) {
	if c.Kind() != queryconst.KindNumber {
		return Predicate{}, camuserr.Errorf(camuserr.KindShape, "Gt(%s) requires a Number constant, got %s", f.QualifiedName(), c.Kind())
	}
	return Predicate{kind: KindGt, field: f, c: c}, nil
}

// Lpm builds a longest-prefix-match predicate. Lpm applies only to IPv4
// or IPv6 addresses with a Number prefix length.
func Lpm(f field.Field, addr, prefixLen queryconst.Const) (Predicate, error) {
	if addr.Kind() != queryconst.KindIPv4 && addr.Kind() != queryconst.KindIPv6 {
		return Predicate{}, camuserr.Errorf(camuserr.KindUnsupported, "Lpm(%s) requires an IPv4/IPv6 address, got %s", f.QualifiedName(), addr.Kind())
	}
	if prefixLen.Kind() != queryconst.KindNumber {
		return Predicate{}, camuserr.Errorf(camuserr.KindShape, "Lpm(%s) requires a Number prefix length, got %s", f.QualifiedName(), prefixLen.Kind())
	}
	return Predicate{kind: KindLpm, field: f, c: addr, plen: prefixLen}, nil
}

// Kind returns the predicate's shape.
func (p Predicate) Kind() Kind { return p.kind }

// Field returns the field referenced by p.
func (p Predicate) Field() field.Field { return p.field }

// Const returns the Eq/Lt/Gt constant, or the Lpm address.
func (p Predicate) Const() queryconst.Const { return p.c }

// PrefixLen returns the Lpm prefix length. It is only meaningful when
// Kind() == KindLpm.
func (p Predicate) PrefixLen() queryconst.Const { return p.plen }

// Independent reports whether p and q reference different fields.
func Independent(p, q Predicate) bool {
	return !p.field.Equal(q.field)
}

// Disjoint reports whether p ∧ q is structurally unsatisfiable. False
// never asserts satisfiability: pairs this contract doesn't cover return
// false conservatively.
func Disjoint(p, q Predicate) bool {
	if Independent(p, q) {
		return false
	}
	// Normalize so the smaller Kind value is p, to halve the case count.
	if p.kind > q.kind {
		p, q = q, p
	}
	switch {
	case p.kind == KindEq && q.kind == KindEq:
		return !queryconst.Equal(p.c, q.c)
	case p.kind == KindEq && q.kind == KindGt:
		// Eq(=y) ∧ Gt(>x) when y ≤ x
		return compareNum(p.c, q.c) <= 0
	case p.kind == KindEq && q.kind == KindLt:
		// Eq(=y) ∧ Lt(<x) when y ≥ x
		return compareNum(p.c, q.c) >= 0
	case p.kind == KindLt && q.kind == KindGt:
		// Lt(<x) ∧ Gt(>y) when x ≤ y+1
		x, err1 := p.c.ToInt()
		y, err2 := q.c.ToInt()
		if err1 != nil || err2 != nil {
			return false
		}
		return x <= y+1
	case p.kind == KindLpm && q.kind == KindLpm:
		return !sameLpmBase(p, q)
	default:
		return false
	}
}

// Subset reports whether every assignment satisfying p also satisfies q.
// Conservative false elsewhere (IPv4/IPv6 prefix subset for Lpm is an
// open question; see DESIGN.md).
func Subset(p, q Predicate) bool {
	if Independent(p, q) {
		return false
	}
	switch {
	case p.kind == KindGt && q.kind == KindGt:
		// Gt(>x) ⊆ Gt(>y) when x ≥ y
		return compareNum(p.c, q.c) >= 0
	case p.kind == KindLt && q.kind == KindLt:
		// Lt(<x) ⊆ Lt(<y) when x ≤ y
		return compareNum(p.c, q.c) <= 0
	case p.kind == KindEq && q.kind == KindGt:
		// Eq(=x) ⊆ Gt(>y) when x > y
		return compareNum(p.c, q.c) > 0
	case p.kind == KindEq && q.kind == KindLt:
		// Eq(=x) ⊆ Lt(<y) when x < y
		return compareNum(p.c, q.c) < 0
	default:
		return false
	}
}

// Eval reports whether assignment a satisfies p. It errors if a has no
// binding for Field(p) or the bound value's type disagrees with p's
// operator.
func Eval(a Assignment, p Predicate) (bool, error) {
	v, ok := a[p.field]
	if !ok {
		return false, camuserr.Errorf(camuserr.KindMissingAssignment, "no assignment for field %s", p.field.QualifiedName())
	}
	switch p.kind {
	case KindEq:
		return queryconst.Equal(v, p.c), nil
	case KindLt:
		if v.Kind() != queryconst.KindNumber {
			return false, camuserr.Errorf(camuserr.KindShape, "Lt eval requires a Number assignment for %s", p.field.QualifiedName())
		}
		return compareNum(v, p.c) < 0, nil
	case KindGt:
		if v.Kind() != queryconst.KindNumber {
			return false, camuserr.Errorf(camuserr.KindShape, "Gt eval requires a Number assignment for %s", p.field.QualifiedName())
		}
		return compareNum(v, p.c) > 0, nil
	case KindLpm:
		return evalLpm(v, p)
	default:
		return false, camuserr.Errorf(camuserr.KindInvariant, "unknown predicate kind %v", p.kind)
	}
}

// Compare implements AtomicPredicate's total order used to canonicalize
// formula conjuncts.
//
// Different fields order by field.Compare (priority). Within the same
// field, Lt < Gt < Eq < Lpm: range constraints accumulate before equality
// narrows them, and Lpm (a distinct address family) sorts last; this
// ordering choice is recorded in DESIGN.md (open question 1). Within a
// kind, atoms order by their constant(s).
func Compare(p, q Predicate) int {
	if fc := field.Compare(p.field, q.field); fc != 0 {
		return fc
	}
	if pr, qr := kindRank(p.kind), kindRank(q.kind); pr != qr {
		return pr - qr
	}
	if p.kind == KindLpm {
		if c := queryconst.Compare(p.c, q.c); c != 0 {
			return c
		}
		return queryconst.Compare(p.plen, q.plen)
	}
	return queryconst.Compare(p.c, q.c)
}

// Negate attempts to express ¬p as a single atomic predicate on the same
// field. This succeeds for Lt and Gt, whose complements are representable
// as the other kind over an adjacent integer threshold: ¬Lt(f,c) is
// Gt(f,c-1) and ¬Gt(f,c) is Lt(f,c+1). Eq and Lpm have no single-atom
// complement in this algebra (the domain isn't known to be a contiguous
// integer range for Eq, and prefix-complement isn't representable as a
// single Lpm); callers get ok=false and must reject the construct
// (camuserr.KindUnsupported) rather than silently dropping the negation.
func Negate(p Predicate) (Predicate, bool) {
	switch p.kind {
	case KindLt:
		v, err := p.c.ToInt()
		if err != nil {
			return Predicate{}, false
		}
		np, err := Gt(p.field, queryconst.Number(v-1))
		if err != nil {
			return Predicate{}, false
		}
		return np, true
	case KindGt:
		v, err := p.c.ToInt()
		if err != nil {
			return Predicate{}, false
		}
		np, err := Lt(p.field, queryconst.Number(v+1))
		if err != nil {
			return Predicate{}, false
		}
		return np, true
	default:
		return Predicate{}, false
	}
}

func kindRank(k Kind) int {
	switch k {
	case KindLt:
		return 0
	case KindGt:
		return 1
	case KindEq:
		return 2
	case KindLpm:
		return 3
	default:
		return 4
	}
}

// compareNum compares two Number constants numerically; non-Number
// operands fall back to the shared total order, which never happens for
// well-formed Lt/Gt/Eq-against-Number predicates since construction
// already enforces Number-only for Lt/Gt.
func compareNum(a, b queryconst.Const) int {
	return queryconst.Compare(a, b)
}

func sameLpmBase(p, q Predicate) bool {
	return queryconst.Equal(p.c, q.c)
}

func evalLpm(v queryconst.Const, p Predicate) (bool, error) {
	plen, err := p.plen.ToInt()
	if err != nil {
		return false, err
	}
	switch p.c.Kind() {
	case queryconst.KindIPv4:
		if v.Kind() != queryconst.KindIPv4 {
			return false, camuserr.Errorf(camuserr.KindShape, "Lpm eval requires an IPv4 assignment for %s", p.field.QualifiedName())
		}
		if plen <= 0 {
			return true, nil
		}
		mask := uint32(0xFFFFFFFF) << uint(32-plen)
		return v.IPv4Value()&mask == p.c.IPv4Value()&mask, nil
	case queryconst.KindIPv6:
		if v.Kind() != queryconst.KindIPv6 {
			return false, camuserr.Errorf(camuserr.KindShape, "Lpm eval requires an IPv6 assignment for %s", p.field.QualifiedName())
		}
		vLimbs, pLimbs := v.IPv6Limbs(), p.c.IPv6Limbs()
		remaining := int(plen)
		for i := 0; i < 4 && remaining > 0; i++ {
			bits := remaining
			if bits > 32 {
				bits = 32
			}
			mask := uint32(0xFFFFFFFF)
			if bits < 32 {
				mask = uint32(0xFFFFFFFF) << uint(32-bits)
			}
			if vLimbs[i]&mask != pLimbs[i]&mask {
				return false, nil
			}
			remaining -= bits
		}
		return true, nil
	default:
		return false, camuserr.Errorf(camuserr.KindInvariant, "Lpm predicate carries non-address constant")
	}
}
