// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package formula implements the boolean formula layer as a generic
// And/Or/Not/Atom tree over predicate.Predicate, normalized to a
// set-of-conjuncts (DNF) form. The core compiler consumes only the DNF
// output of this package.
//
// The set of node kinds is closed (And, Or, Not, Lit); do not extend it
// with new node types without also extending DNF below.
package formula

import "grimm.is/camus/internal/predicate"

// Formula is a boolean combination of atomic predicates.
type Formula interface {
	isFormula()
}

// And is the conjunction of its terms.
type And struct{ Terms []Formula }

// Or is the disjunction of its terms.
type Or struct{ Terms []Formula }

// Not negates its operand.
type Not struct{ X Formula }

// Lit is a single atomic predicate.
type Lit struct{ P predicate.Predicate }

func (And) isFormula() {}
func (Or) isFormula()  {}
func (Not) isFormula() {}
func (Lit) isFormula() {}

// Literal is one signed atom in a DNF conjunct: P if !Negated, ¬P if
// Negated.
type Literal struct {
	P       predicate.Predicate
	Negated bool
}

// DNF normalizes f to disjunctive normal form: a list of conjuncts, each
// a list of signed literals. Every accepting assignment of f corresponds
// to at least one conjunct in the result (conjuncts are not required to
// be mutually exclusive; the rule compiler threads each conjunct as its
// own path and does not prune overlapping conjuncts against each other).
func DNF(f Formula) [][]Literal {
	return dnf(f, false)
}

// dnf recursively pushes negation to the leaves (De Morgan) and
// distributes Or over And to produce a flat list of conjuncts.
func dnf(f Formula, negate bool) [][]Literal {
	switch n := f.(type) {
	case Lit:
		return [][]Literal{{{P: n.P, Negated: negate}}}
	case Not:
		return dnf(n.X, !negate)
	case And:
		if negate {
			// ¬(a ∧ b ∧ ...) = ¬a ∨ ¬b ∨ ... : each term is negated and
			// the results accumulate as alternatives, not cross-joined.
			var conjuncts [][]Literal
			for _, term := range n.Terms {
				conjuncts = append(conjuncts, dnf(term, true)...)
			}
			return conjuncts
		}
		conjuncts := [][]Literal{{}}
		for _, term := range n.Terms {
			termConjuncts := dnf(term, false)
			conjuncts = crossJoin(conjuncts, termConjuncts)
		}
		return conjuncts
	case Or:
		if negate {
			// ¬(a ∨ b ∨ ...) = ¬a ∧ ¬b ∧ ... : each term is negated and
			// the results cross-join into a single set of conjuncts.
			conjuncts := [][]Literal{{}}
			for _, term := range n.Terms {
				conjuncts = crossJoin(conjuncts, dnf(term, true))
			}
			return conjuncts
		}
		var conjuncts [][]Literal
		for _, term := range n.Terms {
			conjuncts = append(conjuncts, dnf(term, false)...)
		}
		return conjuncts
	default:
		return nil
	}
}

// crossJoin computes the cartesian product of two conjunct lists,
// concatenating literal lists pairwise.
func crossJoin(a, b [][]Literal) [][]Literal {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([][]Literal, 0, len(a)*len(b))
	for _, ca := range a {
		for _, cb := range b {
			merged := make([]Literal, 0, len(ca)+len(cb))
			merged = append(merged, ca...)
			merged = append(merged, cb...)
			out = append(out, merged)
		}
	}
	return out
}
