// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ast

import (
	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/field"
	"grimm.is/camus/internal/formula"
	"grimm.is/camus/internal/predicate"
	"grimm.is/camus/internal/rule"
)

// FieldCatalog supplies the priority and width a real deployment assigns
// to each header field. The grammar's own LHS semantics only specify
// QueryField(header, field, 0, 0) — a field catalog is the external
// collaborator (like the lexer/parser) that gives those zero defaults
// real pipeline-ordering and value-encoding meaning. A nil catalog, or a
// field absent from one, falls back to the literal (priority=0, width=0)
// the grammar section describes.
type FieldCatalog struct {
	entries map[string]fieldEntry
}

type fieldEntry struct {
	priority int
	width    int
}

// NewFieldCatalog returns an empty catalog.
func NewFieldCatalog() *FieldCatalog {
	return &FieldCatalog{entries: make(map[string]fieldEntry)}
}

// Register assigns a priority and bit width to header.name.
func (fc *FieldCatalog) Register(header, name string, priority, width int) {
	fc.entries[header+"."+name] = fieldEntry{priority: priority, width: width}
}

func (fc *FieldCatalog) lookup(header, name string) (int, int) {
	if fc == nil {
		return 0, 0
	}
	e, ok := fc.entries[header+"."+name]
	if !ok {
		return 0, 0
	}
	return e.priority, e.width
}

// Compile translates a RuleList into a rule.RuleSet, applying the LHS and
// action-call semantics of the surface grammar. It does not run the
// rule-to-pipeline compiler; that is internal/pipeline's job.
func Compile(rl *RuleList, catalog *FieldCatalog) (rule.RuleSet, error) {
	rs := rule.RuleSet{}
	for i, r := range rl.Rules {
		f, err := compileExpr(r.Query, catalog)
		if err != nil {
			return rule.RuleSet{}, camuserr.Wrapf(err, camuserr.GetKind(err), "rule %d", i)
		}
		actions, err := compileActions(r.Actions)
		if err != nil {
			return rule.RuleSet{}, camuserr.Wrapf(err, camuserr.GetKind(err), "rule %d", i)
		}
		rs.Rules = append(rs.Rules, rule.Rule{Formula: f, Actions: actions})
	}
	return rs, nil
}

func compileExpr(e Expr, catalog *FieldCatalog) (formula.Formula, error) {
	switch n := e.(type) {
	case OrOp:
		terms := make([]formula.Formula, 0, len(n.Terms))
		for _, t := range n.Terms {
			tf, err := compileExpr(t, catalog)
			if err != nil {
				return nil, err
			}
			terms = append(terms, tf)
		}
		return formula.Or{Terms: terms}, nil
	case AndOp:
		terms := make([]formula.Formula, 0, len(n.Terms))
		for _, t := range n.Terms {
			tf, err := compileExpr(t, catalog)
			if err != nil {
				return nil, err
			}
			terms = append(terms, tf)
		}
		return formula.And{Terms: terms}, nil
	case RelExpr:
		f, err := resolveLHS(n.LHS, catalog)
		if err != nil {
			return nil, err
		}
		p, err := buildPredicate(f, n.Op, n.Const, n.MaskLen)
		if err != nil {
			return nil, err
		}
		lit := formula.Formula(formula.Lit{P: p})
		if n.Negate {
			lit = formula.Not{X: lit}
		}
		return lit, nil
	default:
		return nil, camuserr.New(camuserr.KindInvariant, "unknown expr node")
	}
}

func resolveLHS(l LHS, catalog *FieldCatalog) (field.Field, error) {
	switch n := l.(type) {
	case FieldRef:
		header := n.Header
		if header == "" {
			header = "default"
		}
		priority, width := catalog.lookup(header, n.Name)
		return field.New(header, n.Name, priority, width), nil
	case CallRef:
		if n.Func == "inc" {
			return field.Field{}, camuserr.New(camuserr.KindUnsupported, "Call(\"inc\", ...) is reserved and cannot be used as an LHS")
		}
		if len(n.Args) < 1 || n.Args[0].Kind != ConstString {
			return field.Field{}, camuserr.Errorf(camuserr.KindShape, "Call(%q, ...) as an LHS requires a field-name argument", n.Func)
		}
		fieldName := n.Args[0].Text
		priority, width := catalog.lookup("stful_meta", fieldName)
		return field.New("stful_meta", fieldName, priority, width), nil
	default:
		return field.Field{}, camuserr.New(camuserr.KindInvariant, "unknown LHS node")
	}
}

func buildPredicate(f field.Field, op RelOp, c, maskLen ConstLit) (predicate.Predicate, error) {
	val, err := c.ToQueryConst()
	if err != nil {
		return predicate.Predicate{}, err
	}
	switch op {
	case OpEq:
		return predicate.Eq(f, val), nil
	case OpLt:
		return predicate.Lt(f, val)
	case OpGt:
		return predicate.Gt(f, val)
	case OpLpm:
		plen, err := maskLen.ToQueryConst()
		if err != nil {
			return predicate.Predicate{}, err
		}
		return predicate.Lpm(f, val, plen)
	default:
		return predicate.Predicate{}, camuserr.New(camuserr.KindInvariant, "unknown relational operator")
	}
}

func compileActions(calls []Call) ([]rule.Action, error) {
	actions := make([]rule.Action, 0, len(calls))
	for _, c := range calls {
		if c.Name == "fwd" {
			if len(c.Args) != 1 || c.Args[0].Kind != ConstNumber {
				return nil, camuserr.New(camuserr.KindShape, "fwd(...) requires a single numeric-literal argument")
			}
			actions = append(actions, rule.ForwardPort(int(c.Args[0].Num)))
			continue
		}
		args := make([]int64, 0, len(c.Args))
		for _, a := range c.Args {
			if a.Kind != ConstNumber {
				return nil, camuserr.Errorf(camuserr.KindShape, "%s(...) requires all-numeric-literal arguments", c.Name)
			}
			args = append(args, a.Num)
		}
		actions = append(actions, rule.UserAction(c.Name, args))
	}
	return actions, nil
}
