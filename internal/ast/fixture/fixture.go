// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package fixture loads YAML rule-set fixtures used by the package
// tests: a lightweight stand-in for the (out-of-scope) surface-grammar
// parser, letting tests build an ast.RuleList from a readable source
// format instead of constructing the tree by hand.
package fixture

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"grimm.is/camus/internal/ast"
	"grimm.is/camus/internal/camuserr"
)

// File is the top-level YAML shape: a list of rules, each a single
// "field op const" relational term ANDed together, plus an action list.
// It intentionally only covers the flat conjunction subset of the
// grammar, with optional negation of individual terms; tests needing Or,
// or negation of a compound term, build the AST directly.
type File struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one YAML rule entry.
type RuleSpec struct {
	Terms   []TermSpec   `yaml:"terms"`
	Actions []ActionSpec `yaml:"actions"`
}

// TermSpec is one relational term: "<header>.<field> <op> <value>[/<mask_len>]".
type TermSpec struct {
	Header  string `yaml:"header"`
	Field   string `yaml:"field"`
	Op      string `yaml:"op"` // "lt", "gt", "eq", "lpm"
	Negate  bool   `yaml:"negate"`
	Value   string `yaml:"value"`
	Kind    string `yaml:"kind"` // "number", "ipv4", "ipv6", "mac", "string"
	MaskLen int64  `yaml:"mask_len"`
}

// ActionSpec is one action call: "fwd" with a port, or a named call with
// integer arguments.
type ActionSpec struct {
	Name string  `yaml:"name"`
	Port int64   `yaml:"port"`
	Args []int64 `yaml:"args"`
}

// Load reads and parses a YAML fixture file into a RuleList.
func Load(path string) (*ast.RuleList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, camuserr.Wrapf(err, camuserr.KindParse, "failed to read fixture %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a RuleList.
func Parse(data []byte) (*ast.RuleList, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, camuserr.Wrapf(err, camuserr.KindParse, "invalid fixture YAML")
	}
	rl := &ast.RuleList{}
	for _, rs := range f.Rules {
		r, err := buildRule(rs)
		if err != nil {
			return nil, err
		}
		rl.Rules = append(rl.Rules, r)
	}
	return rl, nil
}

func buildRule(rs RuleSpec) (ast.Rule, error) {
	var terms []ast.Expr
	for _, ts := range rs.Terms {
		t, err := buildTerm(ts)
		if err != nil {
			return ast.Rule{}, err
		}
		terms = append(terms, t)
	}

	var query ast.Expr
	switch len(terms) {
	case 0:
		return ast.Rule{}, camuserr.New(camuserr.KindShape, "fixture rule has no terms")
	case 1:
		query = terms[0]
	default:
		query = ast.AndOp{Terms: terms}
	}

	var actions []ast.Call
	for _, as := range rs.Actions {
		actions = append(actions, buildAction(as))
	}

	return ast.Rule{Query: query, Actions: actions}, nil
}

func buildTerm(ts TermSpec) (ast.Expr, error) {
	lit, err := buildConst(ts.Kind, ts.Value)
	if err != nil {
		return nil, err
	}
	op, err := buildOp(ts.Op)
	if err != nil {
		return nil, err
	}
	re := ast.RelExpr{
		Negate: ts.Negate,
		LHS:    ast.FieldRef{Header: ts.Header, Name: ts.Field},
		Op:     op,
		Const:  lit,
	}
	if op == ast.OpLpm {
		re.MaskLen = ast.NumberLit(ts.MaskLen)
	}
	return re, nil
}

func buildOp(op string) (ast.RelOp, error) {
	switch op {
	case "lt":
		return ast.OpLt, nil
	case "gt":
		return ast.OpGt, nil
	case "eq":
		return ast.OpEq, nil
	case "lpm":
		return ast.OpLpm, nil
	default:
		return 0, camuserr.Errorf(camuserr.KindShape, "unknown fixture operator %q", op)
	}
}

func buildConst(kind, value string) (ast.ConstLit, error) {
	switch kind {
	case "", "number":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return ast.ConstLit{}, camuserr.Errorf(camuserr.KindShape, "invalid numeric fixture literal %q", value)
		}
		return ast.NumberLit(n), nil
	case "ipv4":
		return ast.IPv4Lit(value), nil
	case "ipv6":
		return ast.IPv6Lit(value), nil
	case "mac":
		return ast.MACLit(value), nil
	case "string":
		return ast.StringLit(value), nil
	default:
		return ast.ConstLit{}, camuserr.Errorf(camuserr.KindShape, "unknown fixture literal kind %q", kind)
	}
}

func buildAction(as ActionSpec) ast.Call {
	if as.Name == "fwd" {
		return ast.Call{Name: "fwd", Args: []ast.ConstLit{ast.NumberLit(as.Port)}}
	}
	args := make([]ast.ConstLit, 0, len(as.Args))
	for _, a := range as.Args {
		args = append(args, ast.NumberLit(a))
	}
	return ast.Call{Name: as.Name, Args: args}
}
