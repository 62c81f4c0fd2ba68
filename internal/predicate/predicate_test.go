// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package predicate

import (
	"testing"

	"grimm.is/camus/internal/field"
	"grimm.is/camus/internal/queryconst"
)

var dport = field.New("tcp", "dport", 1, 16)
var dst = field.New("ipv4", "dst", 0, 32)

func TestDisjointIndependentFieldsAlwaysFalse(t *testing.T) {
	a := Eq(dport, queryconst.Number(80))
	b := Eq(dst, queryconst.Number(1))
	if Disjoint(a, b) {
		t.Error("predicates on independent fields should never be reported disjoint")
	}
}

func TestDisjointEqEq(t *testing.T) {
	a := Eq(dport, queryconst.Number(80))
	b := Eq(dport, queryconst.Number(443))
	if !Disjoint(a, b) {
		t.Error("Eq(80) and Eq(443) on the same field should be disjoint")
	}
	if Disjoint(a, Eq(dport, queryconst.Number(80))) {
		t.Error("an atom should never be disjoint with an equal copy of itself")
	}
}

func TestDisjointLtGt(t *testing.T) {
	lt, err := Lt(dport, queryconst.Number(10))
	if err != nil {
		t.Fatalf("Lt: %v", err)
	}
	gtOverlap, err := Gt(dport, queryconst.Number(5))
	if err != nil {
		t.Fatalf("Gt: %v", err)
	}
	if Disjoint(lt, gtOverlap) {
		t.Error("Lt(<10) and Gt(>5) overlap on 6..9 and should not be disjoint")
	}

	gtNoOverlap, err := Gt(dport, queryconst.Number(20))
	if err != nil {
		t.Fatalf("Gt: %v", err)
	}
	if !Disjoint(lt, gtNoOverlap) {
		t.Error("Lt(<10) and Gt(>20) should be disjoint")
	}
}

func TestDisjointLpmRequiresSameBase(t *testing.T) {
	a, err := Lpm(dst, mustIPv4(t, "10.0.0.0"), queryconst.Number(24))
	if err != nil {
		t.Fatalf("Lpm: %v", err)
	}
	b, err := Lpm(dst, mustIPv4(t, "10.0.0.0"), queryconst.Number(24))
	if err != nil {
		t.Fatalf("Lpm: %v", err)
	}
	if Disjoint(a, b) {
		t.Error("identical Lpm predicates should not be disjoint")
	}

	c, err := Lpm(dst, mustIPv4(t, "192.168.0.0"), queryconst.Number(16))
	if err != nil {
		t.Fatalf("Lpm: %v", err)
	}
	if !Disjoint(a, c) {
		t.Error("Lpm predicates with different address/prefix pairs should be disjoint")
	}
}

func TestSubsetOfRanges(t *testing.T) {
	gtSmall, _ := Gt(dport, queryconst.Number(5))
	gtBig, _ := Gt(dport, queryconst.Number(10))
	if !Subset(gtBig, gtSmall) {
		t.Error("Gt(>10) should be a subset of Gt(>5)")
	}
	if Subset(gtSmall, gtBig) {
		t.Error("Gt(>5) should not be a subset of Gt(>10)")
	}
}

func TestNegateLtGt(t *testing.T) {
	lt, _ := Lt(dport, queryconst.Number(10))
	np, ok := Negate(lt)
	if !ok {
		t.Fatal("Negate(Lt) should succeed")
	}
	if np.Kind() != KindGt {
		t.Errorf("Negate(Lt(<10)) kind = %v, want Gt", np.Kind())
	}
	v, _ := np.Const().ToInt()
	if v != 9 {
		t.Errorf("Negate(Lt(<10)) threshold = %d, want 9", v)
	}
}

func TestNegateEqAndLpmUnsupported(t *testing.T) {
	eq := Eq(dport, queryconst.Number(80))
	if _, ok := Negate(eq); ok {
		t.Error("Negate(Eq) should report ok=false: Eq has no single-atom complement")
	}

	lpm, err := Lpm(dst, mustIPv4(t, "10.0.0.0"), queryconst.Number(24))
	if err != nil {
		t.Fatalf("Lpm: %v", err)
	}
	if _, ok := Negate(lpm); ok {
		t.Error("Negate(Lpm) should report ok=false")
	}
}

func TestCompareOrdersByFieldThenKind(t *testing.T) {
	lt, _ := Lt(dport, queryconst.Number(10))
	gt, _ := Gt(dport, queryconst.Number(5))
	eq := Eq(dport, queryconst.Number(7))
	lpm, _ := Lpm(dst, mustIPv4(t, "10.0.0.0"), queryconst.Number(24))

	if Compare(lt, gt) >= 0 {
		t.Error("Lt should sort before Gt on the same field")
	}
	if Compare(gt, eq) >= 0 {
		t.Error("Gt should sort before Eq on the same field")
	}
	if Compare(eq, lpm) <= 0 {
		t.Error("Eq on a later-priority field should sort after Lpm on an earlier one")
	}
}

func TestEvalRequiresAssignment(t *testing.T) {
	p := Eq(dport, queryconst.Number(80))
	if _, err := Eval(Assignment{}, p); err == nil {
		t.Error("Eval against an assignment with no binding for the field should error")
	}
	a := Assignment{dport: queryconst.Number(80)}
	ok, err := Eval(a, p)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !ok {
		t.Error("Eval(Eq(80)) against dport=80 should be true")
	}
}

func TestEvalLpmPrefixMatch(t *testing.T) {
	p, err := Lpm(dst, mustIPv4(t, "10.0.0.0"), queryconst.Number(24))
	if err != nil {
		t.Fatalf("Lpm: %v", err)
	}
	inside := Assignment{dst: mustIPv4(t, "10.0.0.42")}
	ok, err := Eval(inside, p)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !ok {
		t.Error("10.0.0.42 should match 10.0.0.0/24")
	}

	outside := Assignment{dst: mustIPv4(t, "10.0.1.42")}
	ok, err = Eval(outside, p)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if ok {
		t.Error("10.0.1.42 should not match 10.0.0.0/24")
	}
}

func mustIPv4(t *testing.T, s string) queryconst.Const {
	t.Helper()
	c, err := queryconst.IPv4FromString(s)
	if err != nil {
		t.Fatalf("IPv4FromString(%q): %v", s, err)
	}
	return c
}
