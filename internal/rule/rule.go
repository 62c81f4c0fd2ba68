// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package rule holds the Rule/Action/RuleSet types that sit between the
// formula layer and the pipeline compiler: a rule is a formula paired
// with the actions to take when it matches.
package rule

import "grimm.is/camus/internal/formula"

// ActionKind discriminates the two action shapes the grammar produces.
type ActionKind int

const (
	ActionForward ActionKind = iota
	ActionUser
)

// Action is either a forwarding decision or a user-defined action call.
type Action struct {
	Kind ActionKind
	Port int      // valid when Kind == ActionForward
	Name string   // valid when Kind == ActionUser
	Args []int64  // valid when Kind == ActionUser
}

// ForwardPort builds a forwarding action.
func ForwardPort(port int) Action {
	return Action{Kind: ActionForward, Port: port}
}

// UserAction builds a user-defined action call.
func UserAction(name string, args []int64) Action {
	return Action{Kind: ActionUser, Name: name, Args: args}
}

// AllForward reports whether every action in actions is a ForwardPort.
func AllForward(actions []Action) bool {
	for _, a := range actions {
		if a.Kind != ActionForward {
			return false
		}
	}
	return true
}

// Ports extracts the forwarding ports from an all-forwarding action list.
// Callers must check AllForward first.
func Ports(actions []Action) []int {
	ports := make([]int, 0, len(actions))
	for _, a := range actions {
		ports = append(ports, a.Port)
	}
	return ports
}

// Rule pairs a formula with the actions to execute on every accepting
// assignment.
type Rule struct {
	Formula formula.Formula
	Actions []Action
}

// RuleSet is the compiler's input: an ordered list of rules plus the
// default action applied when a rule's action list is empty.
type RuleSet struct {
	Rules []Rule
	// DefaultAction is applied, per-rule, when a Rule's Actions list is
	// empty. A nil slice (as opposed to an explicitly empty non-nil one)
	// means "no default configured"; the target lowering stage falls
	// back to a drop action in that case.
	DefaultAction []Action
}
