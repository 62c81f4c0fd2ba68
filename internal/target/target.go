// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package target implements the lowering stage: translating a
// target-independent pipeline.AbstractPipeline into a TargetPipeline
// of concrete, physical match tables (exact, range, LPM, miss, and the
// terminal actions table) plus the multicast-group assignment that
// materializes multi-port forwarding.
package target

import (
	"fmt"
	"sort"
	"strings"

	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/compilestats"
	"grimm.is/camus/internal/field"
	"grimm.is/camus/internal/pipeline"
	"grimm.is/camus/internal/rule"
)

// ActionKind discriminates the five concrete actions a physical entry
// can carry.
type ActionKind int

const (
	ActionSetNextState ActionKind = iota
	ActionSetEgressPort
	ActionSetMgid
	ActionCustom
	ActionDrop
)

func (k ActionKind) String() string {
	switch k {
	case ActionSetNextState:
		return "set_next_state"
	case ActionSetEgressPort:
		return "set_egress_port"
	case ActionSetMgid:
		return "set_mgid"
	case ActionCustom:
		return "custom"
	case ActionDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// Action is a concrete table-entry action.
type Action struct {
	Kind      ActionKind
	NextState uint16  // ActionSetNextState
	Port      int     // ActionSetEgressPort
	Mgid      int     // ActionSetMgid
	Name      string  // ActionCustom
	Args      []int64 // ActionCustom
}

// Entry is one physical table row. Field is nil for a miss-table entry
// (matches on the state prefix only, no field value), and for every
// entry of the terminal table.
type Entry struct {
	State    uint16
	Field    *field.Field
	Match    pipeline.Match
	Action   Action
	Priority *int
}

// P4Table is one physical match table.
type P4Table struct {
	Name    string
	Entries []Entry
}

// TargetPipeline is the fully lowered output: the physical tables in
// pipeline order, plus the multicast-group assignment (mgid -> ports).
type TargetPipeline struct {
	Tables      []*P4Table
	McastGroups map[int][]int
}

// TerminalTableName is the fixed name of the terminal actions table.
const TerminalTableName = "query_actions"

// Options configures one lowering run.
type Options struct {
	// DefaultAction is applied to a terminal entry whose merged action
	// list is still empty once it reaches lowering: an empty action list
	// falls back to the rule set's configured default action, or a drop
	// if none is configured.
	DefaultAction []rule.Action
	// MgidStart is the first multicast-group id allocated; ids increase
	// monotonically from there.
	MgidStart int
	// Stats, if non-nil, receives the final multicast-group count for
	// this run, superseding any placeholder value recorded during
	// pipeline compilation (the compiler runs before mgids are known).
	Stats *compilestats.Metrics
}

// Lower translates ap into a TargetPipeline.
func Lower(ap *pipeline.AbstractPipeline, opts Options) (*TargetPipeline, error) {
	mgidOf, mcastGroups := allocateMcastGroups(ap.Terminal, opts.MgidStart)
	if opts.Stats != nil {
		opts.Stats.McastGroupsAllocated.Set(float64(len(mcastGroups)))
	}

	tp := &TargetPipeline{McastGroups: mcastGroups}

	for _, tt := range ap.Tables {
		physical, err := lowerTransitionTable(tt)
		if err != nil {
			return nil, err
		}
		tp.Tables = append(tp.Tables, physical...)
	}

	terminal, err := lowerTerminalTable(ap.Terminal, opts.DefaultAction, mgidOf)
	if err != nil {
		return nil, err
	}
	tp.Tables = append(tp.Tables, terminal)

	return tp, nil
}

// lowerTransitionTable splits one abstract transition table into up to
// four physical tables by match shape, created only if non-empty.
func lowerTransitionTable(tt *pipeline.TransitionTable) ([]*P4Table, error) {
	base := fmt.Sprintf("query_%s_%s", tt.Field.Header, tt.Field.Name)
	buckets := map[string]*P4Table{}
	var order []string

	for _, tr := range tt.Transitions {
		suffix, err := matchSuffix(tr.Match.Kind)
		if err != nil {
			return nil, err
		}
		name := base + "_" + suffix
		tbl, ok := buckets[name]
		if !ok {
			tbl = &P4Table{Name: name}
			buckets[name] = tbl
			order = append(order, name)
		}
		entry := Entry{
			State:    tr.StateIn,
			Match:    tr.Match,
			Action:   Action{Kind: ActionSetNextState, NextState: tr.StateOut},
			Priority: tr.Priority,
		}
		if suffix != "miss" {
			f := tt.Field
			entry.Field = &f
		}
		tbl.Entries = append(tbl.Entries, entry)
	}

	out := make([]*P4Table, 0, len(order))
	for _, name := range order {
		out = append(out, buckets[name])
	}
	return out, nil
}

// matchSuffix maps a transition's match shape to its physical-table
// suffix.
func matchSuffix(k pipeline.MatchKind) (string, error) {
	switch k {
	case pipeline.MatchEq:
		return "exact", nil
	case pipeline.MatchLt, pipeline.MatchGt, pipeline.MatchRange:
		return "range", nil
	case pipeline.MatchLpm:
		return "lpm", nil
	case pipeline.MatchWildcard:
		return "miss", nil
	default:
		return "", camuserr.Errorf(camuserr.KindInvariant, "transition carries unrecognized match kind %v", k)
	}
}

// lowerTerminalTable produces the single query_actions table.
func lowerTerminalTable(tt *pipeline.TerminalTable, defaultAction []rule.Action, mgidOf func([]int) (int, bool)) (*P4Table, error) {
	out := &P4Table{Name: TerminalTableName}
	for _, te := range tt.Entries {
		action, err := resolveTerminalAction(te.Actions, defaultAction, mgidOf)
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, Entry{State: te.State, Action: action})
	}
	return out, nil
}

// resolveTerminalAction implements the per-terminal-entry action
// resolution rules: single actions pass through, two or more forwards
// merge into a multicast group, and any other mix is an error.
func resolveTerminalAction(actions []rule.Action, defaultAction []rule.Action, mgidOf func([]int) (int, bool)) (Action, error) {
	if len(actions) == 0 {
		if len(defaultAction) == 0 {
			return Action{Kind: ActionDrop}, nil
		}
		actions = defaultAction
	}

	if len(actions) == 1 {
		a := actions[0]
		if a.Kind == rule.ActionForward {
			return Action{Kind: ActionSetEgressPort, Port: a.Port}, nil
		}
		return Action{Kind: ActionCustom, Name: a.Name, Args: a.Args}, nil
	}

	if rule.AllForward(actions) {
		ports := dedupeSortPorts(rule.Ports(actions))
		mgid, ok := mgidOf(ports)
		if !ok {
			return Action{}, camuserr.Errorf(camuserr.KindInvariant, "no multicast group allocated for port set %v", ports)
		}
		return Action{Kind: ActionSetMgid, Mgid: mgid}, nil
	}

	return Action{}, camuserr.New(camuserr.KindActionMerge, "Cannot merge fwd action with other types")
}

// allocateMcastGroups scans the terminal table for entries whose actions
// are two or more ForwardPorts, and assigns each distinct port set a
// fresh mgid starting at mgidStart, in ascending order over an ordered
// set-of-sets. It returns a lookup function from a sorted, deduplicated
// port slice to its mgid, plus the resulting mgid -> ports map.
func allocateMcastGroups(tt *pipeline.TerminalTable, mgidStart int) (func([]int) (int, bool), map[int][]int) {
	if mgidStart <= 0 {
		mgidStart = 1
	}

	seen := map[string][]int{}
	var keys []string
	for _, te := range tt.Entries {
		if len(te.Actions) < 2 || !rule.AllForward(te.Actions) {
			continue
		}
		ports := dedupeSortPorts(rule.Ports(te.Actions))
		key := portSetKey(ports)
		if _, ok := seen[key]; !ok {
			seen[key] = ports
			keys = append(keys, key)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return comparePortSets(seen[keys[i]], seen[keys[j]]) < 0
	})

	mgids := map[string]int{}
	groups := map[int][]int{}
	next := mgidStart
	for _, key := range keys {
		mgids[key] = next
		groups[next] = seen[key]
		next++
	}

	lookup := func(ports []int) (int, bool) {
		id, ok := mgids[portSetKey(ports)]
		return id, ok
	}
	return lookup, groups
}

// dedupeSortPorts returns ports deduplicated and sorted ascending,
// leaving the input untouched.
func dedupeSortPorts(ports []int) []int {
	set := make(map[int]bool, len(ports))
	out := make([]int, 0, len(ports))
	for _, p := range ports {
		if !set[p] {
			set[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// portSetKey renders a sorted port slice as a map key.
func portSetKey(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ",")
}

// comparePortSets orders two sorted port slices elementwise; a slice
// that is a strict prefix of the other sorts first.
func comparePortSets(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] - b[i]
		}
	}
	return len(a) - len(b)
}
