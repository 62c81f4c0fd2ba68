// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/field"
	"grimm.is/camus/internal/pipeline"
	"grimm.is/camus/internal/queryconst"
	"grimm.is/camus/internal/rule"
)

var dport = field.New("tcp", "dport", 1, 16)
var dst = field.New("ipv4", "dst", 0, 32)

func TestLowerSplitsTransitionsByMatchShape(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Tables: []*pipeline.TransitionTable{{
			Field: dport,
			Transitions: []pipeline.Transition{
				{StateIn: 0, StateOut: 1, Match: pipeline.Match{Kind: pipeline.MatchEq, C: queryconst.Number(80)}},
				{StateIn: 0, StateOut: 2, Match: pipeline.Match{Kind: pipeline.MatchWildcard}},
			},
		}},
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: []rule.Action{rule.ForwardPort(1)}},
			{State: 2, Actions: []rule.Action{rule.ForwardPort(2)}},
		}},
	}

	tp, err := Lower(ap, Options{MgidStart: 1})
	require.NoError(t, err)
	require.Len(t, tp.Tables, 3, "exact table, miss table, terminal table")

	names := map[string]*P4Table{}
	for _, tbl := range tp.Tables {
		names[tbl.Name] = tbl
	}
	require.Contains(t, names, "query_tcp_dport_exact")
	require.Contains(t, names, "query_tcp_dport_miss")
	assert.Nil(t, names["query_tcp_dport_miss"].Entries[0].Field, "miss entries carry no field value")
	assert.NotNil(t, names["query_tcp_dport_exact"].Entries[0].Field)
}

func TestLowerRangeMatchGoesToRangeTable(t *testing.T) {
	p := 65000
	ap := &pipeline.AbstractPipeline{
		Tables: []*pipeline.TransitionTable{{
			Field: dport,
			Transitions: []pipeline.Transition{
				{StateIn: 0, StateOut: 1, Match: pipeline.Match{Kind: pipeline.MatchGt, C: queryconst.Number(1023)}, Priority: &p},
			},
		}},
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: []rule.Action{rule.ForwardPort(1)}},
		}},
	}
	tp, err := Lower(ap, Options{})
	require.NoError(t, err)
	require.Len(t, tp.Tables, 2)
	assert.Equal(t, "query_tcp_dport_range", tp.Tables[0].Name)
	require.NotNil(t, tp.Tables[0].Entries[0].Priority)
	assert.Equal(t, 65000, *tp.Tables[0].Entries[0].Priority)
}

func TestLowerLpmMatchGoesToLpmTable(t *testing.T) {
	addr := queryconst.IPv4(0x0A000000)
	ap := &pipeline.AbstractPipeline{
		Tables: []*pipeline.TransitionTable{{
			Field: dst,
			Transitions: []pipeline.Transition{
				{StateIn: 0, StateOut: 1, Match: pipeline.Match{Kind: pipeline.MatchLpm, C: addr, C2: queryconst.Number(8)}},
			},
		}},
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: []rule.Action{rule.ForwardPort(2)}},
		}},
	}
	tp, err := Lower(ap, Options{})
	require.NoError(t, err)
	assert.Equal(t, "query_ipv4_dst_lpm", tp.Tables[0].Name)
}

func TestLowerSingleForwardAction(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: []rule.Action{rule.ForwardPort(3)}},
		}},
	}
	tp, err := Lower(ap, Options{})
	require.NoError(t, err)
	terminal := tp.Tables[len(tp.Tables)-1]
	assert.Equal(t, TerminalTableName, terminal.Name)
	assert.Equal(t, Action{Kind: ActionSetEgressPort, Port: 3}, terminal.Entries[0].Action)
}

func TestLowerSingleUserAction(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: []rule.Action{rule.UserAction("custom_action", []int64{7, 8})}},
		}},
	}
	tp, err := Lower(ap, Options{})
	require.NoError(t, err)
	terminal := tp.Tables[len(tp.Tables)-1]
	assert.Equal(t, Action{Kind: ActionCustom, Name: "custom_action", Args: []int64{7, 8}}, terminal.Entries[0].Action)
}

func TestLowerEmptyActionsFallsBackToDrop(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: nil},
		}},
	}
	tp, err := Lower(ap, Options{})
	require.NoError(t, err)
	terminal := tp.Tables[len(tp.Tables)-1]
	assert.Equal(t, Action{Kind: ActionDrop}, terminal.Entries[0].Action)
}

func TestLowerEmptyActionsUsesConfiguredDefault(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: nil},
		}},
	}
	tp, err := Lower(ap, Options{DefaultAction: []rule.Action{rule.ForwardPort(9)}})
	require.NoError(t, err)
	terminal := tp.Tables[len(tp.Tables)-1]
	assert.Equal(t, Action{Kind: ActionSetEgressPort, Port: 9}, terminal.Entries[0].Action)
}

func TestLowerMultiForwardAllocatesMcastGroup(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: []rule.Action{rule.ForwardPort(1), rule.ForwardPort(2)}},
		}},
	}
	tp, err := Lower(ap, Options{MgidStart: 1})
	require.NoError(t, err)
	terminal := tp.Tables[len(tp.Tables)-1]
	assert.Equal(t, Action{Kind: ActionSetMgid, Mgid: 1}, terminal.Entries[0].Action)
	assert.Equal(t, map[int][]int{1: {1, 2}}, tp.McastGroups)
}

func TestLowerDistinctPortSetsGetDistinctAscendingMgids(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: []rule.Action{rule.ForwardPort(5), rule.ForwardPort(6)}},
			{State: 2, Actions: []rule.Action{rule.ForwardPort(1), rule.ForwardPort(2)}},
			{State: 3, Actions: []rule.Action{rule.ForwardPort(5), rule.ForwardPort(6)}},
		}},
	}
	tp, err := Lower(ap, Options{MgidStart: 1})
	require.NoError(t, err)
	// {1,2} sorts before {5,6} elementwise, so it gets the lower mgid
	// regardless of which terminal entry is processed first.
	assert.Equal(t, map[int][]int{1: {1, 2}, 2: {5, 6}}, tp.McastGroups)

	terminal := tp.Tables[len(tp.Tables)-1]
	assert.Equal(t, Action{Kind: ActionSetMgid, Mgid: 2}, terminal.Entries[0].Action)
	assert.Equal(t, Action{Kind: ActionSetMgid, Mgid: 1}, terminal.Entries[1].Action)
	assert.Equal(t, Action{Kind: ActionSetMgid, Mgid: 2}, terminal.Entries[2].Action)
}

func TestLowerSinglePortDoesNotAllocateMcastGroup(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: []rule.Action{rule.ForwardPort(4)}},
		}},
	}
	tp, err := Lower(ap, Options{MgidStart: 1})
	require.NoError(t, err)
	assert.Empty(t, tp.McastGroups)
}

func TestLowerMixedForwardAndUserActionIsActionMergeError(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Terminal: &pipeline.TerminalTable{Entries: []pipeline.TerminalEntry{
			{State: 1, Actions: []rule.Action{rule.ForwardPort(1), rule.UserAction("mark", []int64{1})}},
		}},
	}
	_, err := Lower(ap, Options{})
	require.Error(t, err)
	assert.Equal(t, camuserr.KindActionMerge, camuserr.GetKind(err))
}

func TestLowerUnrecognizedMatchKindIsInvariantError(t *testing.T) {
	ap := &pipeline.AbstractPipeline{
		Tables: []*pipeline.TransitionTable{{
			Field: dport,
			Transitions: []pipeline.Transition{
				{StateIn: 0, StateOut: 1, Match: pipeline.Match{Kind: pipeline.MatchKind(99)}},
			},
		}},
		Terminal: &pipeline.TerminalTable{},
	}
	_, err := Lower(ap, Options{})
	require.Error(t, err)
	assert.Equal(t, camuserr.KindInvariant, camuserr.GetKind(err))
}
