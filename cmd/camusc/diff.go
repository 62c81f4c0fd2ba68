// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"bytes"
	"strconv"
	"strings"

	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/compileropts"
	"grimm.is/camus/internal/compilestats"
	"grimm.is/camus/internal/emit"
	"grimm.is/camus/internal/pipeline"
	"grimm.is/camus/internal/rule"
	"grimm.is/camus/internal/target"
)

// compiledOutput holds the three serialized artifacts one compile run
// produces.
type compiledOutput struct {
	commands []byte
	json     []byte
	mgids    []byte
}

// compileOnce runs the full rule.RuleSet -> AbstractPipeline ->
// TargetPipeline -> bytes chain once. Calling it twice on the same
// ruleSet is the idempotence check -check drives: a fresh Compiler is
// built each call, so the priority counter restarts from the same seed.
func compileOnce(ruleSet rule.RuleSet, opts *compileropts.Options, stats *compilestats.Metrics) (*compiledOutput, error) {
	defaultAction, err := parseDefaultAction(opts.Compile.DefaultAction)
	if err != nil {
		return nil, err
	}
	ruleSet.DefaultAction = defaultAction

	comp := pipeline.NewCompiler(pipeline.Options{
		PriorityStart: opts.Compile.PriorityStart,
		Stats:         stats,
	})
	ap, err := comp.Compile(ruleSet)
	if err != nil {
		stats.ObserveError(err)
		return nil, err
	}

	tp, err := target.Lower(ap, target.Options{
		DefaultAction: defaultAction,
		MgidStart:     opts.Compile.MgidStart,
		Stats:         stats,
	})
	if err != nil {
		stats.ObserveError(err)
		return nil, err
	}

	var cmdBuf, jsonBuf, mgidBuf bytes.Buffer
	if err := emit.WriteCommandFile(&cmdBuf, tp); err != nil {
		return nil, err
	}
	if err := emit.WriteJSON(&jsonBuf, tp); err != nil {
		return nil, err
	}
	if err := emit.WriteMcastGroups(&mgidBuf, tp); err != nil {
		return nil, err
	}

	return &compiledOutput{commands: cmdBuf.Bytes(), json: jsonBuf.Bytes(), mgids: mgidBuf.Bytes()}, nil
}

// parseDefaultAction turns the options file's default_action string into
// a concrete action list: "drop" (or empty) means no default is
// configured, "fwd:<port>" configures a forwarding default.
func parseDefaultAction(s string) ([]rule.Action, error) {
	if s == "" || s == "drop" {
		return nil, nil
	}
	port, ok := strings.CutPrefix(s, "fwd:")
	if !ok {
		return nil, camuserr.Errorf(camuserr.KindShape, "unrecognized default_action %q", s)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, camuserr.Errorf(camuserr.KindShape, "invalid default_action port %q", s)
	}
	return []rule.Action{rule.ForwardPort(p)}, nil
}
