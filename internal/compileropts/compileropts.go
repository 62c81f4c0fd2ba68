// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package compileropts loads the optional HCL options file that
// configures one compile run: the default action, the priority/mgid
// starting counters, and the output file paths.
package compileropts

import (
	"github.com/hashicorp/hcl/v2/hclsimple"

	"grimm.is/camus/internal/camuserr"
)

// Options is the decoded options file, or the defaults if none was given.
type Options struct {
	Compile CompileBlock `hcl:"compile,block"`
	Output  OutputBlock  `hcl:"output,block"`
}

// CompileBlock configures the pipeline compiler and target lowering.
type CompileBlock struct {
	// DefaultAction names the action taken for a rule whose action list is
	// empty: "drop" (the default) or "fwd:<port>".
	DefaultAction string `hcl:"default_action,optional"`
	PriorityStart int64  `hcl:"priority_start,optional"`
	MgidStart     int    `hcl:"mgid_start,optional"`
}

// OutputBlock names the three output sinks the CLI writes to.
type OutputBlock struct {
	CommandFile string `hcl:"command_file,optional"`
	JSONFile    string `hcl:"json_file,optional"`
	MgidFile    string `hcl:"mgid_file,optional"`
}

// Default returns the built-in defaults used when no options file is given.
func Default() *Options {
	return &Options{
		Compile: CompileBlock{
			DefaultAction: "drop",
			PriorityStart: 65000,
			MgidStart:     1,
		},
		Output: OutputBlock{
			CommandFile: "commands.txt",
			JSONFile:    "table_entries.json",
			MgidFile:    "mcast_groups.txt",
		},
	}
}

// Load decodes the HCL options file at path, filling in built-in
// defaults for any attribute the file omits.
func Load(path string) (*Options, error) {
	opts := Default()
	if err := hclsimple.DecodeFile(path, nil, opts); err != nil {
		return nil, camuserr.Wrapf(err, camuserr.KindParse, "failed to decode options file %s", path)
	}
	applyDefaults(opts)
	return opts, nil
}

func applyDefaults(opts *Options) {
	d := Default()
	if opts.Compile.DefaultAction == "" {
		opts.Compile.DefaultAction = d.Compile.DefaultAction
	}
	if opts.Compile.PriorityStart == 0 {
		opts.Compile.PriorityStart = d.Compile.PriorityStart
	}
	if opts.Compile.MgidStart == 0 {
		opts.Compile.MgidStart = d.Compile.MgidStart
	}
	if opts.Output.CommandFile == "" {
		opts.Output.CommandFile = d.Output.CommandFile
	}
	if opts.Output.JSONFile == "" {
		opts.Output.JSONFile = d.Output.JSONFile
	}
	if opts.Output.MgidFile == "" {
		opts.Output.MgidFile = d.Output.MgidFile
	}
}
