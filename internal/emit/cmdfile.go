// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/pipeline"
	"grimm.is/camus/internal/target"
)

// WriteCommandFile writes tp's entries as table_add lines, one per
// entry, in table order. No partial output should reach disk on abort,
// so callers should only call this after compilation and lowering have
// both already succeeded.
func WriteCommandFile(w io.Writer, tp *target.TargetPipeline) error {
	bw := bufio.NewWriter(w)
	for _, t := range tp.Tables {
		for _, e := range t.Entries {
			line, err := commandLine(t.Name, e)
			if err != nil {
				return err
			}
			if _, err := bw.WriteString(line + "\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func commandLine(tableName string, e target.Entry) (string, error) {
	var parts []string
	parts = append(parts, "table_add", tableName)

	actionName, args, err := actionNameAndArgs(e.Action)
	if err != nil {
		return "", err
	}
	parts = append(parts, actionName, fmt.Sprintf("%d", e.State))

	if e.Field != nil {
		values, err := matchDecimals(e.Field.Width, e.Match)
		if err != nil {
			return "", err
		}
		parts = append(parts, formatMatch(e.Match.Kind, values))
	}

	parts = append(parts, "=>")
	parts = append(parts, args...)
	if e.Priority != nil {
		parts = append(parts, fmt.Sprintf("%d", *e.Priority))
	}
	return strings.Join(parts, " "), nil
}

// formatMatch joins a match's decimal values with the separator its kind
// uses in command-file notation: a bare value for exact matches, "->"
// between bounds for Lt/Gt/Range, "/" between address and prefix for Lpm.
func formatMatch(kind pipeline.MatchKind, values []string) string {
	if len(values) == 1 {
		return values[0]
	}
	sep := "->"
	if kind == pipeline.MatchLpm {
		sep = "/"
	}
	return strings.Join(values, sep)
}

func actionNameAndArgs(a target.Action) (string, []string, error) {
	switch a.Kind {
	case target.ActionSetNextState:
		return "set_next_state", []string{fmt.Sprintf("%d", a.NextState)}, nil
	case target.ActionSetEgressPort:
		return "set_egress_port", []string{fmt.Sprintf("%d", a.Port)}, nil
	case target.ActionSetMgid:
		return "set_mgid", []string{fmt.Sprintf("%d", a.Mgid)}, nil
	case target.ActionCustom:
		args := make([]string, 0, len(a.Args))
		for _, v := range a.Args {
			args = append(args, fmt.Sprintf("%d", v))
		}
		return a.Name, args, nil
	case target.ActionDrop:
		return "query_drop", nil, nil
	default:
		return "", nil, camuserr.Errorf(camuserr.KindInvariant, "cannot render action kind %v", a.Kind)
	}
}
