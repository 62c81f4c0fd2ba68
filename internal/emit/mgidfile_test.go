// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package emit

import (
	"bytes"
	"strings"
	"testing"

	"grimm.is/camus/internal/target"
)

func TestWriteMcastGroupsOrdersByMgidAscending(t *testing.T) {
	tp := &target.TargetPipeline{McastGroups: map[int][]int{
		2: {5, 4},
		1: {9, 1},
	}}
	var buf bytes.Buffer
	if err := WriteMcastGroups(&buf, tp); err != nil {
		t.Fatalf("WriteMcastGroups: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "1: 1 9" {
		t.Errorf("line 0 = %q, want %q", lines[0], "1: 1 9")
	}
	if lines[1] != "2: 4 5" {
		t.Errorf("line 1 = %q, want %q", lines[1], "2: 4 5")
	}
}
