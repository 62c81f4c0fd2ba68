// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package emit

import (
	"testing"

	"grimm.is/camus/internal/queryconst"
)

func numConst(n int64) queryconst.Const { return queryconst.Number(n) }

func mustIPv4(t *testing.T, s string) queryconst.Const {
	t.Helper()
	c, err := queryconst.IPv4FromString(s)
	if err != nil {
		t.Fatalf("IPv4FromString(%q): %v", s, err)
	}
	return c
}

func mustIPv6(t *testing.T, s string) queryconst.Const {
	t.Helper()
	c, err := queryconst.IPv6FromString(s)
	if err != nil {
		t.Fatalf("IPv6FromString(%q): %v", s, err)
	}
	return c
}
