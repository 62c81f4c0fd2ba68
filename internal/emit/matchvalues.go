// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package emit

import (
	"fmt"

	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/pipeline"
)

// matchDecimals resolves an abstract Match into the decimal value(s) its
// physical table carries, applying the width-aware Lt/Gt bound
// adjustment. Exact and Lpm matches carry the match's own constants
// unadjusted.
func matchDecimals(width int, m pipeline.Match) ([]string, error) {
	switch m.Kind {
	case pipeline.MatchEq:
		v, err := decimalString(m.C, width)
		if err != nil {
			return nil, err
		}
		return []string{v}, nil
	case pipeline.MatchLt:
		hi, err := numericValue(m.C, -1)
		if err != nil {
			return nil, err
		}
		return []string{"0", fmt.Sprintf("%d", hi)}, nil
	case pipeline.MatchGt:
		lo, err := numericValue(m.C, 1)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%d", lo), fmt.Sprintf("%d", maxValue(width))}, nil
	case pipeline.MatchRange:
		lo, err := decimalString(m.C, width)
		if err != nil {
			return nil, err
		}
		hi, err := decimalString(m.C2, width)
		if err != nil {
			return nil, err
		}
		return []string{lo, hi}, nil
	case pipeline.MatchLpm:
		addr, err := decimalString(m.C, width)
		if err != nil {
			return nil, err
		}
		plen, err := m.C2.ToInt()
		if err != nil {
			return nil, err
		}
		return []string{addr, fmt.Sprintf("%d", plen)}, nil
	default:
		return nil, camuserr.Errorf(camuserr.KindInvariant, "cannot render match kind %v", m.Kind)
	}
}

// matchInts is matchDecimals's int64 counterpart, used by the JSON
// emitter whose match_fields values are numeric arrays rather than
// pre-formatted strings.
func matchInts(width int, m pipeline.Match) ([]int64, error) {
	switch m.Kind {
	case pipeline.MatchEq:
		v, err := numericValue(m.C, 0)
		if err != nil {
			return nil, err
		}
		return []int64{v}, nil
	case pipeline.MatchLt:
		hi, err := numericValue(m.C, -1)
		if err != nil {
			return nil, err
		}
		return []int64{0, hi}, nil
	case pipeline.MatchGt:
		lo, err := numericValue(m.C, 1)
		if err != nil {
			return nil, err
		}
		return []int64{lo, maxValue(width)}, nil
	case pipeline.MatchRange:
		lo, err := numericValue(m.C, 0)
		if err != nil {
			return nil, err
		}
		hi, err := numericValue(m.C2, 0)
		if err != nil {
			return nil, err
		}
		return []int64{lo, hi}, nil
	case pipeline.MatchLpm:
		addr, err := numericValue(m.C, 0)
		if err != nil {
			return nil, err
		}
		plen, err := m.C2.ToInt()
		if err != nil {
			return nil, err
		}
		return []int64{addr, plen}, nil
	default:
		return nil, camuserr.Errorf(camuserr.KindInvariant, "cannot render match kind %v", m.Kind)
	}
}
