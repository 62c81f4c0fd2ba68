// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package emit

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"grimm.is/camus/internal/camuserr"
	"grimm.is/camus/internal/target"
)

// tableEntryJSON is one element of the output array.
type tableEntryJSON struct {
	TableName    string           `json:"table_name"`
	MatchFields  map[string][]int64 `json:"match_fields"`
	ActionName   string           `json:"action_name"`
	ActionParams map[string]any   `json:"action_params"`
	Priority     *int             `json:"priority,omitempty"`
}

// WriteJSON writes tp as a top-level JSON array ending with a trailing
// null element.
func WriteJSON(w io.Writer, tp *target.TargetPipeline) error {
	var elems []any
	for _, t := range tp.Tables {
		for _, e := range t.Entries {
			obj, err := jsonEntryFor(t.Name, e)
			if err != nil {
				return err
			}
			elems = append(elems, obj)
		}
	}
	elems = append(elems, nil)

	enc := jsoniter.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(elems)
}

func jsonEntryFor(tableName string, e target.Entry) (tableEntryJSON, error) {
	obj := tableEntryJSON{
		TableName:   "Camus." + tableName,
		MatchFields: map[string][]int64{"meta.query.state": {int64(e.State)}},
		Priority:    e.Priority,
	}

	if e.Field != nil {
		values, err := matchInts(e.Field.Width, e.Match)
		if err != nil {
			return tableEntryJSON{}, err
		}
		obj.MatchFields["hdr."+e.Field.Header+"."+e.Field.Name] = values
	}

	actionName, params, err := jsonAction(e.Action)
	if err != nil {
		return tableEntryJSON{}, err
	}
	obj.ActionName = actionName
	obj.ActionParams = params
	return obj, nil
}

func jsonAction(a target.Action) (string, map[string]any, error) {
	switch a.Kind {
	case target.ActionSetNextState:
		return "Camus.set_next_state", map[string]any{"next": a.NextState}, nil
	case target.ActionSetEgressPort:
		return "Camus.set_egress_port", map[string]any{"port": a.Port}, nil
	case target.ActionSetMgid:
		return "Camus.set_mgid", map[string]any{"mgid": a.Mgid}, nil
	case target.ActionCustom:
		return "Camus." + a.Name, map[string]any{"args": a.Args}, nil
	case target.ActionDrop:
		return "Camus.query_drop", map[string]any{}, nil
	default:
		return "", nil, camuserr.Errorf(camuserr.KindInvariant, "cannot render action kind %v", a.Kind)
	}
}
