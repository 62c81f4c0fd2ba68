// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package emit

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"grimm.is/camus/internal/target"
)

// WriteMcastGroups writes one "<mgid>: <port> <port> ..." line per
// allocated multicast group, sorted ascending by mgid.
func WriteMcastGroups(w io.Writer, tp *target.TargetPipeline) error {
	mgids := make([]int, 0, len(tp.McastGroups))
	for id := range tp.McastGroups {
		mgids = append(mgids, id)
	}
	sort.Ints(mgids)

	bw := bufio.NewWriter(w)
	for _, id := range mgids {
		ports := append([]int(nil), tp.McastGroups[id]...)
		sort.Ints(ports)
		line := fmt.Sprintf("%d:", id)
		for _, p := range ports {
			line += fmt.Sprintf(" %d", p)
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
