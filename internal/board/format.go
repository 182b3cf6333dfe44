package board

import (
	"fmt"
	"sort"
	"strings"
)

// NoRecords is shown when there is nothing on the board.
const NoRecords = "sem registros"

// FormatStatus renders one line per seat with its non-zero counters. Boards
// without an order fall back to a flat per-slot summary.
func FormatStatus(st *State) string {
	if st == nil || (len(st.Order) == 0 && len(st.Slots) == 0) {
		return NoRecords
	}
	var lines []string
	if len(st.Order) > 0 {
		for _, seat := range st.Order {
			lines = append(lines, fmt.Sprintf("%s: %s", seat.Name, countsLine(st.Slots[seat.Slot])))
		}
		return strings.Join(lines, "\n")
	}

	keys := make([]string, 0, len(st.Slots))
	for k := range st.Slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, countsLine(st.Slots[k])))
	}
	return strings.Join(lines, "\n")
}

func countsLine(s *Slot) string {
	if s == nil {
		return "nenhum elemento"
	}
	parts := make([]string, 0, len(All))
	for _, e := range All {
		if n := s.Counts[e]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", e.Label(), n))
		}
	}
	if len(parts) == 0 {
		return "nenhum elemento"
	}
	return strings.Join(parts, ", ")
}
