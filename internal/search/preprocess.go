package search

import (
	"strings"
)

// FlattenTables rewrites pipe-delimited table rows, as produced when DOCX or
// PDF tables are extracted to text, into one plain line per row. Separator
// rows ("|---|:--:|") are dropped; every other line is kept trimmed.
func FlattenTables(text string) string {
	if !strings.Contains(text, "|") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if !(strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")) {
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}

		cols := strings.Split(strings.Trim(line, "|"), "|")
		allSep := true
		cleaned := make([]string, 0, len(cols))
		for _, c := range cols {
			cell := strings.TrimSpace(c)
			if cell != "" {
				cleaned = append(cleaned, cell)
			}
			tmp := strings.NewReplacer(":", "", "-", "").Replace(cell)
			if strings.TrimSpace(tmp) != "" {
				allSep = false
			}
		}
		if allSep || len(cleaned) == 0 {
			continue
		}
		b.WriteString(strings.Join(cleaned, " "))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
