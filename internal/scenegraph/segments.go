package scenegraph

import (
	"strings"

	"github.com/tbourn/go-narrator-backend/internal/extract"
)

// SplitSegments cuts a scene's raw text into the chunks shown to players one
// at a time. A chunk runs until a second question line arrives after its
// first one; that line opens the next chunk. Narration between the two
// questions stays with the earlier one.
//
// Designer notes are removed first. Lines addressed to the narrator ("a partir
// daqui a IA ...", "se for ...") are always dropped, and a "não mostrar" line
// hides everything up to the next blank line.
func SplitSegments(text string) []string {
	var (
		segs       []string
		cur        []string
		inQuestion bool
		excluding  bool
	)
	flush := func() {
		if len(cur) > 0 {
			segs = append(segs, strings.TrimSpace(strings.Join(cur, "\n")))
			cur = cur[:0]
		}
		inQuestion = false
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			excluding = false
			continue
		}
		n := extract.Normalize(line)
		if isStageDirection(n) || excluding {
			continue
		}
		if strings.Contains(n, "nao mostrar") {
			excluding = true
			continue
		}
		isQuestion := strings.Contains(line, "?")
		if isQuestion && inQuestion {
			flush()
		}
		cur = append(cur, line)
		if isQuestion {
			inQuestion = true
		}
	}
	flush()
	return segs
}

// isStageDirection reports lines meant for the narrator, never the player.
func isStageDirection(n string) bool {
	if strings.HasPrefix(n, "se for") {
		return true
	}
	if strings.Contains(n, "a partir daqui") || strings.Contains(n, "a partir de agora") {
		return extract.HasToken(n, "ia")
	}
	return false
}

// ConsumeIndex returns the index after presenting segs[i]. It only moves
// forward while i addresses a segment, so calling it at the end of a scene
// is a no-op.
func ConsumeIndex(i int, segs []string) int {
	if len(segs) > 0 && i >= 0 && i < len(segs) {
		return i + 1
	}
	return i
}
