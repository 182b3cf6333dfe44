package scenegraph

import "github.com/tbourn/go-narrator-backend/internal/extract"

// Reason explains a navigation decision. Values are stored with interactions
// and surfaced in prompts, so they stay in Portuguese.
type Reason string

const (
	ReasonSelectedElement Reason = "selecionou_elemento"
	ReasonEndOfScene      Reason = "fim_da_cena"
	ReasonKeep            Reason = "manter_cena"
)

// Elements a player can pick at the intro, in detection order.
var Elements = []string{"agua", "fogo", "terra", "ar"}

// DetectElement returns the first element named in input as a whole word.
func DetectElement(input string) (string, bool) {
	for _, tok := range extract.Tokens(input) {
		for _, el := range Elements {
			if tok == el {
				return el, true
			}
		}
	}
	return "", false
}

// Position is a scene plus a zero-based segment index into it.
type Position struct {
	Scene Scene
	Index int
}

// Decision is the outcome of one navigation step.
type Decision struct {
	Scene       Scene
	Index       int
	Changed     bool
	Reason      Reason
	Element     string // detected element, even when no portal matched
	Segments    []string
	NextSegment string // segment at Index, empty when out of range
}

// Consumed returns the position after NextSegment was shown.
func (d Decision) Consumed() Position {
	return Position{Scene: d.Scene, Index: ConsumeIndex(d.Index, d.Segments)}
}

// Advance decides the scene and segment to present for input at pos.
//
//  1. On the intro, naming an element jumps to that element's portal.
//  2. When the scene has no segment left, move to its successor by name.
//  3. Otherwise stay put.
func (g *Graph) Advance(pos Position, input string) Decision {
	element, hasElement := DetectElement(input)

	if hasElement && KeyOf(pos.Scene.Name).Kind == KindIntro {
		if portal, ok := g.Portal(element); ok {
			return g.decide(portal, 0, portal.ID != pos.Scene.ID, ReasonSelectedElement, element)
		}
	}

	if pos.Index >= len(g.Segments(pos.Scene)) {
		if next, ok := g.Successor(pos.Scene); ok {
			return g.decide(next, 0, next.ID != pos.Scene.ID, ReasonEndOfScene, element)
		}
	}

	return g.decide(pos.Scene, pos.Index, false, ReasonKeep, element)
}

func (g *Graph) decide(s Scene, idx int, changed bool, reason Reason, element string) Decision {
	segs := g.Segments(s)
	d := Decision{
		Scene:    s,
		Index:    idx,
		Changed:  changed,
		Reason:   reason,
		Element:  element,
		Segments: segs,
	}
	if idx >= 0 && idx < len(segs) {
		d.NextSegment = segs[idx]
	}
	return d
}

// Replay folds Advance and ConsumeIndex over inputs, oldest first, starting
// at the beginning of base. Identical inputs always yield the same position.
func (g *Graph) Replay(base Scene, inputs []string) Position {
	pos := Position{Scene: base}
	for _, in := range inputs {
		pos = g.Advance(pos, in).Consumed()
	}
	return pos
}
