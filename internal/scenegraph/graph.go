// Package scenegraph navigates a game's scenes. Scene names double as node
// identifiers ("Introdução", "Cena 0A - Portal da Água", "Cena 01 - ...");
// edges are computed from those names rather than stored.
package scenegraph

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tbourn/go-narrator-backend/internal/extract"
)

// Scene is the navigator's view of a scene: identity, display name and the
// narrative text that is segmented at runtime.
type Scene struct {
	ID      string
	Name    string
	Content string
}

// Kind classifies a scene name.
type Kind int

const (
	KindOther Kind = iota
	KindIntro
	KindPortal // Cena 0A
	KindTrial  // Cena 0B
	KindNumbered
)

// NodeKey is the graph position encoded in a scene name.
type NodeKey struct {
	Kind   Kind
	Number int // set for KindNumbered
}

func (k NodeKey) String() string {
	switch k.Kind {
	case KindIntro:
		return "intro"
	case KindPortal:
		return "0A"
	case KindTrial:
		return "0B"
	case KindNumbered:
		return fmt.Sprintf("%02d", k.Number)
	default:
		return "other"
	}
}

var (
	portalNameRE   = regexp.MustCompile(`^cena\s+0a\b`)
	trialNameRE    = regexp.MustCompile(`^cena\s+0b\b`)
	numberedNameRE = regexp.MustCompile(`^cena\s+(\d+)\b`)
)

const introPrefix = "introducao"

// KeyOf parses the node key from a scene name.
func KeyOf(name string) NodeKey {
	n := extract.Normalize(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(n, introPrefix):
		return NodeKey{Kind: KindIntro}
	case portalNameRE.MatchString(n):
		return NodeKey{Kind: KindPortal}
	case trialNameRE.MatchString(n):
		return NodeKey{Kind: KindTrial}
	}
	if m := numberedNameRE.FindStringSubmatch(n); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return NodeKey{Kind: KindNumbered, Number: v}
		}
	}
	return NodeKey{}
}

// Graph is an immutable, ordered view over a game's active scenes. Segments
// are computed once at construction, so a Graph is safe for concurrent use.
type Graph struct {
	scenes []Scene
	norm   []string
	segs   map[string][]string
}

// New builds a graph from scenes already sorted by (phase, order).
func New(scenes []Scene) *Graph {
	g := &Graph{
		scenes: append([]Scene(nil), scenes...),
		norm:   make([]string, len(scenes)),
		segs:   make(map[string][]string, len(scenes)),
	}
	for i, s := range g.scenes {
		g.norm[i] = extract.Normalize(s.Name)
		g.segs[s.ID] = SplitSegments(s.Content)
	}
	return g
}

// Len returns the number of scenes.
func (g *Graph) Len() int { return len(g.scenes) }

// Scenes returns the ordered scenes.
func (g *Graph) Scenes() []Scene { return append([]Scene(nil), g.scenes...) }

// Segments returns the player-facing chunks of s.
func (g *Graph) Segments(s Scene) []string {
	if segs, ok := g.segs[s.ID]; ok {
		return segs
	}
	return SplitSegments(s.Content)
}

// ByID looks a scene up by identifier.
func (g *Graph) ByID(id string) (Scene, bool) {
	for _, s := range g.scenes {
		if s.ID == id {
			return s, true
		}
	}
	return Scene{}, false
}

// ByPrefix returns the first scene whose normalized name starts with prefix.
func (g *Graph) ByPrefix(prefix string) (Scene, bool) {
	p := extract.Normalize(prefix)
	for i, n := range g.norm {
		if strings.HasPrefix(n, p) {
			return g.scenes[i], true
		}
	}
	return Scene{}, false
}

// ByContains returns the first scene whose normalized name contains text.
func (g *Graph) ByContains(text string) (Scene, bool) {
	t := extract.Normalize(text)
	for i, n := range g.norm {
		if strings.Contains(n, t) {
			return g.scenes[i], true
		}
	}
	return Scene{}, false
}

// Intro returns the "Introdução" scene.
func (g *Graph) Intro() (Scene, bool) { return g.ByPrefix(introPrefix) }

// Base picks where a replay starts: the intro, else the stored scene, else
// the first scene.
func (g *Graph) Base(storedID string) (Scene, bool) {
	if s, ok := g.Intro(); ok {
		return s, true
	}
	if storedID != "" {
		if s, ok := g.ByID(storedID); ok {
			return s, true
		}
	}
	if len(g.scenes) > 0 {
		return g.scenes[0], true
	}
	return Scene{}, false
}

// Successor resolves the scene that follows s once its content is exhausted.
// Only portal (0A), trial (0B) and numbered scenes have successors.
func (g *Graph) Successor(s Scene) (Scene, bool) {
	k := KeyOf(s.Name)
	switch k.Kind {
	case KindPortal:
		return g.ByPrefix("cena 0b")
	case KindTrial:
		if next, ok := g.ByContains("cena 01 - temperanca"); ok {
			return next, true
		}
		return g.ByPrefix("cena 01")
	case KindNumbered:
		return g.ByPrefix(fmt.Sprintf("cena %02d", k.Number+1))
	}
	return Scene{}, false
}

// Portal returns the portal scene for a narrative element.
func (g *Graph) Portal(element string) (Scene, bool) {
	if s, ok := g.ByContains("portal da " + element); ok {
		return s, true
	}
	return g.ByContains("portal do " + element)
}
