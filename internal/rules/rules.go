// Package rules classifies a game's rule documents by title and selects the
// ones a prompt should carry.
package rules

import (
	"regexp"
	"strings"

	"github.com/tbourn/go-narrator-backend/internal/extract"
	"github.com/tbourn/go-narrator-backend/internal/search"
)

// Category is the role a rule document plays in prompt assembly.
type Category int

const (
	Other Category = iota
	Mechanics
	SceneStructure
	PowerLevel
	Lore
	InstructionPrompt
)

func (c Category) String() string {
	switch c {
	case Mechanics:
		return "mechanics"
	case SceneStructure:
		return "scene_structure"
	case PowerLevel:
		return "power_level"
	case Lore:
		return "lore"
	case InstructionPrompt:
		return "instruction_prompt"
	default:
		return "other"
	}
}

// Classify maps a document title to its category. The first matching rule
// wins, so "Prompt de instruções das regras" is an instruction prompt.
func Classify(title string) Category {
	t := extract.Normalize(title)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(t, s) {
				return true
			}
		}
		return false
	}
	switch {
	case has("prompt", "instrucao", "instrucoes"):
		return InstructionPrompt
	case has("estrutura") && has("cena"):
		return SceneStructure
	case has("poder"):
		return PowerLevel
	case has("historia", "lore", "reino"):
		return Lore
	case has("regra", "mecanica"):
		return Mechanics
	}
	return Other
}

// Document is a rule document with its extracted text.
type Document struct {
	ID      string
	Title   string
	Content string
}

// firstTurnOrder is the order in which game rules open a session.
var firstTurnOrder = []Category{Mechanics, SceneStructure, PowerLevel}

// Set is a game's classified rule documents.
type Set struct {
	byCategory map[Category][]Document
	lore       search.Index
}

// NewSet classifies docs, keeping their relative order within a category.
func NewSet(docs []Document) *Set {
	s := &Set{byCategory: make(map[Category][]Document)}
	var lore []search.Document
	for _, d := range docs {
		c := Classify(d.Title)
		s.byCategory[c] = append(s.byCategory[c], d)
		if c == Lore {
			lore = append(lore, search.Document{ID: d.ID, Title: d.Title, Text: d.Content})
		}
	}
	s.lore = search.New(lore)
	return s
}

// Category returns the documents classified as c.
func (s *Set) Category(c Category) []Document { return s.byCategory[c] }

// FirstTurn returns the mechanics, scene-structure and power-level documents,
// in that order, for the opening prompt of a session.
func (s *Set) FirstTurn() []Document {
	var out []Document
	for _, c := range firstTurnOrder {
		out = append(out, s.byCategory[c]...)
	}
	return out
}

// Instruction returns the instruction-prompt document, if any.
func (s *Set) Instruction() (Document, bool) {
	if docs := s.byCategory[InstructionPrompt]; len(docs) > 0 {
		return docs[0], true
	}
	return Document{}, false
}

// Trigger stems. A word matches when it starts with one, so plurals and
// inflections ("historias", "reinos", "lendas") count while a word that only
// contains a stem in the middle ("floresta") does not.
var (
	historyTerms = []string{"historia", "lore", "lenda"}
	kingdomTerms = []string{"reino"}
)

// LoreRequested reports whether input asks for the story of a kingdom.
func LoreRequested(input string) bool {
	toks := extract.Tokens(input)
	return anyToken(toks, historyTerms) && anyToken(toks, kingdomTerms)
}

func anyToken(toks, stems []string) bool {
	for _, t := range toks {
		if hasStem(t, stems) {
			return true
		}
	}
	return false
}

func hasStem(tok string, stems []string) bool {
	for _, w := range stems {
		if strings.HasPrefix(tok, w) {
			return true
		}
	}
	return false
}

// LoreFor returns the lore documents to inject for input. Nothing is returned
// unless the player asked for a kingdom's story; then documents sharing other
// keywords with the input are returned best first, falling back to all lore.
func (s *Set) LoreFor(input string) []Document {
	all := s.byCategory[Lore]
	if len(all) == 0 || !LoreRequested(input) {
		return nil
	}
	// The trigger words appear in every lore document, so they do not rank.
	var rest []string
	for _, t := range extract.Tokens(input) {
		if !hasStem(t, historyTerms) && !hasStem(t, kingdomTerms) {
			rest = append(rest, t)
		}
	}
	hits := s.lore.TopK(strings.Join(rest, " "), 0)
	if len(hits) == 0 {
		return all
	}
	byID := make(map[string]Document, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}
	out := make([]Document, 0, len(hits))
	for _, h := range hits {
		out = append(out, byID[h.ID])
	}
	return out
}

var headingRE = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)([.)])?\s+\S`)

// ExtractSection returns the body of the first numbered section ("3. Sombra",
// "4.1) Luz") whose heading mentions keyword. The body runs until the next
// heading of the same or a shallower level.
func ExtractSection(content, keyword string) string {
	kw := extract.Normalize(keyword)
	lines := strings.Split(content, "\n")
	start, depth := -1, 0
	for i, line := range lines {
		m := headingRE.FindStringSubmatch(line)
		if m == nil || (m[2] == "" && !strings.Contains(m[1], ".")) {
			continue
		}
		d := strings.Count(m[1], ".") + 1
		if start >= 0 {
			if d <= depth {
				return strings.TrimSpace(strings.Join(lines[start+1:i], "\n"))
			}
			continue
		}
		if extract.HasToken(line, kw) {
			start, depth = i, d
		}
	}
	if start < 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[start+1:], "\n"))
}

// mechanicTerms mark lines that talk about game mechanics.
var mechanicTerms = []string{
	"dado", "dados", "rolar", "rolagem", "regra", "regras", "mecanica", "ponto", "pontos",
	"contador", "contadores", "tabuleiro", "turno", "cancela", "cancelamento",
}

// Sanitize drops every line that mentions a mechanic term so rule text can be
// read to players without exposing the rules themselves.
func Sanitize(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if anyToken(extract.Tokens(line), mechanicTerms) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// OutcomeText returns the sanitized narrative for rolling element, taken from
// the mechanics documents first and any other document after.
func (s *Set) OutcomeText(element string) string {
	cats := []Category{Mechanics, SceneStructure, PowerLevel, InstructionPrompt, Lore, Other}
	for _, c := range cats {
		for _, d := range s.byCategory[c] {
			if sec := ExtractSection(d.Content, element); sec != "" {
				if text := Sanitize(sec); text != "" {
					return text
				}
			}
		}
	}
	return ""
}
