// Package search ranks rule documents against a player's message by keyword
// overlap. The index is immutable after construction and safe for concurrent
// use; scoring is deterministic with stable tie-breaking.
//
// Scoring is the Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|. Tokens are accent- and
// case-folded, so "História" in a query matches "historia" in a document.
package search

import (
	"sort"
	"strings"

	"github.com/tbourn/go-narrator-backend/internal/extract"
)

// Document is an indexable unit: usually one rule document.
type Document struct {
	ID    string
	Title string
	Text  string
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID    string
	Title string
	Score float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	minTokens int
}

// portugueseStopwords are dropped unless WithStopwords replaces them.
var portugueseStopwords = []string{
	"a", "o", "as", "os", "um", "uma", "de", "do", "da", "dos", "das", "e", "em",
	"no", "na", "nos", "nas", "por", "para", "com", "que", "se", "me", "eu", "voce",
	"sobre", "como", "mais", "ao", "aos", "nao", "sim", "qual", "quero", "conte",
}

func defaultConfig() config {
	c := config{}
	WithStopwords(portugueseStopwords)(&c)
	return c
}

// WithStopwords replaces the stop-word list. Words are folded like queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = extract.Normalize(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		c.stopwords = m
	}
}

// WithMinTokens skips documents with fewer distinct tokens than n.
func WithMinTokens(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minTokens = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	id     string
	title  string
	tokens map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// New builds an Index over docs. Title and text are both indexed; table rows
// in the text are flattened first.
func New(docs []Document, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for _, d := range docs {
		toks := tokenize(d.Title+"\n"+FlattenTables(d.Text), cfg.stopwords)
		if len(toks) == 0 || len(toks) < cfg.minTokens {
			continue
		}
		out = append(out, doc{id: d.ID, title: d.Title, tokens: toks})
	}
	return &index{cfg: cfg, docs: out}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k documents sharing at least one token with q, best first.
// k <= 0 means no limit.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	buf := make([]Result, 0, len(i.docs))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(d.tokens) - over)
		buf = append(buf, Result{ID: d.id, Title: d.title, Score: float64(over) / union})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		return buf[a].ID < buf[b].ID
	})

	if k > 0 && k < len(buf) {
		buf = buf[:k]
	}
	return buf
}

// ----------------------------------------------------------------------------
// Helpers

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := extract.Tokens(s)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
