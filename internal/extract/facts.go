package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	minAge = 3
	maxAge = 120
)

// numberWords maps Portuguese number words (normalized) to values.
var numberWords = map[string]int{
	"um": 1, "uma": 1, "dois": 2, "duas": 2, "tres": 3, "quatro": 4, "cinco": 5,
	"seis": 6, "sete": 7, "oito": 8, "nove": 9, "dez": 10, "onze": 11, "doze": 12,
	"treze": 13, "catorze": 14, "quatorze": 14, "quinze": 15, "dezesseis": 16,
	"dezessete": 17, "dezoito": 18, "dezenove": 19, "vinte": 20, "trinta": 30,
	"quarenta": 40, "cinquenta": 50, "sessenta": 60, "setenta": 70, "oitenta": 80,
	"noventa": 90, "cem": 100,
}

// numberWordAlt is a regexp alternation of numberWords, longest first so
// "dezesseis" wins over "dez".
var numberWordAlt = func() string {
	ws := make([]string, 0, len(numberWords))
	for w := range numberWords {
		ws = append(ws, w)
	}
	sort.Slice(ws, func(i, j int) bool {
		if len(ws[i]) != len(ws[j]) {
			return len(ws[i]) > len(ws[j])
		}
		return ws[i] < ws[j]
	})
	return strings.Join(ws, "|")
}()

var (
	ageWithUnitRE = regexp.MustCompile(`\b(\d{1,3})\s*anos?\b`)
	bareNumberRE  = regexp.MustCompile(`\b(\d{1,3})\b`)
	ageWordsRE    = regexp.MustCompile(`\btenho\s+((?:` + numberWordAlt + `)(?:\s+e\s+(?:` + numberWordAlt + `))?)\s+anos?\b`)

	countRE = regexp.MustCompile(`\b(?:somos|temos)\s+(\d{1,2}|` + numberWordAlt + `)\b|\b(\d{1,2}|` + numberWordAlt + `)\s+jogador(?:es|as|a)?\b`)

	nameRE = regexp.MustCompile(`(?i)(?:me chamo|meu nome (?:é|e)|chamo-me|nome:|\bsou)\s+([\p{L}'][\p{L}' ]*)`)

	playerLineRE = regexp.MustCompile(`(?i)jogador(?:a)?\s*(\d+)\s*[:\-–—)]\s*([\p{L}'][\p{L}' ]*?)\s*[,\-–—(]\s*(\d{1,3})\s*anos?\)?`)
)

// nameStopWords are first words that mean the "sou ..." phrase is not a name.
var nameStopWords = map[string]struct{}{
	"o": {}, "a": {}, "um": {}, "uma": {}, "eu": {}, "de": {}, "do": {}, "da": {},
	"muito": {}, "muita": {}, "bem": {}, "so": {}, "mais": {}, "novo": {}, "nova": {},
	"jogador": {}, "jogadora": {}, "menino": {}, "menina": {}, "quem": {}, "aqui": {},
}

// nameCutWords end a captured name.
var nameCutWords = map[string]struct{}{
	"e": {}, "tenho": {}, "tem": {}, "sou": {}, "anos": {}, "com": {}, "mas": {}, "quero": {},
}

const maxNameWords = 3

func validAge(n int) bool { return n >= minAge && n <= maxAge }

// ExtractAge returns the first plausible age in text.
//
// Order of preference: a number followed by "ano(s)"; a bare number that is
// neither a group size ("somos 3", "3 jogadores") nor a roster index
// ("jogador 2"); a number word in "tenho <palavra> anos".
func ExtractAge(text string) (int, bool) {
	n := Normalize(text)
	if n == "" {
		return 0, false
	}
	for _, m := range ageWithUnitRE.FindAllStringSubmatch(n, -1) {
		if v, err := strconv.Atoi(m[1]); err == nil && validAge(v) {
			return v, true
		}
	}
	for _, idx := range bareNumberRE.FindAllStringSubmatchIndex(n, -1) {
		start, end := idx[2], idx[3]
		if isCountOrIndex(n[:start], n[end:]) {
			continue
		}
		if v, err := strconv.Atoi(n[start:end]); err == nil && validAge(v) {
			return v, true
		}
	}
	if m := ageWordsRE.FindStringSubmatch(n); m != nil {
		if v := sumNumberWords(m[1]); validAge(v) {
			return v, true
		}
	}
	return 0, false
}

// isCountOrIndex reports whether the number between before and after is a
// group size or roster index rather than an age.
func isCountOrIndex(before, after string) bool {
	b := strings.TrimRight(before, " ")
	for _, suffix := range []string{"somos", "temos", "jogador", "jogadora"} {
		if strings.HasSuffix(b, suffix) {
			return true
		}
	}
	a := strings.TrimLeft(after, " ")
	return strings.HasPrefix(a, "jogador")
}

// sumNumberWords adds "vinte e cinco" style compositions.
func sumNumberWords(s string) int {
	total := 0
	for _, w := range strings.Fields(s) {
		if w == "e" {
			continue
		}
		total += numberWords[w]
	}
	return total
}

// parseCount reads a numeral or a number word.
func parseCount(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return numberWords[s]
}

// ExtractPlayerCount returns the group size declared by "somos/temos N" or
// "N jogadores".
func ExtractPlayerCount(text string) (int, bool) {
	m := countRE.FindStringSubmatch(Normalize(text))
	if m == nil {
		return 0, false
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	if v := parseCount(raw); v > 0 {
		return v, true
	}
	return 0, false
}

// ExtractPlayerName returns a title-cased name from a self-introduction such
// as "me chamo ana" or "meu nome é João Pedro e tenho 9 anos".
func ExtractPlayerName(text string) (string, bool) {
	for _, m := range nameRE.FindAllStringSubmatch(text, -1) {
		if name := cleanName(m[1]); name != "" {
			return name, true
		}
	}
	return "", false
}

func cleanName(raw string) string {
	words := strings.Fields(raw)
	out := make([]string, 0, maxNameWords)
	for i, w := range words {
		nw := Normalize(w)
		if i == 0 {
			if _, stop := nameStopWords[nw]; stop {
				return ""
			}
		}
		if _, cut := nameCutWords[nw]; cut {
			break
		}
		out = append(out, w)
		if len(out) == maxNameWords {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	return titleCase(strings.Join(out, " "))
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

func titleCase(s string) string {
	return titleCaser.String(strings.ToLower(s))
}

// Player is one roster entry. Age is zero when not given or implausible.
type Player struct {
	Name string `json:"name"`
	Age  int    `json:"age,omitempty"`
}

// ParsePlayersList reads roster lines such as "Jogador 1: Ana, 10 anos",
// "Jogador 2 - Pedro - 12 anos" or "Jogador 3: Lia (9 anos)". Lines are tried
// first; when no line matches the whole text is scanned. An age outside
// [3,120] is left at zero but the player is kept, so every listed seat
// survives.
func ParsePlayersList(text string) []Player {
	var out []Player
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		loc := playerLineRE.FindStringSubmatchIndex(trimmed)
		if loc == nil || loc[0] != 0 {
			continue
		}
		out = append(out, playerFrom(trimmed, loc))
	}
	if len(out) > 0 {
		return out
	}
	for _, loc := range playerLineRE.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, playerFrom(text, loc))
	}
	return out
}

func playerFrom(s string, loc []int) Player {
	p := Player{Name: titleCase(strings.TrimSpace(s[loc[4]:loc[5]]))}
	if v, err := strconv.Atoi(s[loc[6]:loc[7]]); err == nil && validAge(v) {
		p.Age = v
	}
	return p
}
