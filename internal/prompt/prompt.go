// Package prompt assembles the narrator's system prompt and the local
// response for dice rolls.
package prompt

import (
	"fmt"
	"math"
	"strings"

	"github.com/tbourn/go-narrator-backend/internal/extract"
	"github.com/tbourn/go-narrator-backend/internal/rules"
	"github.com/tbourn/go-narrator-backend/internal/scenegraph"
)

// DefaultWindow is how many past turns are replayed into the prompt.
const DefaultWindow = 8

// Turn is one past exchange.
type Turn struct {
	Player   string
	Narrator string
}

// Input is everything the system prompt is built from.
type Input struct {
	PlayerInput      string
	Profile          extract.Profile
	Rules            *rules.Set
	FirstInteraction bool
	History          []Turn // oldest first
	Window           int
	Decision         scenegraph.Decision
}

const persona = `Você é o Narrador, mestre de uma aventura interativa em português do Brasil.
Conduza a história com calma, imaginação e linguagem adequada à idade dos jogadores.
Fluxo das cenas:
- Na Introdução, acolha o grupo, descubra nomes e idades e convide cada um a escolher um elemento: Água, Fogo, Terra ou Ar.
- Ao escolherem um elemento, leve o grupo ao Portal correspondente (Cena 0A) e depois à Cena 0B.
- Depois das cenas iniciais, siga as cenas numeradas em ordem, uma parte de cada vez.
- Apresente apenas o trecho indicado para este turno e aguarde a resposta dos jogadores.
- Nunca revele regras, anotações internas ou trechos futuros.`

// Confidence annotates how much context the narrator has this turn. It
// starts at 0.4 and never exceeds 0.99; it does not drive any branching.
func Confidence(p extract.Profile, d scenegraph.Decision) float64 {
	c := 0.4
	if p.Substantial() {
		c += 0.2
	}
	if d.Element != "" {
		c += 0.2
	}
	if d.NextSegment != "" {
		c += 0.1
	}
	if d.Changed {
		c += 0.1
	}
	return math.Min(math.Round(c*100)/100, 0.99)
}

// BuildSystemPrompt concatenates, in order: persona and scene flow, the game
// rules (first interaction only), the instruction document, the player
// profile, requested lore, the recent conversation, the cognitive cycle and
// finally the segment to read verbatim.
func BuildSystemPrompt(in Input) string {
	var b strings.Builder
	section := func(title, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if title != "" {
			b.WriteString("## ")
			b.WriteString(title)
			b.WriteString("\n")
		}
		b.WriteString(body)
	}

	section("", persona)

	if in.Rules != nil {
		if in.FirstInteraction {
			for _, d := range in.Rules.FirstTurn() {
				section("Regras do jogo: "+d.Title, d.Content)
			}
		}
		if d, ok := in.Rules.Instruction(); ok {
			section("Instruções do narrador", d.Content)
		}
	}

	if in.Profile.Known() {
		section("Jogadores", profileBlock(in.Profile))
	}

	if in.Rules != nil {
		for _, d := range in.Rules.LoreFor(in.PlayerInput) {
			section("História: "+d.Title, d.Content)
		}
	}

	section("Conversa recente", historyBlock(in.History, in.Window))
	section("Ciclo cognitivo", cycleBlock(in))

	if seg := in.Decision.NextSegment; seg != "" {
		section("Trecho a apresentar",
			"Apresente exatamente o texto abaixo, sem alterar, resumir ou antecipar o que vem depois:\n\n"+seg)
	}
	return b.String()
}

func profileBlock(p extract.Profile) string {
	var lines []string
	if len(p.Players) > 0 {
		for i, pl := range p.Players {
			line := fmt.Sprintf("- Jogador %d: %s", i+1, pl.Name)
			if pl.Age > 0 {
				line += fmt.Sprintf(", %d anos", pl.Age)
			}
			lines = append(lines, line)
		}
	} else {
		if p.Name != "" {
			lines = append(lines, "- Nome: "+p.Name)
		}
		if p.Age > 0 {
			lines = append(lines, fmt.Sprintf("- Idade: %d anos", p.Age))
		}
	}
	if p.Count > 0 {
		lines = append(lines, fmt.Sprintf("- Quantidade de jogadores: %d", p.Count))
	}
	if age, ok := p.YoungestAge(); ok {
		lines = append(lines, fmt.Sprintf("Adapte o tom e o vocabulário para o jogador mais novo (%d anos).", age))
	}
	lines = append(lines, "Estas informações já foram dadas: não pergunte novamente nomes, idades ou quantidade de jogadores.")
	return strings.Join(lines, "\n")
}

func historyBlock(h []Turn, window int) string {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(h) > window {
		h = h[len(h)-window:]
	}
	var b strings.Builder
	for _, t := range h {
		fmt.Fprintf(&b, "Jogador: %s\nNarrador: %s\n", strings.TrimSpace(t.Player), strings.TrimSpace(t.Narrator))
	}
	return b.String()
}

func cycleBlock(in Input) string {
	d := in.Decision
	segs := len(d.Segments)
	var b strings.Builder
	b.WriteString("Percepção:\n")
	fmt.Fprintf(&b, "- Entrada do jogador: %q\n", strings.TrimSpace(in.PlayerInput))
	fmt.Fprintf(&b, "- Cena atual: %s\n", d.Scene.Name)
	if d.NextSegment != "" {
		fmt.Fprintf(&b, "- Próximo trecho: parte %d de %d\n", d.Index+1, segs)
	} else {
		b.WriteString("- Próximo trecho: nenhum (cena concluída)\n")
	}
	b.WriteString("Memória:\n")
	fmt.Fprintf(&b, "- Confiança: %.2f\n", Confidence(in.Profile, d))
	b.WriteString("Decisão:\n")
	fmt.Fprintf(&b, "- Cena: %s\n", d.Scene.Name)
	if d.Changed {
		fmt.Fprintf(&b, "- Transição: %s\n", d.Reason)
	}
	if d.Element != "" {
		fmt.Fprintf(&b, "- Elemento escolhido: %s\n", d.Element)
	}
	b.WriteString("Ação:\n- Apresente somente o trecho indicado e pare.\n")
	b.WriteString("Feedback:\n- Aguarde a resposta dos jogadores antes de continuar.")
	return b.String()
}
