package prompt

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-narrator-backend/internal/board"
	"github.com/tbourn/go-narrator-backend/internal/extract"
)

var dicePhrases = []string{"rolar dados", "rolar os dados", "rolar dado", "rolar o dado"}

// IsDiceRoll reports whether input asks to roll the dice.
func IsDiceRoll(input string) bool {
	n := strings.Join(extract.Tokens(input), " ")
	for _, p := range dicePhrases {
		if strings.Contains(" "+n+" ", " "+p+" ") {
			return true
		}
	}
	return false
}

// DiceOutcome is what a local roll produced.
type DiceOutcome struct {
	Element     board.Element
	Effect      board.Effect
	Current     board.Seat
	Next        board.Seat
	Seats       int
	Narrative   string // designer text for the element, already sanitized
	BoardStatus string
	NextSegment string
}

// DiceResponse renders the narrator's reply to a roll: turn banner when more
// than one player is seated, the outcome, the board and any pending segment.
func DiceResponse(o DiceOutcome) string {
	var parts []string
	if o.Seats > 1 {
		parts = append(parts, fmt.Sprintf("Vez de %s. Depois: %s.", o.Current.Name, o.Next.Name))
	}
	parts = append(parts, fmt.Sprintf("%s rolou os dados e tirou %s!", o.Current.Name, o.Element.Label()))
	switch o.Effect {
	case board.EffectCancelLight:
		parts = append(parts, "A Sombra apagou uma Luz.")
	case board.EffectCancelShadow:
		parts = append(parts, "A Luz dissipou uma Sombra.")
	}
	if n := strings.TrimSpace(o.Narrative); n != "" {
		parts = append(parts, n)
	} else {
		parts = append(parts, fmt.Sprintf("O elemento %s se manifesta ao seu redor.", o.Element.Label()))
	}
	parts = append(parts, "Tabuleiro:\n"+o.BoardStatus)
	if s := strings.TrimSpace(o.NextSegment); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n")
}
