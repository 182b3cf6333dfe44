// Package board keeps the per-session elemental counters of each player slot
// and the turn order in which dice rolls are applied.
//
// The state is a plain JSON document stored on the PlayerBoard row. Callers
// must serialize updates per session: Update is a read-modify-write.
package board

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/tbourn/go-narrator-backend/internal/extract"
)

// Element is one of the six tokens a roll can produce.
type Element string

const (
	Agua   Element = "agua"
	Ar     Element = "ar"
	Terra  Element = "terra"
	Fogo   Element = "fogo"
	Sombra Element = "sombra"
	Luz    Element = "luz"
)

// All lists the elements in display order.
var All = []Element{Agua, Ar, Terra, Fogo, Sombra, Luz}

var labels = map[Element]string{
	Agua: "Água", Ar: "Ar", Terra: "Terra", Fogo: "Fogo", Sombra: "Sombra", Luz: "Luz",
}

// Label is the player-facing name.
func (e Element) Label() string {
	if l, ok := labels[e]; ok {
		return l
	}
	return string(e)
}

// ParseElement accepts any casing or accents ("Água", "LUZ").
func ParseElement(s string) (Element, bool) {
	e := Element(extract.Normalize(s))
	_, ok := labels[e]
	return e, ok
}

// Roll picks an element uniformly. intn defaults to math/rand/v2.
func Roll(intn func(int) int) Element {
	if intn == nil {
		intn = rand.IntN
	}
	return All[intn(len(All))]
}

// Effect records what applying an element did to a slot.
type Effect string

const (
	EffectIncrement    Effect = "incrementou"
	EffectCancelLight  Effect = "cancelou_luz"
	EffectCancelShadow Effect = "cancelou_sombra"
)

// Entry is one applied roll.
type Entry struct {
	Element   Element   `json:"element"`
	Effect    Effect    `json:"effect"`
	Timestamp time.Time `json:"timestamp"`
}

// Slot holds one player's counters. Zero counts are removed.
type Slot struct {
	Counts  map[Element]int `json:"counts"`
	History []Entry         `json:"history"`
}

// Seat is a position in the turn order.
type Seat struct {
	Slot string `json:"slot"`
	Name string `json:"name"`
}

// State is the board document.
type State struct {
	Order     []Seat           `json:"order"`
	TurnIndex int              `json:"turn_index"`
	Slots     map[string]*Slot `json:"slots"`
}

// antagonist pairs shadow and light.
var antagonist = map[Element]struct {
	other  Element
	effect Effect
}{
	Sombra: {Luz, EffectCancelLight},
	Luz:    {Sombra, EffectCancelShadow},
}

// Apply adds e to s. Shadow and light cancel each other: adding one while the
// other is positive decrements the other instead of growing.
func Apply(s *Slot, e Element, now time.Time) Effect {
	if s.Counts == nil {
		s.Counts = make(map[Element]int)
	}
	effect := EffectIncrement
	if a, ok := antagonist[e]; ok && s.Counts[a.other] > 0 {
		s.Counts[a.other]--
		if s.Counts[a.other] == 0 {
			delete(s.Counts, a.other)
		}
		effect = a.effect
	} else {
		s.Counts[e]++
	}
	s.History = append(s.History, Entry{Element: e, Effect: effect, Timestamp: now.UTC()})
	return effect
}

// SlotKey names the n-th (1-based) seat.
func SlotKey(n int) string { return fmt.Sprintf("jogador_%d", n) }

// BuildRollOrder derives the turn order from a profile: one seat per listed
// player, else one per declared head count (at least one).
func BuildRollOrder(p extract.Profile) []Seat {
	if len(p.Players) > 0 {
		order := make([]Seat, len(p.Players))
		for i, pl := range p.Players {
			order[i] = Seat{Slot: SlotKey(i + 1), Name: pl.Name}
			if order[i].Name == "" {
				order[i].Name = fmt.Sprintf("Jogador %d", i+1)
			}
		}
		return order
	}
	n := p.Count
	if n < 1 {
		n = 1
	}
	order := make([]Seat, n)
	for i := range order {
		order[i] = Seat{Slot: SlotKey(i + 1), Name: fmt.Sprintf("Jogador %d", i+1)}
	}
	if n == 1 && p.Name != "" {
		order[0].Name = p.Name
	}
	return order
}

// OrderFromNames builds a turn order from a roster of display names.
func OrderFromNames(names []string) []Seat {
	order := make([]Seat, 0, len(names))
	for i, name := range names {
		if name == "" {
			name = fmt.Sprintf("Jogador %d", i+1)
		}
		order = append(order, Seat{Slot: SlotKey(i + 1), Name: name})
	}
	return order
}

func (st *State) turn() int {
	n := len(st.Order)
	if n == 0 {
		return 0
	}
	return ((st.TurnIndex % n) + n) % n
}

// Current returns the seat whose turn it is.
func (st *State) Current() (Seat, bool) {
	if len(st.Order) == 0 {
		return Seat{}, false
	}
	return st.Order[st.turn()], true
}

// Next returns the seat after the current one.
func (st *State) Next() (Seat, bool) {
	if len(st.Order) == 0 {
		return Seat{}, false
	}
	return st.Order[(st.turn()+1)%len(st.Order)], true
}

// Update applies e to the current seat and rotates the turn. The order is
// initialized from p on first use. It returns the seat that rolled and the
// seat that rolls next.
func (st *State) Update(e Element, p extract.Profile, now time.Time) (current, next Seat, effect Effect) {
	if len(st.Order) == 0 {
		st.Order = BuildRollOrder(p)
	}
	if st.Slots == nil {
		st.Slots = make(map[string]*Slot)
	}
	idx := st.turn()
	current = st.Order[idx]
	slot, ok := st.Slots[current.Slot]
	if !ok || slot == nil {
		slot = &Slot{}
		st.Slots[current.Slot] = slot
	}
	effect = Apply(slot, e, now)
	st.TurnIndex = (idx + 1) % len(st.Order)
	next = st.Order[st.TurnIndex]
	return current, next, effect
}

// Decode parses a stored document. Empty input yields an empty state.
func Decode(raw []byte) (State, error) {
	var st State
	if len(raw) == 0 || string(raw) == "null" {
		return st, nil
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode board: %w", err)
	}
	return st, nil
}

// Encode serializes the state for storage.
func (st State) Encode() ([]byte, error) {
	return json.Marshal(st)
}
