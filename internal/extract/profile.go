package extract

// Profile is what the narrator knows about the group at the table.
// Age is zero when unknown.
type Profile struct {
	Name    string   `json:"name,omitempty"`
	Age     int      `json:"age,omitempty"`
	Count   int      `json:"count,omitempty"`
	Players []Player `json:"players,omitempty"`
}

// Known reports whether any fact was found.
func (p Profile) Known() bool {
	return p.Name != "" || p.Age > 0 || p.Count > 0 || len(p.Players) > 0
}

// Substantial reports whether the profile identifies at least a name and an
// age, or a roster.
func (p Profile) Substantial() bool {
	return (p.Name != "" && p.Age > 0) || len(p.Players) > 0
}

// YoungestAge returns the lowest known age across the profile and its roster.
func (p Profile) YoungestAge() (int, bool) {
	best := p.Age
	for _, pl := range p.Players {
		if pl.Age > 0 && (best == 0 || pl.Age < best) {
			best = pl.Age
		}
	}
	return best, best > 0
}

// FromText extracts a profile from a single message.
func FromText(text string) Profile {
	var p Profile
	if v, ok := ExtractAge(text); ok {
		p.Age = v
	}
	if v, ok := ExtractPlayerName(text); ok {
		p.Name = v
	}
	if v, ok := ExtractPlayerCount(text); ok {
		p.Count = v
	}
	p.Players = ParsePlayersList(text)
	return p
}

// merge fills zero fields of p from o.
func (p *Profile) merge(o Profile) {
	if p.Name == "" {
		p.Name = o.Name
	}
	if p.Age == 0 {
		p.Age = o.Age
	}
	if p.Count == 0 {
		p.Count = o.Count
	}
	if len(p.Players) == 0 && len(o.Players) > 0 {
		p.Players = append([]Player(nil), o.Players...)
	}
}

// GetPlayerProfile builds the profile for the current turn. Facts stated in
// current take precedence; gaps are filled from history, oldest first, so a
// name given in the first turn survives every later turn.
func GetPlayerProfile(current string, history []string) Profile {
	p := FromText(current)
	for _, h := range history {
		p.merge(FromText(h))
	}
	if p.Count == 0 {
		switch {
		case len(p.Players) > 0:
			p.Count = len(p.Players)
		case p.Name != "" && p.Age > 0:
			p.Count = 1
		}
	}
	return p
}
