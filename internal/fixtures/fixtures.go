// Package fixtures loads game content from YAML files and seeds it into the
// database. A fixture describes whole games (scenes, rule documents, LLM
// configurations and rooms) plus global LLM configurations.
//
// Scene and rule text can be inline or read from a file relative to the
// fixture. API keys are never stored in fixtures; api_key_env names the
// environment variable that holds them.
package fixtures

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure of a fixture.
var ErrInvalid = errors.New("fixtures: invalid fixture")

// File is the root of a fixture document.
type File struct {
	Games      []Game      `yaml:"games"`
	LLMConfigs []LLMConfig `yaml:"llm_configs"` // global, usable by every game
}

// Game is one game and everything scoped to it.
type Game struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Active      *bool       `yaml:"active"`
	Scenes      []Scene     `yaml:"scenes"`
	Rules       []Rule      `yaml:"rules"`
	LLMConfigs  []LLMConfig `yaml:"llm_configs"`
	Rooms       []Room      `yaml:"rooms"`
}

// Scene is a narrative unit. Order defaults to the position in the list.
type Scene struct {
	Name    string `yaml:"name"`
	Phase   int    `yaml:"phase"`
	Order   *int   `yaml:"order"`
	Content string `yaml:"content"`
	File    string `yaml:"file"`
	Active  *bool  `yaml:"active"`
}

// Rule is a rule document.
type Rule struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	File    string `yaml:"file"`
	Active  *bool  `yaml:"active"`
}

// LLMConfig is a provider/model pair.
type LLMConfig struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	BaseURL      string  `yaml:"base_url"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	CostPerToken float64 `yaml:"cost_per_token"`
	Active       *bool   `yaml:"active"`
}

// Room is a table of players around a facilitator.
type Room struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	FacilitatorID string   `yaml:"facilitator_id"`
	Members       []Member `yaml:"members"`
}

// Member seats a player. Position defaults to the position in the list.
type Member struct {
	PlayerID    string `yaml:"player_id"`
	DisplayName string `yaml:"display_name"`
	Position    *int   `yaml:"position"`
}

// Load reads, resolves and validates the fixture at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a fixture. Relative file references resolve against dir.
// Unknown keys are rejected so typos do not silently drop content.
func Parse(data []byte, dir string) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := f.resolve(dir); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) resolve(dir string) error {
	for gi := range f.Games {
		g := &f.Games[gi]
		for si := range g.Scenes {
			s := &g.Scenes[si]
			text, err := readText(dir, s.File, s.Content)
			if err != nil {
				return fmt.Errorf("scene %q: %w", s.Name, err)
			}
			s.Content = text
		}
		for ri := range g.Rules {
			r := &g.Rules[ri]
			text, err := readText(dir, r.File, r.Content)
			if err != nil {
				return fmt.Errorf("rule %q: %w", r.Title, err)
			}
			r.Content = text
		}
	}
	return nil
}

func readText(dir, file, inline string) (string, error) {
	if file == "" {
		return inline, nil
	}
	if inline != "" {
		return "", fmt.Errorf("%w: both file and content set", ErrInvalid)
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(b), "\r\n", "\n"), nil
}

// Validate checks required fields and uniqueness inside the fixture.
func (f *File) Validate() error {
	games := make(map[string]bool, len(f.Games))
	for _, g := range f.Games {
		if strings.TrimSpace(g.ID) == "" || strings.TrimSpace(g.Title) == "" {
			return fmt.Errorf("%w: game needs id and title", ErrInvalid)
		}
		if games[g.ID] {
			return fmt.Errorf("%w: duplicate game %q", ErrInvalid, g.ID)
		}
		games[g.ID] = true

		scenes := make(map[string]bool, len(g.Scenes))
		for _, s := range g.Scenes {
			if strings.TrimSpace(s.Name) == "" {
				return fmt.Errorf("%w: game %q has a scene without name", ErrInvalid, g.ID)
			}
			if scenes[s.Name] {
				return fmt.Errorf("%w: game %q repeats scene %q", ErrInvalid, g.ID, s.Name)
			}
			scenes[s.Name] = true
		}
		for _, r := range g.Rules {
			if strings.TrimSpace(r.Title) == "" {
				return fmt.Errorf("%w: game %q has a rule without title", ErrInvalid, g.ID)
			}
		}
		for _, c := range g.LLMConfigs {
			if err := c.validate(); err != nil {
				return err
			}
		}
		for _, rm := range g.Rooms {
			if strings.TrimSpace(rm.Name) == "" {
				return fmt.Errorf("%w: game %q has a room without name", ErrInvalid, g.ID)
			}
			seated := make(map[string]bool, len(rm.Members))
			for _, m := range rm.Members {
				if strings.TrimSpace(m.PlayerID) == "" || seated[m.PlayerID] {
					return fmt.Errorf("%w: room %q has a blank or repeated player", ErrInvalid, rm.Name)
				}
				seated[m.PlayerID] = true
			}
		}
	}
	for _, c := range f.LLMConfigs {
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c LLMConfig) validate() error {
	if strings.TrimSpace(c.Provider) == "" || strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: llm config needs provider and model", ErrInvalid)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature of %s/%s out of [0,2]", ErrInvalid, c.Provider, c.Model)
	}
	return nil
}

func active(b *bool) bool { return b == nil || *b }
