package fixtures

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/repo"
)

// Result counts what Seed wrote.
type Result struct {
	Games        int
	Scenes       int
	Rules        int
	LLMConfigs   int
	Rooms        int
	Members      int
	SkippedGames []string // already present, left untouched
}

// Seeder writes fixtures. Env resolves api_key_env; nil means os.Getenv.
type Seeder struct {
	DB  *gorm.DB
	Env func(string) string
	Log zerolog.Logger
}

// Seed writes f in one transaction. Games whose ID already exists are
// skipped as a whole; global LLM configurations are skipped when an equal
// provider/model pair is already global. Running the same fixture twice is
// therefore a no-op.
func (s *Seeder) Seed(ctx context.Context, f *File) (Result, error) {
	var res Result
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range f.Games {
			_, err := repo.GetGame(ctx, tx, g.ID)
			switch {
			case err == nil:
				res.SkippedGames = append(res.SkippedGames, g.ID)
				s.Log.Info().Str("game_id", g.ID).Msg("game exists, skipped")
				continue
			case !errors.Is(err, repo.ErrNotFound):
				return err
			}
			if err := s.seedGame(ctx, tx, g, &res); err != nil {
				return err
			}
		}
		for _, c := range f.LLMConfigs {
			exists, err := globalConfigExists(ctx, tx, c)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := s.createConfig(ctx, tx, nil, c); err != nil {
				return err
			}
			res.LLMConfigs++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (s *Seeder) seedGame(ctx context.Context, tx *gorm.DB, g Game, res *Result) error {
	game := &domain.Game{ID: g.ID, Title: g.Title, Description: g.Description, IsActive: true}
	if err := repo.CreateGame(ctx, tx, game); err != nil {
		return err
	}
	if err := deactivate(tx, &domain.Game{}, game.ID, g.Active); err != nil {
		return err
	}
	res.Games++

	for i, sc := range g.Scenes {
		order := i
		if sc.Order != nil {
			order = *sc.Order
		}
		scene := &domain.Scene{GameID: g.ID, Name: sc.Name, Phase: sc.Phase, Order: order, FileContent: sc.Content, IsActive: true}
		if err := repo.CreateScene(ctx, tx, scene); err != nil {
			return err
		}
		if err := deactivate(tx, &domain.Scene{}, scene.ID, sc.Active); err != nil {
			return err
		}
		res.Scenes++
	}

	for _, r := range g.Rules {
		rule := &domain.GameRule{GameID: g.ID, Title: r.Title, Content: r.Content, IsActive: true}
		if err := repo.CreateRule(ctx, tx, rule); err != nil {
			return err
		}
		if err := deactivate(tx, &domain.GameRule{}, rule.ID, r.Active); err != nil {
			return err
		}
		res.Rules++
	}

	gameID := g.ID
	for _, c := range g.LLMConfigs {
		if err := s.createConfig(ctx, tx, &gameID, c); err != nil {
			return err
		}
		res.LLMConfigs++
	}

	for _, rm := range g.Rooms {
		room := &domain.Room{ID: rm.ID, GameID: g.ID, Name: rm.Name, FacilitatorID: rm.FacilitatorID}
		if err := repo.CreateRoom(ctx, tx, room); err != nil {
			return err
		}
		res.Rooms++
		for i, m := range rm.Members {
			pos := i
			if m.Position != nil {
				pos = *m.Position
			}
			member := &domain.RoomMember{RoomID: room.ID, PlayerID: m.PlayerID, DisplayName: m.DisplayName, Position: pos}
			if err := repo.AddRoomMember(ctx, tx, member); err != nil {
				return err
			}
			res.Members++
		}
	}

	s.Log.Info().Str("game_id", g.ID).Int("scenes", len(g.Scenes)).Int("rules", len(g.Rules)).Msg("game seeded")
	return nil
}

func (s *Seeder) createConfig(ctx context.Context, tx *gorm.DB, gameID *string, c LLMConfig) error {
	env := s.Env
	if env == nil {
		env = os.Getenv
	}
	var key string
	if c.APIKeyEnv != "" {
		key = env(c.APIKeyEnv)
		if key == "" {
			s.Log.Warn().Str("provider", c.Provider).Str("env", c.APIKeyEnv).Msg("api key variable is empty")
		}
	}
	cfg := &domain.LLMConfiguration{
		GameID:       gameID,
		Provider:     c.Provider,
		ModelName:    c.Model,
		APIKey:       key,
		BaseURL:      c.BaseURL,
		IsActive:     true,
		CostPerToken: c.CostPerToken,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
	}
	if err := repo.CreateLLMConfig(ctx, tx, cfg); err != nil {
		return err
	}
	return deactivate(tx, &domain.LLMConfiguration{}, cfg.ID, c.Active)
}

// deactivate clears is_active after insert. The column defaults to true, so
// a false value on Create would be replaced by the default.
func deactivate(tx *gorm.DB, model any, id string, flag *bool) error {
	if active(flag) {
		return nil
	}
	return tx.Model(model).Where("id = ?", id).Update("is_active", false).Error
}

func globalConfigExists(ctx context.Context, tx *gorm.DB, c LLMConfig) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&domain.LLMConfiguration{}).
		Where("game_id IS NULL AND provider = ? AND model_name = ?", c.Provider, c.Model).
		Count(&n).Error
	return n > 0, err
}
