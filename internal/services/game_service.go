package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/repo"
)

// GameService serves the read-only game catalog.
type GameService struct {
	DB *gorm.DB
}

// ListGames returns the active games.
func (s *GameService) ListGames(ctx context.Context) ([]domain.Game, error) {
	return repo.ListGames(ctx, s.DB)
}

// ListScenes returns the active scenes of a game in play order.
func (s *GameService) ListScenes(ctx context.Context, gameID string) ([]domain.Scene, error) {
	if _, err := repo.GetGame(ctx, s.DB, gameID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return repo.ListActiveScenes(ctx, s.DB, gameID)
}

// ListLLMConfigs returns the LLM configurations usable by gameID, or all of
// them when gameID is empty. API keys never leave the domain model.
func (s *GameService) ListLLMConfigs(ctx context.Context, gameID string) ([]domain.LLMConfiguration, error) {
	return repo.ListLLMConfigs(ctx, s.DB, gameID)
}
