package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-narrator-backend/internal/board"
	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/extract"
	"github.com/tbourn/go-narrator-backend/internal/observability"
	"github.com/tbourn/go-narrator-backend/internal/repo"
)

// Where a turn order came from.
const (
	OrderFromBoard   = "board"
	OrderFromRoom    = "room"
	OrderFromProfile = "profile"
)

// BoardOrder is the roll order of a session as seen by one player.
type BoardOrder struct {
	Order   []board.Seat `json:"order"`
	Current board.Seat   `json:"current"`
	Next    board.Seat   `json:"next"`
	Source  string       `json:"source"`
}

// BoardView is the rendered board of a player plus its raw document.
type BoardView struct {
	Status string      `json:"status"`
	State  board.State `json:"state"`
}

// BoardService answers read-only board queries. Writes happen in
// InteractionService.
type BoardService struct {
	DB *gorm.DB
}

// Order returns the turn order, the current and the next seat. Without a
// stored board the table is seated the same way the first dice roll seats
// it: see seatingOrder.
func (s *BoardService) Order(ctx context.Context, playerID, sessionID string) (*BoardOrder, error) {
	tr := otel.Tracer("services/BoardService")
	ctx, span := tr.Start(ctx, "Order",
		trace.WithAttributes(observability.SessionAttrs(sessionID, playerID)...),
	)
	defer span.End()

	state, err := s.state(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	out := &BoardOrder{Source: OrderFromBoard}

	if len(state.Order) == 0 {
		sess, err := repo.GetSession(ctx, s.DB, sessionID, playerID)
		if err != nil {
			return nil, err
		}
		history, err := repo.ListInteractions(ctx, s.DB, sessionID)
		if err != nil {
			return nil, err
		}
		profile := extract.GetPlayerProfile("", playerInputs(history))
		if state.Order, out.Source, err = seatingOrder(ctx, s.DB, sess, profile); err != nil {
			return nil, err
		}
	}

	out.Order = state.Order
	out.Current, _ = state.Current()
	out.Next, _ = state.Next()
	return out, nil
}

// seatingOrder seats a table that has no stored order: the roster the
// players declared wins, then the room roster, then the declared head count.
func seatingOrder(ctx context.Context, db *gorm.DB, sess *domain.Session, p extract.Profile) ([]board.Seat, string, error) {
	if len(p.Players) > 0 {
		return board.BuildRollOrder(p), OrderFromProfile, nil
	}
	if sess.RoomID != nil {
		names, err := rosterNames(ctx, db, *sess.RoomID)
		if err != nil {
			return nil, "", err
		}
		if order := board.OrderFromNames(names); len(order) > 0 {
			return order, OrderFromRoom, nil
		}
	}
	return board.BuildRollOrder(p), OrderFromProfile, nil
}

// Status renders the player's board.
func (s *BoardService) Status(ctx context.Context, playerID, sessionID string) (*BoardView, error) {
	state, err := s.state(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	return &BoardView{Status: board.FormatStatus(&state), State: state}, nil
}

// state loads the stored board after an ownership check. A missing board is
// an empty state.
func (s *BoardService) state(ctx context.Context, playerID, sessionID string) (board.State, error) {
	if _, err := repo.GetSession(ctx, s.DB, sessionID, playerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return board.State{}, ErrSessionNotFound
		}
		return board.State{}, err
	}
	row, err := repo.GetBoard(ctx, s.DB, sessionID, playerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return board.State{}, nil
		}
		return board.State{}, err
	}
	return board.Decode(row.State)
}
