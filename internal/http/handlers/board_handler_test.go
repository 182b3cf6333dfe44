package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/tbourn/go-narrator-backend/internal/board"
	"github.com/tbourn/go-narrator-backend/internal/services"
)

func TestGetBoardOrder(t *testing.T) {
	id := uuid.NewString()
	boards := stubBoards{order: func(_ context.Context, p, sid string) (*services.BoardOrder, error) {
		if p != "ana" {
			return nil, services.ErrSessionNotFound
		}
		ana := board.Seat{Slot: board.SlotKey(1), Name: "Ana"}
		bruno := board.Seat{Slot: board.SlotKey(2), Name: "Bruno"}
		return &services.BoardOrder{Order: []board.Seat{ana, bruno}, Current: ana, Next: bruno, Source: services.OrderFromRoom}, nil
	}}
	r := mount(New(stubSessions{}, stubInteractions{}, boards, nil, nil))

	w := do(r, http.MethodGet, "/sessions/"+id+"/board-order", nil, asPlayer("ana"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got services.BoardOrder
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(got.Order) != 2 || got.Current.Name != "Ana" || got.Next.Name != "Bruno" || got.Source != services.OrderFromRoom {
		t.Fatalf("got %+v", got)
	}

	if w := do(r, http.MethodGet, "/sessions/"+id+"/board-order", nil, asPlayer("caio")); w.Code != http.StatusNotFound {
		t.Fatalf("other player: status=%d", w.Code)
	}
	if w := do(r, http.MethodGet, "/sessions/x/board-order", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status=%d", w.Code)
	}
}

func TestGetBoard(t *testing.T) {
	id := uuid.NewString()
	boards := stubBoards{status: func(context.Context, string, string) (*services.BoardView, error) {
		return &services.BoardView{Status: board.NoRecords}, nil
	}}
	r := mount(New(stubSessions{}, stubInteractions{}, boards, nil, nil))

	w := do(r, http.MethodGet, "/sessions/"+id+"/board", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var got services.BoardView
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.Status != board.NoRecords {
		t.Fatalf("got %+v err=%v", got, err)
	}

	failing := stubBoards{status: func(context.Context, string, string) (*services.BoardView, error) {
		return nil, errors.New("corrupt board")
	}}
	w = do(mount(New(stubSessions{}, stubInteractions{}, failing, nil, nil)), http.MethodGet, "/sessions/"+id+"/board", nil, nil)
	if w.Code != http.StatusInternalServerError || decodeError(t, w).Message == "corrupt board" {
		t.Fatalf("internal errors must not leak: status=%d body=%s", w.Code, w.Body.String())
	}
}
