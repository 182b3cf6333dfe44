package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/http/middleware"
	"github.com/tbourn/go-narrator-backend/internal/repo"
	"github.com/tbourn/go-narrator-backend/internal/services"
)

func Test_sanitizeInput(t *testing.T) {
	in := "  linha 1\r\nlinha 2\r\r\r\n\n\nlinha 3  "
	if got := sanitizeInput(in); got != "linha 1\nlinha 2\n\nlinha 3" {
		t.Fatalf("got %q", got)
	}
}

func TestPostSessionInteraction_PassesRequestAndReturns201(t *testing.T) {
	id := uuid.NewString()
	var got services.InteractRequest
	inter := stubInteractions{interact: func(_ context.Context, req services.InteractRequest) (*services.InteractResult, error) {
		got = req
		return &services.InteractResult{
			Interaction: &domain.Interaction{ID: "i1", SessionID: req.SessionID, PlayerInput: req.Input, AIResponse: "Olá!"},
			Resumed:     true,
		}, nil
	}}
	r := mount(New(stubSessions{}, inter, nil, nil, nil))

	h := asPlayer("ana")
	h[middleware.HeaderIdempotencyKey] = "k-1"
	w := do(r, http.MethodPost, "/sessions/"+id+"/interactions", InteractionRequest{
		PlayerInput:          "  Olá\r\n",
		PlayerInputType:      "voice",
		IncludeAudioResponse: true,
	}, h)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := services.InteractRequest{
		SessionID:      id,
		PlayerID:       "ana",
		Input:          "Olá",
		InputType:      "voice",
		IncludeAudio:   true,
		IdempotencyKey: "k-1",
	}
	if got != want {
		t.Fatalf("service got %+v, want %+v", got, want)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["id"] != "i1" || body["ai_response"] != "Olá!" || body["resumed"] != true {
		t.Fatalf("body=%v", body)
	}
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("fresh turn must not be marked replayed")
	}
}

func TestPostSessionInteraction_Validation(t *testing.T) {
	id := uuid.NewString()
	called := false
	inter := stubInteractions{interact: func(context.Context, services.InteractRequest) (*services.InteractResult, error) {
		called = true
		return nil, nil
	}}
	r := mount(New(stubSessions{}, inter, nil, nil, nil))

	cases := []struct {
		name string
		path string
		body any
	}{
		{"bad uuid", "/sessions/nope/interactions", InteractionRequest{PlayerInput: "oi"}},
		{"missing input", "/sessions/" + id + "/interactions", `{}`},
		{"blank after sanitize", "/sessions/" + id + "/interactions", InteractionRequest{PlayerInput: "\r\n  "}},
		{"session mismatch", "/sessions/" + id + "/interactions", InteractionRequest{SessionID: uuid.NewString(), PlayerInput: "oi"}},
		{"body route without session", "/interactions", InteractionRequest{PlayerInput: "oi"}},
	}
	for _, tc := range cases {
		w := do(r, http.MethodPost, tc.path, tc.body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d body=%s", tc.name, w.Code, w.Body.String())
		}
	}
	if called {
		t.Fatalf("service must not be called for invalid requests")
	}
}

func TestPostInteraction_BodyRouteAndReplay(t *testing.T) {
	id := uuid.NewString()
	inter := stubInteractions{interact: func(_ context.Context, req services.InteractRequest) (*services.InteractResult, error) {
		return &services.InteractResult{
			Interaction: &domain.Interaction{ID: "i9", SessionID: req.SessionID},
			Replayed:    req.IdempotencyKey != "",
		}, nil
	}}
	r := mount(New(stubSessions{}, inter, nil, nil, nil))

	w := do(r, http.MethodPost, "/interactions", InteractionRequest{SessionID: id, PlayerInput: "rolar os dados"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/interactions", InteractionRequest{SessionID: id, PlayerInput: "rolar os dados"},
		map[string]string{middleware.HeaderIdempotencyKey: "again"})
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay: status=%d headers=%v", w.Code, w.Header())
	}
}

func TestPostInteraction_ErrorMappings(t *testing.T) {
	id := uuid.NewString()
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrSessionNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrSessionNotActive, http.StatusBadRequest, ErrCodeInvalidState},
		{services.ErrInputTooLong, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrSessionBusy, http.StatusConflict, ErrCodeConflict},
		{services.ErrNoScenes, http.StatusUnprocessableEntity, ErrCodeNoScenes},
		{services.ErrNoLLMConfig, http.StatusServiceUnavailable, ErrCodeNoLLMConfig},
		{fmt.Errorf("%w: 401 unauthorized", services.ErrGenerationFailed), http.StatusBadGateway, ErrCodeGenerationFailed},
	}
	for _, tc := range cases {
		inter := stubInteractions{interact: func(context.Context, services.InteractRequest) (*services.InteractResult, error) {
			return nil, tc.err
		}}
		r := mount(New(stubSessions{}, inter, nil, nil, nil))
		w := do(r, http.MethodPost, "/sessions/"+id+"/interactions", InteractionRequest{PlayerInput: "oi"}, nil)
		if w.Code != tc.status {
			t.Fatalf("%v: status=%d", tc.err, w.Code)
		}
		er := decodeError(t, w)
		if er.Code != tc.code || er.RequestID == "" {
			t.Fatalf("%v: body=%+v", tc.err, er)
		}
	}
}

func TestListInteractions_StubPagination(t *testing.T) {
	id := uuid.NewString()
	var gotPage, gotSize int
	inter := stubInteractions{history: func(_ context.Context, p, sid string, page, size int) ([]domain.Interaction, int64, error) {
		if p != "ana" || sid != id {
			return nil, 0, services.ErrSessionNotFound
		}
		gotPage, gotSize = page, size
		return []domain.Interaction{{ID: "i3"}, {ID: "i2"}}, 3, nil
	}}
	r := mount(New(stubSessions{}, inter, nil, nil, nil))

	w := do(r, http.MethodGet, "/sessions/"+id+"/interactions?page=1&page_size=2", nil, asPlayer("ana"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ListInteractionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if gotPage != 1 || gotSize != 2 || len(resp.Interactions) != 2 || !resp.Pagination.HasNext {
		t.Fatalf("page=%d size=%d resp=%+v", gotPage, gotSize, resp)
	}

	if w := do(r, http.MethodGet, "/sessions/"+id+"/interactions", nil, asPlayer("bruno")); w.Code != http.StatusNotFound {
		t.Fatalf("other player: status=%d", w.Code)
	}
}

func TestListInteractions_ETag304(t *testing.T) {
	db := newHandlerDB(t)
	ctx := context.Background()
	if err := repo.CreateGame(ctx, db, &domain.Game{ID: "g1", Title: "Elementos"}); err != nil {
		t.Fatalf("seed game: %v", err)
	}
	sess := &domain.Session{GameID: "g1", PlayerID: "ana"}
	if err := repo.CreateSession(ctx, db, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	for i, in := range []string{"Olá", "Somos 2"} {
		it := &domain.Interaction{SessionID: sess.ID, Seq: int64(i + 1), PlayerInput: in, AIResponse: "ok"}
		if err := repo.CreateInteraction(ctx, db, it); err != nil {
			t.Fatalf("seed interaction: %v", err)
		}
	}

	sessions := services.NewSessionService(db, testSessionRepo{})
	inter := services.NewInteractionService(db, zerolog.Nop())
	r := mount(New(sessions, inter, nil, nil, nil))

	path := "/sessions/" + sess.ID + "/interactions"
	w := do(r, http.MethodGet, path, nil, asPlayer("ana"))
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || etag == "" {
		t.Fatalf("status=%d etag=%q", w.Code, etag)
	}
	var resp ListInteractionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Interactions) != 2 || resp.Interactions[0].PlayerInput != "Somos 2" {
		t.Fatalf("expected newest first: %+v", resp.Interactions)
	}

	h := asPlayer("ana")
	h["If-None-Match"] = etag
	if w := do(r, http.MethodGet, path, nil, h); w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	h = asPlayer("bruno")
	h["If-None-Match"] = etag
	if w := do(r, http.MethodGet, path, nil, h); w.Code != http.StatusNotFound {
		t.Fatalf("ETag must not bypass ownership, got %d", w.Code)
	}
}
