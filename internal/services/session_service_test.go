package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/domain"
)

// ----- Fake repo -----

type fakeSessionRepo struct {
	games    map[string]bool
	scenes   []domain.Scene
	sessions map[string]*domain.Session

	resumable *domain.Session
	createErr error
	created   *domain.Session

	countTotal int64
	countErr   error
	pageOffset int
	pageLimit  int
	pageItems  []domain.Session

	updates []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		games:    map[string]bool{"g1": true},
		sessions: map[string]*domain.Session{},
	}
}

func (r *fakeSessionRepo) GetGame(_ context.Context, _ *gorm.DB, id string) (*domain.Game, error) {
	if !r.games[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &domain.Game{ID: id}, nil
}

func (r *fakeSessionRepo) ListActiveScenes(context.Context, *gorm.DB, string) ([]domain.Scene, error) {
	return r.scenes, nil
}

func (r *fakeSessionRepo) FindResumableSession(context.Context, *gorm.DB, string, string) (*domain.Session, error) {
	if r.resumable == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.resumable, nil
}

func (r *fakeSessionRepo) CreateSession(_ context.Context, _ *gorm.DB, s *domain.Session) error {
	if r.createErr != nil {
		return r.createErr
	}
	s.ID = "s-new"
	r.created = s
	return nil
}

func (r *fakeSessionRepo) GetSession(_ context.Context, _ *gorm.DB, id, playerID string) (*domain.Session, error) {
	s, ok := r.sessions[id]
	if !ok || s.PlayerID != playerID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) UpdateSessionStatus(_ context.Context, _ *gorm.DB, id, _ string, status string) error {
	r.updates = append(r.updates, status)
	r.sessions[id].Status = status
	return nil
}

func (r *fakeSessionRepo) CountSessions(context.Context, *gorm.DB, string) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeSessionRepo) ListSessionsPage(_ context.Context, _ *gorm.DB, _ string, offset, limit int) ([]domain.Session, error) {
	r.pageOffset, r.pageLimit = offset, limit
	return r.pageItems, nil
}

// ----- Tests -----

func TestSessionService_Create_UnknownGame(t *testing.T) {
	s := NewSessionService(nil, newFakeSessionRepo())
	if _, _, err := s.Create(context.Background(), CreateSessionRequest{PlayerID: "p", GameID: "nope"}); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("want ErrGameNotFound, got %v", err)
	}
	if _, _, err := s.Create(context.Background(), CreateSessionRequest{PlayerID: "p", GameID: "  "}); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("blank game: want ErrGameNotFound, got %v", err)
	}
}

func TestSessionService_Create_ReturnsResumable(t *testing.T) {
	r := newFakeSessionRepo()
	r.resumable = &domain.Session{ID: "s-old", GameID: "g1", PlayerID: "p", Status: domain.SessionPaused}
	s := NewSessionService(nil, r)

	sess, created, err := s.Create(context.Background(), CreateSessionRequest{PlayerID: "p", GameID: "g1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created || sess.ID != "s-old" || r.created != nil {
		t.Fatalf("expected existing session, got created=%v %+v", created, sess)
	}
}

func TestSessionService_Create_StartsOnBaseScene(t *testing.T) {
	r := newFakeSessionRepo()
	r.scenes = []domain.Scene{
		{ID: "0a", Name: "Cena 0A - Portal da Água"},
		{ID: "intro", Name: "Introdução"},
	}
	s := NewSessionService(nil, r)

	sess, created, err := s.Create(context.Background(), CreateSessionRequest{PlayerID: "p", GameID: "g1", RoomID: " r1 "})
	if err != nil || !created {
		t.Fatalf("Create: created=%v err=%v", created, err)
	}
	if sess.CurrentSceneID == nil || *sess.CurrentSceneID != "intro" {
		t.Fatalf("expected intro as base scene, got %v", sess.CurrentSceneID)
	}
	if sess.StartSceneID == nil || *sess.StartSceneID != "intro" {
		t.Fatalf("expected intro recorded as start scene, got %v", sess.StartSceneID)
	}
	if sess.RoomID == nil || *sess.RoomID != "r1" {
		t.Fatalf("room not trimmed/stored: %v", sess.RoomID)
	}
	if sess.Status != domain.SessionActive || sess.PlayerID != "p" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestSessionService_Create_NoScenes_LeavesPointerEmpty(t *testing.T) {
	s := NewSessionService(nil, newFakeSessionRepo())
	sess, _, err := s.Create(context.Background(), CreateSessionRequest{PlayerID: "p", GameID: "g1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.CurrentSceneID != nil {
		t.Fatalf("expected nil scene pointer")
	}
}

func TestSessionService_Create_RepoError(t *testing.T) {
	r := newFakeSessionRepo()
	r.createErr = errors.New("boom")
	s := NewSessionService(nil, r)
	if _, _, err := s.Create(context.Background(), CreateSessionRequest{PlayerID: "p", GameID: "g1"}); err == nil || err.Error() != "boom" {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestSessionService_Get_Ownership(t *testing.T) {
	r := newFakeSessionRepo()
	r.sessions["s1"] = &domain.Session{ID: "s1", PlayerID: "alice", Status: domain.SessionActive}
	s := NewSessionService(nil, r)

	if _, err := s.Get(context.Background(), "bob", "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
	got, err := s.Get(context.Background(), "alice", "s1")
	if err != nil || got.ID != "s1" {
		t.Fatalf("Get: %v %+v", err, got)
	}
}

func TestSessionService_ListPage(t *testing.T) {
	r := newFakeSessionRepo()
	s := NewSessionService(nil, r)

	items, total, err := s.ListPage(context.Background(), "p", 0, 0)
	if err != nil || total != 0 || len(items) != 0 || items == nil {
		t.Fatalf("empty page: items=%v total=%d err=%v", items, total, err)
	}

	r.countTotal = 3
	r.pageItems = []domain.Session{{ID: "a"}}
	items, total, err = s.ListPage(context.Background(), "p", 3, 1)
	if err != nil || total != 3 || len(items) != 1 {
		t.Fatalf("page: items=%v total=%d err=%v", items, total, err)
	}
	if r.pageOffset != 2 || r.pageLimit != 1 {
		t.Fatalf("offset/limit = %d/%d", r.pageOffset, r.pageLimit)
	}

	r.countErr = errors.New("count failed")
	if _, _, err := s.ListPage(context.Background(), "p", 1, 10); err == nil {
		t.Fatalf("expected count error")
	}
}

func TestSessionService_Lifecycle(t *testing.T) {
	r := newFakeSessionRepo()
	r.sessions["s1"] = &domain.Session{ID: "s1", PlayerID: "p", Status: domain.SessionActive}
	s := NewSessionService(nil, r)
	ctx := context.Background()

	got, err := s.Pause(ctx, "p", "s1")
	if err != nil || got.Status != domain.SessionPaused {
		t.Fatalf("Pause: %v %+v", err, got)
	}
	// Pausing twice does not write again.
	if _, err := s.Pause(ctx, "p", "s1"); err != nil {
		t.Fatalf("second Pause: %v", err)
	}
	got, err = s.Resume(ctx, "p", "s1")
	if err != nil || got.Status != domain.SessionActive {
		t.Fatalf("Resume: %v %+v", err, got)
	}
	got, err = s.Finish(ctx, "p", "s1")
	if err != nil || got.Status != domain.SessionFinished {
		t.Fatalf("Finish: %v %+v", err, got)
	}
	if want := []string{domain.SessionPaused, domain.SessionActive, domain.SessionFinished}; len(r.updates) != len(want) {
		t.Fatalf("updates = %v, want %v", r.updates, want)
	}

	if _, err := s.Resume(ctx, "p", "s1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resume finished: want ErrInvalidTransition, got %v", err)
	}
	if _, err := s.Pause(ctx, "p", "s1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pause finished: want ErrInvalidTransition, got %v", err)
	}
	if _, err := s.Finish(ctx, "p", "s1"); err != nil {
		t.Fatalf("finishing twice is a no-op, got %v", err)
	}
	if _, err := s.Pause(ctx, "other", "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}
