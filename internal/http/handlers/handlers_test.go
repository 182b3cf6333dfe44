package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/http/middleware"
	"github.com/tbourn/go-narrator-backend/internal/repo"
	"github.com/tbourn/go-narrator-backend/internal/services"
)

// ---------- test DB + repo shim ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testSessionRepo implements services.SessionRepo over the repo package.
type testSessionRepo struct{}

func (testSessionRepo) GetGame(ctx context.Context, db *gorm.DB, id string) (*domain.Game, error) {
	return repo.GetGame(ctx, db, id)
}

func (testSessionRepo) ListActiveScenes(ctx context.Context, db *gorm.DB, gameID string) ([]domain.Scene, error) {
	return repo.ListActiveScenes(ctx, db, gameID)
}

func (testSessionRepo) FindResumableSession(ctx context.Context, db *gorm.DB, playerID, gameID string) (*domain.Session, error) {
	return repo.FindResumableSession(ctx, db, playerID, gameID)
}

func (testSessionRepo) CreateSession(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	return repo.CreateSession(ctx, db, s)
}

func (testSessionRepo) GetSession(ctx context.Context, db *gorm.DB, id, playerID string) (*domain.Session, error) {
	return repo.GetSession(ctx, db, id, playerID)
}

func (testSessionRepo) UpdateSessionStatus(ctx context.Context, db *gorm.DB, id, playerID, status string) error {
	return repo.UpdateSessionStatus(ctx, db, id, playerID, status)
}

func (testSessionRepo) CountSessions(ctx context.Context, db *gorm.DB, playerID string) (int64, error) {
	return repo.CountSessions(ctx, db, playerID)
}

func (testSessionRepo) ListSessionsPage(ctx context.Context, db *gorm.DB, playerID string, offset, limit int) ([]domain.Session, error) {
	return repo.ListSessionsPage(ctx, db, playerID, offset, limit)
}

// ---------- stub services ----------

type stubSessions struct {
	create func(context.Context, services.CreateSessionRequest) (*domain.Session, bool, error)
	get    func(context.Context, string, string) (*domain.Session, error)
	list   func(context.Context, string, int, int) ([]domain.Session, int64, error)
	status func(context.Context, string, string) (*domain.Session, error)
}

func (s stubSessions) Create(ctx context.Context, req services.CreateSessionRequest) (*domain.Session, bool, error) {
	if s.create != nil {
		return s.create(ctx, req)
	}
	return &domain.Session{ID: uuid.NewString(), GameID: req.GameID, PlayerID: req.PlayerID}, true, nil
}

func (s stubSessions) Get(ctx context.Context, p, id string) (*domain.Session, error) {
	if s.get != nil {
		return s.get(ctx, p, id)
	}
	return &domain.Session{ID: id, PlayerID: p, Status: domain.SessionActive}, nil
}

func (s stubSessions) ListPage(ctx context.Context, p string, page, size int) ([]domain.Session, int64, error) {
	if s.list != nil {
		return s.list(ctx, p, page, size)
	}
	return []domain.Session{}, 0, nil
}

func (s stubSessions) Pause(ctx context.Context, p, id string) (*domain.Session, error) {
	return s.statusOr(ctx, p, id, domain.SessionPaused)
}

func (s stubSessions) Resume(ctx context.Context, p, id string) (*domain.Session, error) {
	return s.statusOr(ctx, p, id, domain.SessionActive)
}

func (s stubSessions) Finish(ctx context.Context, p, id string) (*domain.Session, error) {
	return s.statusOr(ctx, p, id, domain.SessionFinished)
}

func (s stubSessions) statusOr(ctx context.Context, p, id, status string) (*domain.Session, error) {
	if s.status != nil {
		return s.status(ctx, p, id)
	}
	return &domain.Session{ID: id, PlayerID: p, Status: status}, nil
}

type stubInteractions struct {
	interact func(context.Context, services.InteractRequest) (*services.InteractResult, error)
	history  func(context.Context, string, string, int, int) ([]domain.Interaction, int64, error)
}

func (s stubInteractions) Interact(ctx context.Context, req services.InteractRequest) (*services.InteractResult, error) {
	if s.interact != nil {
		return s.interact(ctx, req)
	}
	return &services.InteractResult{Interaction: &domain.Interaction{ID: "i1", SessionID: req.SessionID, PlayerInput: req.Input}}, nil
}

func (s stubInteractions) History(ctx context.Context, p, id string, page, size int) ([]domain.Interaction, int64, error) {
	if s.history != nil {
		return s.history(ctx, p, id, page, size)
	}
	return []domain.Interaction{}, 0, nil
}

type stubBoards struct {
	order  func(context.Context, string, string) (*services.BoardOrder, error)
	status func(context.Context, string, string) (*services.BoardView, error)
}

func (s stubBoards) Order(ctx context.Context, p, id string) (*services.BoardOrder, error) {
	return s.order(ctx, p, id)
}

func (s stubBoards) Status(ctx context.Context, p, id string) (*services.BoardView, error) {
	return s.status(ctx, p, id)
}

type stubCatalog struct {
	games  func(context.Context) ([]domain.Game, error)
	scenes func(context.Context, string) ([]domain.Scene, error)
	llms   func(context.Context, string) ([]domain.LLMConfiguration, error)
}

func (s stubCatalog) ListGames(ctx context.Context) ([]domain.Game, error) { return s.games(ctx) }

func (s stubCatalog) ListScenes(ctx context.Context, id string) ([]domain.Scene, error) {
	return s.scenes(ctx, id)
}

func (s stubCatalog) ListLLMConfigs(ctx context.Context, id string) ([]domain.LLMConfiguration, error) {
	return s.llms(ctx, id)
}

// ---------- router + request helpers ----------

// mount registers every handler the way the API router does, minus the
// cross-cutting middleware that is tested on its own.
func mount(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.PlayerIdentity())

	r.POST("/sessions", h.CreateSession)
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/:id", h.GetSession)
	r.POST("/sessions/:id/pause", h.PauseSession)
	r.POST("/sessions/:id/resume", h.ResumeSession)
	r.POST("/sessions/:id/finish", h.FinishSession)
	r.POST("/sessions/:id/interactions", h.PostSessionInteraction)
	r.GET("/sessions/:id/interactions", h.ListInteractions)
	r.GET("/sessions/:id/board-order", h.GetBoardOrder)
	r.GET("/sessions/:id/board", h.GetBoard)
	r.GET("/sessions/:id/stream", h.StreamSession)
	r.POST("/interactions", h.PostInteraction)
	r.GET("/games", h.ListGames)
	r.GET("/games/:id/scenes", h.ListScenes)
	r.GET("/config/llms", h.ListLLMConfigs)
	return r
}

func do(r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}

func asPlayer(id string) map[string]string { return map[string]string{middleware.HeaderPlayerID: id} }
