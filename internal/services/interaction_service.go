// Package services – InteractionService
//
// This file implements InteractionService, the session interaction engine.
// One call to Interact runs the full pipeline for a player message:
//
//	profile extraction -> replay -> navigation -> dice roll or LLM call -> persistence
//
// All steps run under a per-session lock, and every write of the turn (the
// interaction row, the session pointer, the board and the LLM usage counters)
// commits in one transaction. A failed provider call leaves no trace in the
// database.
//
// Observability: Interact is OpenTelemetry-instrumented and feeds the engine
// Prometheus metrics; replay drift against the stored pointer is logged at
// warn level.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-narrator-backend/internal/board"
	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/events"
	"github.com/tbourn/go-narrator-backend/internal/extract"
	"github.com/tbourn/go-narrator-backend/internal/llm"
	"github.com/tbourn/go-narrator-backend/internal/lock"
	"github.com/tbourn/go-narrator-backend/internal/observability"
	"github.com/tbourn/go-narrator-backend/internal/prompt"
	"github.com/tbourn/go-narrator-backend/internal/repo"
	"github.com/tbourn/go-narrator-backend/internal/rules"
	"github.com/tbourn/go-narrator-backend/internal/scenegraph"
	"github.com/tbourn/go-narrator-backend/internal/utils"
)

// Provider/model recorded for local dice rolls.
const (
	DiceProvider = "dice"
	DiceModel    = "local"
)

// Player input types.
const (
	InputText  = "text"
	InputVoice = "voice"
)

// AudioSynthesizer renders a narrator reply as audio and returns its URL.
// Failures never fail the interaction.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, sessionID, text string) (string, error)
}

// InteractRequest is one player message.
type InteractRequest struct {
	SessionID      string
	PlayerID       string
	Input          string
	InputType      string
	IncludeAudio   bool
	IdempotencyKey string
}

// InteractResult is the persisted interaction plus what the engine decided.
type InteractResult struct {
	Interaction *domain.Interaction
	Replayed    bool // served from a stored Idempotency-Key
	Resumed     bool // session went from paused to active
	Decision    scenegraph.Decision
}

// InteractionService runs the interaction engine.
type InteractionService struct {
	DB     *gorm.DB
	Locker lock.Locker
	LLMs   *llm.Registry
	Hub    *events.Hub      // optional live stream
	Audio  AudioSynthesizer // optional
	Log    zerolog.Logger

	// Rand picks the rolled element; defaults to math/rand/v2.
	Rand func(n int) int
	// Now is the clock; defaults to time.Now.
	Now func() time.Time

	LockWait           time.Duration
	LLMTimeout         time.Duration
	HistoryWindow      int
	MaxInputRunes      int
	DefaultTemperature float64
	DefaultMaxTokens   int
	IdempotencyTTL     time.Duration
}

// NewInteractionService wires a service with in-process locks and the
// default provider registry.
func NewInteractionService(db *gorm.DB, log zerolog.Logger) *InteractionService {
	return &InteractionService{
		DB:                 db,
		Locker:             lock.NewLocal(),
		LLMs:               llm.DefaultRegistry(),
		Log:                log,
		LockWait:           10 * time.Second,
		LLMTimeout:         60 * time.Second,
		HistoryWindow:      prompt.DefaultWindow,
		MaxInputRunes:      2000,
		DefaultTemperature: 0.7,
		DefaultMaxTokens:   1024,
		IdempotencyTTL:     24 * time.Hour,
	}
}

func (s *InteractionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *InteractionService) intn() func(int) int {
	if s.Rand != nil {
		return s.Rand
	}
	return rand.IntN
}

// turnState is what the engine derived for the turn before dispatch.
type turnState struct {
	session  *domain.Session
	resumed  bool
	graph    *scenegraph.Graph
	rules    *rules.Set
	history  []domain.Interaction
	profile  extract.Profile
	base     scenegraph.Scene
	decision scenegraph.Decision
}

// reply is the dispatch outcome, ready to persist.
type reply struct {
	text      string
	provider  string
	model     string
	tokens    int
	cost      float64
	latency   time.Duration
	config    *domain.LLMConfiguration // nil for dice
	board     []byte                   // encoded board for dice
	element   board.Element
	isDice    bool
}

// Interact processes one player message end to end.
func (s *InteractionService) Interact(ctx context.Context, req InteractRequest) (*InteractResult, error) {
	tr := otel.Tracer("services/InteractionService")
	ctx, span := tr.Start(ctx, "Interact",
		trace.WithAttributes(observability.SessionAttrs(req.SessionID, req.PlayerID)...),
	)
	defer span.End()

	input := strings.TrimSpace(req.Input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if s.MaxInputRunes > 0 && utf8.RuneCountInString(input) > s.MaxInputRunes {
		return nil, ErrInputTooLong
	}
	inputType := strings.ToLower(strings.TrimSpace(req.InputType))
	switch inputType {
	case "":
		inputType = InputText
	case InputText, InputVoice:
	default:
		return nil, ErrInvalidInputType
	}

	unlock, err := s.acquire(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if req.IdempotencyKey != "" {
		if prev, ok := s.replayed(ctx, req); ok {
			return &InteractResult{Interaction: prev, Replayed: true}, nil
		}
	}

	st, err := s.prepare(ctx, req.SessionID, req.PlayerID, input)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("scene.name", st.decision.Scene.Name),
		attribute.Int("scene.index", st.decision.Index),
		attribute.String("scene.reason", string(st.decision.Reason)),
	)

	path := observability.PathLLM
	var rep *reply
	if prompt.IsDiceRoll(input) {
		path = observability.PathDice
		rep, err = s.rollDice(ctx, st, req.PlayerID)
	} else {
		rep, err = s.generate(ctx, st, input)
	}
	if err != nil {
		observability.ObserveInteraction(path, observability.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	in := &domain.Interaction{
		SessionID:       st.session.ID,
		PlayerInput:     input,
		PlayerInputType: inputType,
		AIResponse:      rep.text,
		Provider:        rep.provider,
		Model:           rep.model,
		TokensUsed:      rep.tokens,
		Cost:            rep.cost,
		LatencyMS:       rep.latency.Milliseconds(),
		SceneIndex:      st.decision.Index,
		Transition:      transitionOf(st.decision),
		Element:         st.decision.Element,
		CreatedAt:       s.now(),
	}
	if id := st.decision.Scene.ID; id != "" {
		in.SceneID = &id
	}
	if rep.isDice {
		in.Element = string(rep.element)
	}

	if req.IncludeAudio && s.Audio != nil {
		if url, aerr := s.Audio.Synthesize(ctx, st.session.ID, rep.text); aerr != nil {
			s.Log.Warn().Err(aerr).Str("session_id", st.session.ID).Msg("audio synthesis failed")
		} else if url != "" {
			in.AudioURL = &url
		}
	}

	if err := s.persist(ctx, st, rep, in, req); err != nil {
		observability.ObserveInteraction(path, observability.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	observability.ObserveInteraction(path, observability.OutcomeOK)
	if st.decision.Changed {
		observability.ObserveTransition(string(st.decision.Reason))
	}
	if rep.isDice {
		observability.ObserveDiceRoll(string(rep.element))
	}
	if s.Hub != nil {
		if st.resumed {
			s.Hub.Publish(events.Event{Type: events.TypeSession, SessionID: st.session.ID, Data: domain.SessionActive})
		}
		s.Hub.Publish(events.Event{Type: events.TypeInteraction, SessionID: st.session.ID, Data: in})
	}

	s.Log.Debug().
		Str("session_id", st.session.ID).
		Str("scene", st.decision.Scene.Name).
		Int("index", st.decision.Index).
		Str("reason", string(st.decision.Reason)).
		Bool("changed", st.decision.Changed).
		Str("provider", rep.provider).
		Msg("interaction stored")

	return &InteractResult{Interaction: in, Resumed: st.resumed, Decision: st.decision}, nil
}

func transitionOf(d scenegraph.Decision) string {
	if d.Changed {
		return string(d.Reason)
	}
	return ""
}

// acquire takes the session lock, waiting at most LockWait.
func (s *InteractionService) acquire(ctx context.Context, sessionID string) (func(), error) {
	if s.Locker == nil {
		return func() {}, nil
	}
	lockCtx := ctx
	if s.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.LockWait)
		defer cancel()
	}
	unlock, err := s.Locker.Lock(lockCtx, "session:"+sessionID)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			return nil, ErrSessionBusy
		}
		return nil, err
	}
	return unlock, nil
}

// replayed returns the interaction stored for an Idempotency-Key, if any.
func (s *InteractionService) replayed(ctx context.Context, req InteractRequest) (*domain.Interaction, bool) {
	rec, err := repo.GetIdempotency(ctx, s.DB, req.PlayerID, req.SessionID, req.IdempotencyKey, s.now())
	if err != nil {
		return nil, false
	}
	prev, err := repo.GetInteraction(ctx, s.DB, rec.InteractionID, req.SessionID)
	if err != nil {
		return nil, false
	}
	return prev, true
}

// prepare loads the session and its game content and runs replay and
// navigation for input. Nothing is written.
func (s *InteractionService) prepare(ctx context.Context, sessionID, playerID, input string) (*turnState, error) {
	sess, err := repo.GetSession(ctx, s.DB, sessionID, playerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	st := &turnState{session: sess}
	switch sess.Status {
	case domain.SessionActive:
	case domain.SessionPaused:
		st.resumed = true
	default:
		return nil, ErrSessionNotActive
	}

	g, set, err := loadGame(ctx, s.DB, sess.GameID)
	if err != nil {
		return nil, err
	}
	st.graph, st.rules = g, set

	st.history, err = repo.ListInteractions(ctx, s.DB, sess.ID)
	if err != nil {
		return nil, err
	}
	inputs := playerInputs(st.history)
	st.profile = extract.GetPlayerProfile(input, inputs)

	st.base = replayBase(g, sess, len(inputs))
	pos := g.Replay(st.base, inputs)
	if len(st.history) > 0 && drifted(sess, pos) {
		s.Log.Warn().
			Str("session_id", sess.ID).
			Str("stored_scene", deref(sess.CurrentSceneID)).
			Int("stored_index", sess.CurrentSceneIndex).
			Str("replayed_scene", pos.Scene.ID).
			Int("replayed_index", pos.Index).
			Msg("stored scene pointer drifted from replay")
	}

	st.decision = g.Advance(pos, input)
	return st, nil
}

// loadGame builds the scene graph and rule set of a game.
func loadGame(ctx context.Context, db *gorm.DB, gameID string) (*scenegraph.Graph, *rules.Set, error) {
	scenes, err := repo.ListActiveScenes(ctx, db, gameID)
	if err != nil {
		return nil, nil, err
	}
	if len(scenes) == 0 {
		return nil, nil, ErrNoScenes
	}
	nodes := make([]scenegraph.Scene, len(scenes))
	for i, sc := range scenes {
		nodes[i] = scenegraph.Scene{ID: sc.ID, Name: sc.Name, Content: sc.FileContent}
	}

	docs, err := repo.ListActiveRules(ctx, db, gameID)
	if err != nil {
		return nil, nil, err
	}
	rd := make([]rules.Document, len(docs))
	for i, d := range docs {
		rd[i] = rules.Document{ID: d.ID, Title: d.Title, Content: d.Content}
	}
	return scenegraph.New(nodes), rules.NewSet(rd), nil
}

func playerInputs(history []domain.Interaction) []string {
	out := make([]string, len(history))
	for i, h := range history {
		out[i] = h.PlayerInput
	}
	return out
}

// replayPosition folds the log from the session's base scene.
func replayPosition(g *scenegraph.Graph, sess *domain.Session, inputs []string) scenegraph.Position {
	return g.Replay(replayBase(g, sess, len(inputs)), inputs)
}

// replayBase is the scene every replay of sess starts from. It must not
// move while the log grows: the recorded start scene wins, and the stored
// pointer is only trusted before the first interaction, since every turn
// rewrites it.
func replayBase(g *scenegraph.Graph, sess *domain.Session, logged int) scenegraph.Scene {
	hint := deref(sess.StartSceneID)
	if hint == "" && logged == 0 {
		hint = deref(sess.CurrentSceneID)
	}
	base, _ := g.Base(hint)
	return base
}

func drifted(sess *domain.Session, pos scenegraph.Position) bool {
	return deref(sess.CurrentSceneID) != pos.Scene.ID || sess.CurrentSceneIndex != pos.Index
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// rollDice is the local fast path: no provider call.
func (s *InteractionService) rollDice(ctx context.Context, st *turnState, playerID string) (*reply, error) {
	state, err := s.loadBoard(ctx, st.session, playerID, st.profile)
	if err != nil {
		return nil, err
	}

	el := board.Roll(s.intn())
	current, next, effect := state.Update(el, st.profile, s.now())

	var narrative string
	if el == board.Sombra || el == board.Luz {
		narrative = st.rules.OutcomeText(string(el))
	}
	text := prompt.DiceResponse(prompt.DiceOutcome{
		Element:     el,
		Effect:      effect,
		Current:     current,
		Next:        next,
		Seats:       len(state.Order),
		Narrative:   narrative,
		BoardStatus: board.FormatStatus(&state),
		NextSegment: st.decision.NextSegment,
	})

	raw, err := state.Encode()
	if err != nil {
		return nil, err
	}
	return &reply{
		text:     text,
		provider: DiceProvider,
		model:    DiceModel,
		board:    raw,
		element:  el,
		isDice:   true,
	}, nil
}

// loadBoard reads the player's board. A board without an order is seated by
// seatingOrder.
func (s *InteractionService) loadBoard(ctx context.Context, sess *domain.Session, playerID string, p extract.Profile) (board.State, error) {
	var state board.State
	row, err := repo.GetBoard(ctx, s.DB, sess.ID, playerID)
	switch {
	case err == nil:
		if state, err = board.Decode(row.State); err != nil {
			return board.State{}, err
		}
	case errors.Is(err, repo.ErrNotFound):
	default:
		return board.State{}, err
	}
	if len(state.Order) == 0 {
		if state.Order, _, err = seatingOrder(ctx, s.DB, sess, p); err != nil {
			return board.State{}, err
		}
	}
	return state, nil
}

func rosterNames(ctx context.Context, db *gorm.DB, roomID string) ([]string, error) {
	members, err := repo.ListRoomMembers(ctx, db, roomID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		name := strings.TrimSpace(m.DisplayName)
		if name == "" {
			name = m.PlayerID
		}
		names = append(names, name)
	}
	return names, nil
}

// generate builds the system prompt and calls the selected provider once.
func (s *InteractionService) generate(ctx context.Context, st *turnState, input string) (*reply, error) {
	cfg, err := selectLLMConfig(ctx, s.DB, st.session)
	if err != nil {
		return nil, err
	}
	registry := s.LLMs
	if registry == nil {
		registry = llm.DefaultRegistry()
	}
	provider, err := registry.New(llm.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.ModelName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	turns := make([]prompt.Turn, len(st.history))
	for i, h := range st.history {
		turns[i] = prompt.Turn{Player: h.PlayerInput, Narrator: h.AIResponse}
	}
	system := prompt.BuildSystemPrompt(prompt.Input{
		PlayerInput:      input,
		Profile:          st.profile,
		Rules:            st.rules,
		FirstInteraction: len(st.history) == 0,
		History:          turns,
		Window:           s.HistoryWindow,
		Decision:         st.decision,
	})

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = s.DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.DefaultMaxTokens
	}

	callCtx := ctx
	if s.LLMTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.LLMTimeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := provider.Complete(callCtx, llm.CompletionRequest{
		Prompt:       input,
		SystemPrompt: system,
		Model:        cfg.ModelName,
		MaxTokens:    maxTokens,
		Temperature:  float32(temperature),
	})
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, llm.ErrEmptyResponse)
	}
	observability.ObserveLLMCall(cfg.Provider, latency.Seconds(), resp.TokensUsed)

	model := cfg.ModelName
	if resp.Model != "" {
		model = resp.Model
	}
	return &reply{
		text:     text,
		provider: cfg.Provider,
		model:    model,
		tokens:   resp.TokensUsed,
		cost:     float64(resp.TokensUsed) * cfg.CostPerToken,
		latency:  latency,
		config:   cfg,
	}, nil
}

// selectLLMConfig prefers the provider/model the session already used, then
// the game's own configuration, then a global one.
func selectLLMConfig(ctx context.Context, db *gorm.DB, sess *domain.Session) (*domain.LLMConfiguration, error) {
	configs, err := repo.ListActiveLLMConfigs(ctx, db, sess.GameID)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, ErrNoLLMConfig
	}
	if sess.LLMProvider != "" {
		for i := range configs {
			c := &configs[i]
			if strings.EqualFold(c.Provider, sess.LLMProvider) && (sess.LLMModel == "" || c.ModelName == sess.LLMModel) {
				return c, nil
			}
		}
	}
	return &configs[0], nil
}

// persist writes the whole turn atomically.
func (s *InteractionService) persist(ctx context.Context, st *turnState, rep *reply, in *domain.Interaction, req InteractRequest) error {
	consumed := st.decision.Consumed()
	sceneID := consumed.Scene.ID
	progress := repo.SessionProgress{
		Status:       domain.SessionActive,
		SceneID:      &sceneID,
		SceneIndex:   consumed.Index,
		LastActivity: in.CreatedAt,
	}
	if rep.config != nil {
		progress.Provider = rep.config.Provider
		progress.Model = rep.config.ModelName
	}
	if st.session.StartSceneID == nil && st.base.ID != "" {
		start := st.base.ID
		progress.StartSceneID = &start
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := repo.NextInteractionSeq(ctx, tx, st.session.ID)
		if err != nil {
			return err
		}
		in.Seq = seq
		if err := repo.CreateInteraction(ctx, tx, in); err != nil {
			return err
		}
		if err := repo.SaveSessionProgress(ctx, tx, st.session.ID, progress); err != nil {
			return err
		}
		if rep.isDice {
			if err := repo.UpsertBoard(ctx, tx, st.session.ID, req.PlayerID, datatypes.JSON(rep.board)); err != nil {
				return err
			}
		}
		if rep.config != nil {
			if err := repo.RecordLLMUsage(ctx, tx, rep.config.ID, rep.tokens, rep.cost, rep.latency); err != nil {
				return err
			}
		}
		if req.IdempotencyKey != "" {
			ttl := s.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			if _, err := repo.CreateIdempotency(ctx, tx, req.PlayerID, st.session.ID, req.IdempotencyKey, in.ID, http.StatusCreated, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
				return err
			}
		}
		return nil
	})
}

// Position replays a session's log and returns where it stands next to the
// stored pointer. The session is looked up without an owner check.
func (s *InteractionService) Position(ctx context.Context, sessionID string) (replayed scenegraph.Position, stored *domain.Session, err error) {
	sess, err := repo.GetSessionByID(ctx, s.DB, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return scenegraph.Position{}, nil, ErrSessionNotFound
		}
		return scenegraph.Position{}, nil, err
	}
	g, _, err := loadGame(ctx, s.DB, sess.GameID)
	if err != nil {
		return scenegraph.Position{}, sess, err
	}
	history, err := repo.ListInteractions(ctx, s.DB, sess.ID)
	if err != nil {
		return scenegraph.Position{}, sess, err
	}
	return replayPosition(g, sess, playerInputs(history)), sess, nil
}

// History returns one page of a session's interactions, newest first, after
// checking that playerID owns the session.
func (s *InteractionService) History(ctx context.Context, playerID, sessionID string, page, pageSize int) ([]domain.Interaction, int64, error) {
	if _, err := repo.GetSession(ctx, s.DB, sessionID, playerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrSessionNotFound
		}
		return nil, 0, err
	}
	page, pageSize = utils.ClampPage(page, pageSize, utils.DefaultPageSize, 0)
	total, err := repo.CountInteractions(ctx, s.DB, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Interaction{}, 0, nil
	}
	items, err := repo.ListInteractionsPage(ctx, s.DB, sessionID, utils.Offset(page, pageSize), pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
