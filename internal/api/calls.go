package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dennisdiepolder/workforce/internal/alerts"
	"github.com/dennisdiepolder/workforce/internal/board"
	"github.com/dennisdiepolder/workforce/internal/metrics"
	"github.com/dennisdiepolder/workforce/internal/query"
	"github.com/dennisdiepolder/workforce/internal/repository"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Repository is the slice of repository.Repository the handlers use
type Repository interface {
	All() []types.Call
	Get(id string) (types.Call, bool)
	Create(ctx context.Context, f types.Fields) (types.Call, error)
	Update(ctx context.Context, id string, p types.Patch) error
	Delete(ctx context.Context, id string) error
}

// ChangeNotifier is told about every successful mutation
type ChangeNotifier interface {
	Announce(ctx context.Context, op, id string) error
}

// BoardResponse is the board endpoint's payload
type BoardResponse struct {
	Columns []query.Column            `json:"columns"`
	Counts  map[types.Status]int      `json:"counts"`
	Alerts  map[string][]alerts.Alert `json:"alerts"`
	Empty   bool                      `json:"empty"`
}

type moveRequest struct {
	Bucket string `json:"bucket"`
}

type dialResponse struct {
	URI string `json:"uri"`
}

// CallsHandler serves the call collection over REST
type CallsHandler struct {
	repo     Repository
	notifier ChangeNotifier
	now      func() time.Time
	logger   zerolog.Logger
}

type Option func(*CallsHandler)

func WithNotifier(n ChangeNotifier) Option {
	return func(h *CallsHandler) { h.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(h *CallsHandler) { h.now = now }
}

func NewCallsHandler(repo Repository, logger zerolog.Logger, opts ...Option) *CallsHandler {
	h := &CallsHandler{
		repo:   repo,
		now:    time.Now,
		logger: logger.With().Str("component", "calls_api").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the read routes on r and the write routes behind writer
func (h *CallsHandler) Routes(r chi.Router, writer func(http.Handler) http.Handler) {
	r.Get("/calls", h.List)
	r.Get("/calls/{id}", h.Get)
	r.Get("/calls/{id}/dial", h.Dial)
	r.Get("/board", h.Board)

	r.Group(func(r chi.Router) {
		r.Use(writer)
		r.Post("/calls", h.Create)
		r.Patch("/calls/{id}", h.Update)
		r.Delete("/calls/{id}", h.Delete)
		r.Post("/calls/{id}/move", h.Move)
		r.Post("/calls/{id}/complete", h.Complete)
		r.Post("/calls/{id}/advance", h.Advance)
	})
}

// List handles GET /api/calls?filter=&q=
func (h *CallsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := query.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, err)
		return
	}

	all := h.repo.All()
	writeJSON(w, http.StatusOK, types.CallList{
		Calls: query.Visible(all, filter, r.URL.Query().Get("q")),
		Total: len(all),
		Empty: len(all) == 0,
	})
}

// Get handles GET /api/calls/{id}
func (h *CallsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Board handles GET /api/board?q=
func (h *CallsHandler) Board(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	all := h.repo.All()
	writeJSON(w, http.StatusOK, BoardResponse{
		Columns: query.Board(all, r.URL.Query().Get("q"), now),
		Counts:  query.Counts(all),
		Alerts:  alerts.CheckCallAlerts(all, now),
		Empty:   len(all) == 0,
	})
}

// Create handles POST /api/calls
func (h *CallsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var f types.Fields
	if err := decode(r, &f); err != nil {
		writeError(w, err)
		return
	}
	if err := f.Validate(); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.repo.Create(r.Context(), f)
	metrics.Get().RecordMutation("create", err)
	if err != nil {
		writeError(w, err)
		return
	}
	h.announce(r.Context(), "create", c.ID)
	writeJSON(w, http.StatusCreated, c)
}

// Update handles PATCH /api/calls/{id}
func (h *CallsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p types.Patch
	if err := decode(r, &p); err != nil {
		writeError(w, err)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	// the server stamps updatedAt itself
	p.UpdatedAt = nil
	h.apply(w, r, chi.URLParam(r, "id"), p)
}

// Delete handles DELETE /api/calls/{id}. Unknown ids succeed.
func (h *CallsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.repo.Delete(r.Context(), id)
	metrics.Get().RecordMutation("delete", err)
	if err != nil {
		writeError(w, err)
		return
	}
	h.announce(r.Context(), "delete", id)
	w.WriteHeader(http.StatusNoContent)
}

// Move handles POST /api/calls/{id}/move with {"bucket": "..."}
func (h *CallsHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	b, err := board.ParseBucket(req.Bucket)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.apply(w, r, c.ID, board.AssignBucket(c, b, h.now()))
}

// Complete handles POST /api/calls/{id}/complete
func (h *CallsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, chi.URLParam(r, "id"), types.WithStatus(types.StatusDone))
}

// Advance handles POST /api/calls/{id}/advance
func (h *CallsHandler) Advance(w http.ResponseWriter, r *http.Request) {
	c, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.apply(w, r, c.ID, types.WithStatus(board.NextStatus(c.Status)))
}

// Dial handles GET /api/calls/{id}/dial
func (h *CallsHandler) Dial(w http.ResponseWriter, r *http.Request) {
	c, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	uri, ok := board.DialURI(c.Phone)
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "call has no phone number"})
		return
	}
	writeJSON(w, http.StatusOK, dialResponse{URI: uri})
}

func (h *CallsHandler) apply(w http.ResponseWriter, r *http.Request, id string, p types.Patch) {
	err := h.repo.Update(r.Context(), id, p)
	metrics.Get().RecordMutation("update", err)
	if err != nil {
		writeError(w, err)
		return
	}
	h.announce(r.Context(), "update", id)

	c, ok := h.repo.Get(id)
	if !ok {
		// deleted concurrently
		writeError(w, fmt.Errorf("%w: %s", repository.ErrNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CallsHandler) lookup(r *http.Request) (types.Call, error) {
	id := chi.URLParam(r, "id")
	c, ok := h.repo.Get(id)
	if !ok {
		return types.Call{}, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	return c, nil
}

func (h *CallsHandler) announce(ctx context.Context, op, id string) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Announce(ctx, op, id); err != nil {
		h.logger.Warn().Err(err).Str("op", op).Str("call_id", id).Msg("change notice not sent")
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", errBadRequest, err)
	}
	return nil
}
