package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"merenda/internal/audit"
	"merenda/internal/request/models"
	"merenda/internal/request/service"
	"merenda/internal/workflow"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
	"merenda/pkg/platform/httputil"
	"merenda/pkg/requestcontext"
)

//go:generate mockgen -source=handlers_requests.go -destination=mocks/mocks.go -package=mocks RequestService
type RequestService interface {
	Create(ctx context.Context, actor domain.Actor, in service.CreateInput) (*models.Request, error)
	Get(ctx context.Context, id domain.RequestID, actor domain.Actor) (*models.Request, error)
	List(ctx context.Context, actor domain.Actor) ([]*models.Request, error)
	Fire(ctx context.Context, id domain.RequestID, ev workflow.Event, actor domain.Actor, payload workflow.Payload) (*models.Request, *workflow.Result, error)
	Replay(ctx context.Context, id domain.RequestID, ev workflow.Event, actor domain.Actor, payload workflow.Payload) (*models.Request, *workflow.Result, error)
	Submit(ctx context.Context, id domain.RequestID, actor domain.Actor, payload workflow.Payload) (*models.Request, *workflow.Result, error)
	Cancel(ctx context.Context, id domain.RequestID, actor domain.Actor, justification string) (*models.Request, *workflow.Result, error)
	Acknowledge(ctx context.Context, id domain.RequestID, actor domain.Actor) (*models.Request, *workflow.Result, error)
	Discard(ctx context.Context, id domain.RequestID, actor domain.Actor) error
	Trail(ctx context.Context, id domain.RequestID, actor domain.Actor) ([]audit.Entry, error)
}

// WorkflowCatalog exposes the registered definitions.
type WorkflowCatalog interface {
	Definition(name string) (*workflow.Definition, error)
	Definitions() []*workflow.Definition
}

type RequestHandler struct {
	requests  RequestService
	workflows WorkflowCatalog
	logger    *slog.Logger
}

func NewRequestHandler(requests RequestService, workflows WorkflowCatalog, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{requests: requests, workflows: workflows, logger: logger}
}

// Register mounts the request routes. Callers must have authenticated the
// actor already.
func (h *RequestHandler) Register(r chi.Router) {
	r.Post("/requests", h.HandleCreate)
	r.Get("/requests", h.HandleList)
	r.Get("/requests/{id}", h.HandleGet)
	r.Delete("/requests/{id}", h.HandleDiscard)
	r.Get("/requests/{id}/trail", h.HandleTrail)
	r.Post("/requests/{id}/submit", h.HandleSubmit)
	r.Post("/requests/{id}/cancel", h.HandleCancel)
	r.Post("/requests/{id}/acknowledge", h.HandleAcknowledge)
	r.Post("/requests/{id}/events/{event}", h.HandleFire)
	r.Post("/requests/{id}/replay/{event}", h.HandleReplay)
}

func (h *RequestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body createRequestBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, err)
		return
	}
	in, err := body.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.requests.Create(ctx, actor, in)
	if err != nil {
		h.fail(ctx, w, "create request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, h.view(created))
}

func (h *RequestHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	list, err := h.requests.List(r.Context(), actor)
	if err != nil {
		h.fail(r.Context(), w, "list requests failed", err)
		return
	}
	out := make([]requestResponse, 0, len(list))
	for _, req := range list {
		out = append(out, h.view(req))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *RequestHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}
	req, err := h.requests.Get(r.Context(), id, actor)
	if err != nil {
		h.fail(r.Context(), w, "get request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.view(req))
}

func (h *RequestHandler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}
	if err := h.requests.Discard(r.Context(), id, actor); err != nil {
		h.fail(r.Context(), w, "discard request failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestHandler) HandleTrail(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}
	entries, err := h.requests.Trail(r.Context(), id, actor)
	if err != nil {
		h.fail(r.Context(), w, "read trail failed", err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *RequestHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, id domain.RequestID, actor domain.Actor, body eventBody) (*models.Request, *workflow.Result, error) {
		return h.requests.Submit(ctx, id, actor, body.payload())
	})
}

func (h *RequestHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, id domain.RequestID, actor domain.Actor, body eventBody) (*models.Request, *workflow.Result, error) {
		return h.requests.Cancel(ctx, id, actor, body.Justification)
	})
}

func (h *RequestHandler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, id domain.RequestID, actor domain.Actor, _ eventBody) (*models.Request, *workflow.Result, error) {
		return h.requests.Acknowledge(ctx, id, actor)
	})
}

func (h *RequestHandler) HandleFire(w http.ResponseWriter, r *http.Request) {
	ev := workflow.Event(chi.URLParam(r, "event"))
	h.transition(w, r, func(ctx context.Context, id domain.RequestID, actor domain.Actor, body eventBody) (*models.Request, *workflow.Result, error) {
		return h.requests.Fire(ctx, id, ev, actor, body.payload())
	})
}

func (h *RequestHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	ev := workflow.Event(chi.URLParam(r, "event"))
	h.transition(w, r, func(ctx context.Context, id domain.RequestID, actor domain.Actor, body eventBody) (*models.Request, *workflow.Result, error) {
		return h.requests.Replay(ctx, id, ev, actor, body.payload())
	})
}

type transitionFunc func(ctx context.Context, id domain.RequestID, actor domain.Actor, body eventBody) (*models.Request, *workflow.Result, error)

func (h *RequestHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}
	var body eventBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, res, err := fn(ctx, id, actor, body)
	if err != nil {
		h.fail(ctx, w, "transition failed", err)
		return
	}
	resp := transitionResponse{
		Request:  h.view(req),
		Event:    res.Event,
		From:     res.From,
		To:       res.To,
		Replayed: res.Replayed,
	}
	if res.Entry != nil {
		entry := toEntryResponse(*res.Entry)
		resp.TrailEntry = &entry
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *RequestHandler) view(req *models.Request) requestResponse {
	out := requestResponse{Request: req, Available: []workflow.Event{}}
	def, err := h.workflows.Definition(req.Workflow)
	if err != nil {
		return out
	}
	out.StateLabel = def.Label(req.State)
	if avail := def.Available(req.State); len(avail) > 0 {
		out.Available = avail
	}
	return out
}

func (h *RequestHandler) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := requestcontext.Actor(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
		return domain.Actor{}, false
	}
	return actor, true
}

// fail logs unexpected errors; client errors are written without noise.
func (h *RequestHandler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func requestIDParam(w http.ResponseWriter, r *http.Request) (domain.RequestID, bool) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.RequestID{}, false
	}
	return id, true
}
