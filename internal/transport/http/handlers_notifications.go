package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"merenda/internal/notification"
	"merenda/pkg/domain"
	dErrors "merenda/pkg/domain-errors"
	"merenda/pkg/platform/httputil"
	"merenda/pkg/requestcontext"
)

type NotificationLister interface {
	ListFor(ctx context.Context, user domain.UserID, unresolvedOnly bool) ([]notification.Notification, error)
}

type NotificationHandler struct {
	notifications NotificationLister
	logger        *slog.Logger
}

func NewNotificationHandler(notifications NotificationLister, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

func (h *NotificationHandler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
}

// HandleList returns the caller's notifications. ?pending=true keeps only
// unresolved ones.
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
		return
	}
	pending := false
	if v := r.URL.Query().Get("pending"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "pending must be a boolean"))
			return
		}
		pending = b
	}
	list, err := h.notifications.ListFor(ctx, actor.UserID, pending)
	if err != nil {
		h.logger.ErrorContext(ctx, "list notifications failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	out := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toNotificationResponse(n))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
