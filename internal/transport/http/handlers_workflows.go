package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"merenda/pkg/platform/httputil"
)

// WorkflowHandler serves the read-only workflow catalog.
type WorkflowHandler struct {
	workflows WorkflowCatalog
}

func NewWorkflowHandler(workflows WorkflowCatalog) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows}
}

func (h *WorkflowHandler) Register(r chi.Router) {
	r.Get("/workflows", h.HandleList)
	r.Get("/workflows/{name}", h.HandleDescribe)
}

func (h *WorkflowHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	defs := h.workflows.Definitions()
	out := make([]workflowView, 0, len(defs))
	for _, def := range defs {
		out = append(out, summarize(def))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *WorkflowHandler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	def, err := h.workflows.Definition(chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, describe(def))
}
