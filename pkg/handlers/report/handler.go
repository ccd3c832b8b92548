package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/report-atlas/pkg/services/catalog"
	"github.com/de-tools/report-atlas/pkg/services/job"
)

type Previewer interface {
	Preview(ctx context.Context, name string) (string, error)
}

type ToolExplorer interface {
	Tree(ctx context.Context, name string, opts ...catalog.TreeOption) (*catalog.Node, error)
}

type Handler struct {
	previewer Previewer
	tools     ToolExplorer
}

// NewHandler wires the report endpoints. tools may be nil when no catalog
// profile is configured.
func NewHandler(previewer Previewer, tools ToolExplorer) *Handler {
	return &Handler{
		previewer: previewer,
		tools:     tools,
	}
}

func (h *Handler) PreviewReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	name := r.URL.Query().Get("job")
	if name == "" {
		http.Error(w, "missing 'job' query parameter", http.StatusBadRequest)
		return
	}

	html, err := h.previewer.Preview(ctx, name)
	switch {
	case errors.Is(err, job.ErrJobNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		logger.Error().Err(err).Str("job", name).Msg("failed to build report preview")
		http.Error(w, "failed to build report preview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(html)); err != nil {
		logger.Error().Err(err).Str("job", name).Msg("failed to write report preview")
	}
}

func (h *Handler) GetToolTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	name := chi.URLParam(r, "name")

	if h.tools == nil {
		http.Error(w, "tool catalog is not configured", http.StatusNotFound)
		return
	}

	var opts []catalog.TreeOption
	if state := r.URL.Query().Get("state"); state != "" {
		withState, err := strconv.ParseBool(state)
		if err != nil {
			http.Error(w, "invalid 'state' value. Expected true or false", http.StatusBadRequest)
			return
		}
		if withState {
			opts = append(opts, catalog.WithStatus())
		}
	}

	tree, err := h.tools.Tree(ctx, name, opts...)
	if err != nil {
		logger.Error().Err(err).Str("tool", name).Msg("failed to expand tool tree")
		http.Error(w, "failed to expand tool tree", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tree); err != nil {
		logger.Error().Err(err).Str("tool", name).Msg("failed to encode tool tree")
	}
}
