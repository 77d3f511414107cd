package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/scoretable/internal/domain/event"
	"github.com/okian/scoretable/pkg/logger"
)

// TablesHandler serves table metadata, event columns and reloads.
type TablesHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(deps Dependencies, l logger.Logger) *TablesHandler {
	return &TablesHandler{deps: deps, logger: l}
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type eventsResponse struct {
	Category string      `json:"category"`
	Events   []EventInfo `json:"events"`
}

type rowResponse struct {
	Score  int     `json:"score"`
	Record string  `json:"record"`
	Raw    string  `json:"raw"`
	Value  float64 `json:"value"`
}

type columnResponse struct {
	Category   string           `json:"category"`
	Event      event.Descriptor `json:"event"`
	Monotonic  bool             `json:"monotonic"`
	Unparsable int              `json:"unparsable"`
	Rows       []rowResponse    `json:"rows"`
}

// HandleList handles GET /v1/tables.
func (h *TablesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.deps.Categories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: categories})
}

// HandleSummary handles GET /v1/tables/{category}.
func (h *TablesHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.deps.Summary(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleEvents handles GET /v1/tables/{category}/events.
func (h *TablesHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	events, err := h.deps.Events(r.Context(), category)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Category: category, Events: events})
}

// HandleRows handles GET /v1/tables/{category}/events/{event}/rows: the
// usable rows of one event, best first.
func (h *TablesHandler) HandleRows(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	col, err := h.deps.Column(r.Context(), category, chi.URLParam(r, "event"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := columnResponse{
		Category:   category,
		Event:      col.Event,
		Monotonic:  col.Monotonic,
		Unparsable: col.Unparsable,
		Rows:       make([]rowResponse, 0, col.Len()),
	}
	for _, e := range col.Entries {
		resp.Rows = append(resp.Rows, rowResponse{
			Score:  e.Score,
			Record: e.Record.Cleaned,
			Raw:    e.Record.Raw,
			Value:  e.Record.Value,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleReload handles POST /v1/tables/{category}/reload. A failed reload
// leaves the previously loaded table in service.
func (h *TablesHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	summary, err := h.deps.Reload(r.Context(), category)
	if err != nil {
		h.logger.Warn(r.Context(), "reload rejected",
			logger.String("category", category),
			logger.Error(err),
		)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
