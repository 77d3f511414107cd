package api

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/okian/scoretable/internal/adapters/repository"
	"github.com/okian/scoretable/internal/adapters/tablefile"
	"github.com/okian/scoretable/internal/domain/model"
	"github.com/okian/scoretable/internal/domain/record"
)

// Upload content types accepted by POST /v1/clean.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// defaultPrefix names downloads when the request gives no prefix.
const defaultPrefix = "M"

// CleanHandler repairs uploaded scoring tables.
type CleanHandler struct {
	deps      Dependencies
	maxBytes  int64
	outputLoc *time.Location
	now       func() time.Time
}

// NewCleanHandler creates a new clean handler.
func NewCleanHandler(deps Dependencies, maxBytes int64, loc *time.Location, now func() time.Time) *CleanHandler {
	return &CleanHandler{deps: deps, maxBytes: maxBytes, outputLoc: loc, now: now}
}

type cleanResponse struct {
	Header      []string      `json:"header"`
	Rows        [][]string    `json:"rows"`
	DroppedRows int           `json:"dropped_rows"`
	Report      record.Report `json:"report"`
}

// HandleClean handles POST /v1/clean. The body is a CSV (default) or XLSX
// table. With ?format=csv the cleaned table is returned as a BOM-prefixed
// CSV attachment named <PREFIX>_ALL_<YYYYMMDD>.csv; otherwise as JSON with
// the repair report.
func (h *CleanHandler) HandleClean(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	raw, err := h.parse(r.Header.Get("Content-Type"), body)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cleaned, report, err := h.deps.Clean(r.Context(), raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.writeAttachment(w, r.URL.Query().Get("prefix"), cleaned)
		return
	}
	writeJSON(w, http.StatusOK, cleanResponse{
		Header:      cleaned.Header,
		Rows:        cleaned.Rows,
		DroppedRows: raw.DroppedRows(),
		Report:      report,
	})
}

func (h *CleanHandler) parse(contentType string, body []byte) (model.Grid, error) {
	mediaType := ContentTypeCSV
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return model.Grid{}, fmt.Errorf("%w: %w", tablefile.ErrUnsupportedFormat, err)
		}
		mediaType = mt
	}
	switch mediaType {
	case ContentTypeXLSX:
		return tablefile.ReadXLSX(bytes.NewReader(body))
	case ContentTypeCSV, "text/plain", "application/octet-stream":
		return tablefile.ReadCSV(bytes.NewReader(body))
	default:
		return model.Grid{}, fmt.Errorf("%w: %s", tablefile.ErrUnsupportedFormat, mediaType)
	}
}

func (h *CleanHandler) writeAttachment(w http.ResponseWriter, prefix string, g model.Grid) {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if !repository.ValidCategory(prefix) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: prefix %q", ErrBadRequest, prefix))
		return
	}
	var buf bytes.Buffer
	if err := tablefile.WriteCSV(&buf, g); err != nil {
		writeDomainError(w, err)
		return
	}
	name := tablefile.OutputName(prefix, h.now(), h.outputLoc)
	w.Header().Set("Content-Type", ContentTypeCSV+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
