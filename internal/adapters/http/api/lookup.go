package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/okian/scoretable/internal/domain/scoring"
)

// maxLookupBody bounds a lookup request body.
const maxLookupBody = 64 << 10

// lookupRequest mirrors the OpenAPI schema for POST /v1/tables/{category}/lookup.
// Exactly one of Value and Components is set.
type lookupRequest struct {
	Event      string             `json:"event" validate:"required,max=64"`
	Value      float64            `json:"value,omitempty" validate:"omitempty,gt=0"`
	Components map[string]float64 `json:"components,omitempty" validate:"omitempty,max=4,dive,keys,required,endkeys,gte=0"`
}

// LookupHandler answers score lookups.
type LookupHandler struct {
	deps     Dependencies
	validate *validator.Validate
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(deps Dependencies) *LookupHandler {
	return &LookupHandler{deps: deps, validate: newValidator()}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *LookupHandler) check(req lookupRequest) error {
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %q failed %q", ErrBadRequest, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	switch {
	case req.Value == 0 && len(req.Components) == 0:
		return ErrMissingQuery
	case req.Value != 0 && len(req.Components) > 0:
		return ErrAmbiguousBody
	}
	return nil
}

// HandleLookup handles POST /v1/tables/{category}/lookup.
func (h *LookupHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLookupBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid json"))
		return
	}
	if err := h.check(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err)
		return
	}

	category := chi.URLParam(r, "category")
	var (
		res scoring.Result
		err error
	)
	if len(req.Components) > 0 {
		res, err = h.deps.LookupComponents(r.Context(), category, req.Event, req.Components)
	} else {
		res, err = h.deps.Lookup(r.Context(), category, req.Event, req.Value)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
