package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/switchsage/resolution-engine/internal/catalog"
	"github.com/switchsage/resolution-engine/internal/observability"
	"github.com/switchsage/resolution-engine/internal/resolution"
)

// Handler serves the resolution API endpoints.
type Handler struct {
	logger  *observability.Logger
	service *resolution.Service
	store   catalog.Store
}

// NewHandler creates the API handler.
func NewHandler(logger *observability.Logger, service *resolution.Service, store catalog.Store) *Handler {
	return &Handler{
		logger:  logger.WithComponent("api"),
		service: service,
		store:   store,
	}
}

// ResolveRequestDTO is the request body for POST /v1/resolve.
type ResolveRequestDTO struct {
	Queries        []resolution.ResolutionQuery `json:"queries"`
	AvailableNames []string                     `json:"availableNames,omitempty"`
}

// SpecificationsRequestDTO is the request body for POST /v1/specifications.
type SpecificationsRequestDTO struct {
	Names []string `json:"names"`
}

// ConflictsRequestDTO is the request body for POST /v1/conflicts.
type ConflictsRequestDTO struct {
	Name          string                 `json:"name"`
	ExternalSpecs resolution.SwitchSpecs `json:"externalSpecs"`
	Confidence    float64                `json:"confidence"`
}

// Ready reports whether the catalog answers queries.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.ListNames(r.Context()); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ready"}`))
}

// Resolve handles POST /v1/resolve.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Queries) == 0 {
		h.writeError(w, http.StatusBadRequest, "queries must not be empty")
		return
	}

	result, err := h.service.ResolveSwitches(r.Context(), req.Queries, req.AvailableNames)
	if err != nil {
		h.logger.Error().Err(err).Msg("resolution failed")
		h.writeError(w, http.StatusInternalServerError, "resolution failed")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// Specifications handles POST /v1/specifications.
func (h *Handler) Specifications(w http.ResponseWriter, r *http.Request) {
	var req SpecificationsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Names) == 0 {
		h.writeError(w, http.StatusBadRequest, "names must not be empty")
		return
	}

	ctx, err := h.service.FetchSwitchSpecifications(r.Context(), req.Names)
	if err != nil {
		h.logger.Error().Err(err).Msg("specification fetch failed")
		h.writeError(w, http.StatusInternalServerError, "specification fetch failed")
		return
	}

	h.writeJSON(w, http.StatusOK, ctx)
}

// Conflicts handles POST /v1/conflicts.
func (h *Handler) Conflicts(w http.ResponseWriter, r *http.Request) {
	var req ConflictsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Confidence < 0 || req.Confidence > 1 {
		h.writeError(w, http.StatusBadRequest, "confidence must be within [0,1]")
		return
	}

	record, err := h.store.ExactLookup(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "switch not found")
			return
		}
		h.logger.Error().Err(err).Str("name", req.Name).Msg("catalog lookup failed")
		h.writeError(w, http.StatusInternalServerError, "catalog lookup failed")
		return
	}

	result := h.service.ResolveDataConflicts(record, req.ExternalSpecs, req.Confidence)
	h.writeJSON(w, http.StatusOK, result)
}

// SearchSwitches handles GET /v1/switches with characteristic filters.
func (h *Handler) SearchSwitches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := catalog.Filter{
		NamePattern:   q.Get("name"),
		Manufacturer:  q.Get("manufacturer"),
		Type:          catalog.SwitchType(q.Get("type")),
		TopHousing:    q.Get("topHousing"),
		BottomHousing: q.Get("bottomHousing"),
		Stem:          q.Get("stem"),
		Mount:         q.Get("mount"),
		Spring:        q.Get("spring"),
	}
	filter.ActuationForceG = parseRange(q.Get("minActuationForceG"), q.Get("maxActuationForceG"))
	filter.BottomOutForceG = parseRange(q.Get("minBottomOutForceG"), q.Get("maxBottomOutForceG"))
	filter.PreTravelMm = parseRange(q.Get("minPreTravelMm"), q.Get("maxPreTravelMm"))
	filter.TotalTravelMm = parseRange(q.Get("minTotalTravelMm"), q.Get("maxTotalTravelMm"))

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	records, err := h.store.Search(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("catalog search failed")
		h.writeError(w, http.StatusInternalServerError, "catalog search failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"switches": records,
		"count":    len(records),
	})
}

// ListNames handles GET /v1/switches/names.
func (h *Handler) ListNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.ListNames(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("name listing failed")
		h.writeError(w, http.StatusInternalServerError, "name listing failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"names": names,
		"count": len(names),
	})
}

func parseRange(minStr, maxStr string) *catalog.FloatRange {
	var r catalog.FloatRange
	if v, err := strconv.ParseFloat(minStr, 64); err == nil {
		r.Min = &v
	}
	if v, err := strconv.ParseFloat(maxStr, 64); err == nil {
		r.Max = &v
	}
	if r.Min == nil && r.Max == nil {
		return nil
	}
	return &r
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("response encoding failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
