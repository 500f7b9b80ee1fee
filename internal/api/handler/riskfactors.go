package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/physioline/physioline/internal/api/respond"
	"github.com/physioline/physioline/internal/cache"
	"github.com/physioline/physioline/internal/riskfactor"
)

type appendValueRequest struct {
	Value      int                   `json:"value"`
	Date       time.Time             `json:"date"`
	ReportType riskfactor.ReportType `json:"reportType"`
}

type appendNoteRequest struct {
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

// GetRiskFactors returns the athlete's risk factor document, creating an
// empty one on first access.
// @Summary Risk factor document
// @Tags risk-factors
// @Produce json
// @Param athleteID path string true "Athlete ID"
// @Success 200 {object} riskfactor.Document
// @Router /api/v1/athletes/{athleteID}/risk-factors [get]
func (h *Handler) GetRiskFactors(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "athleteID")
	key := riskFactorsKey(athleteID)

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLRiskFactors, true)
		return
	}

	doc, err := h.factors.FindOrCreate(r.Context(), athleteID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	data, err := json.Marshal(doc)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	etag := h.cache.Set(key, data, cache.TTLRiskFactors)
	respond.WriteJSON(w, data, etag, cache.TTLRiskFactors, false)
}

// AppendRiskFactorValue appends a reading to one of the five series.
// @Summary Append a risk factor value
// @Tags risk-factors
// @Accept json
// @Produce json
// @Param athleteID path string true "Athlete ID"
// @Param series path string true "Series name"
// @Success 200 {object} riskfactor.Document
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/athletes/{athleteID}/risk-factors/{series} [post]
func (h *Handler) AppendRiskFactorValue(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "athleteID")

	series, err := riskfactor.ParseSeries(chi.URLParam(r, "series"))
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	var req appendValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body")
		return
	}

	doc, err := h.factors.AppendValue(r.Context(), athleteID, series, req.Value, req.Date, req.ReportType)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	h.cache.Invalidate(riskFactorsKey(athleteID))
	respond.WriteJSONObject(w, http.StatusOK, doc)
}

// AppendRiskFactorNote appends a free-text note.
// @Summary Append a risk factor note
// @Tags risk-factors
// @Accept json
// @Produce json
// @Param athleteID path string true "Athlete ID"
// @Success 200 {object} riskfactor.Document
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/athletes/{athleteID}/risk-factors/notes [post]
func (h *Handler) AppendRiskFactorNote(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "athleteID")

	var req appendNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body")
		return
	}

	doc, err := h.factors.AppendNote(r.Context(), athleteID, req.Text, req.Date)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	h.cache.Invalidate(riskFactorsKey(athleteID))
	respond.WriteJSONObject(w, http.StatusOK, doc)
}

func riskFactorsKey(athleteID string) string {
	return fmt.Sprintf("riskfactors:%s", athleteID)
}
