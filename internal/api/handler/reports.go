package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/physioline/physioline/internal/api/respond"
	"github.com/physioline/physioline/internal/cache"
	"github.com/physioline/physioline/internal/report"
	"github.com/physioline/physioline/internal/risk"
)

type submitReportRequest struct {
	Date             time.Time `json:"date"`
	TrainingDuration int       `json:"trainingDuration"`
	FatigueLevel     int       `json:"fatigueLevel"`
	SleepHours       float64   `json:"sleepHours"`
	KneeStabilityL   int       `json:"kneeStabilityL"`
	KneeStabilityR   int       `json:"kneeStabilityR"`
}

// SubmitReport stores a daily report, rescores the athlete's full history,
// and persists the resulting risk score. A High score raises the pg_notify
// trigger consumed by the listener.
// @Summary Submit a daily report
// @Tags reports
// @Accept json
// @Produce json
// @Param athleteID path string true "Athlete ID"
// @Success 201 {object} risk.Score
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/athletes/{athleteID}/reports [post]
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "athleteID")

	var req submitReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body")
		return
	}

	rec, err := report.New(athleteID, req.Date, req.TrainingDuration, req.FatigueLevel, req.SleepHours, req.KneeStabilityL, req.KneeStabilityR)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if err := report.Insert(r.Context(), h.pool.Pool, rec); err != nil {
		h.logger.Error("insert report failed", "athlete_id", athleteID, "error", err)
		respond.WriteDomainError(w, err)
		return
	}

	history, err := report.History(r.Context(), h.pool.Pool, athleteID)
	if err != nil {
		h.logger.Error("load report history failed", "athlete_id", athleteID, "error", err)
		respond.WriteDomainError(w, err)
		return
	}

	score, err := risk.Compute(history)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if err := risk.Insert(r.Context(), h.pool.Pool, score); err != nil {
		h.logger.Error("insert risk score failed", "athlete_id", athleteID, "error", err)
		respond.WriteDomainError(w, err)
		return
	}

	h.cache.Invalidate(riskHistoryKey(athleteID))
	respond.WriteJSONObject(w, http.StatusCreated, score)
}

// GetRiskHistory returns the athlete's risk scores, date ascending.
// @Summary Risk score history
// @Tags reports
// @Produce json
// @Param athleteID path string true "Athlete ID"
// @Success 200 {array} risk.Score
// @Router /api/v1/athletes/{athleteID}/risk [get]
func (h *Handler) GetRiskHistory(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "athleteID")
	key := riskHistoryKey(athleteID)

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLRiskHistory, true)
		return
	}

	scores, err := risk.History(r.Context(), h.pool.Pool, athleteID)
	if err != nil {
		h.logger.Error("load risk history failed", "athlete_id", athleteID, "error", err)
		respond.WriteDomainError(w, err)
		return
	}
	if scores == nil {
		scores = []risk.Score{}
	}

	data, err := json.Marshal(scores)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	etag := h.cache.Set(key, data, cache.TTLRiskHistory)
	respond.WriteJSON(w, data, etag, cache.TTLRiskHistory, false)
}

func riskHistoryKey(athleteID string) string {
	return fmt.Sprintf("risk:%s", athleteID)
}
