package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/physioline/physioline/internal/api/auth"
	"github.com/physioline/physioline/internal/api/respond"
	"github.com/physioline/physioline/internal/notify"
)

type invitationRequest struct {
	AthleteID string         `json:"athleteId"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type messageRequest struct {
	RecipientID   string         `json:"recipientId"`
	Message       string         `json:"message"`
	AttachmentURL string         `json:"attachmentUrl,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// SendInvitation sends a CoachInvite from the current user to an athlete.
// @Summary Send a coach invitation
// @Tags notifications
// @Accept json
// @Produce json
// @Success 201 {object} notify.Notification
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/invitations [post]
func (h *Handler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	var req invitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body")
		return
	}
	if req.Message == "" {
		req.Message = "You have been invited to join a coach's squad."
	}

	n, err := h.dispatcher.Send(r.Context(), auth.UserID(r.Context()), req.AthleteID, notify.TypeCoachInvite, req.Message, req.Metadata)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, n)
}

// SendMessage sends a DirectMessage. An attachment URL, if any, rides along
// in metadata as an opaque string.
// @Summary Send a direct message
// @Tags notifications
// @Accept json
// @Produce json
// @Success 201 {object} notify.Notification
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/messages [post]
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body")
		return
	}

	metadata := req.Metadata
	if req.AttachmentURL != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["attachmentUrl"] = req.AttachmentURL
	}

	n, err := h.dispatcher.Send(r.Context(), auth.UserID(r.Context()), req.RecipientID, notify.TypeDirectMessage, req.Message, metadata)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, n)
}

// ListNotifications returns the current user's notifications, pending first.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Success 200 {array} notify.Notification
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.ListForUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list notifications failed", "error", err)
		respond.WriteDomainError(w, err)
		return
	}
	if list == nil {
		list = []notify.Notification{}
	}
	respond.WriteJSONObject(w, http.StatusOK, list)
}

// AcceptNotification applies pending→accepted and informs the sender's live
// channel of the outcome.
// @Summary Accept a notification
// @Tags notifications
// @Produce json
// @Success 200 {object} notify.Notification
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/notifications/{notificationID}/accept [post]
func (h *Handler) AcceptNotification(w http.ResponseWriter, r *http.Request) {
	h.respondToNotification(w, r, h.lifecycle.Accept)
}

// DeclineNotification applies pending→declined; symmetric to accept.
// @Summary Decline a notification
// @Tags notifications
// @Produce json
// @Success 200 {object} notify.Notification
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/v1/notifications/{notificationID}/decline [post]
func (h *Handler) DeclineNotification(w http.ResponseWriter, r *http.Request) {
	h.respondToNotification(w, r, h.lifecycle.Decline)
}

func (h *Handler) respondToNotification(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id string) (*notify.Notification, error)) {
	n, err := apply(r.Context(), chi.URLParam(r, "notificationID"))
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	// The responder already knows the outcome; the sender learns it live.
	h.dispatcher.Push(n.SenderUserID, n)
	respond.WriteJSONObject(w, http.StatusOK, n)
}
