package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scribehub/scribe-server/internal/api/middleware"
	"github.com/scribehub/scribe-server/internal/invitations"
	"github.com/scribehub/scribe-server/internal/models"
)

// InvitationHandler handles invitation lifecycle requests. The recipient
// side is keyed by the email in the caller's token, never by the body.
type InvitationHandler struct {
	invitations *invitations.Service
	logger      *slog.Logger
}

// NewInvitationHandler creates a new invitation handler.
func NewInvitationHandler(svc *invitations.Service, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{invitations: svc, logger: logger}
}

type sendInvitationRequest struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
	Message    string `json:"message"`
}

// Send handles POST /v1/documents/{documentID}/invitations.
func (h *InvitationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	perm, err := models.ParsePermission(req.Permission)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	inv, err := h.invitations.Send(r.Context(), middleware.GetUserID(r.Context()), invitations.SendInput{
		DocumentID: chi.URLParam(r, "documentID"),
		Email:      req.Email,
		Permission: perm,
		Message:    req.Message,
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, inv)
}

// ListPending handles GET /v1/invitations.
func (h *InvitationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	invs, err := h.invitations.ListPending(r.Context(), middleware.GetUserEmail(r.Context()))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if invs == nil {
		invs = []*models.Invitation{}
	}

	WriteJSON(w, http.StatusOK, invs)
}

// CountPending handles GET /v1/invitations/count.
func (h *InvitationHandler) CountPending(w http.ResponseWriter, r *http.Request) {
	n, err := h.invitations.CountPending(r.Context(), middleware.GetUserEmail(r.Context()))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{"count": n})
}

// Accept handles POST /v1/invitations/{invitationID}/accept. On success
// the response carries the document the caller just gained access to.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.invitations.Accept(ctx, chi.URLParam(r, "invitationID"),
		middleware.GetUserID(ctx), middleware.GetUserEmail(ctx))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}

// Decline handles POST /v1/invitations/{invitationID}/decline.
func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invitations.Decline(r.Context(), chi.URLParam(r, "invitationID"),
		middleware.GetUserEmail(r.Context()))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, inv)
}

// Cancel handles DELETE /v1/invitations/{invitationID}.
func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	err := h.invitations.Cancel(r.Context(), chi.URLParam(r, "invitationID"),
		middleware.GetUserID(r.Context()))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
