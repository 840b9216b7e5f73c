// Package handlers implements the HTTP handlers for the collaboration API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scribehub/scribe-server/internal/api/middleware"
	"github.com/scribehub/scribe-server/internal/documents"
	"github.com/scribehub/scribe-server/internal/models"
)

// DocumentHandler handles document CRUD and sharing requests.
type DocumentHandler struct {
	documents *documents.Service
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(svc *documents.Service, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{documents: svc, logger: logger}
}

type createDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create handles POST /v1/documents.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	doc, err := h.documents.Create(r.Context(), middleware.GetUserID(r.Context()), documents.CreateInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, doc)
}

// List handles GET /v1/documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.ListAccessible(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}

	WriteJSON(w, http.StatusOK, docs)
}

// Get handles GET /v1/documents/{documentID}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Get(r.Context(), chi.URLParam(r, "documentID"), middleware.GetUserID(r.Context()))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}

type updateDocumentRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Update handles PATCH /v1/documents/{documentID}.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	doc, err := h.documents.Update(r.Context(), chi.URLParam(r, "documentID"), middleware.GetUserID(r.Context()), documents.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}

// Delete handles DELETE /v1/documents/{documentID}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.documents.Delete(r.Context(), chi.URLParam(r, "documentID"), middleware.GetUserID(r.Context()))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type shareDocumentRequest struct {
	UserID     string `json:"user_id"`
	Permission string `json:"permission"`
}

// Share handles POST /v1/documents/{documentID}/share.
func (h *DocumentHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req shareDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	perm, err := models.ParsePermission(req.Permission)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	doc, err := h.documents.Share(r.Context(), chi.URLParam(r, "documentID"), middleware.GetUserID(r.Context()), req.UserID, perm)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}
