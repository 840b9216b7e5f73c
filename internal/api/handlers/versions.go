package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scribehub/scribe-server/internal/api/middleware"
	"github.com/scribehub/scribe-server/internal/documents"
	"github.com/scribehub/scribe-server/internal/models"
	"github.com/scribehub/scribe-server/internal/permissions"
	"github.com/scribehub/scribe-server/internal/versions"
)

// VersionHandler handles version history and contribution requests.
// The document service gates read access; recording a version or
// reverting additionally requires edit permission.
type VersionHandler struct {
	documents *documents.Service
	versions  *versions.Service
	logger    *slog.Logger
}

// NewVersionHandler creates a new version handler.
func NewVersionHandler(docSvc *documents.Service, verSvc *versions.Service, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{documents: docSvc, versions: verSvc, logger: logger}
}

type createVersionRequest struct {
	Content     string `json:"content"`
	Description string `json:"description"`
}

// Create handles POST /v1/documents/{documentID}/versions.
func (h *VersionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "documentID")
	userID := middleware.GetUserID(ctx)

	doc, err := h.documents.Get(ctx, documentID, userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if !permissions.HasEditPermission(doc, userID) {
		WriteForbidden(w, "Edit permission required")
		return
	}

	var req createVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	v, err := h.versions.Create(ctx, versions.CreateInput{
		DocumentID:  documentID,
		Content:     req.Content,
		UserID:      userID,
		Username:    middleware.GetUsername(ctx),
		Description: req.Description,
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, v)
}

// History handles GET /v1/documents/{documentID}/versions.
func (h *VersionHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "documentID")

	if _, err := h.documents.Get(ctx, documentID, middleware.GetUserID(ctx)); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	history, err := h.versions.History(ctx, documentID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if history == nil {
		history = []*models.Version{}
	}

	WriteJSON(w, http.StatusOK, history)
}

// Get handles GET /v1/versions/{versionID}.
func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	v, err := h.versions.Get(ctx, chi.URLParam(r, "versionID"))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	// Reading a version requires access to its document.
	if _, err := h.documents.Get(ctx, v.DocumentID, middleware.GetUserID(ctx)); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, v)
}

// Revert handles POST /v1/documents/{documentID}/versions/{versionID}/revert.
func (h *VersionHandler) Revert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "documentID")
	userID := middleware.GetUserID(ctx)

	doc, err := h.documents.Get(ctx, documentID, userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if !permissions.HasEditPermission(doc, userID) {
		WriteForbidden(w, "Edit permission required")
		return
	}

	v, err := h.versions.Revert(ctx, documentID, chi.URLParam(r, "versionID"),
		userID, middleware.GetUsername(ctx))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, v)
}

// Contributions handles GET /v1/documents/{documentID}/contributions.
func (h *VersionHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "documentID")

	if _, err := h.documents.Get(ctx, documentID, middleware.GetUserID(ctx)); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	contribs, err := h.versions.Contributions(ctx, documentID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if contribs == nil {
		contribs = []*models.Contribution{}
	}

	WriteJSON(w, http.StatusOK, contribs)
}
