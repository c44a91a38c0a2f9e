package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yangwenmai/storeforge/internal/model"
	"github.com/yangwenmai/storeforge/internal/publish"
	"github.com/yangwenmai/storeforge/internal/store"
)

// ---------------------------------------------------------------------------
// POST /api/stores
// ---------------------------------------------------------------------------

type createStoreRequest struct {
	UserID      string            `json:"user_id"`
	StoreName   string            `json:"store_name"`
	SourceURL   string            `json:"source_url"`
	ThemeStyle  string            `json:"theme_style"`
	BrandColors map[string]string `json:"brand_colors"`
	// Start defaults to true; false creates a draft.
	Start *bool `json:"start"`
}

func (s *Server) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	var req createStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SourceURL == "" {
		writeError(w, http.StatusBadRequest, "source_url is required")
		return
	}
	u, err := url.Parse(req.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "source_url must be an absolute http(s) URL")
		return
	}
	if req.StoreName == "" {
		writeError(w, http.StatusBadRequest, "store_name is required")
		return
	}
	if req.ThemeStyle != "" && !model.IsValidStyle(req.ThemeStyle) {
		slog.Warn("unknown theme style, using default", "theme_style", req.ThemeStyle)
	}
	start := req.Start == nil || *req.Start

	st := model.NewStore(uuid.NewString(), req.UserID, req.StoreName, req.SourceURL,
		model.ThemeStyle(req.ThemeStyle), req.BrandColors, start)
	if err := s.store.CreateStore(r.Context(), st); err != nil {
		slog.Error("create store failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create store")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":     st.ID,
		"status": st.Status,
	})
}

// ---------------------------------------------------------------------------
// GET /api/stores
// ---------------------------------------------------------------------------

func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request) {
	filter := model.StoreFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: splitComma(r.URL.Query().Get("status")),
	}
	stores, err := s.store.ListStores(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list stores")
		return
	}
	if stores == nil {
		stores = []model.Store{}
	}
	writeJSON(w, http.StatusOK, stores)
}

// ---------------------------------------------------------------------------
// GET /api/stores/{id}, GET /api/stores/{id}/progress
// ---------------------------------------------------------------------------

func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadStore(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProgress(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "store not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get progress")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ---------------------------------------------------------------------------
// POST /api/stores/{id}/generate
// ---------------------------------------------------------------------------

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.QueueGeneration(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "store not found")
		return
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "store is already generating")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to queue generation")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": model.StatusGenerating})
}

// ---------------------------------------------------------------------------
// DELETE /api/stores/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadStore(w, r)
	if !ok {
		return
	}
	if st.Status == model.StatusGenerating {
		writeError(w, http.StatusConflict, "cannot delete a store while generating")
		return
	}
	if err := s.store.DeleteStore(r.Context(), st.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to delete store")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// POST /api/stores/{id}/publish, POST /api/stores/{id}/theme
// ---------------------------------------------------------------------------

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "publishing is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	res, err := s.publisher.Publish(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "store not found")
		return
	case errors.Is(err, publish.ErrNotPublishable), errors.Is(err, publish.ErrInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("publish failed", "store_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "publish failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleApplyTheme(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "publishing is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	themeID, err := s.publisher.ApplyTheme(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "store not found")
		return
	case errors.Is(err, publish.ErrNotPublishable):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("apply theme failed", "store_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "apply theme failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"store_id": id, "theme_id": themeID})
}

// ---------------------------------------------------------------------------
// POST /api/backgrounds
// ---------------------------------------------------------------------------

type backgroundRequest struct {
	BrandColors map[string]string `json:"brand_colors"`
	ThemeStyle  string            `json:"theme_style"`
}

func (s *Server) handleBackground(w http.ResponseWriter, r *http.Request) {
	if s.backgrounds == nil {
		writeError(w, http.StatusServiceUnavailable, "image generation is not configured")
		return
	}
	var req backgroundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	style := model.NormalizeStyle(req.ThemeStyle)
	bg := s.backgrounds.GenerateBrandedBackground(r.Context(), req.BrandColors, style)
	writeJSON(w, http.StatusOK, map[string]string{"url": bg, "theme_style": string(style)})
}

func (s *Server) loadStore(w http.ResponseWriter, r *http.Request) (*model.Store, bool) {
	st, err := s.store.GetStore(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "store not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get store")
		return nil, false
	}
	return st, true
}
