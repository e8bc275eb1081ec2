// internal/server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markb/bazarbot/internal/i18n"
	"github.com/markb/bazarbot/internal/storage"
	"github.com/markb/bazarbot/internal/store"
	"github.com/markb/bazarbot/internal/telegram"
)

const maxPhotoSize = 10 << 20 // 10 MB

// initDataMaxAge bounds how old a Mini App login payload may be.
const initDataMaxAge = 24 * time.Hour

// handleAuthValidate verifies Telegram Mini App init data and exchanges it
// for an API access token.
func (s *Server) handleAuthValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InitData string `json:"init_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InitData == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "init_data is required")
		return
	}

	data, err := telegram.VerifyInitData(req.InitData, s.tg.Token(), initDataMaxAge)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid_init_data", "Init data verification failed")
		return
	}

	user, err := s.store.GetOrCreateUser(r.Context(), data.User.ID, data.User.FirstName,
		data.User.Username, i18n.Normalize(data.User.LanguageCode))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "token_error", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   accessTokenExpiry,
		"user": map[string]any{
			"id":          user.ID,
			"telegram_id": user.TelegramID,
			"first_name":  user.FirstName,
			"language":    user.Language,
			"role":        user.Role,
		},
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.Categories(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	type category struct {
		ID     int64  `json:"id"`
		NameRU string `json:"name_ru"`
		NameUZ string `json:"name_uz"`
		NameEN string `json:"name_en"`
	}
	out := make([]category, 0, len(cats))
	for _, c := range cats {
		out = append(out, category{ID: c.ID, NameRU: c.NameRU, NameUZ: c.NameUZ, NameEN: c.NameEN})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(r.URL.Query().Get("category_id"), 10, 64)
	if err != nil || categoryID <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "category_id is required")
		return
	}
	brands, err := s.store.Brands(r.Context(), categoryID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	type brand struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		CategoryID int64  `json:"category_id"`
	}
	out := make([]brand, 0, len(brands))
	for _, b := range brands {
		out = append(out, brand{ID: b.ID, Name: b.Name, CategoryID: b.CategoryID})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type adResponse struct {
	ID           int64  `json:"id"`
	CategoryID   int64  `json:"category_id"`
	BrandID      int64  `json:"brand_id"`
	Model        string `json:"model"`
	Price        int64  `json:"price"`
	Description  string `json:"description"`
	City         string `json:"city,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	PhotoPath    string `json:"photo_path,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

func toAdResponse(a *store.Advertisement) adResponse {
	return adResponse{
		ID:           a.ID,
		CategoryID:   a.CategoryID,
		BrandID:      a.BrandID,
		Model:        a.Model,
		Price:        a.Price,
		Description:  a.Description,
		City:         a.City,
		ContactPhone: a.ContactPhone,
		PhotoPath:    a.PhotoPath,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
	}
}

// handleAdvertisements lists approved ads, optionally filtered by
// category_id and brand_id, paged with limit/offset.
func (s *Server) handleAdvertisements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.AdFilter
	f.CategoryID, _ = strconv.ParseInt(q.Get("category_id"), 10, 64)
	f.BrandID, _ = strconv.ParseInt(q.Get("brand_id"), 10, 64)
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	ads, err := s.store.Advertisements(r.Context(), f)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	out := make([]adResponse, 0, len(ads))
	for i := range ads {
		out = append(out, toAdResponse(&ads[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdvertisement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid advertisement id")
		return
	}
	ad, err := s.store.Advertisement(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "not_found", "Advertisement not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	// Unmoderated ads are only visible to their owner via /my/advertisements.
	if ad.Status != store.StatusApproved && ad.Status != store.StatusSold {
		s.writeError(w, http.StatusNotFound, "not_found", "Advertisement not found")
		return
	}
	s.writeJSON(w, http.StatusOK, toAdResponse(ad))
}

func (s *Server) handleCreateAdvertisement(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	var req struct {
		CategoryID   int64  `json:"category_id"`
		BrandID      int64  `json:"brand_id"`
		Model        string `json:"model"`
		Price        int64  `json:"price"`
		Description  string `json:"description"`
		City         string `json:"city"`
		ContactPhone string `json:"contact_phone"`
		PhotoPath    string `json:"photo_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}
	if req.Model == "" || req.Price <= 0 || req.CategoryID <= 0 || req.BrandID <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "model, price, category_id and brand_id are required")
		return
	}
	if len([]rune(req.Description)) < 10 {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Description must be at least 10 characters")
		return
	}

	ad := &store.Advertisement{
		UserID:       user.ID,
		CategoryID:   req.CategoryID,
		BrandID:      req.BrandID,
		Model:        req.Model,
		Price:        req.Price,
		Description:  req.Description,
		City:         req.City,
		ContactPhone: req.ContactPhone,
		PhotoPath:    req.PhotoPath,
	}
	id, err := s.store.CreateAdvertisement(r.Context(), ad)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	created, err := s.store.Advertisement(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, toAdResponse(created))
}

func (s *Server) handleMarkSold(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid advertisement id")
		return
	}
	err = s.store.MarkAdvertisementSold(r.Context(), id, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "not_found", "No approved advertisement of yours with that id")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": store.StatusSold})
}

func (s *Server) handleMyAdvertisements(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	ads, err := s.store.UserAdvertisements(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	out := make([]adResponse, 0, len(ads))
	for i := range ads {
		out = append(out, toAdResponse(&ads[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	if s.photos == nil {
		s.writeError(w, http.StatusNotImplemented, "storage_disabled", "Photo storage is not configured")
		return
	}
	contentType := r.Header.Get("Content-Type")
	body := http.MaxBytesReader(w, r.Body, maxPhotoSize)
	key, err := s.photos.SavePhoto(r.Context(), body, contentType)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "upload_failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"photo_path": key})
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	if s.photos == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "Photo storage is not configured")
		return
	}
	key := chi.URLParam(r, "key")
	rc, info, err := s.photos.OpenPhoto(r.Context(), "photos/"+key)
	if storage.IsNotFound(err) {
		s.writeError(w, http.StatusNotFound, "not_found", "Photo not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	defer rc.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	io.Copy(w, rc)
}
