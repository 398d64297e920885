package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/config"
	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/middleware"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/service"
)

type AuthHandler struct {
	authService  *service.AuthService
	adminService *service.AdminService
	authn        func(http.Handler) http.Handler
}

func NewAuthHandler(authService *service.AuthService, adminService *service.AdminService, authn func(http.Handler) http.Handler) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		adminService: adminService,
		authn:        authn,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(h.authn)
		r.Post("/logout", h.Logout)
		r.Get("/profile", h.Profile)
		r.Put("/profile", h.UpdateProfile)
		r.Post("/password", h.ChangePassword)
		r.Get("/sessions", h.ListSessions)
		r.Delete("/sessions/{sessionID}", h.TerminateSession)
	})

	return r
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/admin/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, apperrors.MissingRequired("username and password"))
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password, clientInfo(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// POST /api/admin/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.RefreshToken == "" {
		writeError(w, apperrors.MissingRequired("refreshToken"))
		return
	}

	result, err := h.authService.Refresh(r.Context(), req.RefreshToken, clientInfo(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /api/admin/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())
	sessionID := middleware.GetSessionID(r.Context())

	if err := h.authService.Logout(r.Context(), admin.ID, sessionID, clientInfo(r)); err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("logout failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GET /api/admin/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())
	writeJSON(w, http.StatusOK, admin)
}

type updateProfileRequest struct {
	Email string `json:"email"`
}

// PUT /api/admin/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	admin := middleware.GetAdmin(r.Context())
	updated, err := h.adminService.UpdateProfile(r.Context(), admin, req.Email, clientInfo(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// POST /api/admin/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	admin := middleware.GetAdmin(r.Context())
	if err := h.adminService.ChangePassword(r.Context(), admin, req.CurrentPassword, req.NewPassword, clientInfo(r)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GET /api/admin/auth/sessions
func (h *AuthHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())
	sessionID := middleware.GetSessionID(r.Context())

	views, err := h.adminService.ListSessions(r.Context(), admin.ID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

// DELETE /api/admin/auth/sessions/{sessionID}
func (h *AuthHandler) TerminateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, apperrors.MissingRequired("sessionID"))
		return
	}

	admin := middleware.GetAdmin(r.Context())
	if err := h.adminService.TerminateSession(r.Context(), admin, sessionID, clientInfo(r)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
