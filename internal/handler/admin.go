package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/middleware"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/service"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/util"
)

// AdminHandler exposes operator management and the audit log. Everything here
// requires an authenticated caller; fine-grained permission checks live in
// the service layer.
type AdminHandler struct {
	adminService *service.AdminService
	authn        func(http.Handler) http.Handler
}

func NewAdminHandler(adminService *service.AdminService, authn func(http.Handler) http.Handler) *AdminHandler {
	return &AdminHandler{adminService: adminService, authn: authn}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.authn)

	r.Post("/", h.CreateAdmin)
	r.Patch("/{adminID}/deactivate", h.DeactivateAdmin)

	return r
}

func (h *AdminHandler) ActivityRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.authn)

	r.Get("/", h.ListActivity)

	return r
}

type createAdminRequest struct {
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	Password     string            `json:"password"`
	Role         model.Role        `json:"role"`
	Permissions  model.Permissions `json:"permissions"`
	IsSuperAdmin bool              `json:"isSuperAdmin"`
}

// POST /api/admin/admins
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	actor := middleware.GetAdmin(r.Context())
	created, err := h.adminService.CreateAdmin(r.Context(), actor, service.CreateAdminInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		Permissions:  req.Permissions,
		IsSuperAdmin: req.IsSuperAdmin,
	}, clientInfo(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// PATCH /api/admin/admins/{adminID}/deactivate
func (h *AdminHandler) DeactivateAdmin(w http.ResponseWriter, r *http.Request) {
	adminID := chi.URLParam(r, "adminID")
	if !util.IsValidID(adminID) {
		writeError(w, apperrors.InvalidInput("adminID", "must be a UUID"))
		return
	}

	actor := middleware.GetAdmin(r.Context())
	if err := h.adminService.DeactivateAdmin(r.Context(), actor, adminID, clientInfo(r)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Admin deactivated"})
}

// GET /api/admin/activity
func (h *AdminHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	filter, err := activityFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	actor := middleware.GetAdmin(r.Context())
	logs, err := h.adminService.ListActivity(r.Context(), actor, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"activity": logs})
}

func activityFilterFromQuery(r *http.Request) (model.ActivityFilter, error) {
	q := r.URL.Query()
	filter := model.ActivityFilter{
		AdminID: q.Get("adminId"),
		Action:  q.Get("action"),
	}

	if filter.AdminID != "" && !util.IsValidID(filter.AdminID) {
		return filter, apperrors.InvalidInput("adminId", "must be a UUID")
	}

	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.InvalidInput("since", "must be RFC 3339")
		}
		filter.Since = t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.InvalidInput("until", "must be RFC 3339")
		}
		filter.Until = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			return filter, apperrors.InvalidInput("limit", "must be between 1 and 1000")
		}
		filter.Limit = n
	}

	return filter, nil
}
