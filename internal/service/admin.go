package service

import (
	"context"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/audit"
	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/repository"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/util"
)

const targetTypeAdmin = "admin"

type AdminService struct {
	admins     repository.AdminRepository
	sessions   repository.SessionRepository
	activity   repository.ActivityRepository
	recorder   *audit.Recorder
	bcryptCost int
}

func NewAdminService(
	admins repository.AdminRepository,
	sessions repository.SessionRepository,
	activity repository.ActivityRepository,
	recorder *audit.Recorder,
	bcryptCost int,
) *AdminService {
	return &AdminService{
		admins:     admins,
		sessions:   sessions,
		activity:   activity,
		recorder:   recorder,
		bcryptCost: bcryptCost,
	}
}

func (s *AdminService) Profile(ctx context.Context, adminID string) (*model.Admin, error) {
	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if admin == nil {
		return nil, apperrors.NotFound("Admin")
	}
	return admin, nil
}

func (s *AdminService) UpdateProfile(ctx context.Context, actor *model.Admin, email string, client ClientInfo) (*model.Admin, error) {
	if email == "" {
		return nil, apperrors.MissingRequired("email")
	}
	if !util.IsValidEmail(email) {
		return nil, apperrors.InvalidInput("email", "malformed address")
	}

	updated, err := s.admins.UpdateEmail(ctx, actor.ID, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("Admin")
	}

	s.recorder.Record(ctx, audit.Entry{
		AdminID:   &actor.ID,
		Action:    audit.ActionProfileUpdated,
		Details:   map[string]any{"email": email},
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	return updated, nil
}

// ChangePassword verifies the current password, stores a new hash and revokes
// every session for the admin. The caller must log in again.
func (s *AdminService) ChangePassword(ctx context.Context, actor *model.Admin, currentPassword, newPassword string, client ClientInfo) error {
	if newPassword == "" {
		return apperrors.MissingRequired("newPassword")
	}
	if len(newPassword) < 8 {
		return apperrors.InvalidInput("newPassword", "must be at least 8 characters")
	}
	if !util.CheckPasswordHash(currentPassword, actor.PasswordHash) {
		return apperrors.InvalidCredentials()
	}

	hash, err := util.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password").WithCause(err)
	}
	if err := s.admins.UpdatePasswordHash(ctx, actor.ID, hash); err != nil {
		return apperrors.Database(err)
	}

	if _, err := s.sessions.RevokeAllForAdmin(ctx, actor.ID); err != nil {
		return apperrors.Database(err)
	}

	s.recorder.Record(ctx, audit.Entry{
		AdminID:   &actor.ID,
		Action:    audit.ActionPasswordChanged,
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	return nil
}

// ListSessions returns the admin's active sessions, flagging the caller's own.
func (s *AdminService) ListSessions(ctx context.Context, adminID, currentSessionID string) ([]model.SessionView, error) {
	sessions, err := s.sessions.ListByAdmin(ctx, adminID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	views := make([]model.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, model.SessionView{
			ID:         sess.ID,
			IPAddress:  sess.IPAddress,
			UserAgent:  sess.UserAgent,
			IsCurrent:  sess.ID == currentSessionID,
			CreatedAt:  sess.CreatedAt,
			LastUsedAt: sess.LastUsedAt,
		})
	}
	return views, nil
}

// TerminateSession revokes one of the caller's own sessions.
func (s *AdminService) TerminateSession(ctx context.Context, actor *model.Admin, sessionID string, client ClientInfo) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return apperrors.Database(err)
	}
	if session == nil || session.AdminID != actor.ID {
		// a foreign session is reported as absent, not forbidden
		return apperrors.NotFound("Session")
	}

	if _, err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return apperrors.Database(err)
	}

	s.recorder.Record(ctx, audit.Entry{
		AdminID:   &actor.ID,
		Action:    audit.ActionSessionRevoked,
		Details:   map[string]any{"sessionId": sessionID},
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	return nil
}

type CreateAdminInput struct {
	Username     string
	Email        string
	Password     string
	Role         model.Role
	Permissions  model.Permissions
	IsSuperAdmin bool
}

// CreateAdmin creates a new operator account. Super admins may always create;
// others need the admins:create permission and can never mint super admins.
func (s *AdminService) CreateAdmin(ctx context.Context, actor *model.Admin, input CreateAdminInput, client ClientInfo) (*model.Admin, error) {
	if !actor.IsSuperAdmin && !actor.HasPermission("admins", "create") {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}
	if input.IsSuperAdmin && !actor.IsSuperAdmin {
		return nil, apperrors.Forbidden("Only a super admin can create super admins")
	}

	if !util.IsValidUsername(input.Username) {
		return nil, apperrors.InvalidInput("username", "must be 3-50 characters of letters, digits, _ or -")
	}
	if !util.IsValidEmail(input.Email) {
		return nil, apperrors.InvalidInput("email", "malformed address")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.InvalidInput("password", "must be at least 8 characters")
	}
	if !input.Role.Valid() {
		return nil, apperrors.InvalidInput("role", "must be one of super_admin, admin, viewer")
	}

	existing, err := s.admins.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("Admin")
	}

	hash, err := util.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password").WithCause(err)
	}

	created, err := s.admins.Create(ctx, model.CreateAdminParams{
		ID:           util.NewID(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Permissions:  input.Permissions,
		IsSuperAdmin: input.IsSuperAdmin,
		CreatedBy:    &actor.ID,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	targetType := targetTypeAdmin
	s.recorder.Record(ctx, audit.Entry{
		AdminID:    &actor.ID,
		Action:     audit.ActionAdminCreated,
		TargetType: &targetType,
		TargetID:   &created.ID,
		Details:    map[string]any{"username": created.Username, "role": created.Role},
		IP:         client.IP,
		UserAgent:  client.UserAgent,
	})
	return created, nil
}

// DeactivateAdmin flips the soft-delete flag and revokes the target's
// sessions. Accounts are never hard-deleted.
func (s *AdminService) DeactivateAdmin(ctx context.Context, actor *model.Admin, targetID string, client ClientInfo) error {
	if !actor.IsSuperAdmin {
		return apperrors.Forbidden("Only a super admin can deactivate admins")
	}
	if targetID == actor.ID {
		return apperrors.InvalidInput("adminId", "cannot deactivate your own account")
	}

	target, err := s.admins.FindByID(ctx, targetID)
	if err != nil {
		return apperrors.Database(err)
	}
	if target == nil {
		return apperrors.NotFound("Admin")
	}

	if err := s.admins.SetActive(ctx, targetID, false); err != nil {
		return apperrors.Database(err)
	}
	if _, err := s.sessions.RevokeAllForAdmin(ctx, targetID); err != nil {
		return apperrors.Database(err)
	}

	targetType := targetTypeAdmin
	s.recorder.Record(ctx, audit.Entry{
		AdminID:    &actor.ID,
		Action:     audit.ActionAdminDeactivated,
		TargetType: &targetType,
		TargetID:   &targetID,
		IP:         client.IP,
		UserAgent:  client.UserAgent,
	})
	return nil
}

// ListActivity returns audit rows for operators with the activity:read
// permission.
func (s *AdminService) ListActivity(ctx context.Context, actor *model.Admin, filter model.ActivityFilter) ([]model.ActivityLog, error) {
	if !actor.IsSuperAdmin && !actor.HasPermission("activity", "read") {
		return nil, apperrors.Forbidden("Insufficient permissions")
	}

	logs, err := s.activity.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return logs, nil
}
