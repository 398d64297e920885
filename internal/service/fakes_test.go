package service

import (
	"context"
	"sync"
	"time"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
)

// in-memory repository fakes shared by the service tests

type fakeAdminRepo struct {
	mu     sync.Mutex
	admins map[string]*model.Admin
}

func newFakeAdminRepo(admins ...*model.Admin) *fakeAdminRepo {
	repo := &fakeAdminRepo{admins: make(map[string]*model.Admin)}
	for _, a := range admins {
		copied := *a
		repo.admins[a.ID] = &copied
	}
	return repo
}

func (f *fakeAdminRepo) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.admins[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeAdminRepo) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Username == username {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAdminRepo) Create(ctx context.Context, params model.CreateAdminParams) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	admin := &model.Admin{
		ID:           params.ID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		Permissions:  params.Permissions,
		IsActive:     true,
		IsSuperAdmin: params.IsSuperAdmin,
		CreatedBy:    params.CreatedBy,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.admins[admin.ID] = admin
	copied := *admin
	return &copied, nil
}

func (f *fakeAdminRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.admins[id]; ok {
		a.LastLoginAt = &at
	}
	return nil
}

func (f *fakeAdminRepo) UpdateEmail(ctx context.Context, id string, email string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[id]
	if !ok {
		return nil, nil
	}
	a.Email = email
	copied := *a
	return &copied, nil
}

func (f *fakeAdminRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.admins[id]; ok {
		a.PasswordHash = hash
	}
	return nil
}

func (f *fakeAdminRepo) SetActive(ctx context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.admins[id]; ok {
		a.IsActive = active
	}
	return nil
}

func (f *fakeAdminRepo) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.admins), nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.AdminSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.AdminSession)}
}

func (f *fakeSessionRepo) Reserve(ctx context.Context, params model.ReserveSessionParams) (*model.AdminSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := &model.AdminSession{
		ID:         params.ID,
		AdminID:    params.AdminID,
		IPAddress:  params.IPAddress,
		UserAgent:  params.UserAgent,
		ExpiresAt:  params.ExpiresAt,
		LastUsedAt: time.Now(),
		CreatedAt:  time.Now(),
	}
	f.sessions[session.ID] = session
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) Finalize(ctx context.Context, id string, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		token := refreshToken
		s.RefreshToken = &token
	}
	return nil
}

func (f *fakeSessionRepo) FindByID(ctx context.Context, id string) (*model.AdminSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionRepo) FindByRefreshToken(ctx context.Context, id string, refreshToken string) (*model.AdminSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.RefreshToken == nil || *s.RefreshToken != refreshToken || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionRepo) Rotate(ctx context.Context, id string, refreshToken, ip, userAgent string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return 0, nil
	}
	token := refreshToken
	s.RefreshToken = &token
	s.IPAddress = ip
	s.UserAgent = userAgent
	s.LastUsedAt = time.Now()
	return 1, nil
}

func (f *fakeSessionRepo) ListByAdmin(ctx context.Context, adminID string) ([]model.AdminSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.AdminSession
	for _, s := range f.sessions {
		if s.AdminID == adminID && s.ExpiresAt.After(time.Now()) {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (f *fakeSessionRepo) Revoke(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return 0, nil
	}
	delete(f.sessions, id)
	return 1, nil
}

func (f *fakeSessionRepo) RevokeAllForAdmin(ctx context.Context, adminID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for id, s := range f.sessions {
		if s.AdminID == adminID {
			delete(f.sessions, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	now := time.Now()
	for id, s := range f.sessions {
		if !s.ExpiresAt.After(now) {
			delete(f.sessions, id)
			count++
		}
	}
	return count, nil
}

type fakeActivityRepo struct {
	mu   sync.Mutex
	rows []model.RecordActivityParams
}

func (f *fakeActivityRepo) Insert(ctx context.Context, params model.RecordActivityParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, params)
	return nil
}

func (f *fakeActivityRepo) List(ctx context.Context, filter model.ActivityFilter) ([]model.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var logs []model.ActivityLog
	for _, row := range f.rows {
		if filter.Action != "" && row.Action != filter.Action {
			continue
		}
		if filter.AdminID != "" && (row.AdminID == nil || *row.AdminID != filter.AdminID) {
			continue
		}
		logs = append(logs, model.ActivityLog{
			ID:      row.ID,
			AdminID: row.AdminID,
			Action:  row.Action,
			Details: row.Details,
		})
	}
	return logs, nil
}

func (f *fakeActivityRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeActivityRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	actions := make([]string, 0, len(f.rows))
	for _, row := range f.rows {
		actions = append(actions, row.Action)
	}
	return actions
}

func (f *fakeActivityRepo) lastRow() *model.RecordActivityParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) == 0 {
		return nil
	}
	row := f.rows[len(f.rows)-1]
	return &row
}
