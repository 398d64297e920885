package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
)

type mockSessionRepo struct {
	deleteExpiredCalls atomic.Int64
}

func (m *mockSessionRepo) Reserve(ctx context.Context, params model.ReserveSessionParams) (*model.AdminSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) Finalize(ctx context.Context, id string, refreshToken string) error {
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.AdminSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) FindByRefreshToken(ctx context.Context, id string, refreshToken string) (*model.AdminSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) Rotate(ctx context.Context, id string, refreshToken, ip, userAgent string) (int64, error) {
	return 0, nil
}

func (m *mockSessionRepo) ListByAdmin(ctx context.Context, adminID string) ([]model.AdminSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) Revoke(ctx context.Context, id string) (int64, error) {
	return 0, nil
}

func (m *mockSessionRepo) RevokeAllForAdmin(ctx context.Context, adminID string) (int64, error) {
	return 0, nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	m.deleteExpiredCalls.Add(1)
	return 2, nil
}

type mockActivityRepo struct {
	deleteOlderThanCalls atomic.Int64
	lastCutoff           atomic.Value
}

func (m *mockActivityRepo) Insert(ctx context.Context, params model.RecordActivityParams) error {
	return nil
}

func (m *mockActivityRepo) List(ctx context.Context, filter model.ActivityFilter) ([]model.ActivityLog, error) {
	return nil, nil
}

func (m *mockActivityRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	m.deleteOlderThanCalls.Add(1)
	m.lastCutoff.Store(before)
	return 1, nil
}

func TestCleanupJobRunsImmediatelyOnStart(t *testing.T) {
	sessions := &mockSessionRepo{}
	activity := &mockActivityRepo{}

	job := NewCleanupJob(sessions, activity, time.Hour, 90*24*time.Hour)
	job.Start()
	defer job.Stop()

	assert.Eventually(t, func() bool {
		return sessions.deleteExpiredCalls.Load() >= 1 && activity.deleteOlderThanCalls.Load() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestCleanupJobRetentionCutoff(t *testing.T) {
	sessions := &mockSessionRepo{}
	activity := &mockActivityRepo{}
	retention := 90 * 24 * time.Hour

	job := NewCleanupJob(sessions, activity, time.Hour, retention)
	job.cleanup()

	cutoff, ok := activity.lastCutoff.Load().(time.Time)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(-retention), cutoff, time.Minute)
}

func TestCleanupJobStops(t *testing.T) {
	sessions := &mockSessionRepo{}
	activity := &mockActivityRepo{}

	job := NewCleanupJob(sessions, activity, 10*time.Millisecond, time.Hour)
	job.Start()

	assert.Eventually(t, func() bool {
		return sessions.deleteExpiredCalls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	job.Stop()
	after := sessions.deleteExpiredCalls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, sessions.deleteExpiredCalls.Load(), after+1)
}
