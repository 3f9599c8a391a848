package mocks

import (
	"context"

	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/repository"
	"github.com/stretchr/testify/mock"
)

var _ repository.SessionRepository = (*SessionRepository)(nil)

// SessionRepository - мок repository.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) CreateSession(ctx context.Context, adminID int64, userAgent, ip *string) (string, error) {
	args := m.Called(ctx, adminID, userAgent, ip)
	return args.String(0), args.Error(1)
}

func (m *SessionRepository) ValidateSession(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *SessionRepository) RevokeSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *SessionRepository) RevokeAdminSessions(ctx context.Context, adminID int64) (int64, error) {
	args := m.Called(ctx, adminID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SessionRepository) ListSessionsForAudit(ctx context.Context) ([]models.SessionWithAdmin, error) {
	args := m.Called(ctx)
	sessions, _ := args.Get(0).([]models.SessionWithAdmin)
	return sessions, args.Error(1)
}

func (m *SessionRepository) CountSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
