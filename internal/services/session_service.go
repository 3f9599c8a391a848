package services

import (
	"context"
	"fmt"
	"log"

	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/repository"
)

// SessionService - управление сессиями администраторов.
type SessionService interface {
	ListSessions(ctx context.Context, currentToken string) ([]models.SessionView, error)
	RevokeSession(ctx context.Context, token string) error
	RevokeAdminSessions(ctx context.Context, adminID int64) (int64, error)
}

var _ SessionService = (*sessionService)(nil)

type sessionService struct {
	sessionRepo repository.SessionRepository
}

// NewSessionService создает новый экземпляр сервиса управления сессиями.
func NewSessionService(sessionRepo repository.SessionRepository) SessionService {
	return &sessionService{sessionRepo: sessionRepo}
}

// ListSessions возвращает все сессии, отмечая текущую.
func (s *sessionService) ListSessions(ctx context.Context, currentToken string) ([]models.SessionView, error) {
	sessions, err := s.sessionRepo.ListSessionsForAudit(ctx)
	if err != nil {
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении сессий: %w", err)
	}

	views := make([]models.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, models.SessionView{
			ID:        sess.ID,
			AdminID:   sess.AdminID,
			Username:  sess.Username,
			UserAgent: sess.UserAgent,
			IP:        sess.IP,
			CreatedAt: sess.CreatedAt,
			ExpiresAt: sess.ExpiresAt,
			Current:   sess.ID == currentToken,
		})
	}
	return views, nil
}

// RevokeSession отзывает сессию по токену. Отсутствующая сессия - не ошибка.
func (s *sessionService) RevokeSession(ctx context.Context, token string) error {
	if err := s.sessionRepo.RevokeSession(ctx, token); err != nil {
		return fmt.Errorf("внутренняя ошибка сервера при отзыве сессии: %w", err)
	}
	log.Printf("[SessionService] Сессия отозвана")
	return nil
}

// RevokeAdminSessions отзывает все сессии администратора.
func (s *sessionService) RevokeAdminSessions(ctx context.Context, adminID int64) (int64, error) {
	n, err := s.sessionRepo.RevokeAdminSessions(ctx, adminID)
	if err != nil {
		return 0, fmt.Errorf("внутренняя ошибка сервера при отзыве сессий: %w", err)
	}
	log.Printf("[SessionService] Отозвано %d сессий администратора ID %d", n, adminID)
	return n, nil
}
