package services

import (
	"context"
	"fmt"

	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/repository"
)

const recentArticlesLimit = 5

// DashboardService собирает сводку для главной страницы админки.
type DashboardService interface {
	Summary(ctx context.Context) (*models.DashboardSummary, error)
}

var _ DashboardService = (*dashboardService)(nil)

type dashboardService struct {
	articleRepo repository.ArticleRepository
	sessionRepo repository.SessionRepository
}

// NewDashboardService создает новый экземпляр сервиса сводки.
func NewDashboardService(
	articleRepo repository.ArticleRepository,
	sessionRepo repository.SessionRepository,
) DashboardService {
	return &dashboardService{articleRepo: articleRepo, sessionRepo: sessionRepo}
}

// Summary возвращает количество статей и сессий и последние статьи.
func (s *dashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	articleCount, err := s.articleRepo.CountArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("внутренняя ошибка сервера при подсчете статей: %w", err)
	}
	sessionCount, err := s.sessionRepo.CountSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("внутренняя ошибка сервера при подсчете сессий: %w", err)
	}
	recent, err := s.articleRepo.ListRecentArticles(ctx, recentArticlesLimit)
	if err != nil {
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении последних статей: %w", err)
	}

	return &models.DashboardSummary{
		ArticleCount:   articleCount,
		SessionCount:   sessionCount,
		RecentArticles: recent,
	}, nil
}
