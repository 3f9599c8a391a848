package mocks

import (
	"context"

	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/repository"
	"github.com/stretchr/testify/mock"
)

var (
	_ repository.ArticleRepository        = (*ArticleRepository)(nil)
	_ repository.ArticleVersionRepository = (*ArticleVersionRepository)(nil)
)

// ArticleRepository - мок repository.ArticleRepository.
type ArticleRepository struct {
	mock.Mock
}

func (m *ArticleRepository) CreateArticle(ctx context.Context, article *models.Article) (int64, error) {
	args := m.Called(ctx, article)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ArticleRepository) GetArticleByID(ctx context.Context, articleID int64) (*models.Article, error) {
	args := m.Called(ctx, articleID)
	article, _ := args.Get(0).(*models.Article)
	return article, args.Error(1)
}

func (m *ArticleRepository) ListRecentArticles(ctx context.Context, limit int) ([]models.ArticleSummary, error) {
	args := m.Called(ctx, limit)
	articles, _ := args.Get(0).([]models.ArticleSummary)
	return articles, args.Error(1)
}

func (m *ArticleRepository) CountArticles(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ArticleRepository) GetArticleBySlug(
	ctx context.Context,
	slug string,
	publishedOnly bool,
) (*models.Article, error) {
	args := m.Called(ctx, slug, publishedOnly)
	article, _ := args.Get(0).(*models.Article)
	return article, args.Error(1)
}

func (m *ArticleRepository) ListArticles(ctx context.Context) ([]models.ArticleSummary, error) {
	args := m.Called(ctx)
	articles, _ := args.Get(0).([]models.ArticleSummary)
	return articles, args.Error(1)
}

func (m *ArticleRepository) ListPublishedArticles(ctx context.Context, limit int) ([]models.Article, error) {
	args := m.Called(ctx, limit)
	articles, _ := args.Get(0).([]models.Article)
	return articles, args.Error(1)
}

func (m *ArticleRepository) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *ArticleRepository) UpdateArticle(ctx context.Context, article *models.Article) error {
	args := m.Called(ctx, article)
	return args.Error(0)
}

func (m *ArticleRepository) DeleteArticle(ctx context.Context, articleID int64) error {
	args := m.Called(ctx, articleID)
	return args.Error(0)
}

func (m *ArticleRepository) ReplaceTags(ctx context.Context, articleID int64, tags []string) error {
	args := m.Called(ctx, articleID, tags)
	return args.Error(0)
}

func (m *ArticleRepository) GetTags(ctx context.Context, articleID int64) ([]string, error) {
	args := m.Called(ctx, articleID)
	tags, _ := args.Get(0).([]string)
	return tags, args.Error(1)
}

func (m *ArticleRepository) GetTagsForArticles(ctx context.Context, articleIDs []int64) (map[int64][]string, error) {
	args := m.Called(ctx, articleIDs)
	tags, _ := args.Get(0).(map[int64][]string)
	return tags, args.Error(1)
}

// ArticleVersionRepository - мок repository.ArticleVersionRepository.
type ArticleVersionRepository struct {
	mock.Mock
}

func (m *ArticleVersionRepository) Snapshot(ctx context.Context, articleID, editedBy int64) (bool, error) {
	args := m.Called(ctx, articleID, editedBy)
	return args.Bool(0), args.Error(1)
}

func (m *ArticleVersionRepository) ListVersionsByArticleID(
	ctx context.Context,
	articleID int64,
	limit, offset int,
) ([]models.ArticleVersion, error) {
	args := m.Called(ctx, articleID, limit, offset)
	versions, _ := args.Get(0).([]models.ArticleVersion)
	return versions, args.Error(1)
}
