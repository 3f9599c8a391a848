package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/repository"
)

const (
	defaultPublicLimit = 20
	maxPublicLimit     = 100
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ArticleService - операции со статьями. Изменение статьи всегда сопровождается
// снимком ее прежнего состояния в журнале версий.
type ArticleService interface {
	CreateArticle(ctx context.Context, adminID int64, input models.ArticleInput) (int64, error)
	UpdateArticle(ctx context.Context, adminID, articleID int64, input models.ArticleInput) error
	DeleteArticle(ctx context.Context, articleID int64) error
	GetArticle(ctx context.Context, articleID int64) (*models.Article, error)
	ListArticles(ctx context.Context) ([]models.ArticleSummary, error)
	ListVersions(ctx context.Context, articleID int64, limit, offset int) ([]models.ArticleVersion, error)
	GetPublicArticle(ctx context.Context, slug string, includeDrafts bool) (*models.Article, error)
	ListPublishedArticles(ctx context.Context, limit int) ([]models.Article, error)
}

var _ ArticleService = (*articleService)(nil)

type articleService struct {
	articleRepo repository.ArticleRepository
	versionRepo repository.ArticleVersionRepository
}

// NewArticleService создает новый экземпляр сервиса статей.
func NewArticleService(
	articleRepo repository.ArticleRepository,
	versionRepo repository.ArticleVersionRepository,
) ArticleService {
	return &articleService{articleRepo: articleRepo, versionRepo: versionRepo}
}

// CreateArticle создает статью. Снимок версии для новой статьи не делается.
func (s *articleService) CreateArticle(ctx context.Context, adminID int64, input models.ArticleInput) (int64, error) {
	article, err := articleFromInput(input)
	if err != nil {
		return 0, err
	}
	article.AuthorID = &adminID

	taken, err := s.articleRepo.SlugTaken(ctx, article.Slug, 0)
	if err != nil {
		return 0, fmt.Errorf("внутренняя ошибка сервера при проверке slug: %w", err)
	}
	if taken {
		log.Printf("[ArticleService] Slug '%s' уже занят", article.Slug)
		return 0, ErrSlugTaken
	}

	articleID, err := s.articleRepo.CreateArticle(ctx, article)
	if err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return 0, ErrSlugTaken
		}
		return 0, fmt.Errorf("внутренняя ошибка сервера при создании статьи: %w", err)
	}

	if len(article.Tags) > 0 {
		if err = s.articleRepo.ReplaceTags(ctx, articleID, article.Tags); err != nil {
			return 0, fmt.Errorf("внутренняя ошибка сервера при сохранении тегов: %w", err)
		}
	}

	log.Printf("[ArticleService] Администратор ID %d создал статью ID %d", adminID, articleID)
	return articleID, nil
}

// UpdateArticle изменяет существующую статью.
// Порядок: проверка данных -> существование -> уникальность slug -> снимок версии ->
// запись статьи -> замена тегов. Шаги не объединены в транзакцию.
func (s *articleService) UpdateArticle(
	ctx context.Context,
	adminID, articleID int64,
	input models.ArticleInput,
) error {
	article, err := articleFromInput(input)
	if err != nil {
		return err
	}
	article.ID = articleID

	if _, err = s.articleRepo.GetArticleByID(ctx, articleID); err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return ErrArticleNotFound
		}
		return fmt.Errorf("внутренняя ошибка сервера при получении статьи: %w", err)
	}

	taken, err := s.articleRepo.SlugTaken(ctx, article.Slug, articleID)
	if err != nil {
		return fmt.Errorf("внутренняя ошибка сервера при проверке slug: %w", err)
	}
	if taken {
		log.Printf("[ArticleService] Slug '%s' занят другой статьей, изменение ID %d отклонено", article.Slug, articleID)
		return ErrSlugTaken
	}

	// Снимок обязан быть записан до изменения статьи, иначе в историю попадет новое состояние.
	saved, err := s.versionRepo.Snapshot(ctx, articleID, adminID)
	if err != nil {
		return fmt.Errorf("внутренняя ошибка сервера при сохранении версии: %w", err)
	}
	if !saved {
		// Статью удалили между проверкой и снимком
		return ErrArticleNotFound
	}

	if err = s.articleRepo.UpdateArticle(ctx, article); err != nil {
		switch {
		case errors.Is(err, repository.ErrArticleNotFound):
			return ErrArticleNotFound
		case errors.Is(err, repository.ErrSlugTaken):
			return ErrSlugTaken
		default:
			return fmt.Errorf("внутренняя ошибка сервера при изменении статьи: %w", err)
		}
	}

	if err = s.articleRepo.ReplaceTags(ctx, articleID, article.Tags); err != nil {
		return fmt.Errorf("внутренняя ошибка сервера при сохранении тегов: %w", err)
	}

	log.Printf("[ArticleService] Администратор ID %d изменил статью ID %d", adminID, articleID)
	return nil
}

// DeleteArticle удаляет статью без снимка версии.
func (s *articleService) DeleteArticle(ctx context.Context, articleID int64) error {
	if err := s.articleRepo.DeleteArticle(ctx, articleID); err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return ErrArticleNotFound
		}
		return fmt.Errorf("внутренняя ошибка сервера при удалении статьи: %w", err)
	}
	return nil
}

// GetArticle возвращает статью с тегами для редактирования.
func (s *articleService) GetArticle(ctx context.Context, articleID int64) (*models.Article, error) {
	article, err := s.articleRepo.GetArticleByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении статьи: %w", err)
	}
	if err = s.attachTags(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// ListArticles возвращает все статьи для админки.
func (s *articleService) ListArticles(ctx context.Context) ([]models.ArticleSummary, error) {
	articles, err := s.articleRepo.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении статей: %w", err)
	}
	return articles, nil
}

// ListVersions возвращает историю версий статьи.
func (s *articleService) ListVersions(
	ctx context.Context,
	articleID int64,
	limit, offset int,
) ([]models.ArticleVersion, error) {
	if _, err := s.articleRepo.GetArticleByID(ctx, articleID); err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении статьи: %w", err)
	}

	versions, err := s.versionRepo.ListVersionsByArticleID(ctx, articleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении версий: %w", err)
	}
	return versions, nil
}

// GetPublicArticle возвращает статью по slug.
// Черновики и архив видны только при includeDrafts (т.е. администратору с валидной сессией).
func (s *articleService) GetPublicArticle(
	ctx context.Context,
	slug string,
	includeDrafts bool,
) (*models.Article, error) {
	article, err := s.articleRepo.GetArticleBySlug(ctx, slug, !includeDrafts)
	if err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении статьи: %w", err)
	}
	if err = s.attachTags(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// ListPublishedArticles возвращает опубликованные статьи с тегами.
func (s *articleService) ListPublishedArticles(ctx context.Context, limit int) ([]models.Article, error) {
	if limit <= 0 || limit > maxPublicLimit {
		limit = defaultPublicLimit
	}

	articles, err := s.articleRepo.ListPublishedArticles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении статей: %w", err)
	}

	ids := make([]int64, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	tags, err := s.articleRepo.GetTagsForArticles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("внутренняя ошибка сервера при получении тегов: %w", err)
	}
	for i := range articles {
		articles[i].Tags = tags[articles[i].ID]
		if articles[i].Tags == nil {
			articles[i].Tags = []string{}
		}
	}
	return articles, nil
}

func (s *articleService) attachTags(ctx context.Context, article *models.Article) error {
	tags, err := s.articleRepo.GetTags(ctx, article.ID)
	if err != nil {
		return fmt.Errorf("внутренняя ошибка сервера при получении тегов: %w", err)
	}
	article.Tags = tags
	return nil
}

// articleFromInput проверяет данные формы и собирает из них статью.
func articleFromInput(input models.ArticleInput) (*models.Article, error) {
	title := strings.TrimSpace(input.Title)
	slug := strings.TrimSpace(input.Slug)
	if title == "" || slug == "" || input.Content == "" {
		return nil, fmt.Errorf("%w: заголовок, slug и текст обязательны", ErrValidation)
	}
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: slug может содержать только латинские буквы, цифры, '-' и '_'", ErrValidation)
	}

	status := strings.TrimSpace(input.Status)
	switch status {
	case "":
		status = models.ArticleStatusDraft
	case models.ArticleStatusDraft, models.ArticleStatusPublished, models.ArticleStatusArchived:
	default:
		return nil, fmt.Errorf("%w: неизвестный статус '%s'", ErrValidation, status)
	}

	return &models.Article{
		Title:        title,
		Slug:         slug,
		Content:      input.Content,
		Excerpt:      optionalString(input.Excerpt),
		HeroImageKey: optionalString(input.HeroImageKey),
		Status:       status,
		Tags:         ParseTags(input.Tags),
	}, nil
}

// ParseTags разбирает строку тегов через запятую: пробелы обрезаются, пустые значения отбрасываются.
// Дубликаты не удаляются.
func ParseTags(raw string) []string {
	tags := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
