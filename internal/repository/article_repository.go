package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maynagashev/kdramahub/internal/models"
)

// ArticleRepository определяет методы для работы со статьями и их тегами.
type ArticleRepository interface {
	CreateArticle(ctx context.Context, article *models.Article) (int64, error)
	GetArticleByID(ctx context.Context, articleID int64) (*models.Article, error)
	GetArticleBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Article, error)
	ListArticles(ctx context.Context) ([]models.ArticleSummary, error)
	ListRecentArticles(ctx context.Context, limit int) ([]models.ArticleSummary, error)
	CountArticles(ctx context.Context) (int64, error)
	ListPublishedArticles(ctx context.Context, limit int) ([]models.Article, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	UpdateArticle(ctx context.Context, article *models.Article) error
	DeleteArticle(ctx context.Context, articleID int64) error
	ReplaceTags(ctx context.Context, articleID int64, tags []string) error
	GetTags(ctx context.Context, articleID int64) ([]string, error)
	GetTagsForArticles(ctx context.Context, articleIDs []int64) (map[int64][]string, error)
}

const articleColumns = `id, slug, title, content, excerpt, hero_image_key, status, author_id, created_at, updated_at`

// postgresArticleRepository реализует ArticleRepository для PostgreSQL.
type postgresArticleRepository struct {
	db *sqlx.DB
}

// NewPostgresArticleRepository создает новый экземпляр репозитория статей.
func NewPostgresArticleRepository(db *sqlx.DB) ArticleRepository {
	return &postgresArticleRepository{db: db}
}

// CreateArticle создает статью и возвращает ее ID.
func (r *postgresArticleRepository) CreateArticle(ctx context.Context, article *models.Article) (int64, error) {
	query := `INSERT INTO articles (title, slug, content, excerpt, status, author_id, hero_image_key)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var articleID int64

	err := r.db.QueryRowxContext(ctx, query,
		article.Title, article.Slug, article.Content, article.Excerpt,
		article.Status, article.AuthorID, article.HeroImageKey,
	).Scan(&articleID)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[ArticleRepo] Ошибка создания статьи: slug '%s' уже занят", article.Slug)
			return 0, ErrSlugTaken
		}
		log.Printf("[ArticleRepo] Непредвиденная ошибка при создании статьи '%s': %v", article.Slug, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на создание статьи: %w", err)
	}

	log.Printf("[ArticleRepo] Статья '%s' создана с ID %d", article.Slug, articleID)
	return articleID, nil
}

// GetArticleByID находит статью по ID.
func (r *postgresArticleRepository) GetArticleByID(ctx context.Context, articleID int64) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id=$1`
	var article models.Article

	err := r.db.GetContext(ctx, &article, query, articleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[ArticleRepo] Статья с ID %d не найдена", articleID)
			return nil, ErrArticleNotFound
		}
		log.Printf("[ArticleRepo] Ошибка при поиске статьи ID %d: %v", articleID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение статьи: %w", err)
	}

	return &article, nil
}

// GetArticleBySlug находит статью по slug.
// Если publishedOnly = true, черновики и архивные статьи не возвращаются.
func (r *postgresArticleRepository) GetArticleBySlug(
	ctx context.Context,
	slug string,
	publishedOnly bool,
) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE slug=$1`
	args := []interface{}{slug}
	if publishedOnly {
		query += ` AND status=$2`
		args = append(args, models.ArticleStatusPublished)
	}
	var article models.Article

	err := r.db.GetContext(ctx, &article, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[ArticleRepo] Статья со slug '%s' не найдена (publishedOnly=%t)", slug, publishedOnly)
			return nil, ErrArticleNotFound
		}
		log.Printf("[ArticleRepo] Ошибка при поиске статьи '%s': %v", slug, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение статьи: %w", err)
	}

	return &article, nil
}

// ListArticles возвращает все статьи для админки, сначала новые.
func (r *postgresArticleRepository) ListArticles(ctx context.Context) ([]models.ArticleSummary, error) {
	query := `SELECT id, title, slug, status, created_at, updated_at FROM articles ORDER BY created_at DESC`

	articles := make([]models.ArticleSummary, 0)
	if err := r.db.SelectContext(ctx, &articles, query); err != nil {
		log.Printf("[ArticleRepo] Ошибка при получении списка статей: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка статей: %w", err)
	}
	return articles, nil
}

// ListRecentArticles возвращает limit последних статей любого статуса.
func (r *postgresArticleRepository) ListRecentArticles(ctx context.Context, limit int) ([]models.ArticleSummary, error) {
	query := `SELECT id, title, slug, status, created_at, updated_at FROM articles ORDER BY created_at DESC LIMIT $1`

	articles := make([]models.ArticleSummary, 0, limit)
	if err := r.db.SelectContext(ctx, &articles, query, limit); err != nil {
		log.Printf("[ArticleRepo] Ошибка при получении последних статей: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение последних статей: %w", err)
	}
	return articles, nil
}

// CountArticles возвращает общее количество статей.
func (r *postgresArticleRepository) CountArticles(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM articles`); err != nil {
		log.Printf("[ArticleRepo] Ошибка подсчета статей: %v", err)
		return 0, fmt.Errorf("ошибка выполнения запроса на подсчет статей: %w", err)
	}
	return count, nil
}

// ListPublishedArticles возвращает опубликованные статьи, сначала новые.
func (r *postgresArticleRepository) ListPublishedArticles(ctx context.Context, limit int) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE status=$1 ORDER BY created_at DESC LIMIT $2`

	articles := make([]models.Article, 0, limit)
	if err := r.db.SelectContext(ctx, &articles, query, models.ArticleStatusPublished, limit); err != nil {
		log.Printf("[ArticleRepo] Ошибка при получении опубликованных статей: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение опубликованных статей: %w", err)
	}
	return articles, nil
}

// SlugTaken проверяет, занят ли slug другой статьей (кроме excludeID).
// Для новой статьи excludeID = 0.
func (r *postgresArticleRepository) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM articles WHERE slug=$1 AND id<>$2)`
	var taken bool

	if err := r.db.GetContext(ctx, &taken, query, slug, excludeID); err != nil {
		log.Printf("[ArticleRepo] Ошибка проверки slug '%s': %v", slug, err)
		return false, fmt.Errorf("ошибка выполнения запроса на проверку slug: %w", err)
	}
	return taken, nil
}

// UpdateArticle перезаписывает поля статьи.
// Снимок прежнего состояния должен быть сделан вызывающей стороной до этого вызова.
func (r *postgresArticleRepository) UpdateArticle(ctx context.Context, article *models.Article) error {
	query := `UPDATE articles
	          SET title=$1, slug=$2, excerpt=$3, content=$4, status=$5, hero_image_key=$6, updated_at=NOW()
	          WHERE id=$7`

	res, err := r.db.ExecContext(ctx, query,
		article.Title, article.Slug, article.Excerpt, article.Content,
		article.Status, article.HeroImageKey, article.ID,
	)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[ArticleRepo] Ошибка изменения статьи ID %d: slug '%s' уже занят", article.ID, article.Slug)
			return ErrSlugTaken
		}
		log.Printf("[ArticleRepo] Ошибка изменения статьи ID %d: %v", article.ID, err)
		return fmt.Errorf("ошибка выполнения запроса на изменение статьи: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества измененных строк: %w", err)
	}
	if n == 0 {
		log.Printf("[ArticleRepo] Статья ID %d не найдена при изменении", article.ID)
		return ErrArticleNotFound
	}

	log.Printf("[ArticleRepo] Статья ID %d изменена", article.ID)
	return nil
}

// DeleteArticle удаляет статью. Теги и версии удаляются каскадно.
func (r *postgresArticleRepository) DeleteArticle(ctx context.Context, articleID int64) error {
	query := `DELETE FROM articles WHERE id=$1`

	res, err := r.db.ExecContext(ctx, query, articleID)
	if err != nil {
		log.Printf("[ArticleRepo] Ошибка удаления статьи ID %d: %v", articleID, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление статьи: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества удаленных строк: %w", err)
	}
	if n == 0 {
		return ErrArticleNotFound
	}

	log.Printf("[ArticleRepo] Статья ID %d удалена", articleID)
	return nil
}

// ReplaceTags заменяет набор тегов статьи. Дубликаты сохраняются как есть.
func (r *postgresArticleRepository) ReplaceTags(ctx context.Context, articleID int64, tags []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id=$1`, articleID); err != nil {
		log.Printf("[ArticleRepo] Ошибка удаления тегов статьи ID %d: %v", articleID, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление тегов: %w", err)
	}

	if len(tags) == 0 {
		return nil
	}

	query := `INSERT INTO article_tags (article_id, tag) SELECT $1, unnest($2::text[])`
	if _, err := r.db.ExecContext(ctx, query, articleID, pq.Array(tags)); err != nil {
		log.Printf("[ArticleRepo] Ошибка добавления тегов статьи ID %d: %v", articleID, err)
		return fmt.Errorf("ошибка выполнения запроса на добавление тегов: %w", err)
	}

	log.Printf("[ArticleRepo] Для статьи ID %d сохранено тегов: %d", articleID, len(tags))
	return nil
}

// GetTags возвращает теги статьи.
func (r *postgresArticleRepository) GetTags(ctx context.Context, articleID int64) ([]string, error) {
	query := `SELECT tag FROM article_tags WHERE article_id=$1`

	tags := make([]string, 0)
	if err := r.db.SelectContext(ctx, &tags, query, articleID); err != nil {
		log.Printf("[ArticleRepo] Ошибка получения тегов статьи ID %d: %v", articleID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение тегов: %w", err)
	}
	return tags, nil
}

// GetTagsForArticles возвращает теги сразу для нескольких статей.
func (r *postgresArticleRepository) GetTagsForArticles(
	ctx context.Context,
	articleIDs []int64,
) (map[int64][]string, error) {
	result := make(map[int64][]string, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}

	query := `SELECT article_id, tag FROM article_tags WHERE article_id = ANY($1)`
	var rows []struct {
		ArticleID int64  `db:"article_id"`
		Tag       string `db:"tag"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(articleIDs)); err != nil {
		log.Printf("[ArticleRepo] Ошибка получения тегов для %d статей: %v", len(articleIDs), err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение тегов: %w", err)
	}

	for _, row := range rows {
		result[row.ArticleID] = append(result[row.ArticleID], row.Tag)
	}
	return result, nil
}
