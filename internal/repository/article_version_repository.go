package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/maynagashev/kdramahub/internal/models"
)

// ArticleVersionRepository - журнал ревизий статей (только добавление).
type ArticleVersionRepository interface {
	Snapshot(ctx context.Context, articleID, editedBy int64) (bool, error)
	ListVersionsByArticleID(ctx context.Context, articleID int64, limit, offset int) ([]models.ArticleVersion, error)
}

// postgresArticleVersionRepository реализует ArticleVersionRepository для PostgreSQL.
type postgresArticleVersionRepository struct {
	db *sqlx.DB
}

// NewPostgresArticleVersionRepository создает новый экземпляр репозитория версий статей.
func NewPostgresArticleVersionRepository(db *sqlx.DB) ArticleVersionRepository {
	return &postgresArticleVersionRepository{db: db}
}

// Snapshot сохраняет текущие (еще не измененные) заголовок и текст статьи как новую версию.
// Чтение и вставка выполняются одним выражением. Если статьи нет, снимок пропускается
// и возвращается false.
func (r *postgresArticleVersionRepository) Snapshot(ctx context.Context, articleID, editedBy int64) (bool, error) {
	query := `INSERT INTO article_versions (article_id, title, content, edited_by)
	          SELECT id, title, content, $2 FROM articles WHERE id=$1`

	res, err := r.db.ExecContext(ctx, query, articleID, editedBy)
	if err != nil {
		log.Printf("[ArticleVerRepo] Ошибка сохранения версии статьи ID %d: %v", articleID, err)
		return false, fmt.Errorf("ошибка выполнения запроса на сохранение версии: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ошибка получения количества сохраненных версий: %w", err)
	}
	if n == 0 {
		log.Printf("[ArticleVerRepo] Статья ID %d не найдена, версия не сохранена", articleID)
		return false, nil
	}

	log.Printf("[ArticleVerRepo] Сохранена версия статьи ID %d (редактор ID %d)", articleID, editedBy)
	return true, nil
}

// ListVersionsByArticleID возвращает версии статьи с пагинацией, сначала новые.
func (r *postgresArticleVersionRepository) ListVersionsByArticleID(
	ctx context.Context,
	articleID int64,
	limit,
	offset int,
) ([]models.ArticleVersion, error) {
	query := `SELECT id, article_id, title, content, edited_by, edited_at
	          FROM article_versions
	          WHERE article_id=$1
	          ORDER BY edited_at DESC, id DESC
	          LIMIT $2 OFFSET $3`

	versions := make([]models.ArticleVersion, 0, limit)
	err := r.db.SelectContext(ctx, &versions, query, articleID, limit, offset)
	if err != nil {
		log.Printf("[ArticleVerRepo] Ошибка при получении версий статьи ID %d: %v", articleID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка версий: %w", err)
	}

	log.Printf("[ArticleVerRepo] Получено %d версий статьи ID %d (limit=%d, offset=%d)",
		len(versions), articleID, limit, offset)
	return versions, nil
}
