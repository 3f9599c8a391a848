package models

import "time"

// ArticleVersion - неизменяемый снимок статьи до ее редактирования.
// Создается ровно один раз на каждое успешное изменение, до перезаписи самой статьи.
type ArticleVersion struct {
	ID        int64     `db:"id" json:"id"`
	ArticleID int64     `db:"article_id" json:"article_id"`
	Title     *string   `db:"title" json:"title"`
	Content   *string   `db:"content" json:"content"`
	EditedBy  *int64    `db:"edited_by" json:"edited_by,omitempty"`
	EditedAt  time.Time `db:"edited_at" json:"edited_at"`
}
