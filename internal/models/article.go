package models

import "time"

// Статусы публикации статьи.
const (
	ArticleStatusPublished = "published"
	ArticleStatusDraft     = "draft"
	ArticleStatusArchived  = "archived"
)

// Article представляет статью сайта.
type Article struct {
	ID           int64     `db:"id" json:"id"`
	Slug         string    `db:"slug" json:"slug"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	Excerpt      *string   `db:"excerpt" json:"excerpt,omitempty"`
	HeroImageKey *string   `db:"hero_image_key" json:"hero_image_key,omitempty"`
	Status       string    `db:"status" json:"status"`
	AuthorID     *int64    `db:"author_id" json:"author_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
	Tags         []string  `db:"-" json:"tags"`
}

// ArticleSummary - сокращенная запись статьи для списка в админке.
type ArticleSummary struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Slug      string    `db:"slug" json:"slug"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ArticleInput представляет тело запроса на создание или изменение статьи.
// Tags - строка тегов через запятую, как в форме редактора.
type ArticleInput struct {
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Content      string `json:"content"`
	Excerpt      string `json:"excerpt"`
	Status       string `json:"status"`
	HeroImageKey string `json:"hero_image_key"`
	Tags         string `json:"tags"`
}
