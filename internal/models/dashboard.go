package models

// DashboardSummary - сводка для главной страницы админки.
type DashboardSummary struct {
	ArticleCount   int64            `json:"article_count"`
	SessionCount   int64            `json:"session_count"`
	RecentArticles []ArticleSummary `json:"recent_articles"`
}
