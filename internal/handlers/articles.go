package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/kdramahub/internal/middleware"
	"github.com/maynagashev/kdramahub/internal/models"
	"github.com/maynagashev/kdramahub/internal/services"
)

// ArticleHandler обрабатывает запросы к статьям: админские и публичные.
type ArticleHandler struct {
	service services.ArticleService
}

// NewArticleHandler создает новый экземпляр ArticleHandler.
func NewArticleHandler(s services.ArticleService) *ArticleHandler {
	return &ArticleHandler{service: s}
}

// writeArticleError переводит ошибку сервиса статей в HTTP-ответ.
func writeArticleError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrArticleNotFound):
		http.Error(w, "Статья не найдена", http.StatusNotFound)
	case errors.Is(err, services.ErrSlugTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[ArticleHandler] Ошибка при %s: %v", op, err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}

// List возвращает список всех статей для админки.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.ListArticles(r.Context())
	if err != nil {
		writeArticleError(w, "получении списка статей", err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// Create создает статью от имени текущего администратора.
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		log.Printf("[ArticleHandler] Не удалось получить сессию из контекста")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	var input models.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("[ArticleHandler] Ошибка декодирования статьи: %v", err)
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	articleID, err := h.service.CreateArticle(r.Context(), session.AdminID, input)
	if err != nil {
		writeArticleError(w, "создании статьи", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": articleID})
}

// Get возвращает статью по ID вместе с тегами.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	articleID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Неверный ID статьи", http.StatusBadRequest)
		return
	}

	article, err := h.service.GetArticle(r.Context(), articleID)
	if err != nil {
		writeArticleError(w, "получении статьи", err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// Update изменяет статью, предыдущее состояние попадает в историю версий.
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		log.Printf("[ArticleHandler] Не удалось получить сессию из контекста")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	articleID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Неверный ID статьи", http.StatusBadRequest)
		return
	}

	var input models.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("[ArticleHandler] Ошибка декодирования статьи: %v", err)
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateArticle(r.Context(), session.AdminID, articleID, input); err != nil {
		writeArticleError(w, "изменении статьи", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete удаляет статью.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	articleID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Неверный ID статьи", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteArticle(r.Context(), articleID); err != nil {
		writeArticleError(w, "удалении статьи", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVersions возвращает историю версий статьи, новые первыми.
func (h *ArticleHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	articleID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Неверный ID статьи", http.StatusBadRequest)
		return
	}

	limit, offset := pagination(r)
	versions, err := h.service.ListVersions(r.Context(), articleID, limit, offset)
	if err != nil {
		writeArticleError(w, "получении версий статьи", err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

// ListPublished возвращает опубликованные статьи.
func (h *ArticleHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	articles, err := h.service.ListPublishedArticles(r.Context(), limit)
	if err != nil {
		writeArticleError(w, "получении опубликованных статей", err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// GetBySlug возвращает статью по slug.
// Администратор с валидной сессией видит также черновики и архив.
func (h *ArticleHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	_, isAdmin := middleware.SessionFromContext(r.Context())

	article, err := h.service.GetPublicArticle(r.Context(), chi.URLParam(r, "slug"), isAdmin)
	if err != nil {
		writeArticleError(w, "получении статьи по slug", err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}
