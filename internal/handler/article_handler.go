package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"articlehub/db"
	"articlehub/internal/events"
	"articlehub/internal/model"
	"articlehub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type ArticleStore interface {
	Save(ctx context.Context, article *model.Article) (int64, error)
	GetAll(ctx context.Context) ([]model.Article, error)
	GetByID(ctx context.Context, id int64) (*model.Article, error)
	GetByLink(ctx context.Context, directLink string) (*model.Article, error)
	SearchByTitle(ctx context.Context, query string) ([]model.Article, error)
	Delete(ctx context.Context, article *model.Article) error
	TableExists(ctx context.Context) (bool, error)
	TableStructure(ctx context.Context) ([]model.Column, error)
}

type ConnectionTester interface {
	TestConnection(ctx context.Context) bool
}

type EventPublisher interface {
	Push(ctx context.Context, key string, data string) error
}

type WriteRecorder interface {
	ArticleWrite(operation, outcome string)
}

type ArticleHandler struct {
	repository ArticleStore
	database   ConnectionTester
	events     EventPublisher
	metrics    WriteRecorder
}

func NewArticleHandler(repository ArticleStore, database ConnectionTester) *ArticleHandler {
	return &ArticleHandler{repository: repository, database: database}
}

// WithEvents makes the handler push "<op>:<id>" to the article events queue
// after each successful write.
func (h *ArticleHandler) WithEvents(publisher EventPublisher) *ArticleHandler {
	h.events = publisher
	return h
}

func (h *ArticleHandler) WithMetrics(metrics WriteRecorder) *ArticleHandler {
	h.metrics = metrics
	return h
}

func (h *ArticleHandler) GetIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Article API is running!",
		"status":  "healthy",
	})
}

func (h *ArticleHandler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	if !h.database.TestConnection(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":       "unhealthy",
			"database":     "disconnected",
			"table_exists": false,
		})
		return
	}

	exists, err := h.repository.TableExists(ctx)
	if err != nil {
		slog.Error("error checking articles table", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"database":     "connected",
		"table_exists": exists,
	})
}

func (h *ArticleHandler) GetArticles(c *gin.Context) {
	var (
		articles []model.Article
		err      error
	)

	if query := c.Query("q"); query != "" {
		articles, err = h.repository.SearchByTitle(c.Request.Context(), query)
	} else {
		articles, err = h.repository.GetAll(c.Request.Context())
	}

	if err != nil {
		respondError(c, err, "error fetching articles")
		return
	}

	c.JSON(http.StatusOK, toArticleResponses(articles))
}

func (h *ArticleHandler) GetArticle(c *gin.Context) {
	articleID, ok := parseArticleID(c)
	if !ok {
		return
	}

	article, err := h.repository.GetByID(c.Request.Context(), articleID)
	if err != nil {
		respondError(c, err, "error fetching article", "article_id", articleID)
		return
	}

	c.JSON(http.StatusOK, toArticleResponse(*article))
}

func (h *ArticleHandler) LookupArticle(c *gin.Context) {
	link := c.Query("link")
	if link == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing link parameter"})
		return
	}

	article, err := h.repository.GetByLink(c.Request.Context(), link)
	if err != nil {
		respondError(c, err, "error fetching article by link", "direct_link", link)
		return
	}

	c.JSON(http.StatusOK, toArticleResponse(*article))
}

func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	article := req.toModel(0)
	id, err := h.repository.Save(c.Request.Context(), &article)
	h.recordWrite(c.Request.Context(), "save", id, err)
	if err != nil {
		respondError(c, err, "error creating article", "direct_link", article.DirectLink)
		return
	}

	c.JSON(http.StatusCreated, toArticleResponse(article))
}

func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	articleID, ok := parseArticleID(c)
	if !ok {
		return
	}

	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	article := req.toModel(articleID)
	_, err := h.repository.Save(c.Request.Context(), &article)
	h.recordWrite(c.Request.Context(), "save", articleID, err)
	if err != nil {
		respondError(c, err, "error updating article", "article_id", articleID)
		return
	}

	c.JSON(http.StatusOK, toArticleResponse(article))
}

func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	articleID, ok := parseArticleID(c)
	if !ok {
		return
	}

	err := h.repository.Delete(c.Request.Context(), &model.Article{ID: articleID})
	h.recordWrite(c.Request.Context(), "delete", articleID, err)
	if err != nil {
		respondError(c, err, "error deleting article", "article_id", articleID)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ArticleHandler) GetSchema(c *gin.Context) {
	columns, err := h.repository.TableStructure(c.Request.Context())
	if err != nil {
		respondError(c, err, "error fetching table structure")
		return
	}

	c.JSON(http.StatusOK, lo.Map(columns, func(col model.Column, _ int) ColumnResponse {
		return toColumnResponse(col)
	}))
}

func (h *ArticleHandler) recordWrite(ctx context.Context, operation string, id int64, err error) {
	if h.metrics != nil {
		h.metrics.ArticleWrite(operation, outcome(err))
	}

	if err != nil || h.events == nil {
		return
	}

	event := events.Event{Op: events.OpSaved, ArticleID: id}
	if operation == "delete" {
		event.Op = events.OpDeleted
	}

	if pushErr := h.events.Push(ctx, db.ArticleEventsKey, event.String()); pushErr != nil {
		slog.Error("error pushing article event", "error", pushErr, "article_id", id, "op", event.Op)
	}
}

func parseArticleID(c *gin.Context) (int64, bool) {
	id := c.Param("id")

	articleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || articleID < 1 {
		slog.Warn("invalid article id", "id", id, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
		return 0, false
	}

	return articleID, true
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrDuplicateLink):
		return "duplicate_link"
	case errors.Is(err, repository.ErrConstraint):
		return "constraint"
	case errors.Is(err, db.ErrConnection):
		return "unavailable"
	default:
		return "error"
	}
}

// respondError writes the status for err. Only unexpected failures are
// logged; not-found and constraint errors are the client's concern.
func respondError(c *gin.Context, err error, msg string, args ...any) {
	switch outcome(err) {
	case "not_found":
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
	case "duplicate_link":
		c.JSON(http.StatusConflict, gin.H{"error": "Direct link already exists"})
	case "constraint":
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case "unavailable":
		slog.Error(msg, append(args, "error", err)...)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
	default:
		slog.Error(msg, append(args, "error", err)...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}
