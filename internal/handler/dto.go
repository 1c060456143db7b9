package handler

import (
	"time"

	"articlehub/internal/model"

	"github.com/samber/lo"
)

type ArticleRequest struct {
	Title      string `json:"title" binding:"required,max=500"`
	RawContent string `json:"raw_content"`
	DirectLink string `json:"direct_link" binding:"max=1000"`
}

type ArticleResponse struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	RawContent string  `json:"raw_content"`
	DirectLink string  `json:"direct_link"`
	CreatedAt  *string `json:"created_at"`
	UpdatedAt  *string `json:"updated_at"`
}

type ColumnResponse struct {
	Name      string  `json:"column_name"`
	DataType  string  `json:"data_type"`
	MaxLength *int64  `json:"character_maximum_length"`
	Nullable  bool    `json:"is_nullable"`
	Default   *string `json:"column_default"`
}

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	return lo.ToPtr(t.Format(time.RFC3339Nano))
}

func toArticleResponse(a model.Article) ArticleResponse {
	return ArticleResponse{
		ID:         a.ID,
		Title:      a.Title,
		RawContent: a.RawContent,
		DirectLink: a.DirectLink,
		CreatedAt:  formatTime(a.CreatedAt),
		UpdatedAt:  formatTime(a.UpdatedAt),
	}
}

func toArticleResponses(articles []model.Article) []ArticleResponse {
	return lo.Map(articles, func(a model.Article, _ int) ArticleResponse {
		return toArticleResponse(a)
	})
}

func (r ArticleRequest) toModel(id int64) model.Article {
	return model.Article{
		ID:         id,
		Title:      r.Title,
		RawContent: r.RawContent,
		DirectLink: r.DirectLink,
	}
}

func toColumnResponse(c model.Column) ColumnResponse {
	return ColumnResponse{
		Name:      c.Name,
		DataType:  c.DataType,
		MaxLength: c.MaxLength,
		Nullable:  c.Nullable,
		Default:   c.Default,
	}
}
