package model

import "time"

const (
	MaxTitleLength = 500
	MaxLinkLength  = 1000
)

// Article is a row of the articles table. ID is zero until the article has
// been saved; CreatedAt and UpdatedAt are assigned by the database.
type Article struct {
	ID         int64
	Title      string
	RawContent string
	DirectLink string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a *Article) Persisted() bool {
	return a.ID != 0
}

// Column describes one column of the articles table as reported by
// information_schema.columns.
type Column struct {
	Name      string
	DataType  string
	MaxLength *int64
	Nullable  bool
	Default   *string
}
