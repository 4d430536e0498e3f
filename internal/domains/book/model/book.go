package model

import (
	"time"

	"library-api/internal/shared"
)

// Book is one row of the book/author inner join. Books whose author row is
// missing never appear.
type Book struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ReleaseDate time.Time `json:"releaseDate"`
	Description string    `json:"description"`
	Pages       int32     `json:"pages"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Author columns
	AuthorID int64     `json:"authorId"`
	Name     string    `json:"name"`
	Birthday time.Time `json:"birthday"`
	Bio      string    `json:"bio"`
}

// BookInput is the body of POST /books and PUT /books/:id. Author carries the
// author id.
type BookInput struct {
	Title       shared.Scalar `json:"title"`
	Description shared.Scalar `json:"description"`
	ReleaseDate shared.Scalar `json:"releaseDate"`
	Pages       shared.Scalar `json:"pages"`
	Author      shared.Scalar `json:"author"`
}

// BookSummary is the projection recorded in business events.
type BookSummary struct {
	ID       any    `json:"id"`
	Title    string `json:"title"`
	AuthorID any    `json:"authorId"`
}

func (b Book) Summary() BookSummary {
	return BookSummary{ID: b.ID, Title: b.Title, AuthorID: b.AuthorID}
}
