package model

import (
	"time"

	"library-api/internal/shared"
)

// Author is one row of the author table as returned to clients.
type Author struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Birthday  time.Time `json:"birthday"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthorInput is the body of POST /authors and PUT /authors/:id.
type AuthorInput struct {
	Name     shared.Scalar `json:"name"`
	Birthday shared.Scalar `json:"birthday"`
	Bio      shared.Scalar `json:"bio"`
}

// AuthorSummary is the projection recorded in business events.
type AuthorSummary struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

// Summary projects a to its id and name.
func (a Author) Summary() AuthorSummary {
	return AuthorSummary{ID: a.ID, Name: a.Name}
}
