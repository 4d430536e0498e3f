package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"library-api/internal/domains/book/model"
)

//go:generate mockgen -source=postgres.go -destination=mocks/mock_repository.go -package=mocks -exclude_interfaces=Querier

// Repository is the book store gateway. The author reference is enforced by
// the store's foreign key, not here.
type Repository interface {
	List(ctx context.Context) ([]model.Book, error)
	Create(ctx context.Context, in model.BookInput) (int64, error)
	Update(ctx context.Context, id string, in model.BookInput) error
	Delete(ctx context.Context, id string) error
}

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	db Querier
}

func NewPostgresRepository(db Querier) Repository {
	return &postgresRepository{db: db}
}

const (
	// column order matches model.Book
	listQuery = `
        SELECT b.id, b.title, b.release_date, b.description, b.pages,
               b.created_at, b.updated_at,
               a.id, a.name, a.birthday, a.bio
        FROM book b
        INNER JOIN author a ON b.author_id = a.id
        ORDER BY b.id`

	createQuery = `
        INSERT INTO book (title, release_date, description, pages, author_id, created_at, updated_at)
        VALUES ($1, $2::text::date, $3, $4::text::integer, $5::text::bigint, now(), now())
        RETURNING id`

	updateQuery = `
        UPDATE book
        SET title = $1, release_date = $2::text::date, description = $3,
            pages = $4::text::integer, author_id = $5::text::bigint, updated_at = CURRENT_TIMESTAMP
        WHERE id = $6::text::bigint`

	deleteQuery = `DELETE FROM book WHERE id = $1::text::bigint`
)

func (r *postgresRepository) List(ctx context.Context) ([]model.Book, error) {
	rows, err := r.db.Query(ctx, listQuery)
	if err != nil {
		return nil, errors.Wrap(err, "query books")
	}
	books, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Book])
	if err != nil {
		return nil, errors.Wrap(err, "scan books")
	}
	return books, nil
}

func (r *postgresRepository) Create(ctx context.Context, in model.BookInput) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, createQuery,
		in.Title, in.ReleaseDate, in.Description, in.Pages, in.Author,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert book")
	}
	return id, nil
}

// Update affects zero rows when id does not exist; that is not an error.
func (r *postgresRepository) Update(ctx context.Context, id string, in model.BookInput) error {
	_, err := r.db.Exec(ctx, updateQuery,
		in.Title, in.ReleaseDate, in.Description, in.Pages, in.Author, id,
	)
	if err != nil {
		return errors.Wrap(err, "update book")
	}
	return nil
}

// Delete affects zero rows when id does not exist; that is not an error.
func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, deleteQuery, id); err != nil {
		return errors.Wrap(err, "delete book")
	}
	return nil
}
