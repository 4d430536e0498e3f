package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"library-api/internal/domains/author/model"
)

//go:generate mockgen -source=postgres.go -destination=mocks/mock_repository.go -package=mocks -exclude_interfaces=Querier

// Repository is the author store gateway. Parameters are always bound
// positionally; ids arrive as the raw path text and are cast by the store.
type Repository interface {
	List(ctx context.Context) ([]model.Author, error)
	Create(ctx context.Context, in model.AuthorInput) (int64, error)
	Update(ctx context.Context, id string, in model.AuthorInput) error
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
	listQuery = `
        SELECT a.id, a.name, a.birthday, a.bio, a.created_at, a.updated_at
        FROM author a
        ORDER BY a.id`

	createQuery = `
        INSERT INTO author (name, birthday, bio, created_at, updated_at)
        VALUES ($1, $2::text::date, $3, now(), now())
        RETURNING id`

	updateQuery = `
        UPDATE author
        SET name = $1, birthday = $2::text::date, bio = $3, updated_at = CURRENT_TIMESTAMP
        WHERE id = $4::text::bigint`

	deleteQuery = `DELETE FROM author WHERE id = $1::text::bigint`
)

func (r *postgresRepository) List(ctx context.Context) ([]model.Author, error) {
	rows, err := r.db.Query(ctx, listQuery)
	if err != nil {
		return nil, errors.Wrap(err, "query authors")
	}
	authors, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Author])
	if err != nil {
		return nil, errors.Wrap(err, "scan authors")
	}
	return authors, nil
}

func (r *postgresRepository) Create(ctx context.Context, in model.AuthorInput) (int64, error) {
	var id int64
	if err := r.db.QueryRow(ctx, createQuery, in.Name, in.Birthday, in.Bio).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "insert author")
	}
	return id, nil
}

// Update affects zero rows when id does not exist; that is not an error.
func (r *postgresRepository) Update(ctx context.Context, id string, in model.AuthorInput) error {
	if _, err := r.db.Exec(ctx, updateQuery, in.Name, in.Birthday, in.Bio, id); err != nil {
		return errors.Wrap(err, "update author")
	}
	return nil
}

// Delete affects zero rows when id does not exist; that is not an error.
// Authors still referenced by books are rejected by the store.
func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, deleteQuery, id); err != nil {
		return errors.Wrap(err, "delete author")
	}
	return nil
}
