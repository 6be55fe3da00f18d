package bookrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

// Repo is the catalog collaborator surface the reservation core consumes:
// batched price lookups and the availability flag flipped by the inventory
// tracker, plus the admin CRUD the book endpoints need.
type Repo interface {
	Create(ctx context.Context, q database.Querier, title, author string, price decimal.Decimal) (*model.Book, error)
	GetByID(ctx context.Context, q database.Querier, id string) (*model.Book, error)
	GetByIDs(ctx context.Context, q database.Querier, ids []string) ([]model.Book, error)
	UpdateAvailability(ctx context.Context, q database.Querier, id string, isAvailable bool) error
	Delete(ctx context.Context, q database.Querier, id string) (bool, error)
}

type repo struct{}

func New() Repo { return &repo{} }

func (r *repo) Create(ctx context.Context, q database.Querier, title, author string, price decimal.Decimal) (*model.Book, error) {
	const query = `
		INSERT INTO books (id, title, author, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, author, price, is_available`
	var b model.Book
	err := q.QueryRow(ctx, query, uuid.NewString(), title, author, price).
		Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.IsAvailable)
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not create book %s", title)
	}
	return &b, nil
}

func (r *repo) GetByID(ctx context.Context, q database.Querier, id string) (*model.Book, error) {
	const query = `
		SELECT id, title, author, price, is_available
		FROM books
		WHERE id = $1`
	var b model.Book
	err := q.QueryRow(ctx, query, id).Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.IsAvailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not get book %s", id)
	}
	return &b, nil
}

func (r *repo) GetByIDs(ctx context.Context, q database.Querier, ids []string) ([]model.Book, error) {
	const query = `
		SELECT id, title, author, price, is_available
		FROM books
		WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not get books by ids")
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.IsAvailable); err != nil {
			return nil, errs.Wrap(errs.CodePersistence, err, "could not get books by ids")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) UpdateAvailability(ctx context.Context, q database.Querier, id string, isAvailable bool) error {
	const query = `
		UPDATE books
		SET is_available = $2
		WHERE id = $1`
	if _, err := q.Exec(ctx, query, id, isAvailable); err != nil {
		return errs.Wrap(errs.CodePersistence, err, "could not update availability of book %s", id)
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, q database.Querier, id string) (bool, error) {
	const query = `DELETE FROM books WHERE id = $1`
	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return false, errs.Wrap(errs.CodePersistence, err, "could not delete book %s", id)
	}
	return tag.RowsAffected() == 1, nil
}
