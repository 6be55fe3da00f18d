package invrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

// Repo methods take the querier explicitly; pass the pool for standalone
// statements or the open transaction handle when composing a unit of work.
// Conditional writes return (nil, nil) when no row matched the key+version
// filter, without distinguishing a missing row from a stale version.
type Repo interface {
	Upsert(ctx context.Context, q database.Querier, bookID string, quantity int64) (*model.BookInventory, error)
	Get(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error)
	UpdateQuantity(ctx context.Context, q database.Querier, bookID string, quantity int64) (*model.BookInventory, error)
	UpdateReserved(ctx context.Context, q database.Querier, bookID string, delta int64, version int64) (*model.BookInventory, error)
	DecrementInventory(ctx context.Context, q database.Querier, bookID string, version int64) (*model.BookInventory, error)
	Delete(ctx context.Context, q database.Querier, bookID string) (bool, error)
}

type repo struct{}

func New() Repo { return &repo{} }

func scanInventory(row pgx.Row) (*model.BookInventory, error) {
	var inv model.BookInventory
	err := row.Scan(&inv.BookID, &inv.TotalInventory, &inv.TotalReserved, &inv.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repo) Upsert(ctx context.Context, q database.Querier, bookID string, quantity int64) (*model.BookInventory, error) {
	// Re-adding a book refreshes total_inventory but keeps the reserved count.
	const query = `
		INSERT INTO book_inventories (book_id, total_inventory)
		VALUES ($1, $2)
		ON CONFLICT (book_id) DO UPDATE
		SET total_inventory = EXCLUDED.total_inventory
		RETURNING book_id, total_inventory, total_reserved, version`
	inv, err := scanInventory(q.QueryRow(ctx, query, bookID, quantity))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not create book inventory %s", bookID)
	}
	return inv, nil
}

func (r *repo) Get(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error) {
	const query = `
		SELECT book_id, total_inventory, total_reserved, version
		FROM book_inventories
		WHERE book_id = $1`
	inv, err := scanInventory(q.QueryRow(ctx, query, bookID))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not get book inventory %s", bookID)
	}
	return inv, nil
}

func (r *repo) UpdateQuantity(ctx context.Context, q database.Querier, bookID string, quantity int64) (*model.BookInventory, error) {
	const query = `
		UPDATE book_inventories
		SET total_inventory = $2,
			version = version + 1
		WHERE book_id = $1
		RETURNING book_id, total_inventory, total_reserved, version`
	inv, err := scanInventory(q.QueryRow(ctx, query, bookID, quantity))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not update book inventory %s", bookID)
	}
	return inv, nil
}

func (r *repo) UpdateReserved(ctx context.Context, q database.Querier, bookID string, delta int64, version int64) (*model.BookInventory, error) {
	const query = `
		UPDATE book_inventories
		SET total_reserved = total_reserved + $2,
			version = version + 1
		WHERE book_id = $1
		AND version = $3
		RETURNING book_id, total_inventory, total_reserved, version`
	inv, err := scanInventory(q.QueryRow(ctx, query, bookID, delta, version))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not update reserved count for book %s", bookID)
	}
	return inv, nil
}

func (r *repo) DecrementInventory(ctx context.Context, q database.Querier, bookID string, version int64) (*model.BookInventory, error) {
	// A bought conversion permanently removes the copy: both counters drop.
	const query = `
		UPDATE book_inventories
		SET total_inventory = total_inventory - 1,
			total_reserved = total_reserved - 1,
			version = version + 1
		WHERE book_id = $1
		AND version = $2
		RETURNING book_id, total_inventory, total_reserved, version`
	inv, err := scanInventory(q.QueryRow(ctx, query, bookID, version))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not decrement inventory for book %s", bookID)
	}
	return inv, nil
}

func (r *repo) Delete(ctx context.Context, q database.Querier, bookID string) (bool, error) {
	const query = `DELETE FROM book_inventories WHERE book_id = $1`
	tag, err := q.Exec(ctx, query, bookID)
	if err != nil {
		return false, errs.Wrap(errs.CodePersistence, err, "could not delete book inventory %s", bookID)
	}
	return tag.RowsAffected() == 1, nil
}
