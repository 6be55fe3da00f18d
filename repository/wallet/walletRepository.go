package walletrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

// Repo owns the wallets table. Conditional writes filter on {user_id, version}
// and report no-match as (nil, nil) / false without saying which part missed.
type Repo interface {
	Create(ctx context.Context, q database.Querier, userID string) (*model.Wallet, error)
	Get(ctx context.Context, q database.Querier, userID string, withReservations bool) (*model.Wallet, error)
	// UpdateBalance applies a signed delta. A nil version skips the gate
	// (credits do not race destructively).
	UpdateBalance(ctx context.Context, q database.Querier, userID string, delta decimal.Decimal, version *int64) (*model.Wallet, error)
	AddReservation(ctx context.Context, q database.Querier, userID, reservationID string, version int64) (bool, error)
	// RemoveReservation drops the slot and, when fees is non-nil, debits that
	// amount from balance in the same write.
	RemoveReservation(ctx context.Context, q database.Querier, userID, reservationID string, fees *decimal.Decimal, version int64) (bool, error)
}

type repo struct{}

func New() Repo { return &repo{} }

func scanWallet(row pgx.Row) (*model.Wallet, error) {
	var (
		w   model.Wallet
		ids []string
	)
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &ids, &w.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.Reservations = make([]model.ReservationRef, 0, len(ids))
	for _, id := range ids {
		w.Reservations = append(w.Reservations, model.ReservationRef{ID: id})
	}
	return &w, nil
}

func (r *repo) Create(ctx context.Context, q database.Querier, userID string) (*model.Wallet, error) {
	const query = `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		RETURNING id, user_id, balance, reservations, version`
	w, err := scanWallet(q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not create wallet for user %s", userID)
	}
	return w, nil
}

func (r *repo) Get(ctx context.Context, q database.Querier, userID string, withReservations bool) (*model.Wallet, error) {
	const query = `
		SELECT id, user_id, balance, reservations, version
		FROM wallets
		WHERE user_id = $1`
	w, err := scanWallet(q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not get wallet for user %s", userID)
	}
	if w == nil || !withReservations || len(w.Reservations) == 0 {
		return w, nil
	}
	if err := r.hydrate(ctx, q, w); err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not hydrate wallet reservations for user %s", userID)
	}
	return w, nil
}

// hydrate resolves slot references to their full reservation records,
// preserving slot order.
func (r *repo) hydrate(ctx context.Context, q database.Querier, w *model.Wallet) error {
	ids := make([]string, len(w.Reservations))
	for i, ref := range w.Reservations {
		ids[i] = ref.ID
	}

	const query = `
		SELECT id, book_id, user_id, price, reservation_date, expected_return_date,
			return_date, late_fees, status, version
		FROM reservations
		WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[string]*model.Reservation, len(ids))
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(
			&res.ID, &res.BookID, &res.UserID, &res.Price, &res.ReservationDate,
			&res.ExpectedReturnDate, &res.ReturnDate, &res.LateFees, &res.Status, &res.Version,
		); err != nil {
			return err
		}
		byID[res.ID] = &res
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range w.Reservations {
		w.Reservations[i].Reservation = byID[w.Reservations[i].ID]
	}
	return nil
}

func (r *repo) UpdateBalance(ctx context.Context, q database.Querier, userID string, delta decimal.Decimal, version *int64) (*model.Wallet, error) {
	const query = `
		UPDATE wallets
		SET balance = balance + $2,
			version = version + 1
		WHERE user_id = $1
		AND ($3::bigint IS NULL OR version = $3)
		RETURNING id, user_id, balance, reservations, version`
	w, err := scanWallet(q.QueryRow(ctx, query, userID, delta, version))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not update wallet balance for user %s", userID)
	}
	return w, nil
}

func (r *repo) AddReservation(ctx context.Context, q database.Querier, userID, reservationID string, version int64) (bool, error) {
	const query = `
		UPDATE wallets
		SET reservations = array_append(reservations, $2::uuid),
			version = version + 1
		WHERE user_id = $1
		AND version = $3`
	tag, err := q.Exec(ctx, query, userID, reservationID, version)
	if err != nil {
		return false, errs.Wrap(errs.CodePersistence, err, "could not add reservation %s to wallet of user %s", reservationID, userID)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repo) RemoveReservation(ctx context.Context, q database.Querier, userID, reservationID string, fees *decimal.Decimal, version int64) (bool, error) {
	const query = `
		UPDATE wallets
		SET reservations = array_remove(reservations, $2::uuid),
			balance = balance - COALESCE($3::numeric, 0),
			version = version + 1
		WHERE user_id = $1
		AND version = $4`
	tag, err := q.Exec(ctx, query, userID, reservationID, fees, version)
	if err != nil {
		return false, errs.Wrap(errs.CodePersistence, err, "could not remove reservation %s from wallet of user %s", reservationID, userID)
	}
	return tag.RowsAffected() == 1, nil
}
