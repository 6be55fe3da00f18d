package reservationrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

// Filter narrows reservation list queries. Nil fields are skipped;
// ActiveOnly selects rows whose return_date is still unset.
type Filter struct {
	BookID     *string
	UserID     *string
	Status     *model.ReservationStatus
	ActiveOnly bool
}

// Update carries the mutable reservation fields; nil means leave as is.
type Update struct {
	Status     *model.ReservationStatus
	ReturnDate *time.Time
	LateFees   *decimal.Decimal
}

type Repo interface {
	Create(ctx context.Context, q database.Querier, res *model.Reservation) (*model.Reservation, error)
	// Update is the version gate: with a non-nil version the write only applies
	// when the stored version matches, and (nil, nil) means no row matched.
	Update(ctx context.Context, q database.Querier, id string, upd Update, version *int64) (*model.Reservation, error)
	Get(ctx context.Context, q database.Querier, f Filter) ([]model.Reservation, error)
	GetPaginated(ctx context.Context, q database.Querier, f Filter, limit, offset int) ([]model.Reservation, int64, error)
	GetByID(ctx context.Context, q database.Querier, id string) (*model.Reservation, error)
	// GetLate returns every active reservation whose expected return date has
	// passed as of now.
	GetLate(ctx context.Context, q database.Querier, now time.Time) ([]model.Reservation, error)
	// GetByExpectedReturnDate matches at UTC-day granularity.
	GetByExpectedReturnDate(ctx context.Context, q database.Querier, day time.Time, status model.ReservationStatus) ([]model.Reservation, error)
}

type repo struct{}

func New() Repo { return &repo{} }

const columns = `id, book_id, user_id, price, reservation_date, expected_return_date,
		return_date, late_fees, status, version`

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID, &res.BookID, &res.UserID, &res.Price, &res.ReservationDate,
		&res.ExpectedReturnDate, &res.ReturnDate, &res.LateFees, &res.Status, &res.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func collect(rows pgx.Rows, err error) ([]model.Reservation, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(
			&res.ID, &res.BookID, &res.UserID, &res.Price, &res.ReservationDate,
			&res.ExpectedReturnDate, &res.ReturnDate, &res.LateFees, &res.Status, &res.Version,
		); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *repo) Create(ctx context.Context, q database.Querier, res *model.Reservation) (*model.Reservation, error) {
	const query = `
		INSERT INTO reservations (id, book_id, user_id, price, reservation_date, expected_return_date, late_fees, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + columns
	created, err := scanReservation(q.QueryRow(ctx, query,
		uuid.NewString(), res.BookID, res.UserID, res.Price,
		res.ReservationDate, res.ExpectedReturnDate, res.LateFees, res.Status,
	))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not create reservation for book %s and user %s", res.BookID, res.UserID)
	}
	return created, nil
}

func (r *repo) Update(ctx context.Context, q database.Querier, id string, upd Update, version *int64) (*model.Reservation, error) {
	const query = `
		UPDATE reservations
		SET status = COALESCE($2::text, status),
			return_date = COALESCE($3, return_date),
			late_fees = COALESCE($4::numeric, late_fees),
			version = version + 1
		WHERE id = $1
		AND ($5::bigint IS NULL OR version = $5)
		RETURNING ` + columns
	res, err := scanReservation(q.QueryRow(ctx, query, id, upd.Status, upd.ReturnDate, upd.LateFees, version))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not update reservation %s", id)
	}
	return res, nil
}

func (r *repo) Get(ctx context.Context, q database.Querier, f Filter) ([]model.Reservation, error) {
	const query = `
		SELECT ` + columns + `
		FROM reservations
		WHERE ($1::uuid IS NULL OR book_id = $1)
		AND ($2::uuid IS NULL OR user_id = $2)
		AND ($3::text IS NULL OR status = $3)
		AND (NOT $4 OR return_date IS NULL)
		ORDER BY reservation_date DESC, id DESC`
	out, err := collect(q.Query(ctx, query, f.BookID, f.UserID, f.Status, f.ActiveOnly))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not get reservations")
	}
	return out, nil
}

func (r *repo) GetPaginated(ctx context.Context, q database.Querier, f Filter, limit, offset int) ([]model.Reservation, int64, error) {
	const query = `
		SELECT ` + columns + `, count(*) OVER () AS total_count
		FROM reservations
		WHERE ($1::uuid IS NULL OR book_id = $1)
		AND ($2::uuid IS NULL OR user_id = $2)
		AND ($3::text IS NULL OR status = $3)
		AND (NOT $4 OR return_date IS NULL)
		ORDER BY reservation_date DESC, id DESC
		LIMIT $5 OFFSET $6`
	rows, err := q.Query(ctx, query, f.BookID, f.UserID, f.Status, f.ActiveOnly, limit, offset)
	if err != nil {
		return nil, 0, errs.Wrap(errs.CodePersistence, err, "could not get reservations page")
	}
	defer rows.Close()

	var (
		out   []model.Reservation
		total int64
	)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(
			&res.ID, &res.BookID, &res.UserID, &res.Price, &res.ReservationDate,
			&res.ExpectedReturnDate, &res.ReturnDate, &res.LateFees, &res.Status, &res.Version,
			&total,
		); err != nil {
			return nil, 0, errs.Wrap(errs.CodePersistence, err, "could not get reservations page")
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Wrap(errs.CodePersistence, err, "could not get reservations page")
	}
	return out, total, nil
}

func (r *repo) GetByID(ctx context.Context, q database.Querier, id string) (*model.Reservation, error) {
	const query = `
		SELECT ` + columns + `
		FROM reservations
		WHERE id = $1`
	res, err := scanReservation(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not get reservation %s", id)
	}
	return res, nil
}

func (r *repo) GetLate(ctx context.Context, q database.Querier, now time.Time) ([]model.Reservation, error) {
	const query = `
		SELECT ` + columns + `
		FROM reservations
		WHERE return_date IS NULL
		AND expected_return_date <= $1`
	out, err := collect(q.Query(ctx, query, now))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not get late reservations")
	}
	return out, nil
}

func (r *repo) GetByExpectedReturnDate(ctx context.Context, q database.Querier, day time.Time, status model.ReservationStatus) ([]model.Reservation, error) {
	const query = `
		SELECT ` + columns + `
		FROM reservations
		WHERE return_date IS NULL
		AND status = $2
		AND expected_return_date >= $1
		AND expected_return_date < $1 + interval '1 day'`
	out, err := collect(q.Query(ctx, query, day, status))
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not get reservations due on %s", day.Format(time.DateOnly))
	}
	return out, nil
}
