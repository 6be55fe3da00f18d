// Package reservation implements the reservation lifecycle
// (pending → reserved → {late ↔ bought} → returned, pending → canceled),
// composing inventory and wallet mutations inside single transactions.
package reservation

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	reservationrepo "github.com/fercon997/accountable-challenge/repository/reservation"
	invsvc "github.com/fercon997/accountable-challenge/service/inventory"
	walletsvc "github.com/fercon997/accountable-challenge/service/wallet"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

// Page is a paginated reservation listing.
type Page struct {
	Data       []model.Reservation `json:"data"`
	TotalCount int64               `json:"total_count"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
}

type Service interface {
	Get(ctx context.Context, f reservationrepo.Filter) ([]model.Reservation, error)
	GetPaginated(ctx context.Context, f reservationrepo.Filter, page, pageSize int) (*Page, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)

	CreateReservation(ctx context.Context, userID, bookID string, expectedReturnDate time.Time) (*model.Reservation, error)
	PayReservation(ctx context.Context, reservationID, userID string) (*model.Reservation, error)
	CancelReservation(ctx context.Context, reservationID, userID string) (*model.Reservation, error)
	EndReservation(ctx context.Context, reservationID, userID string) (*model.Reservation, error)
}

type service struct {
	db      database.Querier
	tx      database.TxRunner
	r       reservationrepo.Repo
	bookInv invsvc.Service
	wallets walletsvc.Service
	price   decimal.Decimal
	log     *slog.Logger
}

func New(db database.Querier, tx database.TxRunner, r reservationrepo.Repo,
	bookInv invsvc.Service, wallets walletsvc.Service,
	price decimal.Decimal, log *slog.Logger,
) Service {
	return &service{db: db, tx: tx, r: r, bookInv: bookInv, wallets: wallets, price: price, log: log}
}

// validateReturnDate enforces the policy window: strictly after now and no
// later than the first day of the next calendar month at midnight UTC.
func (s *service) validateReturnDate(returnDate time.Time) error {
	now := time.Now().UTC()
	bound := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)

	if returnDate.Before(now) || returnDate.After(bound) {
		return errs.New(errs.CodeInvalidReturnDate,
			"expected return date %s must fall between now and %s",
			returnDate.Format(time.DateOnly), bound.Format(time.DateOnly))
	}
	return nil
}

func (s *service) validateNotReserved(ctx context.Context, userID, bookID string) error {
	existing, err := s.r.Get(ctx, s.db, reservationrepo.Filter{
		UserID:     &userID,
		BookID:     &bookID,
		ActiveOnly: true,
	})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return errs.New(errs.CodeAlreadyReserved,
			"user %s already has an active reservation for book %s", userID, bookID)
	}
	return nil
}

// validateStatus loads the reservation and checks ownership and that the
// current lifecycle state admits the operation. A set returnDate always
// rejects: terminal records admit nothing.
func (s *service) validateStatus(ctx context.Context, reservationID, userID string,
	allowed []model.ReservationStatus, operation string,
) (*model.Reservation, error) {
	res, err := s.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, errs.New(errs.CodeUnauthorized,
			"reservation %s does not belong to user %s", reservationID, userID)
	}

	ok := false
	for _, st := range allowed {
		if res.Status == st {
			ok = true
			break
		}
	}
	if !ok || !res.Active() {
		return nil, errs.New(errs.CodeInvalidReservationStatus,
			"cannot %s reservation %s in status %s", operation, reservationID, res.Status)
	}
	return res, nil
}

// update applies a version-gated write; a miss on a record known to exist is a
// concurrent modification.
func (s *service) update(ctx context.Context, q database.Querier, id string,
	upd reservationrepo.Update, version int64,
) (*model.Reservation, error) {
	res, err := s.r.Update(ctx, q, id, upd, &version)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errs.New(errs.CodeVersionChanged, "reservation %s changed concurrently", id)
	}
	return res, nil
}

func (s *service) Get(ctx context.Context, f reservationrepo.Filter) ([]model.Reservation, error) {
	return s.r.Get(ctx, s.db, f)
}

func (s *service) GetPaginated(ctx context.Context, f reservationrepo.Filter, page, pageSize int) (*Page, error) {
	data, total, err := s.r.GetPaginated(ctx, s.db, f, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &Page{Data: data, TotalCount: total, Page: page, PageSize: pageSize}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := s.r.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errs.New(errs.CodeNotFound, "reservation %s not found", id)
	}
	return res, nil
}

func (s *service) CreateReservation(ctx context.Context, userID, bookID string, expectedReturnDate time.Time) (*model.Reservation, error) {
	s.log.Info("creating reservation", "user_id", userID, "book_id", bookID)

	if err := s.validateReturnDate(expectedReturnDate); err != nil {
		return nil, err
	}
	if err := s.validateNotReserved(ctx, userID, bookID); err != nil {
		return nil, err
	}

	var created *model.Reservation
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx database.Querier) error {
		if _, err := s.bookInv.AddReservation(ctx, tx, bookID); err != nil {
			return err
		}

		var err error
		created, err = s.r.Create(ctx, tx, &model.Reservation{
			UserID:             userID,
			BookID:             bookID,
			Price:              s.price,
			ReservationDate:    time.Now().UTC(),
			ExpectedReturnDate: expectedReturnDate,
			LateFees:           decimal.Zero,
			Status:             model.ReservationPending,
		})
		if err != nil {
			return err
		}

		return s.wallets.AddReservation(ctx, tx, userID, created.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation created", "reservation_id", created.ID)
	return created, nil
}

func (s *service) PayReservation(ctx context.Context, reservationID, userID string) (*model.Reservation, error) {
	res, err := s.validateStatus(ctx, reservationID, userID,
		[]model.ReservationStatus{model.ReservationPending}, "pay")
	if err != nil {
		return nil, err
	}

	var paid *model.Reservation
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx database.Querier) error {
		// Debit before flipping the status so a stale version never charges twice.
		if _, err := s.wallets.DecrementBalance(ctx, tx, res.UserID, res.Price); err != nil {
			return err
		}

		status := model.ReservationReserved
		paid, err = s.update(ctx, tx, reservationID, reservationrepo.Update{Status: &status}, res.Version)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation paid", "reservation_id", reservationID)
	return paid, nil
}

func (s *service) CancelReservation(ctx context.Context, reservationID, userID string) (*model.Reservation, error) {
	s.log.Info("canceling reservation", "reservation_id", reservationID)
	res, err := s.validateStatus(ctx, reservationID, userID,
		[]model.ReservationStatus{model.ReservationPending}, "cancel")
	if err != nil {
		return nil, err
	}

	var canceled *model.Reservation
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx database.Querier) error {
		status := model.ReservationCanceled
		canceled, err = s.update(ctx, tx, reservationID, reservationrepo.Update{Status: &status}, res.Version)
		if err != nil {
			return err
		}

		if err := s.wallets.RemoveReservation(ctx, tx, res.UserID, reservationID, nil); err != nil {
			return err
		}

		_, err = s.bookInv.ReleaseReservation(ctx, tx, res.BookID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation canceled", "reservation_id", reservationID)
	return canceled, nil
}

func (s *service) EndReservation(ctx context.Context, reservationID, userID string) (*model.Reservation, error) {
	res, err := s.validateStatus(ctx, reservationID, userID, []model.ReservationStatus{
		model.ReservationReserved,
		model.ReservationLate,
		model.ReservationBought,
	}, "end")
	if err != nil {
		return nil, err
	}

	// A bought reservation keeps its status; everything else becomes returned.
	status := model.ReservationReturned
	if res.Status == model.ReservationBought {
		status = model.ReservationBought
	}

	var ended *model.Reservation
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx database.Querier) error {
		now := time.Now().UTC()
		ended, err = s.update(ctx, tx, reservationID,
			reservationrepo.Update{Status: &status, ReturnDate: &now}, res.Version)
		if err != nil {
			return err
		}

		if res.LateFees.IsPositive() {
			if _, err := s.wallets.DecrementBalance(ctx, tx, res.UserID, res.LateFees); err != nil {
				return err
			}
		}

		if _, err := s.bookInv.ReleaseReservation(ctx, tx, res.BookID); err != nil {
			return err
		}

		return s.wallets.RemoveReservation(ctx, tx, userID, reservationID, nil)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation ended", "reservation_id", reservationID, "status", ended.Status)
	return ended, nil
}
