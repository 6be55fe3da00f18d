// Package batch holds the daily sweeps that age reservations and notify users.
// Each handler is idempotent and callable on its own, so any scheduler works.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	bookrepo "github.com/fercon997/accountable-challenge/repository/book"
	reservationrepo "github.com/fercon997/accountable-challenge/repository/reservation"
	userrepo "github.com/fercon997/accountable-challenge/repository/user"
	invsvc "github.com/fercon997/accountable-challenge/service/inventory"
	"github.com/fercon997/accountable-challenge/service/notification"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

type Service interface {
	// HandleLateReservations accrues the per-run late fee on every overdue
	// reservation, converting to bought once fees reach the book price.
	// A conflict on one reservation is logged and the sweep continues.
	HandleLateReservations(ctx context.Context) error
	// HandleCloseToReturn mails users whose return date is 2 days out.
	HandleCloseToReturn(ctx context.Context) error
	// Handle7DaysLate mails users 7 days past their return date.
	Handle7DaysLate(ctx context.Context) error
}

type service struct {
	db           database.Querier
	tx           database.TxRunner
	r            reservationrepo.Repo
	bookInv      invsvc.Service
	books        bookrepo.Repo
	users        userrepo.Repo
	email        notification.EmailService
	feeIncrement decimal.Decimal
	log          *slog.Logger
}

func New(db database.Querier, tx database.TxRunner, r reservationrepo.Repo,
	bookInv invsvc.Service, books bookrepo.Repo, users userrepo.Repo,
	email notification.EmailService, feeIncrement decimal.Decimal, log *slog.Logger,
) Service {
	return &service{
		db: db, tx: tx, r: r, bookInv: bookInv, books: books, users: users,
		email: email, feeIncrement: feeIncrement, log: log,
	}
}

// dayUTC returns midnight UTC shifted by the given number of days.
func dayUTC(days int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+days, 0, 0, 0, 0, time.UTC)
}

func bookMapOf(books []model.Book) map[string]model.Book {
	m := make(map[string]model.Book, len(books))
	for _, b := range books {
		m[b.ID] = b
	}
	return m
}

func (s *service) HandleLateReservations(ctx context.Context) error {
	s.log.Info("getting late reservations to charge late fees")
	reservations, err := s.r.GetLate(ctx, s.db, time.Now().UTC())
	if err != nil {
		return err
	}
	s.log.Info("got late reservations", "count", len(reservations))
	if len(reservations) == 0 {
		return nil
	}

	bookIDs := make([]string, 0, len(reservations))
	for _, res := range reservations {
		bookIDs = append(bookIDs, res.BookID)
	}
	books, err := s.books.GetByIDs(ctx, s.db, bookIDs)
	if err != nil {
		return err
	}
	bookMap := bookMapOf(books)

	for i := range reservations {
		res := &reservations[i]
		book, ok := bookMap[res.BookID]
		if !ok {
			s.log.Error("late reservation references unknown book", "reservation_id", res.ID, "book_id", res.BookID)
			continue
		}

		newFees := res.LateFees.Add(s.feeIncrement)
		status := model.ReservationLate
		if res.Status == model.ReservationBought {
			status = model.ReservationBought
		}

		// Fees caught up with the price: the copy is treated as sold and
		// leaves the inventory, atomically with the status flip.
		convert := newFees.GreaterThanOrEqual(book.Price) && res.Status != model.ReservationBought

		if convert {
			status = model.ReservationBought
			err = s.tx.WithTx(ctx, func(ctx context.Context, tx database.Querier) error {
				if _, err := s.bookInv.DecrementInventory(ctx, tx, res.BookID); err != nil {
					return err
				}
				return s.updateForLate(ctx, tx, res, newFees, status)
			})
		} else {
			err = s.updateForLate(ctx, s.db, res, newFees, status)
		}

		// One reservation's conflict must not block the rest of the sweep.
		if err != nil {
			s.log.Error("could not update late fees",
				"reservation_id", res.ID, "code", errs.CodeOf(err), "err", err)
		}
	}
	return nil
}

func (s *service) updateForLate(ctx context.Context, q database.Querier,
	res *model.Reservation, fees decimal.Decimal, status model.ReservationStatus,
) error {
	s.log.Info("updating reservation late fees", "reservation_id", res.ID, "late_fees", fees, "status", status)
	updated, err := s.r.Update(ctx, q, res.ID,
		reservationrepo.Update{Status: &status, LateFees: &fees}, &res.Version)
	if err != nil {
		return err
	}
	if updated == nil {
		return errs.New(errs.CodeVersionChanged, "reservation %s changed concurrently", res.ID)
	}
	return nil
}

// prepForEmail fetches the reservations due on the shifted day together with
// the users and books the notices reference.
func (s *service) prepForEmail(ctx context.Context, days int, status model.ReservationStatus,
) ([]model.Reservation, map[string]model.User, map[string]model.Book, error) {
	day := dayUTC(days)
	s.log.Info("getting reservations by due date", "due_date", day.Format(time.DateOnly), "status", status)
	reservations, err := s.r.GetByExpectedReturnDate(ctx, s.db, day, status)
	if err != nil {
		return nil, nil, nil, err
	}
	s.log.Info("got reservations", "count", len(reservations))
	if len(reservations) == 0 {
		return nil, nil, nil, nil
	}

	userIDs := make([]string, 0, len(reservations))
	bookIDs := make([]string, 0, len(reservations))
	for _, res := range reservations {
		userIDs = append(userIDs, res.UserID)
		bookIDs = append(bookIDs, res.BookID)
	}

	users, err := s.users.GetByIDs(ctx, s.db, userIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	books, err := s.books.GetByIDs(ctx, s.db, bookIDs)
	if err != nil {
		return nil, nil, nil, err
	}

	userMap := make(map[string]model.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	return reservations, userMap, bookMapOf(books), nil
}

func (s *service) HandleCloseToReturn(ctx context.Context) error {
	reservations, userMap, bookMap, err := s.prepForEmail(ctx, 2, model.ReservationReserved)
	if err != nil {
		return err
	}

	for _, res := range reservations {
		user := userMap[res.UserID]
		book := bookMap[res.BookID]
		s.email.SendEmail(notification.Email{
			Email: user.Email,
			Title: "It's almost time to return your book",
			Body: fmt.Sprintf("The book you borrowed called %s by %s is due to be returned on %s",
				book.Title, book.Author, res.ExpectedReturnDate.Format(time.DateOnly)),
		})
	}
	return nil
}

func (s *service) Handle7DaysLate(ctx context.Context) error {
	reservations, userMap, bookMap, err := s.prepForEmail(ctx, -7, model.ReservationLate)
	if err != nil {
		return err
	}

	for _, res := range reservations {
		user := userMap[res.UserID]
		book := bookMap[res.BookID]
		s.email.SendEmail(notification.Email{
			Email: user.Email,
			Title: "You haven't returned your book yet",
			Body: fmt.Sprintf(
				"You should have returned the book you borrowed called %s by %s by %s. "+
					"You have already accumulated %s in late fees, return it as soon as possible to avoid incrementing your debt",
				book.Title, book.Author, res.ExpectedReturnDate.Format(time.DateOnly), res.LateFees),
		})
	}
	return nil
}
