package inventory

import (
	"context"
	"log/slog"

	bookrepo "github.com/fercon997/accountable-challenge/repository/book"
	invrepo "github.com/fercon997/accountable-challenge/repository/inventory"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

// Service tracks physical copies per book. The reserve/release/decrement
// operations take the querier explicitly so the reservation state machine can
// run them inside its own transaction; Create/Update/Delete run standalone.
//
// Mutations are read-then-conditional-write: the capacity check needs current
// counters before deciding, and the version gate on the write catches the race
// between the read and the write.
type Service interface {
	Create(ctx context.Context, bookID string, quantity int64) (*model.BookInventory, error)
	Get(ctx context.Context, bookID string) (*model.BookInventory, error)
	Update(ctx context.Context, bookID string, quantity int64) (*model.BookInventory, error)
	Delete(ctx context.Context, bookID string) error

	AddReservation(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error)
	ReleaseReservation(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error)
	DecrementInventory(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error)
}

type service struct {
	db    database.Querier
	r     invrepo.Repo
	books bookrepo.Repo
	log   *slog.Logger
}

func New(db database.Querier, r invrepo.Repo, books bookrepo.Repo, log *slog.Logger) Service {
	return &service{db: db, r: r, books: books, log: log}
}

func (s *service) Create(ctx context.Context, bookID string, quantity int64) (*model.BookInventory, error) {
	s.log.Info("creating book inventory", "book_id", bookID, "quantity", quantity)
	return s.r.Upsert(ctx, s.db, bookID, quantity)
}

func (s *service) Get(ctx context.Context, bookID string) (*model.BookInventory, error) {
	return s.get(ctx, s.db, bookID)
}

func (s *service) get(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error) {
	inv, err := s.r.Get(ctx, q, bookID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errs.New(errs.CodeNotFound, "book inventory %s not found", bookID)
	}
	return inv, nil
}

func (s *service) Update(ctx context.Context, bookID string, quantity int64) (*model.BookInventory, error) {
	inv, err := s.get(ctx, s.db, bookID)
	if err != nil {
		return nil, err
	}
	// Cannot shrink below copies already committed to reservations.
	if quantity < inv.TotalReserved {
		return nil, errs.New(errs.CodeInvalidQuantity,
			"cannot set inventory of book %s to %d, %d copies are reserved", bookID, quantity, inv.TotalReserved)
	}

	s.log.Info("updating book inventory", "book_id", bookID, "quantity", quantity)
	return s.r.UpdateQuantity(ctx, s.db, bookID, quantity)
}

func (s *service) Delete(ctx context.Context, bookID string) error {
	deleted, err := s.r.Delete(ctx, s.db, bookID)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.New(errs.CodeNotFound, "book inventory %s not found", bookID)
	}
	s.log.Info("deleted book inventory", "book_id", bookID)
	return nil
}

func (s *service) AddReservation(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error) {
	inv, err := s.get(ctx, q, bookID)
	if err != nil {
		return nil, err
	}
	if inv.FullyReserved() {
		return nil, errs.New(errs.CodeInvalidQuantity, "no copies of book %s left to reserve", bookID)
	}

	updated, err := s.r.UpdateReserved(ctx, q, bookID, 1, inv.Version)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errs.New(errs.CodeVersionChanged, "book inventory %s changed concurrently", bookID)
	}

	if updated.FullyReserved() {
		if err := s.books.UpdateAvailability(ctx, q, bookID, false); err != nil {
			return nil, err
		}
		s.log.Info("book fully reserved, marked unavailable", "book_id", bookID)
	}
	return updated, nil
}

func (s *service) ReleaseReservation(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error) {
	inv, err := s.get(ctx, q, bookID)
	if err != nil {
		return nil, err
	}
	if inv.TotalReserved == 0 {
		return nil, errs.New(errs.CodeInvalidQuantity, "book %s has no reserved copies to release", bookID)
	}

	updated, err := s.r.UpdateReserved(ctx, q, bookID, -1, inv.Version)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errs.New(errs.CodeVersionChanged, "book inventory %s changed concurrently", bookID)
	}

	// The release freed the first copy of a fully reserved book.
	if inv.FullyReserved() {
		if err := s.books.UpdateAvailability(ctx, q, bookID, true); err != nil {
			return nil, err
		}
		s.log.Info("book available again", "book_id", bookID)
	}
	return updated, nil
}

func (s *service) DecrementInventory(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error) {
	inv, err := s.get(ctx, q, bookID)
	if err != nil {
		return nil, err
	}
	if inv.TotalInventory == 0 {
		return nil, errs.New(errs.CodeInvalidQuantity, "book %s has no inventory left to decrement", bookID)
	}

	updated, err := s.r.DecrementInventory(ctx, q, bookID, inv.Version)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errs.New(errs.CodeVersionChanged, "book inventory %s changed concurrently", bookID)
	}
	s.log.Info("decremented inventory", "book_id", bookID, "total_inventory", updated.TotalInventory)
	return updated, nil
}
