package book

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	bookrepo "github.com/fercon997/accountable-challenge/repository/book"
	invsvc "github.com/fercon997/accountable-challenge/service/inventory"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

// Service is the catalog side of the system: admin CRUD plus the batched
// lookups the reservation core consumes. Adding a book seeds its inventory;
// removing it removes the inventory record too.
type Service interface {
	Create(ctx context.Context, title, author string, price decimal.Decimal, quantity int64) (*model.Book, error)
	GetByID(ctx context.Context, id string) (*model.Book, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Book, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db      database.Querier
	r       bookrepo.Repo
	bookInv invsvc.Service
	log     *slog.Logger
}

func New(db database.Querier, r bookrepo.Repo, bookInv invsvc.Service, log *slog.Logger) Service {
	return &service{db: db, r: r, bookInv: bookInv, log: log}
}

func (s *service) Create(ctx context.Context, title, author string, price decimal.Decimal, quantity int64) (*model.Book, error) {
	b, err := s.r.Create(ctx, s.db, title, author, price)
	if err != nil {
		return nil, err
	}
	if _, err := s.bookInv.Create(ctx, b.ID, quantity); err != nil {
		return nil, err
	}
	s.log.Info("book created", "book_id", b.ID, "title", title, "quantity", quantity)
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*model.Book, error) {
	b, err := s.r.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errs.New(errs.CodeNotFound, "book %s not found", id)
	}
	return b, nil
}

func (s *service) GetByIDs(ctx context.Context, ids []string) ([]model.Book, error) {
	return s.r.GetByIDs(ctx, s.db, ids)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.bookInv.Delete(ctx, id); err != nil {
		return err
	}
	deleted, err := s.r.Delete(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.New(errs.CodeNotFound, "book %s not found", id)
	}
	s.log.Info("book deleted", "book_id", id)
	return nil
}
