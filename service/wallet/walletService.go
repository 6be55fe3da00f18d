package wallet

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	walletrepo "github.com/fercon997/accountable-challenge/repository/wallet"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

// Service owns balances and the bounded reservation-slot list. The slot cap is
// a per-user throttle, which is why it lives here and not on inventory.
// Methods that participate in a reservation transition take the caller's
// transaction handle.
type Service interface {
	Create(ctx context.Context, userID string) (*model.Wallet, error)
	Get(ctx context.Context, userID string, withReservations bool) (*model.Wallet, error)
	IncrementBalance(ctx context.Context, userID string, amount decimal.Decimal) (*model.Wallet, error)
	DecrementBalance(ctx context.Context, q database.Querier, userID string, amount decimal.Decimal) (*model.Wallet, error)
	AddReservation(ctx context.Context, q database.Querier, userID, reservationID string) error
	// RemoveReservation frees the slot; a non-nil lateFees is debited from the
	// balance in the same conditional write.
	RemoveReservation(ctx context.Context, q database.Querier, userID, reservationID string, lateFees *decimal.Decimal) error
}

type service struct {
	db  database.Querier
	r   walletrepo.Repo
	log *slog.Logger
}

func New(db database.Querier, r walletrepo.Repo, log *slog.Logger) Service {
	return &service{db: db, r: r, log: log}
}

func (s *service) Create(ctx context.Context, userID string) (*model.Wallet, error) {
	s.log.Info("creating wallet", "user_id", userID)
	return s.r.Create(ctx, s.db, userID)
}

func (s *service) Get(ctx context.Context, userID string, withReservations bool) (*model.Wallet, error) {
	return s.get(ctx, s.db, userID, withReservations)
}

func (s *service) get(ctx context.Context, q database.Querier, userID string, withReservations bool) (*model.Wallet, error) {
	w, err := s.r.Get(ctx, q, userID, withReservations)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errs.New(errs.CodeNotFound, "wallet for user %s not found", userID)
	}
	return w, nil
}

func (s *service) IncrementBalance(ctx context.Context, userID string, amount decimal.Decimal) (*model.Wallet, error) {
	s.log.Info("incrementing balance", "user_id", userID, "amount", amount)
	w, err := s.r.UpdateBalance(ctx, s.db, userID, amount, nil)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errs.New(errs.CodeNotFound, "wallet for user %s not found", userID)
	}
	return w, nil
}

func (s *service) DecrementBalance(ctx context.Context, q database.Querier, userID string, amount decimal.Decimal) (*model.Wallet, error) {
	wallet, err := s.get(ctx, q, userID, false)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.Sub(amount).IsNegative() {
		return nil, errs.New(errs.CodeInvalidBalance,
			"user %s balance %s cannot cover %s", userID, wallet.Balance, amount)
	}

	s.log.Info("decrementing balance", "user_id", userID, "amount", amount)
	w, err := s.r.UpdateBalance(ctx, q, userID, amount.Neg(), &wallet.Version)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errs.New(errs.CodeVersionChanged, "wallet of user %s changed concurrently", userID)
	}
	return w, nil
}

func (s *service) AddReservation(ctx context.Context, q database.Querier, userID, reservationID string) error {
	wallet, err := s.get(ctx, q, userID, false)
	if err != nil {
		return err
	}
	if len(wallet.Reservations) >= model.MaxWalletReservations {
		return errs.New(errs.CodeMaxReservationsReached,
			"user %s already holds %d active reservations", userID, model.MaxWalletReservations)
	}

	applied, err := s.r.AddReservation(ctx, q, userID, reservationID, wallet.Version)
	if err != nil {
		return err
	}
	if !applied {
		return errs.New(errs.CodeVersionChanged, "wallet of user %s changed concurrently", userID)
	}
	return nil
}

func (s *service) RemoveReservation(ctx context.Context, q database.Querier, userID, reservationID string, lateFees *decimal.Decimal) error {
	wallet, err := s.get(ctx, q, userID, false)
	if err != nil {
		return err
	}
	if !wallet.HasReservation(reservationID) {
		return errs.New(errs.CodeReservationNotFound,
			"reservation %s is not held by wallet of user %s", reservationID, userID)
	}

	applied, err := s.r.RemoveReservation(ctx, q, userID, reservationID, lateFees, wallet.Version)
	if err != nil {
		return err
	}
	if !applied {
		return errs.New(errs.CodeVersionChanged, "wallet of user %s changed concurrently", userID)
	}
	return nil
}
