package reservation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	reservationrepo "github.com/fercon997/accountable-challenge/repository/reservation"
	"github.com/fercon997/accountable-challenge/util/database"
)

// txRunnerMock executes the unit of work without a live transaction; the
// repo mocks below never touch the querier.
type txRunnerMock struct{}

func (txRunnerMock) WithTx(ctx context.Context, fn func(ctx context.Context, tx database.Querier) error) error {
	return fn(ctx, nil)
}

type repoMock struct {
	createFn        func(ctx context.Context, q database.Querier, res *model.Reservation) (*model.Reservation, error)
	updateFn        func(ctx context.Context, q database.Querier, id string, upd reservationrepo.Update, version *int64) (*model.Reservation, error)
	getFn           func(ctx context.Context, q database.Querier, f reservationrepo.Filter) ([]model.Reservation, error)
	getPaginatedFn  func(ctx context.Context, q database.Querier, f reservationrepo.Filter, limit, offset int) ([]model.Reservation, int64, error)
	getByIDFn       func(ctx context.Context, q database.Querier, id string) (*model.Reservation, error)
	getLateFn       func(ctx context.Context, q database.Querier, now time.Time) ([]model.Reservation, error)
	getByDueDateFn  func(ctx context.Context, q database.Querier, day time.Time, status model.ReservationStatus) ([]model.Reservation, error)
}

var _ reservationrepo.Repo = (*repoMock)(nil)

func (m *repoMock) Create(ctx context.Context, q database.Querier, res *model.Reservation) (*model.Reservation, error) {
	return m.createFn(ctx, q, res)
}

func (m *repoMock) Update(ctx context.Context, q database.Querier, id string, upd reservationrepo.Update, version *int64) (*model.Reservation, error) {
	return m.updateFn(ctx, q, id, upd, version)
}

func (m *repoMock) Get(ctx context.Context, q database.Querier, f reservationrepo.Filter) ([]model.Reservation, error) {
	if m.getFn == nil {
		return nil, nil
	}
	return m.getFn(ctx, q, f)
}

func (m *repoMock) GetPaginated(ctx context.Context, q database.Querier, f reservationrepo.Filter, limit, offset int) ([]model.Reservation, int64, error) {
	return m.getPaginatedFn(ctx, q, f, limit, offset)
}

func (m *repoMock) GetByID(ctx context.Context, q database.Querier, id string) (*model.Reservation, error) {
	return m.getByIDFn(ctx, q, id)
}

func (m *repoMock) GetLate(ctx context.Context, q database.Querier, now time.Time) ([]model.Reservation, error) {
	return m.getLateFn(ctx, q, now)
}

func (m *repoMock) GetByExpectedReturnDate(ctx context.Context, q database.Querier, day time.Time, status model.ReservationStatus) ([]model.Reservation, error) {
	return m.getByDueDateFn(ctx, q, day, status)
}

// invMock is a stateful inventory fake so tests can assert final counters.
type invMock struct {
	inv     model.BookInventory
	addErr  error
	calls   []string
}

func (m *invMock) Create(ctx context.Context, bookID string, quantity int64) (*model.BookInventory, error) {
	return &m.inv, nil
}
func (m *invMock) Get(ctx context.Context, bookID string) (*model.BookInventory, error) {
	return &m.inv, nil
}
func (m *invMock) Update(ctx context.Context, bookID string, quantity int64) (*model.BookInventory, error) {
	return &m.inv, nil
}
func (m *invMock) Delete(ctx context.Context, bookID string) error { return nil }

func (m *invMock) AddReservation(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error) {
	m.calls = append(m.calls, "add")
	if m.addErr != nil {
		return nil, m.addErr
	}
	if m.inv.FullyReserved() {
		return nil, errs.New(errs.CodeInvalidQuantity, "no copies of book %s left to reserve", bookID)
	}
	m.inv.TotalReserved++
	m.inv.Version++
	return &m.inv, nil
}

func (m *invMock) ReleaseReservation(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error) {
	m.calls = append(m.calls, "release")
	m.inv.TotalReserved--
	m.inv.Version++
	return &m.inv, nil
}

func (m *invMock) DecrementInventory(ctx context.Context, q database.Querier, bookID string) (*model.BookInventory, error) {
	m.calls = append(m.calls, "decrement")
	m.inv.TotalInventory--
	m.inv.TotalReserved--
	m.inv.Version++
	return &m.inv, nil
}

// walletMock tracks slots and balance across a whole lifecycle.
type walletMock struct {
	balance decimal.Decimal
	slots   []string
	debits  []decimal.Decimal
}

func (m *walletMock) Create(ctx context.Context, userID string) (*model.Wallet, error) {
	return nil, nil
}
func (m *walletMock) Get(ctx context.Context, userID string, withReservations bool) (*model.Wallet, error) {
	return nil, nil
}
func (m *walletMock) IncrementBalance(ctx context.Context, userID string, amount decimal.Decimal) (*model.Wallet, error) {
	m.balance = m.balance.Add(amount)
	return nil, nil
}
func (m *walletMock) DecrementBalance(ctx context.Context, q database.Querier, userID string, amount decimal.Decimal) (*model.Wallet, error) {
	if m.balance.Sub(amount).IsNegative() {
		return nil, errs.New(errs.CodeInvalidBalance, "user %s balance cannot cover %s", userID, amount)
	}
	m.balance = m.balance.Sub(amount)
	m.debits = append(m.debits, amount)
	return nil, nil
}
func (m *walletMock) AddReservation(ctx context.Context, q database.Querier, userID, reservationID string) error {
	if len(m.slots) >= model.MaxWalletReservations {
		return errs.New(errs.CodeMaxReservationsReached, "user %s already holds %d active reservations", userID, model.MaxWalletReservations)
	}
	m.slots = append(m.slots, reservationID)
	return nil
}
func (m *walletMock) RemoveReservation(ctx context.Context, q database.Querier, userID, reservationID string, lateFees *decimal.Decimal) error {
	for i, id := range m.slots {
		if id == reservationID {
			m.slots = append(m.slots[:i], m.slots[i+1:]...)
			if lateFees != nil {
				m.balance = m.balance.Sub(*lateFees)
			}
			return nil
		}
	}
	return errs.New(errs.CodeReservationNotFound, "reservation %s is not held by wallet of user %s", reservationID, userID)
}

// storeMock is an in-memory reservation repo for lifecycle round trips.
type storeMock struct {
	repoMock
	rows map[string]*model.Reservation
}

func newStoreMock() *storeMock {
	s := &storeMock{rows: map[string]*model.Reservation{}}
	s.createFn = func(ctx context.Context, q database.Querier, res *model.Reservation) (*model.Reservation, error) {
		created := *res
		created.ID = uuid.NewString()
		s.rows[created.ID] = &created
		out := created
		return &out, nil
	}
	s.updateFn = func(ctx context.Context, q database.Querier, id string, upd reservationrepo.Update, version *int64) (*model.Reservation, error) {
		row, ok := s.rows[id]
		if !ok || (version != nil && row.Version != *version) {
			return nil, nil
		}
		if upd.Status != nil {
			row.Status = *upd.Status
		}
		if upd.ReturnDate != nil {
			row.ReturnDate = upd.ReturnDate
		}
		if upd.LateFees != nil {
			row.LateFees = *upd.LateFees
		}
		row.Version++
		out := *row
		return &out, nil
	}
	s.getByIDFn = func(ctx context.Context, q database.Querier, id string) (*model.Reservation, error) {
		row, ok := s.rows[id]
		if !ok {
			return nil, nil
		}
		out := *row
		return &out, nil
	}
	s.getFn = func(ctx context.Context, q database.Querier, f reservationrepo.Filter) ([]model.Reservation, error) {
		var out []model.Reservation
		for _, row := range s.rows {
			if f.UserID != nil && row.UserID != *f.UserID {
				continue
			}
			if f.BookID != nil && row.BookID != *f.BookID {
				continue
			}
			if f.ActiveOnly && row.ReturnDate != nil {
				continue
			}
			out = append(out, *row)
		}
		return out, nil
	}
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func price() decimal.Decimal { return decimal.NewFromInt(3) }

// dueDate is the latest date the return-date policy admits, which keeps the
// tests independent of the day they run on.
func dueDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

func newService(r reservationrepo.Repo, inv *invMock, w *walletMock) Service {
	return New(nil, txRunnerMock{}, r, inv, w, price(), testLogger())
}

func TestCreateReservation_InvalidReturnDate(t *testing.T) {
	s := newService(newStoreMock(), &invMock{}, &walletMock{})

	_, err := s.CreateReservation(context.Background(), "u1", "b1", time.Now().UTC().Add(-time.Hour))
	require.True(t, errs.Is(err, errs.CodeInvalidReturnDate), "past date: got %v", err)

	_, err = s.CreateReservation(context.Background(), "u1", "b1", time.Now().UTC().AddDate(0, 2, 0))
	require.True(t, errs.Is(err, errs.CodeInvalidReturnDate), "two months out: got %v", err)
}

func TestCreateReservation_AlreadyReserved(t *testing.T) {
	store := newStoreMock()
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 5}}
	s := newService(store, inv, &walletMock{})

	// Due tomorrow keeps the date inside any month's policy window.
	_, err := s.CreateReservation(context.Background(), "u1", "b1", dueDate())
	require.NoError(t, err)

	_, err = s.CreateReservation(context.Background(), "u1", "b1", dueDate())
	require.True(t, errs.Is(err, errs.CodeAlreadyReserved), "got %v", err)
}

func TestCreateReservation_NoCapacity(t *testing.T) {
	store := newStoreMock()
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 1, TotalReserved: 0}}
	s := newService(store, inv, &walletMock{})

	_, err := s.CreateReservation(context.Background(), "u1", "b1", dueDate())
	require.NoError(t, err)
	require.EqualValues(t, 1, inv.inv.TotalReserved)

	_, err = s.CreateReservation(context.Background(), "u2", "b1", dueDate())
	require.True(t, errs.Is(err, errs.CodeInvalidQuantity), "got %v", err)
	require.EqualValues(t, 1, inv.inv.TotalReserved)
}

func TestCreateReservation_Pending(t *testing.T) {
	store := newStoreMock()
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 2}}
	w := &walletMock{balance: decimal.NewFromInt(10)}
	s := newService(store, inv, w)

	res, err := s.CreateReservation(context.Background(), "u1", "b1", dueDate())
	require.NoError(t, err)
	require.Equal(t, model.ReservationPending, res.Status)
	require.True(t, res.Price.Equal(price()))
	require.True(t, res.LateFees.IsZero())
	require.Equal(t, []string{res.ID}, w.slots)
}

func TestPayReservation_Unauthorized(t *testing.T) {
	store := newStoreMock()
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 2}}
	s := newService(store, inv, &walletMock{balance: decimal.NewFromInt(10)})

	res, err := s.CreateReservation(context.Background(), "u1", "b1", dueDate())
	require.NoError(t, err)

	_, err = s.PayReservation(context.Background(), res.ID, "intruder")
	require.True(t, errs.Is(err, errs.CodeUnauthorized), "got %v", err)
}

func TestPayReservation_DebitsAndReserves(t *testing.T) {
	store := newStoreMock()
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 2}}
	w := &walletMock{balance: decimal.NewFromInt(10)}
	s := newService(store, inv, w)

	res, err := s.CreateReservation(context.Background(), "u1", "b1", dueDate())
	require.NoError(t, err)

	paid, err := s.PayReservation(context.Background(), res.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, model.ReservationReserved, paid.Status)
	require.True(t, w.balance.Equal(decimal.NewFromInt(7)))

	// Paying again is no longer a pending reservation.
	_, err = s.PayReservation(context.Background(), res.ID, "u1")
	require.True(t, errs.Is(err, errs.CodeInvalidReservationStatus), "got %v", err)
}

func TestPayReservation_VersionConflict(t *testing.T) {
	pending := &model.Reservation{
		ID: "r1", UserID: "u1", BookID: "b1",
		Price: price(), Status: model.ReservationPending, Version: 1,
	}
	m := &repoMock{
		getByIDFn: func(ctx context.Context, q database.Querier, id string) (*model.Reservation, error) {
			out := *pending
			return &out, nil
		},
		updateFn: func(ctx context.Context, q database.Querier, id string, upd reservationrepo.Update, version *int64) (*model.Reservation, error) {
			return nil, nil
		},
	}
	s := newService(m, &invMock{}, &walletMock{balance: decimal.NewFromInt(10)})

	_, err := s.PayReservation(context.Background(), "r1", "u1")
	require.True(t, errs.Is(err, errs.CodeVersionChanged), "got %v", err)
}

func TestCancelReservation_OnlyPending(t *testing.T) {
	store := newStoreMock()
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 2}}
	w := &walletMock{balance: decimal.NewFromInt(10)}
	s := newService(store, inv, w)

	res, err := s.CreateReservation(context.Background(), "u1", "b1", dueDate())
	require.NoError(t, err)
	_, err = s.PayReservation(context.Background(), res.ID, "u1")
	require.NoError(t, err)

	callsBefore := len(inv.calls)
	slotsBefore := len(w.slots)

	_, err = s.CancelReservation(context.Background(), res.ID, "u1")
	require.True(t, errs.Is(err, errs.CodeInvalidReservationStatus), "got %v", err)
	// Validation failed before the transaction: nothing was touched.
	require.Len(t, inv.calls, callsBefore)
	require.Len(t, w.slots, slotsBefore)
}

func TestCancelReservation_ReleasesEverything(t *testing.T) {
	store := newStoreMock()
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 2}}
	w := &walletMock{balance: decimal.NewFromInt(10)}
	s := newService(store, inv, w)

	res, err := s.CreateReservation(context.Background(), "u1", "b1", dueDate())
	require.NoError(t, err)

	canceled, err := s.CancelReservation(context.Background(), res.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, model.ReservationCanceled, canceled.Status)
	require.Empty(t, w.slots)
	require.EqualValues(t, 0, inv.inv.TotalReserved)
	require.True(t, w.balance.Equal(decimal.NewFromInt(10)), "pending cancel never charges")
}

func TestEndReservation_RoundTrip(t *testing.T) {
	store := newStoreMock()
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 2}}
	w := &walletMock{balance: decimal.NewFromInt(10)}
	s := newService(store, inv, w)

	res, err := s.CreateReservation(context.Background(), "u1", "b1", dueDate())
	require.NoError(t, err)
	_, err = s.PayReservation(context.Background(), res.ID, "u1")
	require.NoError(t, err)

	ended, err := s.EndReservation(context.Background(), res.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, model.ReservationReturned, ended.Status)
	require.NotNil(t, ended.ReturnDate)
	require.True(t, ended.LateFees.IsZero())
	require.EqualValues(t, 0, inv.inv.TotalReserved)
	require.Empty(t, w.slots)
	// Only the base price was ever debited.
	require.True(t, w.balance.Equal(decimal.NewFromInt(7)))

	// Ending again hits the already-set return date.
	_, err = s.EndReservation(context.Background(), res.ID, "u1")
	require.True(t, errs.Is(err, errs.CodeInvalidReservationStatus), "got %v", err)
}

func TestEndReservation_SettlesLateFees(t *testing.T) {
	store := newStoreMock()
	fees := decimal.RequireFromString("0.6")
	store.rows["r1"] = &model.Reservation{
		ID: "r1", UserID: "u1", BookID: "b1",
		Price: price(), LateFees: fees,
		Status: model.ReservationLate, Version: 4,
	}
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 2, TotalReserved: 1}}
	w := &walletMock{balance: decimal.NewFromInt(5), slots: []string{"r1"}}
	s := newService(store, inv, w)

	ended, err := s.EndReservation(context.Background(), "r1", "u1")
	require.NoError(t, err)
	require.Equal(t, model.ReservationReturned, ended.Status)
	require.Len(t, w.debits, 1)
	require.True(t, w.debits[0].Equal(fees))
	require.True(t, w.balance.Equal(decimal.RequireFromString("4.4")))
}

func TestEndReservation_BoughtStaysBought(t *testing.T) {
	store := newStoreMock()
	store.rows["r1"] = &model.Reservation{
		ID: "r1", UserID: "u1", BookID: "b1",
		Price: price(), LateFees: decimal.NewFromInt(3),
		Status: model.ReservationBought, Version: 9,
	}
	inv := &invMock{inv: model.BookInventory{BookID: "b1", TotalInventory: 1, TotalReserved: 1}}
	w := &walletMock{balance: decimal.NewFromInt(5), slots: []string{"r1"}}
	s := newService(store, inv, w)

	ended, err := s.EndReservation(context.Background(), "r1", "u1")
	require.NoError(t, err)
	require.Equal(t, model.ReservationBought, ended.Status)
	require.NotNil(t, ended.ReturnDate)
}

func TestGetByID_NotFound(t *testing.T) {
	s := newService(newStoreMock(), &invMock{}, &walletMock{})
	_, err := s.GetByID(context.Background(), "missing")
	require.True(t, errs.Is(err, errs.CodeNotFound), "got %v", err)
}
