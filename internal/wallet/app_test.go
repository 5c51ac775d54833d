package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/transfermarket/internal/market/errs"
	"github.com/mcdev12/transfermarket/internal/models"
	"github.com/mcdev12/transfermarket/internal/store/memory"
)

// fakeOutbox counts FundsReleased emissions.
type fakeOutbox struct {
	released int
}

func (f *fakeOutbox) InsertFundsReleased(ctx context.Context, listingID uuid.UUID, payload []byte) error {
	f.released++
	return nil
}

func newTestApp(t *testing.T, teamID uuid.UUID, balance int64) (*App, *memory.WalletStore, *fakeOutbox) {
	t.Helper()
	store := memory.NewWalletStore()
	store.SetBalance(teamID, balance)
	ob := &fakeOutbox{}
	return NewApp(store, ob, clockwork.NewFakeClock()), store, ob
}

func TestReserveReducesAvailableNotBalance(t *testing.T) {
	ctx := context.Background()
	team := uuid.New()
	listing := uuid.New()
	app, _, _ := newTestApp(t, team, 1000)

	if _, err := app.Reserve(ctx, team, 400, listing); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	balance, err := app.Balance(ctx, team)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 1000 {
		t.Errorf("balance = %d, want 1000 (reserve must not move the ledger balance)", balance)
	}

	available, err := app.Available(ctx, team)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if available != 600 {
		t.Errorf("available = %d, want 600", available)
	}
}

func TestReserveInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	team := uuid.New()
	listing := uuid.New()
	app, _, _ := newTestApp(t, team, 500)

	if _, err := app.Reserve(ctx, team, 400, listing); err != nil {
		t.Fatalf("first Reserve: %v", err)
	}

	// 100 available left; 200 must fail against available, not total balance.
	_, err := app.Reserve(ctx, team, 200, uuid.New())
	if !errors.Is(err, errs.ErrInsufficientFunds) {
		t.Fatalf("Reserve beyond available = %v, want ErrInsufficientFunds", err)
	}

	if _, err := app.Reserve(ctx, team, 100, uuid.New()); err != nil {
		t.Fatalf("Reserve exactly available: %v", err)
	}
}

func TestReserveRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	team := uuid.New()
	app, _, _ := newTestApp(t, team, 1000)

	for _, amount := range []int64{0, -50} {
		if _, err := app.Reserve(ctx, team, amount, uuid.New()); !errs.IsValidation(err) {
			t.Errorf("Reserve(%d) = %v, want validation error", amount, err)
		}
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	team := uuid.New()
	app, _, ob := newTestApp(t, team, 1000)

	resID, err := app.Reserve(ctx, team, 300, uuid.New())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := app.Release(ctx, resID); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := app.Release(ctx, resID); err != nil {
		t.Fatalf("second Release: %v, want no-op", err)
	}

	available, err := app.Available(ctx, team)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if available != 1000 {
		t.Errorf("available after release = %d, want 1000", available)
	}
	if ob.released != 1 {
		t.Errorf("FundsReleased emitted %d times, want 1", ob.released)
	}
}

func TestSettleMovesFundsBuyerToSeller(t *testing.T) {
	ctx := context.Background()
	buyer := uuid.New()
	seller := uuid.New()
	app, store, _ := newTestApp(t, buyer, 1000)
	store.SetBalance(seller, 200)

	resID, err := app.Reserve(ctx, buyer, 350, uuid.New())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := app.Settle(ctx, resID, &seller); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	buyerBalance, _ := app.Balance(ctx, buyer)
	if buyerBalance != 650 {
		t.Errorf("buyer balance = %d, want 650", buyerBalance)
	}
	sellerBalance, _ := app.Balance(ctx, seller)
	if sellerBalance != 550 {
		t.Errorf("seller balance = %d, want 550", sellerBalance)
	}

	// Settling again is a no-op, not a double debit.
	if err := app.Settle(ctx, resID, &seller); err != nil {
		t.Fatalf("second Settle: %v, want no-op", err)
	}
	buyerBalance, _ = app.Balance(ctx, buyer)
	if buyerBalance != 650 {
		t.Errorf("buyer balance after double settle = %d, want 650", buyerBalance)
	}
}

func TestSettleMarketSaleHasNoSellerCredit(t *testing.T) {
	ctx := context.Background()
	buyer := uuid.New()
	app, _, _ := newTestApp(t, buyer, 1000)

	resID, err := app.Reserve(ctx, buyer, 250, uuid.New())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := app.Settle(ctx, resID, nil); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	balance, _ := app.Balance(ctx, buyer)
	if balance != 750 {
		t.Errorf("buyer balance = %d, want 750", balance)
	}
}

func TestSettleReleasedReservationConflicts(t *testing.T) {
	ctx := context.Background()
	team := uuid.New()
	app, _, _ := newTestApp(t, team, 1000)

	resID, err := app.Reserve(ctx, team, 100, uuid.New())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := app.Release(ctx, resID); err != nil {
		t.Fatalf("Release: %v", err)
	}

	if err := app.Settle(ctx, resID, nil); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("Settle released reservation = %v, want ErrStateConflict", err)
	}
}

func TestJournalRecordsReserveReleaseSettle(t *testing.T) {
	ctx := context.Background()
	team := uuid.New()
	app, store, _ := newTestApp(t, team, 1000)

	resID, err := app.Reserve(ctx, team, 100, uuid.New())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := app.Settle(ctx, resID, nil); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	journal := store.Journal()
	types := make([]models.TransactionType, len(journal))
	for i, txn := range journal {
		types[i] = txn.Type
	}
	want := []models.TransactionType{models.TransactionTypeReserve, models.TransactionTypeSettleDebit}
	if len(types) != len(want) {
		t.Fatalf("journal types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("journal[%d].Type = %s, want %s", i, types[i], want[i])
		}
	}
	if journal[1].BalanceAfter != 900 {
		t.Errorf("settle debit BalanceAfter = %d, want 900", journal[1].BalanceAfter)
	}
}

// creditFailRepo drops seller-credit journal writes while failures remain,
// simulating a crash between the settle debit and the credit.
type creditFailRepo struct {
	*memory.WalletStore
	failures int
}

func (r *creditFailRepo) ApplyTransaction(ctx context.Context, txn *models.WalletTransaction, delta int64) error {
	if txn.Type == models.TransactionTypeSettleCredit && r.failures > 0 {
		r.failures--
		return errors.New("store unavailable")
	}
	return r.WalletStore.ApplyTransaction(ctx, txn, delta)
}

func TestSettleRetryCompletesSellerCredit(t *testing.T) {
	ctx := context.Background()
	buyer := uuid.New()
	seller := uuid.New()
	store := memory.NewWalletStore()
	store.SetBalance(buyer, 1000)
	store.SetBalance(seller, 200)
	repo := &creditFailRepo{WalletStore: store, failures: 1}
	app := NewApp(repo, &fakeOutbox{}, clockwork.NewFakeClock())

	resID, err := app.Reserve(ctx, buyer, 300, uuid.New())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := app.Settle(ctx, resID, &seller); err == nil {
		t.Fatal("Settle with failing credit succeeded, want error")
	}

	// The buyer was already debited; a retry must deliver the seller's
	// proceeds instead of short-circuiting on the settled reservation.
	if err := app.Settle(ctx, resID, &seller); err != nil {
		t.Fatalf("retry Settle: %v", err)
	}
	buyerBalance, _ := app.Balance(ctx, buyer)
	if buyerBalance != 700 {
		t.Errorf("buyer balance = %d, want 700", buyerBalance)
	}
	sellerBalance, _ := app.Balance(ctx, seller)
	if sellerBalance != 500 {
		t.Errorf("seller balance = %d, want 500", sellerBalance)
	}

	// Further retries stay no-ops: the credit lands exactly once.
	if err := app.Settle(ctx, resID, &seller); err != nil {
		t.Fatalf("third Settle: %v", err)
	}
	sellerBalance, _ = app.Balance(ctx, seller)
	if sellerBalance != 500 {
		t.Errorf("seller balance after third settle = %d, want 500", sellerBalance)
	}
}
