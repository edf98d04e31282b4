package bank

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fincore/fincore/internal/account"
	"github.com/fincore/fincore/internal/logging"
	"github.com/fincore/fincore/internal/notification"
)

func TestTransferMovesFundsAtomically(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	from, _ := svc.CreateAccount(ctx, "savings", "Alice Engineer", "USD")
	to, _ := svc.CreateAccount(ctx, "checking", "Bob Builder", "USD")
	if err := svc.Deposit(ctx, from.Number, dec(t, "1000.00")); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := svc.Transfer(ctx, from.Number, to.Number, dec(t, "250.00")); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	fromSnap, _ := svc.GetAccount(ctx, from.Number)
	toSnap, _ := svc.GetAccount(ctx, to.Number)
	if !fromSnap.Balance.Equal(dec(t, "750.00")) || !toSnap.Balance.Equal(dec(t, "250.00")) {
		t.Fatalf("unexpected balances %s/%s", fromSnap.Balance, toSnap.Balance)
	}

	out := fromSnap.Transactions[len(fromSnap.Transactions)-1]
	if out.Kind != account.KindTransferOut || out.Reference != "to "+to.Number {
		t.Fatalf("unexpected debit record: %+v", out)
	}
	in := toSnap.Transactions[len(toSnap.Transactions)-1]
	if in.Kind != account.KindTransferIn || in.Reference != "from "+from.Number {
		t.Fatalf("unexpected credit record: %+v", in)
	}
}

func TestTransferConservesTotal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	from, _ := svc.CreateAccount(ctx, "savings", "a", "USD")
	to, _ := svc.CreateAccount(ctx, "savings", "b", "USD")
	_ = svc.Deposit(ctx, from.Number, dec(t, "800.00"))
	_ = svc.Deposit(ctx, to.Number, dec(t, "200.00"))

	if err := svc.Transfer(ctx, from.Number, to.Number, dec(t, "123.45")); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	fromSnap, _ := svc.GetAccount(ctx, from.Number)
	toSnap, _ := svc.GetAccount(ctx, to.Number)
	total := fromSnap.Balance.Add(toSnap.Balance)
	if !total.Equal(dec(t, "1000.00")) {
		t.Fatalf("transfer must conserve the pair total, got %s", total)
	}
}

func TestTransferInsufficientFundsHasNoPartialEffect(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	from, _ := svc.CreateAccount(ctx, "savings", "a", "USD")
	to, _ := svc.CreateAccount(ctx, "savings", "b", "USD")
	_ = svc.Deposit(ctx, from.Number, dec(t, "100.00"))

	if err := svc.Transfer(ctx, from.Number, to.Number, dec(t, "500.00")); !errors.Is(err, account.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	fromSnap, _ := svc.GetAccount(ctx, from.Number)
	toSnap, _ := svc.GetAccount(ctx, to.Number)
	if !fromSnap.Balance.Equal(dec(t, "100.00")) || !toSnap.Balance.IsZero() {
		t.Fatalf("failed transfer mutated balances: %s/%s", fromSnap.Balance, toSnap.Balance)
	}
	if len(fromSnap.Transactions) != 1 || len(toSnap.Transactions) != 0 {
		t.Fatalf("failed transfer mutated history: %d/%d", len(fromSnap.Transactions), len(toSnap.Transactions))
	}
}

func TestTransferValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.CreateAccount(ctx, "savings", "a", "USD")
	_ = svc.Deposit(ctx, a.Number, dec(t, "100.00"))

	if err := svc.Transfer(ctx, a.Number, "4242", dec(t, "10.00")); !errors.Is(err, account.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound for unknown destination, got %v", err)
	}
	if err := svc.Transfer(ctx, "4242", a.Number, dec(t, "10.00")); !errors.Is(err, account.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound for unknown source, got %v", err)
	}
	if err := svc.Transfer(ctx, a.Number, a.Number, dec(t, "0")); !errors.Is(err, account.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSelfTransferIsNoOp(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.CreateAccount(ctx, "savings", "a", "USD")
	_ = svc.Deposit(ctx, a.Number, dec(t, "100.00"))

	if err := svc.Transfer(ctx, a.Number, a.Number, dec(t, "40.00")); err != nil {
		t.Fatalf("self transfer: %v", err)
	}

	snap, _ := svc.GetAccount(ctx, a.Number)
	if !snap.Balance.Equal(dec(t, "100.00")) || len(snap.Transactions) != 1 {
		t.Fatalf("self transfer must not mutate the account: %+v", snap)
	}
}

// Many goroutines transferring across random pairs, in both directions, must
// terminate (the fixed lock order prevents deadlock) and conserve the total.
func TestConcurrentTransfersTerminateAndConserve(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const accounts = 8
	const workers = 16
	const transfersPerWorker = 50

	numbers := make([]string, 0, accounts)
	for i := 0; i < accounts; i++ {
		snap, err := svc.CreateAccount(ctx, "savings", fmt.Sprintf("owner-%d", i), "USD")
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if err := svc.Deposit(ctx, snap.Number, dec(t, "1000.00")); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		numbers = append(numbers, snap.Number)
	}

	amount := dec(t, "5.00")

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < transfersPerWorker; i++ {
				from := numbers[rng.Intn(len(numbers))]
				to := numbers[rng.Intn(len(numbers))]
				err := svc.Transfer(ctx, from, to, amount)
				if err != nil && !errors.Is(err, account.ErrInsufficientFunds) {
					t.Errorf("transfer %s -> %s: %v", from, to, err)
				}
			}
		}(int64(w))
	}
	wg.Wait()

	total := decimal.Zero
	for _, n := range numbers {
		snap, err := svc.GetAccount(ctx, n)
		if err != nil {
			t.Fatalf("get %s: %v", n, err)
		}
		sum := decimal.Zero
		for _, tx := range snap.Transactions {
			sum = sum.Add(tx.Amount)
		}
		if !sum.Equal(snap.Balance) {
			t.Fatalf("account %s: balance %s diverges from history sum %s", n, snap.Balance, sum)
		}
		if snap.Balance.IsNegative() {
			t.Fatalf("savings account %s went negative: %s", n, snap.Balance)
		}
		total = total.Add(snap.Balance)
	}
	if want := dec(t, "8000.00"); !total.Equal(want) {
		t.Fatalf("concurrent transfers must conserve the total: want %s, got %s", want, total)
	}
}

type testNotifier struct {
	mu   sync.Mutex
	last notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = msg
	return nil
}

func TestTransferNotifiesRecipient(t *testing.T) {
	repo := account.NewMemoryRepository()
	notifier := &testNotifier{}
	svc := NewService(repo, NewCounter(1000), account.DefaultTerms(), notifier, logging.Discard())
	ctx := context.Background()

	from, _ := svc.CreateAccount(ctx, "savings", "a", "USD")
	to, _ := svc.CreateAccount(ctx, "savings", "b", "USD")
	_ = svc.Deposit(ctx, from.Number, dec(t, "100.00"))

	if err := svc.Transfer(ctx, from.Number, to.Number, dec(t, "25.00")); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.last.Kind != notification.KindTransferCredit || notifier.last.Destination != to.Number {
		t.Fatalf("expected credit notification for %s, got %+v", to.Number, notifier.last)
	}
}
