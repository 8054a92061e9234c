package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeLedger implements walletQuerier over an in-memory balance. It
// refuses ledger reads and writes until the per-user lock statement
// has run, mirroring the ordering the real transaction relies on.
type fakeLedger struct {
	mu      sync.Mutex
	balance float64
	locked  bool
	nextID  int64
}

func (f *fakeLedger) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(sql, "pg_advisory_xact_lock") {
		f.locked = true
	}
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (f *fakeLedger) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.locked {
		return fakeRow{err: errors.New("ledger touched before the user lock was taken")}
	}

	if strings.HasPrefix(strings.TrimSpace(sql), "INSERT") {
		amount := args[2].(float64)
		f.balance -= amount
		f.nextID++
		id := f.nextID
		userID := args[0].(string)
		kind := args[1].(string)
		upi := args[3].(string)
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*int64)) = id
			*(dest[1].(*string)) = userID
			*(dest[2].(*string)) = kind
			*(dest[3].(*float64)) = amount
			*(dest[5].(**string)) = &upi
			*(dest[6].(*time.Time)) = time.Now()
			return nil
		}}
	}

	balance := f.balance
	return fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*float64)) = balance
		*(dest[1].(*float64)) = 0
		*(dest[2].(*bool)) = false
		return nil
	}}
}

type fakeRow struct {
	err  error
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return r.scan(dest...)
}

func TestDebitWalletRejectsOverdraw(t *testing.T) {
	ledger := &fakeLedger{balance: 100}

	txn, err := debitWallet(context.Background(), ledger, "user-1", 60, "priya@upi")
	if err != nil {
		t.Fatalf("first withdrawal: %v", err)
	}
	if txn.Amount != 60 || txn.UPI == nil || *txn.UPI != "priya@upi" {
		t.Fatalf("unexpected transaction: %+v", txn)
	}

	// A second withdrawal of the same size would drive the ledger
	// negative; the re-check under the lock must reject it
	if _, err := debitWallet(context.Background(), ledger, "user-1", 60, "priya@upi"); !errors.Is(err, errInsufficientBalance) {
		t.Fatalf("expected errInsufficientBalance, got %v", err)
	}
	if ledger.balance != 40 {
		t.Fatalf("rejected withdrawal changed the balance: %v", ledger.balance)
	}
}

func TestDebitWalletExactBalance(t *testing.T) {
	ledger := &fakeLedger{balance: 75}

	if _, err := debitWallet(context.Background(), ledger, "user-1", 75, "priya@upi"); err != nil {
		t.Fatalf("withdrawal of the full balance rejected: %v", err)
	}
	if ledger.balance != 0 {
		t.Fatalf("unexpected balance: %v", ledger.balance)
	}
}
