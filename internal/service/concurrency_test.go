package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pointledger/internal/config"
	"pointledger/internal/infrastructure/database"
	"pointledger/internal/model"
)

// These tests need a server database so that row locks and the pool run
// under real contention. Set LEDGER_TEST_DATABASE_DSN (and
// LEDGER_TEST_DATABASE_DRIVER=mysql for MySQL; postgres is the default).
func newServerDBService(t *testing.T) *LedgerService {
	t.Helper()
	dsn := os.Getenv("LEDGER_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DATABASE_DSN not set")
	}
	driver := os.Getenv("LEDGER_TEST_DATABASE_DRIVER")
	if driver == "" {
		driver = database.DriverPostgres
	}

	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{
		Driver:       driver,
		DSN:          dsn,
		MaxOpenConns: 20,
		MaxIdleConns: 5,
		LogLevel:     "silent",
		AutoMigrate:  true,
	}
	db, err := database.Open(&cfg.Database)
	if err != nil {
		t.Skipf("db not available: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	if !database.SupportsRowLocks(db) {
		t.Fatalf("driver %s must take row locks", driver)
	}
	return NewLedgerService(db, nil, cfg)
}

// userIDs hands out ids no earlier run has used, since the tables persist.
var userIDs = time.Now().UnixNano() / 1000

func freshUser() int64 {
	return atomic.AddInt64(&userIDs, 1)
}

// race starts every fn at once and returns their errors in order.
func race(fns ...func() error) []error {
	errs := make([]error, len(fns))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func(i int, fn func() error) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i, fn)
	}
	close(start)
	wg.Wait()
	return errs
}

func TestServerDBTwoSpendsOfFullBalance(t *testing.T) {
	s := newServerDBService(t)
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		user := freshUser()
		fund(t, s, user, 100)

		spend := func() error {
			_, err := s.RecordSpend(ctx, user, 100, "race")
			return err
		}
		errs := race(spend, spend)

		ok, insufficient := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInsufficientBalance):
				insufficient++
			default:
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}
		if ok != 1 || insufficient != 1 {
			t.Fatalf("round %d: ok=%d insufficient=%d, want 1/1", round, ok, insufficient)
		}
		if got := mustBalance(t, s, user); got != 0 {
			t.Fatalf("round %d: balance = %d, want 0", round, got)
		}
		if sum := ledgerSum(t, s, user); sum != 0 {
			t.Fatalf("round %d: ledger sum = %d, want 0", round, sum)
		}
	}
}

func TestServerDBWithdrawApprovalRacingSpend(t *testing.T) {
	s := newServerDBService(t)
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		user := freshUser()
		fund(t, s, user, 500)
		req, err := s.SubmitWithdrawRequest(ctx, user, 400, "Bank", "001")
		if err != nil {
			t.Fatal(err)
		}

		errs := race(
			func() error {
				_, err := s.ApproveWithdrawRequest(ctx, req.ID, adminID)
				return err
			},
			func() error {
				_, err := s.RecordSpend(ctx, user, 300, "race")
				return err
			},
		)
		approveErr, spendErr := errs[0], errs[1]

		stored, err := s.withdrawRepo.GetByID(ctx, req.ID)
		if err != nil {
			t.Fatal(err)
		}
		balance := mustBalance(t, s, user)

		switch {
		case approveErr == nil && errors.Is(spendErr, ErrInsufficientBalance):
			if balance != 100 || stored.Status != model.RequestStatusApproved {
				t.Fatalf("round %d: withdraw won but balance=%d status=%s", round, balance, stored.Status)
			}
			assertPostedOnce(t, s, req.RequestNo, -400)
		case spendErr == nil && errors.Is(approveErr, ErrInsufficientBalance):
			if balance != 200 || stored.Status != model.RequestStatusPending {
				t.Fatalf("round %d: spend won but balance=%d status=%s", round, balance, stored.Status)
			}
		default:
			t.Fatalf("round %d: approve=%v spend=%v, want exactly one to succeed", round, approveErr, spendErr)
		}
		if sum := ledgerSum(t, s, user); sum != balance {
			t.Fatalf("round %d: ledger sum %d != balance %d", round, sum, balance)
		}
	}
}

func TestServerDBConcurrentApprovalsCreditOnce(t *testing.T) {
	s := newServerDBService(t)
	ctx := context.Background()
	user := freshUser()

	req, err := s.SubmitChargeRequest(ctx, user, 250)
	if err != nil {
		t.Fatal(err)
	}

	approve := func() error {
		_, err := s.ApproveChargeRequest(ctx, req.ID, adminID)
		return err
	}
	errs := race(approve, approve, approve, approve, approve, approve, approve, approve)

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInvalidState):
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d approvals succeeded, want 1", ok)
	}
	if got := mustBalance(t, s, user); got != 250 {
		t.Fatalf("balance = %d, want 250", got)
	}
	assertPostedOnce(t, s, req.RequestNo, 250)
}
