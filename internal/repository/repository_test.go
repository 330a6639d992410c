package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"pointledger/internal/config"
	"pointledger/internal/infrastructure/database"
	"pointledger/internal/model"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver:      database.DriverSQLite,
		Path:        ":memory:",
		LogLevel:    "silent",
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

func TestAccountEnsureIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.Ensure(ctx, db, 7); err != nil {
			t.Fatalf("ensure #%d: %v", i, err)
		}
	}
	acc, err := repo.GetByUserID(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if acc.Balance != 0 || acc.Version != 0 {
		t.Fatalf("unexpected account %+v", acc)
	}
	if _, err := repo.GetByUserID(ctx, 8); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountDeductGuards(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	if err := repo.Ensure(ctx, db, 1); err != nil {
		t.Fatal(err)
	}
	if err := repo.Increase(ctx, db, 1, 100, 0); err != nil {
		t.Fatalf("increase: %v", err)
	}

	if err := repo.Deduct(ctx, db, 1, 101, 1); !errors.Is(err, ErrBalanceNotEnough) {
		t.Fatalf("expected ErrBalanceNotEnough, got %v", err)
	}
	if err := repo.Deduct(ctx, db, 1, 10, 0); !errors.Is(err, ErrOptimisticLock) {
		t.Fatalf("expected ErrOptimisticLock on stale version, got %v", err)
	}
	if err := repo.Deduct(ctx, db, 1, 100, 1); err != nil {
		t.Fatalf("deduct: %v", err)
	}

	acc, _ := repo.GetByUserID(ctx, 1)
	if acc.Balance != 0 || acc.Version != 2 {
		t.Fatalf("unexpected account %+v", acc)
	}
	if err := repo.Increase(ctx, db, 99, 1, 0); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRequestTransitionOnlyFromPending(t *testing.T) {
	db := newTestDB(t)
	repo := NewChargeRequestRepository(db)
	ctx := context.Background()

	req := &model.PointChargeRequest{RequestNo: "CHG1", UserID: 1, Amount: 10, Status: model.RequestStatusPending}
	if err := repo.Create(ctx, nil, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	approve := Transition{From: model.RequestStatusPending, To: model.RequestStatusApproved, By: 9, At: time.Now()}
	if err := repo.UpdateStatus(ctx, db, req.ID, approve); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := repo.UpdateStatus(ctx, db, req.ID, approve); !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("second approve: expected ErrStatusInvalid, got %v", err)
	}

	reject := Transition{From: model.RequestStatusApproved, To: model.RequestStatusRejected, By: 9, At: time.Now()}
	if err := repo.UpdateStatus(ctx, db, req.ID, reject); !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("approved -> rejected must be invalid, got %v", err)
	}

	got, err := repo.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.RequestStatusApproved || got.ApprovedAt == nil || got.ProcessedAt == nil {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.ProcessedBy == nil || *got.ProcessedBy != 9 {
		t.Fatalf("processed_by not recorded: %+v", got.ProcessedBy)
	}

	if _, err := repo.GetByID(ctx, 404); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestWithdrawRejectStoresReason(t *testing.T) {
	db := newTestDB(t)
	repo := NewWithdrawRequestRepository(db)
	ctx := context.Background()

	req := &model.PointWithdrawRequest{RequestNo: "WDR1", UserID: 2, Amount: 5, BankName: "b", AccountNum: "1", Status: model.RequestStatusPending}
	if err := repo.Create(ctx, nil, req); err != nil {
		t.Fatal(err)
	}
	reject := Transition{From: model.RequestStatusPending, To: model.RequestStatusRejected, By: 1, Reason: "wrong account", At: time.Now()}
	if err := repo.UpdateStatus(ctx, db, req.ID, reject); err != nil {
		t.Fatalf("reject: %v", err)
	}

	pending, total, err := repo.ListByStatus(ctx, model.RequestStatusPending, 1, 10)
	if err != nil || total != 0 || len(pending) != 0 {
		t.Fatalf("pending list: %v %d %d", err, total, len(pending))
	}
	mine, total, err := repo.ListByUserID(ctx, 2, 1, 10)
	if err != nil || total != 1 {
		t.Fatalf("user list: %v %d", err, total)
	}
	if mine[0].RejectReason != "wrong account" || mine[0].Status != model.RequestStatusRejected {
		t.Fatalf("unexpected request %+v", mine[0])
	}
}

func TestTransactionSearchAndSum(t *testing.T) {
	db := newTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	rows := []*model.PointTransaction{
		{TransactionNo: "T1", UserID: 1, Type: model.TransactionTypeCharge, Amount: 100, BalanceAfter: 100},
		{TransactionNo: "T2", UserID: 1, Type: model.TransactionTypeSpend, Amount: -30, BalanceBefore: 100, BalanceAfter: 70},
		{TransactionNo: "T3", UserID: 2, Type: model.TransactionTypeEarn, Amount: 5, BalanceAfter: 5},
	}
	for _, row := range rows {
		if err := repo.Create(ctx, nil, row); err != nil {
			t.Fatalf("create %s: %v", row.TransactionNo, err)
		}
	}

	sum, err := repo.SumByUserID(ctx, 1)
	if err != nil || sum != 70 {
		t.Fatalf("sum: %d %v", sum, err)
	}
	if sum, _ := repo.SumByUserID(ctx, 3); sum != 0 {
		t.Fatalf("sum of empty ledger: %d", sum)
	}

	list, total, err := repo.ListByUserID(ctx, 1, 1, 1)
	if err != nil || total != 2 || len(list) != 1 {
		t.Fatalf("list: %v total=%d len=%d", err, total, len(list))
	}
	if list[0].TransactionNo != "T2" {
		t.Fatalf("expected newest first, got %s", list[0].TransactionNo)
	}

	spends, total, err := repo.Search(ctx, TransactionFilter{Type: model.TransactionTypeSpend}, 1, 10)
	if err != nil || total != 1 || spends[0].TransactionNo != "T2" {
		t.Fatalf("search by type: %v %d", err, total)
	}
	all, total, _ := repo.Search(ctx, TransactionFilter{}, 1, 10)
	if total != 3 || len(all) != 3 {
		t.Fatalf("search all: %d", total)
	}
}
