package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"pointledger/internal/config"
	"pointledger/internal/infrastructure/lock"
	"pointledger/internal/model"
	"pointledger/internal/repository"
	"pointledger/pkg/idgen"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// LedgerService owns point balances, the append-only transaction log and
// the charge/withdraw approval workflow.
//
// Every mutation runs in one database transaction that locks the request row
// (if any) before the account row, re-reads the balance, writes the ledger
// entry and enqueues an outbox event. The optional distributed lock only
// reduces contention; correctness comes from the row locks and guarded updates.
type LedgerService struct {
	db              *gorm.DB
	locker          lock.Locker
	cfg             *config.Config
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	chargeRepo      *repository.ChargeRequestRepository
	withdrawRepo    *repository.WithdrawRequestRepository
	outboxRepo      *repository.OutboxRepository
}

func NewLedgerService(db *gorm.DB, locker lock.Locker, cfg *config.Config) *LedgerService {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	return &LedgerService{
		db:              db,
		locker:          locker,
		cfg:             cfg,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		chargeRepo:      repository.NewChargeRequestRepository(db),
		withdrawRepo:    repository.NewWithdrawRequestRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

// Pagination is 1-based. Zero values fall back to the configured defaults.
type Pagination struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Normalize applies the defaults and clamps PageSize to the configured maximum.
// Page is capped so the row offset stays within an int32.
func (s *LedgerService) Normalize(p Pagination) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = s.cfg.Business.DefaultPageSize
	}
	if p.PageSize > s.cfg.Business.MaxPageSize {
		p.PageSize = s.cfg.Business.MaxPageSize
	}
	if maxPage := math.MaxInt32 / p.PageSize; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

// withLock runs fn while holding the distributed lock for key.
func (s *LedgerService) withLock(ctx context.Context, key string, fn func() error) error {
	held, err := s.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, lock.ErrLockFailed) {
			return ErrBusy
		}
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	defer func() {
		if err := held.Unlock(context.Background()); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("release lock")
		}
	}()
	return fn()
}

// entry is one balance mutation about to be posted.
type entry struct {
	userID      int64
	delta       int64
	txType      model.TransactionType
	referenceNo string
	operatorID  *int64
	description string
	event       model.EventType
}

// post applies e.delta to the user's account and appends the ledger row and
// its outbox event. It must run inside tx.
func (s *LedgerService) post(ctx context.Context, tx *gorm.DB, e entry) (*model.PointTransaction, error) {
	if err := s.accountRepo.Ensure(ctx, tx, e.userID); err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	account, err := s.accountRepo.GetByUserIDForUpdate(ctx, tx, e.userID)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}

	before := account.Balance
	if e.delta > 0 && before > math.MaxInt64-e.delta {
		return nil, fmt.Errorf("credit %d on balance %d overflows: %w", e.delta, before, ErrInvalidAmount)
	}
	after := before + e.delta
	if after < 0 {
		return nil, ErrInsufficientBalance
	}

	if e.delta < 0 {
		err = s.accountRepo.Deduct(ctx, tx, e.userID, -e.delta, account.Version)
	} else {
		err = s.accountRepo.Increase(ctx, tx, e.userID, e.delta, account.Version)
	}
	if err != nil {
		return nil, err
	}

	trans := &model.PointTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		UserID:        e.userID,
		Type:          e.txType,
		Amount:        e.delta,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceNo:   e.referenceNo,
		OperatorID:    e.operatorID,
		Description:   e.description,
	}
	if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := s.enqueue(ctx, tx, model.LedgerEvent{
		EventType:     e.event,
		UserID:        e.userID,
		Amount:        e.delta,
		BalanceAfter:  &after,
		TransactionNo: trans.TransactionNo,
		ReferenceNo:   e.referenceNo,
		OperatorID:    e.operatorID,
		OccurredAt:    time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	return trans, nil
}

// enqueue writes ev to the outbox in the caller's transaction.
func (s *LedgerService) enqueue(ctx context.Context, tx *gorm.DB, ev model.LedgerEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := &model.OutboxMessage{
		MessageKey: ev.Key(),
		Topic:      s.cfg.Kafka.Topic.LedgerEvents,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}
	return nil
}

// ============================================================================
// Direct balance mutations
// ============================================================================

// RecordSpend debits amount if the balance covers it.
func (s *LedgerService) RecordSpend(ctx context.Context, userID, amount int64, description string) (*model.PointTransaction, error) {
	if amount <= 0 {
		return nil, translate("record spend", ErrInvalidAmount)
	}
	return s.mutate(ctx, "record spend", entry{
		userID:      userID,
		delta:       -amount,
		txType:      model.TransactionTypeSpend,
		description: description,
		event:       model.EventPointsSpent,
	})
}

// RecordEarn credits amount.
func (s *LedgerService) RecordEarn(ctx context.Context, userID, amount int64, description string) (*model.PointTransaction, error) {
	if amount <= 0 {
		return nil, translate("record earn", ErrInvalidAmount)
	}
	return s.mutate(ctx, "record earn", entry{
		userID:      userID,
		delta:       amount,
		txType:      model.TransactionTypeEarn,
		description: description,
		event:       model.EventPointsEarned,
	})
}

// AdminAdjust applies a signed, non-zero correction. A negative adjustment
// larger than the balance fails with ErrInsufficientBalance.
func (s *LedgerService) AdminAdjust(ctx context.Context, userID, signedAmount, adminID int64, description string) (*model.PointTransaction, error) {
	if signedAmount == 0 {
		return nil, translate("admin adjust", ErrInvalidAmount)
	}
	return s.mutate(ctx, "admin adjust", entry{
		userID:      userID,
		delta:       signedAmount,
		txType:      model.TransactionTypeAdminAdjust,
		operatorID:  &adminID,
		description: description,
		event:       model.EventPointsAdjusted,
	})
}

func (s *LedgerService) mutate(ctx context.Context, op string, e entry) (*model.PointTransaction, error) {
	var trans *model.PointTransaction
	err := s.withLock(ctx, lock.UserKey(e.userID), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			trans, err = s.post(ctx, tx, e)
			return err
		})
	})
	if err != nil {
		log.Warn().Err(err).
			Str("op", op).
			Int64("user_id", e.userID).
			Int64("amount", e.delta).
			Msg("ledger mutation rejected")
		return nil, translate(op, err)
	}

	log.Info().
		Str("op", op).
		Int64("user_id", e.userID).
		Int64("amount", e.delta).
		Int64("balance_after", trans.BalanceAfter).
		Str("transaction_no", trans.TransactionNo).
		Msg("ledger entry posted")
	return trans, nil
}
