package service

import (
	"context"
	"errors"
	"fmt"

	"pointledger/internal/model"
	"pointledger/internal/repository"
)

// TransactionFilter narrows SearchTransactions.
type TransactionFilter = repository.TransactionFilter

// PendingRequests is one page of the admin review queue for a request kind.
// Only the slice matching Kind is populated.
type PendingRequests struct {
	Kind        model.RequestKind             `json:"kind"`
	Charges     []*model.PointChargeRequest   `json:"charges,omitempty"`
	Withdrawals []*model.PointWithdrawRequest `json:"withdrawals,omitempty"`
	Total       int64                         `json:"total"`
	Page        int                           `json:"page"`
	PageSize    int                           `json:"page_size"`
}

// BalanceCheck compares the cached balance with the ledger sum.
type BalanceCheck struct {
	UserID     int64 `json:"user_id"`
	Balance    int64 `json:"balance"`
	LedgerSum  int64 `json:"ledger_sum"`
	Consistent bool  `json:"consistent"`
}

// GetBalance returns 0 for users that never touched the ledger.
func (s *LedgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return account.Balance, nil
}

// ListTransactions returns the user's ledger, newest first, and the total count.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, p Pagination) ([]*model.PointTransaction, int64, error) {
	p = s.Normalize(p)
	list, total, err := s.transactionRepo.ListByUserID(ctx, userID, p.Page, p.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return list, total, nil
}

// SearchTransactions is the admin view over all users' ledger rows.
func (s *LedgerService) SearchTransactions(ctx context.Context, filter TransactionFilter, p Pagination) ([]*model.PointTransaction, int64, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, translate("search transactions", fmt.Errorf("transaction type %q: %w", filter.Type, ErrInvalidArgument))
	}
	p = s.Normalize(p)
	list, total, err := s.transactionRepo.Search(ctx, filter, p.Page, p.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("search transactions: %w", err)
	}
	return list, total, nil
}

// ListPendingRequests returns the oldest pending requests of one kind first.
func (s *LedgerService) ListPendingRequests(ctx context.Context, kind model.RequestKind, p Pagination) (*PendingRequests, error) {
	p = s.Normalize(p)
	out := &PendingRequests{Kind: kind, Page: p.Page, PageSize: p.PageSize}

	var err error
	switch kind {
	case model.RequestKindCharge:
		out.Charges, out.Total, err = s.chargeRepo.ListByStatus(ctx, model.RequestStatusPending, p.Page, p.PageSize)
	case model.RequestKindWithdraw:
		out.Withdrawals, out.Total, err = s.withdrawRepo.ListByStatus(ctx, model.RequestStatusPending, p.Page, p.PageSize)
	default:
		return nil, translate("list pending requests", fmt.Errorf("%q: %w", kind, ErrUnsupportedKind))
	}
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return out, nil
}

func (s *LedgerService) ListUserChargeRequests(ctx context.Context, userID int64, p Pagination) ([]*model.PointChargeRequest, int64, error) {
	p = s.Normalize(p)
	list, total, err := s.chargeRepo.ListByUserID(ctx, userID, p.Page, p.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list charge requests: %w", err)
	}
	return list, total, nil
}

func (s *LedgerService) ListUserWithdrawRequests(ctx context.Context, userID int64, p Pagination) ([]*model.PointWithdrawRequest, int64, error) {
	p = s.Normalize(p)
	list, total, err := s.withdrawRepo.ListByUserID(ctx, userID, p.Page, p.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list withdraw requests: %w", err)
	}
	return list, total, nil
}

// ListRequestTransactions returns the ledger rows posted for one charge or
// withdraw request number. An approved request has exactly one.
func (s *LedgerService) ListRequestTransactions(ctx context.Context, requestNo string) ([]*model.PointTransaction, error) {
	if requestNo == "" {
		return nil, translate("list request transactions", fmt.Errorf("request number: %w", ErrInvalidArgument))
	}
	list, err := s.transactionRepo.ListByReferenceNo(ctx, requestNo)
	if err != nil {
		return nil, fmt.Errorf("list request transactions: %w", err)
	}
	return list, nil
}

// VerifyBalance recomputes the ledger sum for userID.
func (s *LedgerService) VerifyBalance(ctx context.Context, userID int64) (*BalanceCheck, error) {
	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.transactionRepo.SumByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}
	return &BalanceCheck{
		UserID:     userID,
		Balance:    balance,
		LedgerSum:  sum,
		Consistent: balance == sum,
	}, nil
}
