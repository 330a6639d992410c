package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pointledger/internal/infrastructure/lock"
	"pointledger/internal/model"
	"pointledger/internal/repository"
	"pointledger/pkg/idgen"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SubmitWithdrawRequest files a pending payout request. The balance is only
// checked here when business.withdraw_precheck is on; approval always
// re-checks it.
func (s *LedgerService) SubmitWithdrawRequest(ctx context.Context, userID, amount int64, bankName, accountNum string) (*model.PointWithdrawRequest, error) {
	const op = "submit withdraw request"
	if amount <= 0 {
		return nil, translate(op, ErrInvalidAmount)
	}
	bankName = strings.TrimSpace(bankName)
	accountNum = strings.TrimSpace(accountNum)
	if bankName == "" || accountNum == "" {
		return nil, translate(op, fmt.Errorf("bank name and account number are required: %w", ErrInvalidArgument))
	}

	if s.cfg.Business.WithdrawPrecheck {
		balance, err := s.GetBalance(ctx, userID)
		if err != nil {
			return nil, translate(op, err)
		}
		if balance < amount {
			return nil, translate(op, ErrInsufficientBalance)
		}
	}

	req := &model.PointWithdrawRequest{
		RequestNo:  idgen.GenerateWithdrawNo(),
		UserID:     userID,
		Amount:     amount,
		BankName:   bankName,
		AccountNum: accountNum,
		Status:     model.RequestStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.withdrawRepo.Create(ctx, tx, req); err != nil {
			return fmt.Errorf("insert withdraw request: %w", err)
		}
		return s.enqueue(ctx, tx, model.LedgerEvent{
			EventType:   model.EventWithdrawRequested,
			UserID:      userID,
			Amount:      amount,
			ReferenceNo: req.RequestNo,
			OccurredAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, translate(op, err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("amount", amount).
		Str("request_no", req.RequestNo).
		Msg("withdraw request submitted")
	return req, nil
}

// ApproveWithdrawRequest re-checks the balance under lock, then approves and
// debits in one transaction. On ErrInsufficientBalance the request stays
// pending so it can be retried or rejected.
func (s *LedgerService) ApproveWithdrawRequest(ctx context.Context, requestID, adminID int64) (*ApprovalResult, error) {
	const op = "approve withdraw request"
	var result *ApprovalResult

	err := s.withLock(ctx, lock.RequestKey(string(model.RequestKindWithdraw), requestID), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			req, err := s.withdrawRepo.GetByIDForUpdate(ctx, tx, requestID)
			if err != nil {
				return err
			}
			if !req.Status.CanTransitionTo(model.RequestStatusApproved) {
				return fmt.Errorf("request %s is %s: %w", req.RequestNo, req.Status, ErrInvalidState)
			}

			trans, err := s.post(ctx, tx, entry{
				userID:      req.UserID,
				delta:       -req.Amount,
				txType:      model.TransactionTypeWithdraw,
				referenceNo: req.RequestNo,
				operatorID:  &adminID,
				description: fmt.Sprintf("withdraw to %s %s", req.BankName, req.AccountNum),
				event:       model.EventWithdrawApproved,
			})
			if err != nil {
				return err
			}

			now := time.Now()
			if err := s.withdrawRepo.UpdateStatus(ctx, tx, req.ID, repository.Transition{
				From: model.RequestStatusPending,
				To:   model.RequestStatusApproved,
				By:   adminID,
				At:   now,
			}); err != nil {
				return err
			}

			result = &ApprovalResult{
				Kind:        model.RequestKindWithdraw,
				RequestID:   req.ID,
				RequestNo:   req.RequestNo,
				UserID:      req.UserID,
				Amount:      req.Amount,
				Status:      model.RequestStatusApproved,
				ProcessedAt: now,
				Transaction: trans,
				Balance:     trans.BalanceAfter,
			}
			return nil
		})
	})
	if err != nil {
		log.Warn().Err(err).Int64("request_id", requestID).Int64("admin_id", adminID).Msg("withdraw approval failed")
		return nil, translate(op, err)
	}

	log.Info().
		Int64("request_id", requestID).
		Str("request_no", result.RequestNo).
		Int64("user_id", result.UserID).
		Int64("amount", result.Amount).
		Int64("admin_id", adminID).
		Msg("withdraw request approved")
	return result, nil
}

// RejectWithdrawRequest moves a pending request to rejected. No balance effect.
func (s *LedgerService) RejectWithdrawRequest(ctx context.Context, requestID, adminID int64, reason string) (*model.PointWithdrawRequest, error) {
	const op = "reject withdraw request"
	var req *model.PointWithdrawRequest

	err := s.withLock(ctx, lock.RequestKey(string(model.RequestKindWithdraw), requestID), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			req, err = s.withdrawRepo.GetByIDForUpdate(ctx, tx, requestID)
			if err != nil {
				return err
			}
			if !req.Status.CanTransitionTo(model.RequestStatusRejected) {
				return fmt.Errorf("request %s is %s: %w", req.RequestNo, req.Status, ErrInvalidState)
			}

			now := time.Now()
			if err := s.withdrawRepo.UpdateStatus(ctx, tx, req.ID, repository.Transition{
				From:   model.RequestStatusPending,
				To:     model.RequestStatusRejected,
				By:     adminID,
				Reason: reason,
				At:     now,
			}); err != nil {
				return err
			}
			req.Status = model.RequestStatusRejected
			req.ProcessedBy = &adminID
			req.ProcessedAt = &now
			req.RejectReason = reason

			return s.enqueue(ctx, tx, model.LedgerEvent{
				EventType:   model.EventWithdrawRejected,
				UserID:      req.UserID,
				Amount:      req.Amount,
				ReferenceNo: req.RequestNo,
				OperatorID:  &adminID,
				OccurredAt:  now.UTC(),
			})
		})
	})
	if err != nil {
		return nil, translate(op, err)
	}

	log.Info().Int64("request_id", requestID).Str("request_no", req.RequestNo).Int64("admin_id", adminID).Msg("withdraw request rejected")
	return req, nil
}
