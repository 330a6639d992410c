package service

import (
	"context"
	"fmt"
	"time"

	"pointledger/internal/infrastructure/lock"
	"pointledger/internal/model"
	"pointledger/internal/repository"
	"pointledger/pkg/idgen"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ApprovalResult is returned by both approve operations.
type ApprovalResult struct {
	Kind        model.RequestKind       `json:"kind"`
	RequestID   int64                   `json:"request_id"`
	RequestNo   string                  `json:"request_no"`
	UserID      int64                   `json:"user_id"`
	Amount      int64                   `json:"amount"`
	Status      model.RequestStatus     `json:"status"`
	ProcessedAt time.Time               `json:"processed_at"`
	Transaction *model.PointTransaction `json:"transaction"`
	Balance     int64                   `json:"balance"`
}

// SubmitChargeRequest files a pending request to add points. The balance is
// untouched until an administrator approves it.
func (s *LedgerService) SubmitChargeRequest(ctx context.Context, userID, amount int64) (*model.PointChargeRequest, error) {
	if amount <= 0 {
		return nil, translate("submit charge request", ErrInvalidAmount)
	}

	req := &model.PointChargeRequest{
		RequestNo: idgen.GenerateChargeNo(),
		UserID:    userID,
		Amount:    amount,
		Status:    model.RequestStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.chargeRepo.Create(ctx, tx, req); err != nil {
			return fmt.Errorf("insert charge request: %w", err)
		}
		return s.enqueue(ctx, tx, model.LedgerEvent{
			EventType:   model.EventChargeRequested,
			UserID:      userID,
			Amount:      amount,
			ReferenceNo: req.RequestNo,
			OccurredAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, translate("submit charge request", err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("amount", amount).
		Str("request_no", req.RequestNo).
		Msg("charge request submitted")
	return req, nil
}

// ApproveChargeRequest moves a pending request to approved and credits the
// user, all in one transaction. A request that is no longer pending fails
// with ErrInvalidState, so retries never credit twice.
func (s *LedgerService) ApproveChargeRequest(ctx context.Context, requestID, adminID int64) (*ApprovalResult, error) {
	const op = "approve charge request"
	var result *ApprovalResult

	err := s.withLock(ctx, lock.RequestKey(string(model.RequestKindCharge), requestID), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			req, err := s.chargeRepo.GetByIDForUpdate(ctx, tx, requestID)
			if err != nil {
				return err
			}
			if !req.Status.CanTransitionTo(model.RequestStatusApproved) {
				return fmt.Errorf("request %s is %s: %w", req.RequestNo, req.Status, ErrInvalidState)
			}

			now := time.Now()
			if err := s.chargeRepo.UpdateStatus(ctx, tx, req.ID, repository.Transition{
				From: model.RequestStatusPending,
				To:   model.RequestStatusApproved,
				By:   adminID,
				At:   now,
			}); err != nil {
				return err
			}

			trans, err := s.post(ctx, tx, entry{
				userID:      req.UserID,
				delta:       req.Amount,
				txType:      model.TransactionTypeCharge,
				referenceNo: req.RequestNo,
				operatorID:  &adminID,
				description: "charge request " + req.RequestNo,
				event:       model.EventChargeApproved,
			})
			if err != nil {
				return err
			}

			result = &ApprovalResult{
				Kind:        model.RequestKindCharge,
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
		log.Warn().Err(err).Int64("request_id", requestID).Int64("admin_id", adminID).Msg("charge approval failed")
		return nil, translate(op, err)
	}

	log.Info().
		Int64("request_id", requestID).
		Str("request_no", result.RequestNo).
		Int64("user_id", result.UserID).
		Int64("amount", result.Amount).
		Int64("admin_id", adminID).
		Msg("charge request approved")
	return result, nil
}

// RejectChargeRequest moves a pending request to rejected. No balance effect.
func (s *LedgerService) RejectChargeRequest(ctx context.Context, requestID, adminID int64, reason string) (*model.PointChargeRequest, error) {
	const op = "reject charge request"
	var req *model.PointChargeRequest

	err := s.withLock(ctx, lock.RequestKey(string(model.RequestKindCharge), requestID), func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			req, err = s.chargeRepo.GetByIDForUpdate(ctx, tx, requestID)
			if err != nil {
				return err
			}
			if !req.Status.CanTransitionTo(model.RequestStatusRejected) {
				return fmt.Errorf("request %s is %s: %w", req.RequestNo, req.Status, ErrInvalidState)
			}

			now := time.Now()
			if err := s.chargeRepo.UpdateStatus(ctx, tx, req.ID, repository.Transition{
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
				EventType:   model.EventChargeRejected,
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

	log.Info().Int64("request_id", requestID).Str("request_no", req.RequestNo).Int64("admin_id", adminID).Msg("charge request rejected")
	return req, nil
}
