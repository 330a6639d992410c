package repository

import (
	"context"

	"pointledger/internal/model"

	"gorm.io/gorm"
)

type ChargeRequestRepository struct {
	db *gorm.DB
}

func NewChargeRequestRepository(db *gorm.DB) *ChargeRequestRepository {
	return &ChargeRequestRepository{db: db}
}

func (r *ChargeRequestRepository) Create(ctx context.Context, tx *gorm.DB, req *model.PointChargeRequest) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(req).Error
}

func (r *ChargeRequestRepository) GetByID(ctx context.Context, id int64) (*model.PointChargeRequest, error) {
	var req model.PointChargeRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *ChargeRequestRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.PointChargeRequest, error) {
	var req model.PointChargeRequest
	if err := forUpdate(tx.WithContext(ctx)).First(&req, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// UpdateStatus applies t; approvals also stamp approved_at.
func (r *ChargeRequestRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, t Transition) error {
	updates := t.updates()
	if t.To == model.RequestStatusApproved {
		updates["approved_at"] = t.At
	}
	return transition(ctx, tx, &model.PointChargeRequest{}, id, t, updates)
}

// ListByStatus returns the oldest requests first, which is the review order.
func (r *ChargeRequestRepository) ListByStatus(ctx context.Context, status model.RequestStatus, page, pageSize int) ([]*model.PointChargeRequest, int64, error) {
	var reqs []*model.PointChargeRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PointChargeRequest{}).Where("status = ?", status)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.Order("requested_at ASC").Order("id ASC"), page, pageSize).Find(&reqs).Error
	return reqs, total, err
}

func (r *ChargeRequestRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.PointChargeRequest, int64, error) {
	var reqs []*model.PointChargeRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PointChargeRequest{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.Order("requested_at DESC").Order("id DESC"), page, pageSize).Find(&reqs).Error
	return reqs, total, err
}
