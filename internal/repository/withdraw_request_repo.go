package repository

import (
	"context"

	"pointledger/internal/model"

	"gorm.io/gorm"
)

type WithdrawRequestRepository struct {
	db *gorm.DB
}

func NewWithdrawRequestRepository(db *gorm.DB) *WithdrawRequestRepository {
	return &WithdrawRequestRepository{db: db}
}

func (r *WithdrawRequestRepository) Create(ctx context.Context, tx *gorm.DB, req *model.PointWithdrawRequest) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(req).Error
}

func (r *WithdrawRequestRepository) GetByID(ctx context.Context, id int64) (*model.PointWithdrawRequest, error) {
	var req model.PointWithdrawRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *WithdrawRequestRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.PointWithdrawRequest, error) {
	var req model.PointWithdrawRequest
	if err := forUpdate(tx.WithContext(ctx)).First(&req, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *WithdrawRequestRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, t Transition) error {
	return transition(ctx, tx, &model.PointWithdrawRequest{}, id, t, t.updates())
}

func (r *WithdrawRequestRepository) ListByStatus(ctx context.Context, status model.RequestStatus, page, pageSize int) ([]*model.PointWithdrawRequest, int64, error) {
	var reqs []*model.PointWithdrawRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PointWithdrawRequest{}).Where("status = ?", status)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.Order("requested_at ASC").Order("id ASC"), page, pageSize).Find(&reqs).Error
	return reqs, total, err
}

func (r *WithdrawRequestRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.PointWithdrawRequest, int64, error) {
	var reqs []*model.PointWithdrawRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PointWithdrawRequest{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.Order("requested_at DESC").Order("id DESC"), page, pageSize).Find(&reqs).Error
	return reqs, total, err
}
