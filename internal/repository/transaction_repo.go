package repository

import (
	"context"

	"pointledger/internal/model"

	"gorm.io/gorm"
)

// TransactionFilter narrows the admin transaction search. Zero values match all.
type TransactionFilter struct {
	UserID int64
	Type   model.TransactionType
}

// TransactionRepository has no update or delete: ledger rows are append-only.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.PointTransaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

// ListByReferenceNo returns the entries produced by one charge/withdraw request.
func (r *TransactionRepository) ListByReferenceNo(ctx context.Context, referenceNo string) ([]*model.PointTransaction, error) {
	var transactions []*model.PointTransaction
	err := r.db.WithContext(ctx).
		Where("reference_no = ?", referenceNo).
		Order("id ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.PointTransaction, int64, error) {
	return r.Search(ctx, TransactionFilter{UserID: userID}, page, pageSize)
}

// Search lists newest first.
func (r *TransactionRepository) Search(ctx context.Context, filter TransactionFilter, page, pageSize int) ([]*model.PointTransaction, int64, error) {
	var transactions []*model.PointTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PointTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = paginate(query.Order("created_at DESC").Order("id DESC"), page, pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// SumByUserID is the balance implied by the ledger alone.
func (r *TransactionRepository) SumByUserID(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}
