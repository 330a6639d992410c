package repository

import (
	"context"
	"errors"
	"time"

	"pointledger/internal/infrastructure/database"
	"pointledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrStatusInvalid   = errors.New("request status invalid")
)

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if database.SupportsRowLocks(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Transition describes one status change of a charge or withdraw request.
type Transition struct {
	From   model.RequestStatus
	To     model.RequestStatus
	By     int64
	Reason string
	At     time.Time
}

func (t Transition) updates() map[string]interface{} {
	updates := map[string]interface{}{
		"status":       t.To,
		"processed_by": t.By,
		"processed_at": t.At,
	}
	if t.To == model.RequestStatusRejected {
		updates["reject_reason"] = t.Reason
	}
	return updates
}

// transition is the guarded UPDATE shared by both request tables: it only
// matches a row still in t.From, so a lost race shows up as zero rows.
func transition(ctx context.Context, tx *gorm.DB, m interface{}, id int64, t Transition, updates map[string]interface{}) error {
	if !t.From.CanTransitionTo(t.To) {
		return ErrStatusInvalid
	}

	result := tx.WithContext(ctx).
		Model(m).
		Where("id = ? AND status = ?", id, t.From).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrStatusInvalid
	}

	return nil
}

func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRequestNotFound
	}
	return err
}
