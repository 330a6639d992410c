package model

import (
	"time"
)

// ============================================================================
// Ledger entry types
// ============================================================================

type TransactionType string

const (
	TransactionTypeCharge      TransactionType = "charge"       // approved charge request
	TransactionTypeEarn        TransactionType = "earn"         // system credit (sales, rewards)
	TransactionTypeSpend       TransactionType = "spend"        // immediate debit (order payment)
	TransactionTypeWithdraw    TransactionType = "withdraw"     // approved withdraw request
	TransactionTypeAdminAdjust TransactionType = "admin_adjust" // manual correction
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeCharge, TransactionTypeEarn, TransactionTypeSpend,
		TransactionTypeWithdraw, TransactionTypeAdminAdjust:
		return true
	}
	return false
}

// ============================================================================
// Ledger entry
// ============================================================================

// PointTransaction is one immutable ledger row.
//
// Rules:
//  1. Append only. Rows are never updated or deleted.
//  2. Amount is signed: credits positive, debits negative.
//  3. BalanceBefore/BalanceAfter let every row be checked on its own.
type PointTransaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	Type          TransactionType `gorm:"type:varchar(20);index;not null" json:"type"`
	Amount        int64           `gorm:"not null" json:"amount"`
	BalanceBefore int64           `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64           `gorm:"not null" json:"balance_after"`
	ReferenceNo   string          `gorm:"type:varchar(64);index" json:"reference_no,omitempty"` // charge/withdraw request no
	OperatorID    *int64          `json:"operator_id,omitempty"`                                // admin who caused the entry
	Description   string          `gorm:"type:varchar(256)" json:"description,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (PointTransaction) TableName() string {
	return "point_transaction"
}

// SignedAmount is the balance delta this entry contributes.
func (t *PointTransaction) SignedAmount() int64 {
	return t.Amount
}
