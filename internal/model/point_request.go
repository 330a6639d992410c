package model

import (
	"time"
)

// RequestKind distinguishes the two approval-gated request tables.
type RequestKind string

const (
	RequestKindCharge   RequestKind = "charge"
	RequestKindWithdraw RequestKind = "withdraw"
)

func (k RequestKind) Valid() bool {
	return k == RequestKindCharge || k == RequestKindWithdraw
}

// RequestStatus is shared by charge and withdraw requests.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// ValidRequestTransitions: pending is the only non-terminal status.
var ValidRequestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending: {RequestStatusApproved, RequestStatusRejected},
}

func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	allowed, exists := ValidRequestTransitions[s]
	if !exists {
		return false
	}
	for _, next := range allowed {
		if next == target {
			return true
		}
	}
	return false
}

func (s RequestStatus) Terminal() bool {
	_, exists := ValidRequestTransitions[s]
	return !exists
}

// PointChargeRequest asks an administrator to credit points.
type PointChargeRequest struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestNo    string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_no"`
	UserID       int64         `gorm:"index;not null" json:"user_id"`
	Amount       int64         `gorm:"not null" json:"amount"`
	Status       RequestStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	ProcessedBy  *int64        `json:"processed_by,omitempty"`
	RejectReason string        `gorm:"type:varchar(256)" json:"reject_reason,omitempty"`
	RequestedAt  time.Time     `gorm:"autoCreateTime;index" json:"requested_at"`
	ApprovedAt   *time.Time    `json:"approved_at,omitempty"`
	ProcessedAt  *time.Time    `json:"processed_at,omitempty"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PointChargeRequest) TableName() string {
	return "point_charge_request"
}

// PointWithdrawRequest asks an administrator to pay points out to a bank account.
type PointWithdrawRequest struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestNo    string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_no"`
	UserID       int64         `gorm:"index;not null" json:"user_id"`
	Amount       int64         `gorm:"not null" json:"amount"`
	BankName     string        `gorm:"type:varchar(64);not null" json:"bank_name"`
	AccountNum   string        `gorm:"type:varchar(64);not null" json:"account_num"`
	Status       RequestStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	ProcessedBy  *int64        `json:"processed_by,omitempty"`
	RejectReason string        `gorm:"type:varchar(256)" json:"reject_reason,omitempty"`
	RequestedAt  time.Time     `gorm:"autoCreateTime;index" json:"requested_at"`
	ProcessedAt  *time.Time    `json:"processed_at,omitempty"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PointWithdrawRequest) TableName() string {
	return "point_withdraw_request"
}
