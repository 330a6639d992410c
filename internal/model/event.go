package model

import (
	"strconv"
	"time"
)

type EventType string

const (
	EventChargeRequested   EventType = "points.charge_requested"
	EventChargeApproved    EventType = "points.charge_approved"
	EventChargeRejected    EventType = "points.charge_rejected"
	EventWithdrawRequested EventType = "points.withdraw_requested"
	EventWithdrawApproved  EventType = "points.withdraw_approved"
	EventWithdrawRejected  EventType = "points.withdraw_rejected"
	EventPointsSpent       EventType = "points.spent"
	EventPointsEarned      EventType = "points.earned"
	EventPointsAdjusted    EventType = "points.adjusted"
)

// LedgerEvent is the JSON payload of an outbox message.
type LedgerEvent struct {
	EventType     EventType `json:"event_type"`
	UserID        int64     `json:"user_id"`
	Amount        int64     `json:"amount"`
	BalanceAfter  *int64    `json:"balance_after,omitempty"`
	TransactionNo string    `json:"transaction_no,omitempty"`
	ReferenceNo   string    `json:"reference_no,omitempty"`
	OperatorID    *int64    `json:"operator_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Key partitions events per user so consumers see one user's events in order.
func (e LedgerEvent) Key() string {
	return strconv.FormatInt(e.UserID, 10)
}
