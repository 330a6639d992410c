package model

import "testing"

func TestRequestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestStatusPending, RequestStatusApproved, true},
		{RequestStatusPending, RequestStatusRejected, true},
		{RequestStatusPending, RequestStatusPending, false},
		{RequestStatusApproved, RequestStatusRejected, false},
		{RequestStatusApproved, RequestStatusApproved, false},
		{RequestStatusRejected, RequestStatusApproved, false},
		{RequestStatus("unknown"), RequestStatusApproved, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	if RequestStatusPending.Terminal() {
		t.Fatal("pending must not be terminal")
	}
	if !RequestStatusApproved.Terminal() || !RequestStatusRejected.Terminal() {
		t.Fatal("approved and rejected must be terminal")
	}
}

func TestKindsAndTypesValidate(t *testing.T) {
	if !RequestKindCharge.Valid() || !RequestKindWithdraw.Valid() || RequestKind("refund").Valid() {
		t.Fatal("unexpected request kind validation")
	}
	if !TransactionTypeAdminAdjust.Valid() || TransactionType("bonus").Valid() {
		t.Fatal("unexpected transaction type validation")
	}
}
