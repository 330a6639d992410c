package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", "points-ledger", time.Minute)

	token, err := svc.Issue(Identity{UserID: 12, Role: RoleSeller})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != 12 || id.Role != RoleSeller {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestVerifyRejects(t *testing.T) {
	svc := NewTokenService("secret", "points-ledger", time.Minute)

	expired, _ := NewTokenService("secret", "points-ledger", -time.Minute).Issue(Identity{UserID: 1, Role: RoleBuyer})
	if _, err := svc.Verify(expired); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expired: got %v", err)
	}

	foreign, _ := NewTokenService("other", "points-ledger", time.Minute).Issue(Identity{UserID: 1, Role: RoleBuyer})
	if _, err := svc.Verify(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: got %v", err)
	}

	otherIssuer, _ := NewTokenService("secret", "someone-else", time.Minute).Issue(Identity{UserID: 1, Role: RoleBuyer})
	if _, err := svc.Verify(otherIssuer); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong issuer: got %v", err)
	}

	badRole, _ := svc.Issue(Identity{UserID: 1, Role: "root"})
	if _, err := svc.Verify(badRole); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown role: got %v", err)
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, Role: RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := svc.Verify(none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("alg none: got %v", err)
	}

	if _, err := svc.Verify("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: got %v", err)
	}
}

func TestHasRole(t *testing.T) {
	admin := Identity{UserID: 1, Role: RoleAdmin}
	buyer := Identity{UserID: 2, Role: RoleBuyer}

	if !HasRole(admin, RoleAdmin) {
		t.Fatal("admin must have admin role")
	}
	if HasRole(buyer, RoleAdmin) {
		t.Fatal("buyer must not have admin role")
	}
	if !HasRole(buyer, RoleSeller, RoleBuyer) {
		t.Fatal("any listed role must match")
	}
	if HasRole(buyer) {
		t.Fatal("no roles never match")
	}
}
