package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRoleSet(t *testing.T) {
	s := NewRoleSet(RoleUser)
	if !s.Has(RoleUser) || s.Has(RoleAdmin) {
		t.Fatalf("unexpected membership: %v", s.Names())
	}
	if s.Intersects(NewRoleSet(RoleAdmin)) {
		t.Fatal("USER must not intersect ADMIN")
	}
	if !s.Add(RoleAdmin).Intersects(NewRoleSet(RoleAdmin)) {
		t.Fatal("ADMIN|USER must intersect ADMIN")
	}
	if got := NewRoleSet(RoleUser, RoleAdmin).Names(); len(got) != 2 || got[0] != "ADMIN" {
		t.Fatalf("Names() = %v", got)
	}
	if !RoleSet(0).IsEmpty() || RoleSet(0).Add(0) != 0 {
		t.Fatal("zero role must be ignored")
	}
}

func TestParseRoleName(t *testing.T) {
	if r, err := ParseRoleName(" admin "); err != nil || r != RoleAdmin {
		t.Fatalf("ParseRoleName(admin) = %v, %v", r, err)
	}
	if _, err := ParseRoleName("AUDITOR"); err == nil {
		t.Fatal("unknown role must fail")
	}
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{ErrEmailExists, KindConflict},
		{ErrEmailNotVerified, KindValidation},
		{ErrInvalidOTP, KindValidation},
		{ErrDeviceMismatch, KindUnauthorized},
		{fmt.Errorf("wrapped: %w", ErrForbidden), KindForbidden},
		{ErrUserNotFound, KindNotFound},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.kind {
			t.Errorf("KindOf(%v) = %s, want %s", tc.err, got, tc.kind)
		}
	}

	if !errors.Is(ErrEmailExists, ErrConflict) {
		t.Fatal("ErrEmailExists must refine ErrConflict")
	}
	for _, err := range []error{ErrNoToken, ErrInvalidToken, ErrSessionInactive, ErrSessionMismatch, ErrDeviceMismatch} {
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%v must refine ErrUnauthorized", err)
		}
	}
}

func TestGateReason(t *testing.T) {
	if GateReason(ErrDeviceMismatch) != "device_mismatch" || GateReason(errors.New("x")) != "other" {
		t.Fatal("unexpected gate reason")
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("  curl/8.0 \n") != "curl/8.0" {
		t.Fatal("fingerprint must be trimmed")
	}
	long := strings.Repeat("a", 400)
	if got := Fingerprint(long); len(got) != maxFingerprintLen {
		t.Fatalf("len = %d, want %d", len(got), maxFingerprintLen)
	}
}

func TestPageOffset(t *testing.T) {
	if (Page{Number: 3, Limit: 10}).Offset() != 20 || (Page{Number: 0, Limit: 10}).Offset() != 0 {
		t.Fatal("unexpected offset")
	}
}
