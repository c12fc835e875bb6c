package apperr

import (
	"errors"
	"strings"
	"testing"
)

func TestWrappersMatchSentinels(t *testing.T) {
	if err := IllegalArgument("field %q is bad", "name"); !errors.Is(err, ErrIllegalArgument) {
		t.Errorf("IllegalArgument does not match its sentinel: %v", err)
	}
	if err := Conflict("name taken"); !errors.Is(err, ErrConflict) {
		t.Errorf("Conflict does not match its sentinel: %v", err)
	}
	if got := IllegalArgument("field %q is bad", "name").Error(); !strings.Contains(got, `"name"`) {
		t.Errorf("message %q lost its detail", got)
	}
}

func TestInternal(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("session.login", cause)
	if !errors.Is(err, cause) {
		t.Error("Internal must unwrap to its cause for logging")
	}
	if strings.Contains(err.Error(), "connection refused") {
		t.Errorf("message %q leaks the cause", err.Error())
	}
	if Internal("op", nil) != nil {
		t.Error("Internal(nil) must be nil")
	}
	if IsDomain(err) {
		t.Error("internal failures are not domain errors")
	}
}

func TestIsDomain(t *testing.T) {
	for _, err := range []error{ErrIllegalArgument, ErrAccessDenied, ErrNotFound, ErrConflict, Conflict("x")} {
		if !IsDomain(err) {
			t.Errorf("IsDomain(%v) = false, want true", err)
		}
	}
	if IsDomain(errors.New("plain")) {
		t.Error("IsDomain(plain error) = true, want false")
	}
}
