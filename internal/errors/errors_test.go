package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

// TestErrorIsMatchesByCode ensures errors.Is matching works across instances.
func TestErrorIsMatchesByCode(t *testing.T) {
	base := New(CodeAreaLocked, "that area is locked")
	other := New(CodeAreaLocked, "different text, same code")
	if !stderrors.Is(other, base) {
		t.Fatalf("expected errors with equal codes to match")
	}
	mismatch := New(CodeClientMuted, "muted")
	if stderrors.Is(mismatch, base) {
		t.Fatalf("expected errors with different codes not to match")
	}
}

// TestWrapPreservesCause ensures the cause survives unwrap.
func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeStorage, "write banlist", cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "write banlist" {
		t.Fatalf("Error() = %q, want %q", err.Error(), "write banlist")
	}
}

// TestKindOfBucketsCodes ensures each code family maps to its notice kind.
func TestKindOfBucketsCodes(t *testing.T) {
	tcs := []struct {
		code Code
		want Kind
	}{
		{CodeClientNotAuthorized, KindClient},
		{CodeClientMuted, KindClient},
		{CodeAreaLocked, KindArea},
		{CodeAreaBadPenaltyBar, KindArea},
		{CodeArgumentMissing, KindArgument},
		{CodeArgumentExtra, KindArgument},
		{CodeSongNotFound, KindServer},
		{CodeUnknown, KindServer},
	}
	for _, tc := range tcs {
		if got := tc.code.Kind(); got != tc.want {
			t.Fatalf("Kind(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

// TestKindOfNonDomainError ensures plain errors fall back to server kind.
func TestKindOfNonDomainError(t *testing.T) {
	if got := KindOf(fmt.Errorf("plain")); got != KindServer {
		t.Fatalf("KindOf(plain) = %v, want KindServer", got)
	}
}
