package protocol

import "testing"

// TestDecryptLegacyCharListToken ensures the canonical legacy request decodes.
func TestDecryptLegacyCharListToken(t *testing.T) {
	plain, err := Decrypt("615810BC07D12A5A")
	if err != nil {
		t.Fatalf("Decrypt returned error: %v", err)
	}
	if plain != "askchar2" {
		t.Fatalf("Decrypt = %q, want %q", plain, "askchar2")
	}
}

// TestEncryptDecryptRoundTrip ensures the transform inverts over printable input.
func TestEncryptDecryptRoundTrip(t *testing.T) {
	inputs := []string{
		"HI",
		"askchar2",
		"CT#name#hello world",
		"a",
		"",
		"0123456789#%&()",
	}
	for _, input := range inputs {
		got, err := Decrypt(Encrypt(input))
		if err != nil {
			t.Fatalf("Decrypt(Encrypt(%q)) returned error: %v", input, err)
		}
		if got != input {
			t.Fatalf("round trip of %q = %q", input, got)
		}
	}
}

// TestDecryptAcceptsBothHexCases ensures upper and lower case hex decode alike.
func TestDecryptAcceptsBothHexCases(t *testing.T) {
	upper, err := Decrypt("615810BC07D12A5A")
	if err != nil {
		t.Fatalf("upper: %v", err)
	}
	lower, err := Decrypt("615810bc07d12a5a")
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if upper != lower {
		t.Fatalf("case mismatch: %q vs %q", upper, lower)
	}
}

// TestDecryptRejectsNonHex ensures malformed ciphertext reports an error.
func TestDecryptRejectsNonHex(t *testing.T) {
	if _, err := Decrypt("zz"); err == nil {
		t.Fatal("expected error for non-hex input")
	}
}
