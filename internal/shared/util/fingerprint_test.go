package util

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint([]byte("statement body"), "bank_statement")
	b := Fingerprint([]byte("statement body"), "bank_statement")
	if a != b {
		t.Fatalf("identical input produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestFingerprintTypeSensitive(t *testing.T) {
	content := []byte("same bytes")
	if Fingerprint(content, "invoice") == Fingerprint(content, "bank_statement") {
		t.Fatal("different document types must yield different fingerprints")
	}
}

func TestFingerprintContentSensitive(t *testing.T) {
	if Fingerprint([]byte("a"), "invoice") == Fingerprint([]byte("b"), "invoice") {
		t.Fatal("different content must yield different fingerprints")
	}
}
