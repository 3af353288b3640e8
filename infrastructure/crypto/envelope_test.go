package crypto

import "testing"

func testMasterKey() []byte {
	key := make([]byte, MasterKeyLength)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptDecryptEnvelopeRoundTrip(t *testing.T) {
	masterKey := testMasterKey()
	subject := []byte("Tanhai")
	plaintext := []byte("refresh-token-secret")

	ciphertext, err := EncryptEnvelope(masterKey, subject, "oauth_refresh_token", plaintext)
	if err != nil {
		t.Fatalf("EncryptEnvelope: %v", err)
	}

	got, err := DecryptEnvelope(masterKey, subject, "oauth_refresh_token", ciphertext)
	if err != nil {
		t.Fatalf("DecryptEnvelope: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestDecryptEnvelopeWrongSubjectFails(t *testing.T) {
	masterKey := testMasterKey()
	plaintext := []byte("refresh-token-secret")

	ciphertext, err := EncryptEnvelope(masterKey, []byte("Tanhai"), "oauth_refresh_token", plaintext)
	if err != nil {
		t.Fatalf("EncryptEnvelope: %v", err)
	}

	if _, err := DecryptEnvelope(masterKey, []byte("Ankeng"), "oauth_refresh_token", ciphertext); err == nil {
		t.Fatal("expected decrypt failure under a different subject, got nil error")
	}
}

func TestDecryptEnvelopeWrongKeyFails(t *testing.T) {
	masterKey := testMasterKey()
	subject := []byte("Tanhai")
	plaintext := []byte("refresh-token-secret")

	ciphertext, err := EncryptEnvelope(masterKey, subject, "oauth_refresh_token", plaintext)
	if err != nil {
		t.Fatalf("EncryptEnvelope: %v", err)
	}

	otherKey := make([]byte, MasterKeyLength)
	copy(otherKey, masterKey)
	otherKey[0] ^= 0xFF

	if _, err := DecryptEnvelope(otherKey, subject, "oauth_refresh_token", ciphertext); err == nil {
		t.Fatal("expected decrypt failure under a different master key, got nil error")
	}
}

func TestEncryptEnvelopeEmptyPlaintext(t *testing.T) {
	masterKey := testMasterKey()
	out, err := EncryptEnvelope(masterKey, []byte("Tanhai"), "oauth_refresh_token", nil)
	if err != nil {
		t.Fatalf("EncryptEnvelope: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil output for empty plaintext, got %q", out)
	}
}
