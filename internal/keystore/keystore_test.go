package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

func TestFileStorePublicKey(t *testing.T) {
	dir := t.TempDir()
	key := []byte("-----BEGIN PUBLIC KEY-----\nabc\n-----END PUBLIC KEY-----\n")
	if err := os.WriteFile(filepath.Join(dir, "public_51824753556.key"), key, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "public_11111111111.key"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(dir)

	t.Run("existing key", func(t *testing.T) {
		got, err := store.PublicKey("51824753556")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != string(key) {
			t.Errorf("PublicKey() = %q, want %q", got, key)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := store.PublicKey("99999999999")
		if !errors.Is(err, ErrKeyNotFound) {
			t.Fatalf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("empty key file", func(t *testing.T) {
		_, err := store.PublicKey("11111111111")
		if !errors.Is(err, ErrKeyNotFound) {
			t.Fatalf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("invalid business number", func(t *testing.T) {
		_, err := store.PublicKey("../secret")
		if !errors.Is(err, participant.ErrInvalidBusinessNumber) {
			t.Fatalf("expected ErrInvalidBusinessNumber, got %v", err)
		}
	})
}

func TestFingerprint(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Fingerprint([]byte("abc")); got != want {
		t.Errorf("Fingerprint() = %s, want %s", got, want)
	}
}
