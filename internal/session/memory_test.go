package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }

	created, err := store.Create(ctx, &State{
		ABN:     "51824753556",
		Token:   "raw-token",
		Claims:  json.RawMessage(`{"abn":"51824753556"}`),
		UserURN: "urn:oasis:names:tc:ebcore:partyid-type:iso6523:0151::51824753556",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected a session id")
	}
	if !created.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", created.ExpiresAt, now.Add(time.Hour))
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserToken() != "raw-token" {
		t.Errorf("UserToken() = %s", got.UserToken())
	}
	if got.ParticipantID() != participant.ToURN("51824753556") {
		t.Errorf("ParticipantID() = %s", got.ParticipantID())
	}

	// expiry
	now = now.Add(time.Hour)
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired session, got %v", err)
	}
	n, err := store.Purge(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Purge() = %d, %v, want 1, nil", n, err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	created, err := store.Create(ctx, &State{ABN: "51824753556"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, uuid.New()); err != nil {
		t.Fatalf("deleting an unknown session should not fail: %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	created, _ := store.Create(ctx, &State{ABN: "51824753556"})
	created.ABN = "changed"

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ABN != "51824753556" {
		t.Errorf("stored session was modified through the returned value")
	}
}
