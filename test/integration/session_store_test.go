//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/information-sharing-networks/dbc-connect/internal/database"
	"github.com/information-sharing-networks/dbc-connect/internal/session"
)

func TestPostgresSessionStore(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDatabase(t)
	queries := database.New(pool)

	account, err := queries.CreateAccount(ctx, database.CreateAccountParams{
		Name:       testABN,
		Email:      testABN,
		CustomerID: "customer-1",
		Password:   "hash",
	})
	require.NoError(t, err)

	_, err = queries.CreateAccount(ctx, database.CreateAccountParams{Name: testABN, Email: testABN, CustomerID: "customer-2", Password: "hash"})
	assert.True(t, database.IsUniqueViolation(err), "second account for the same name must be rejected")

	state := &session.State{
		AccountID:  account.ID,
		ABN:        testABN,
		Token:      "user-token",
		Claims:     json.RawMessage(`{"abn":"51824753556"}`),
		UserURN:    "urn:oasis:names:tc:ebcore:partyid-type:iso6523:0151::51824753556",
		CustomerID: "customer-1",
	}

	t.Run("create and get", func(t *testing.T) {
		store := session.NewPostgresStore(queries, time.Hour)

		created, err := store.Create(ctx, state)
		require.NoError(t, err)

		got, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "user-token", got.Token)
		assert.JSONEq(t, `{"abn":"51824753556"}`, string(got.Claims))
		assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, time.Minute)

		require.NoError(t, store.Delete(ctx, created.ID))
		_, err = store.Get(ctx, created.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("expired sessions are not returned and are purged", func(t *testing.T) {
		store := session.NewPostgresStore(queries, -time.Minute)

		created, err := store.Create(ctx, state)
		require.NoError(t, err)

		_, err = store.Get(ctx, created.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)

		n, err := store.Purge(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
