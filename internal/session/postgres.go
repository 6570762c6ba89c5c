package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/dbc-connect/internal/database"
)

// PostgresStore keeps sessions in the sessions table
type PostgresStore struct {
	queries *database.Queries
	ttl     time.Duration
}

func NewPostgresStore(queries *database.Queries, ttl time.Duration) *PostgresStore {
	return &PostgresStore{queries: queries, ttl: ttl}
}

func (s *PostgresStore) Create(ctx context.Context, st *State) (*State, error) {
	created, err := newState(st, time.Now().UTC(), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create session id: %w", err)
	}

	row, err := s.queries.CreateSession(ctx, database.CreateSessionParams{
		ID:         created.ID,
		AccountID:  created.AccountID,
		Abn:        created.ABN,
		Token:      created.Token,
		Claims:     created.Claims,
		UserUrn:    created.UserURN,
		CustomerID: created.CustomerID,
		ExpiresAt:  created.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return fromRow(row), nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*State, error) {
	row, err := s.queries.GetSession(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return fromRow(row), nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.queries.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Purge(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return n, nil
}

func fromRow(row database.Session) *State {
	return &State{
		ID:         row.ID,
		AccountID:  row.AccountID,
		ABN:        row.Abn,
		Token:      row.Token,
		Claims:     row.Claims,
		UserURN:    row.UserUrn,
		CustomerID: row.CustomerID,
		CreatedAt:  row.CreatedAt,
		ExpiresAt:  row.ExpiresAt,
	}
}
