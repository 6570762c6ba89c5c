// Package session stores the server side state of a signed-in user.
//
// A session is created at login and holds everything the network clients need to act for the user:
// the bearer token, the business number the participant identifier is built from, and the
// canonical claim set. Session ids are random uuids sent to the browser in a cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

// ErrNotFound is returned for unknown and expired sessions
var ErrNotFound = errors.New("session not found")

// State is the session populated at login
type State struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`

	// ABN is the token's business number claim
	ABN string `json:"abn"`

	// Token is the raw bearer token presented at login
	Token string `json:"-"`

	// Claims is the token's claim set in canonical (RFC 8785) JSON
	Claims json.RawMessage `json:"claims"`

	// UserURN is derived from the party identifier claim
	UserURN    string `json:"user_urn"`
	CustomerID string `json:"customer_id"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserToken is the credential the network clients use for calls made on the user's behalf
func (s *State) UserToken() apiclient.UserToken {
	return apiclient.UserToken(s.Token)
}

// ParticipantID is the user's participant identifier (the ABN is validated at login)
func (s *State) ParticipantID() participant.ID {
	return participant.ToURN(s.ABN)
}

// Store persists sessions. Implementations must not return expired sessions.
type Store interface {
	// Create assigns the id and lifetime and saves the session
	Create(ctx context.Context, st *State) (*State, error)

	Get(ctx context.Context, id uuid.UUID) (*State, error)

	// Delete removes the session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// Purge removes expired sessions and returns how many were removed
	Purge(ctx context.Context) (int64, error)
}

// newState copies st and sets the id and lifetime
func newState(st *State, now time.Time, ttl time.Duration) (*State, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	created := *st
	created.ID = id
	created.CreatedAt = now
	created.ExpiresAt = now.Add(ttl)
	return &created, nil
}
