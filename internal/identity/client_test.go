package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, apiclient.NewExecutorWithClient(srv.Client()), apiclient.OperationalToken("op-token"), "274953")
}

func TestCreateCustomer(t *testing.T) {
	ids := []participant.PartyIdentifier{{Scheme: "0151", Value: "51824753556"}}

	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"created", http.StatusCreated, `{"uuid":"9a1e0d3c-1111-4c3a-9f1e-3b6c1a2b3c4d","participant_ids":[]}`, "9a1e0d3c-1111-4c3a-9f1e-3b6c1a2b3c4d", nil},
		{"no uuid", http.StatusCreated, `{"participant_ids":[]}`, "", ErrNoCustomerID},
		{"provider error", http.StatusInternalServerError, `oops`, "", apiclient.ErrNoResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/customers/v0/", r.URL.Path)
				assert.Equal(t, "Token op-token", r.Header.Get("Authorization"))

				var req struct {
					ParticipantIDs []participant.PartyIdentifier `json:"participant_ids"`
				}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, ids, req.ParticipantIDs)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			customer, err := client.CreateCustomer(context.Background(), ids)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, customer.UUID)
		})
	}
}

func TestCreateCustomerValidatesInput(t *testing.T) {
	client := NewClient("http://unused", nil, "op", "274953")

	_, err := client.CreateCustomer(context.Background(), nil)
	require.Error(t, err)

	_, err = client.CreateCustomer(context.Background(), []participant.PartyIdentifier{{Scheme: "0151"}})
	require.Error(t, err)
}

func TestMintCustomerToken(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		wantPath string
	}{
		{"default client", "", "/api/customers/v0/cust-1/tokens/274953/"},
		{"explicit client", "777", "/api/customers/v0/cust-1/tokens/777/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "Token op-token", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json; indent=4", r.Header.Get("Accept"))
				_, _ = w.Write([]byte(`{"access_token":"minted"}`))
			})

			resp, err := client.MintCustomerToken(context.Background(), "cust-1", tt.clientID)
			require.NoError(t, err)
			assert.JSONEq(t, `{"access_token":"minted"}`, string(resp.Body))
		})
	}
}
