//go:build integration

package integration

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

const (
	testIssuer           = "https://idp.testpoint.io"
	testOperationalToken = "integration-op-token"
	testABN              = "51824753556"
	testKeyID            = "integration-key"
)

// fakeNetwork stands in for the directory, gateway and identity provider
type fakeNetwork struct {
	url        string
	signingKey jwk.Key

	// customersCreated counts POST /idp/api/customers/v0/ calls
	customersCreated atomic.Int32
}

func newFakeNetwork(t *testing.T) *fakeNetwork {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate signing key: %v", err)
	}
	key, err := jwk.Import(raw)
	if err != nil {
		t.Fatalf("Failed to import signing key: %v", err)
	}
	if err := key.Set(jwk.KeyIDKey, testKeyID); err != nil {
		t.Fatalf("Failed to set key id: %v", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		t.Fatalf("Failed to set key algorithm: %v", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		t.Fatalf("Failed to build key set: %v", err)
	}
	publicSet, err := jwk.PublicSetOf(set)
	if err != nil {
		t.Fatalf("Failed to build public key set: %v", err)
	}

	n := &fakeNetwork{signingKey: key}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(publicSet)
	})
	mux.HandleFunc("POST /idp/api/customers/v0/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token "+testOperationalToken {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		count := n.customersCreated.Add(1)
		// widen the window for concurrent first logins
		time.Sleep(50 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"uuid":"customer-%d"}`, count)
	})
	mux.HandleFunc("GET /dir/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ProcessList":[{"ProcessIdentifier":["dbc","invoice"],"ServiceEndpointList":[{"EndpointURI":"http://x/msg"}]}]}`))
	})
	mux.HandleFunc("POST /gw/api/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"ep-1"}}`))
	})
	mux.HandleFunc("PUT /dir/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"published":true}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	n.url = srv.URL

	return n
}

// identityToken returns a token for abn signed with the network's key.
// issuer overrides the trusted issuer when not empty.
func (n *fakeNetwork) identityToken(t *testing.T, abn, issuer string) string {
	t.Helper()

	if issuer == "" {
		issuer = testIssuer
	}

	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Audience([]string{"client-x"}).
		Subject("user-"+abn).
		Expiration(time.Now().Add(time.Hour)).
		Claim("abn", abn).
		// the identity provider issues a list of scheme code to value maps
		Claim(participant.PartyIDClaim, []map[string]string{{participant.ABNSchemeCode: abn}}).
		Build()
	if err != nil {
		t.Fatalf("Failed to build token: %v", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256(), n.signingKey))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return string(signed)
}
