package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/keystore"
	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

const testABN = "51824753556"

var testID = participant.ToURN(testABN)

type fakeKeys map[string][]byte

func (f fakeKeys) PublicKey(abn string) ([]byte, error) {
	k, ok := f[abn]
	if !ok {
		return nil, keystore.ErrKeyNotFound
	}
	return k, nil
}

type fakeLocator struct{}

func (fakeLocator) MessageEndpointURL(endpointID string) string {
	return "https://gw.example.com/api/endpoints/" + endpointID + "/message/"
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, apiclient.NewExecutorWithClient(srv.Client()), fakeKeys{testABN: []byte("PUBLIC KEY")}, fakeLocator{})
}

func TestGetPublicKey(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKey    string
		wantNoKeys bool
		wantKind   apiclient.Kind
	}{
		{
			name:    "first entry",
			status:  http.StatusOK,
			body:    `[{"pubKey":"first","revoked":"2030-01-01 00:00:00","fingerprint":"f1"},{"pubKey":"second"}]`,
			wantKey: "first",
		},
		{
			name:       "empty collection is no result",
			status:     http.StatusOK,
			body:       `[]`,
			wantNoKeys: true,
		},
		{
			name:     "unknown participant",
			status:   http.StatusNotFound,
			body:     `{"detail":"Not found."}`,
			wantKind: apiclient.KindStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/"+testID.String()+"/keys/", r.URL.Path)
				assert.Equal(t, "JWT user-token", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			key, err := client.GetPublicKey(context.Background(), testID, apiclient.UserToken("user-token"))

			switch {
			case tt.wantNoKeys:
				require.ErrorIs(t, err, ErrNoKeys)
				assert.ErrorIs(t, err, apiclient.ErrNoResult)
				assert.Equal(t, apiclient.Kind(0), apiclient.KindOf(err), "empty collection is not a request failure")
			case tt.wantKind != 0:
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apiclient.KindOf(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantKey, key.PubKey)
			}
		})
	}
}

func TestKeyMaterialRevoked(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, KeyMaterial{Revocation: "2026-03-08 12:00:00"}.Revoked(now))
	assert.True(t, KeyMaterial{Revocation: "2026-03-01 12:00:00"}.Revoked(now))
	assert.True(t, KeyMaterial{Revocation: "2026-02-01T00:00:00Z"}.Revoked(now))
	assert.True(t, KeyMaterial{Revocation: "soon"}.Revoked(now))
}

func TestPublishPublicKey(t *testing.T) {
	now := time.Date(2026, 12, 28, 23, 30, 15, 0, time.UTC)

	var got KeyPublication
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/"+testID.String()+"/keys/", r.URL.Path)
		assert.Equal(t, "JWT user-token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).WithClock(func() time.Time { return now })

	t.Run("explicit fingerprint", func(t *testing.T) {
		_, err := client.PublishPublicKey(context.Background(), testID, "fp-1", apiclient.UserToken("user-token"))
		require.NoError(t, err)
		assert.Equal(t, "PUBLIC KEY", got.PubKey)
		assert.Equal(t, "2027-01-04 23:30:15", got.Revoked)
		assert.Equal(t, "fp-1", got.Fingerprint)
	})

	t.Run("computed fingerprint", func(t *testing.T) {
		_, err := client.PublishPublicKey(context.Background(), testID, "", apiclient.UserToken("user-token"))
		require.NoError(t, err)
		assert.Equal(t, keystore.Fingerprint([]byte("PUBLIC KEY")), got.Fingerprint)
	})

	t.Run("missing local key", func(t *testing.T) {
		_, err := client.PublishPublicKey(context.Background(), participant.ToURN("99999999999"), "", apiclient.UserToken("user-token"))
		require.ErrorIs(t, err, keystore.ErrKeyNotFound)
	})
}

func TestBuildKeyPublicationRevocationIsOneWeek(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2028, 2, 25, 13, 14, 15, 0, time.UTC),
		time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
	} {
		pub := BuildKeyPublication([]byte("k"), "f", now)
		revoked, err := time.Parse(RevocationTimeFormat, pub.Revoked)
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, revoked.Sub(now), "publish time %s", now)
	}
}

func TestListDocumentTypes(t *testing.T) {
	t.Run("collection", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/"+testID.String(), r.URL.Path)
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"ServiceMetadataReferenceCollection":[
				"https://dcp.example.com/urn/service/dbc%3A%3Acore-invoice",
				{"href":"https://dcp.example.com/urn/service/dbc%3A%3Aother"}
			]}`))
		})

		refs, err := client.ListDocumentTypes(context.Background(), testID)
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, "https://dcp.example.com/urn/service/dbc%3A%3Acore-invoice", refs[0].Href)
		assert.Equal(t, "https://dcp.example.com/urn/service/dbc%3A%3Aother", refs[1].Href)

		relayed, err := json.Marshal(refs[1])
		require.NoError(t, err)
		assert.JSONEq(t, `{"href":"https://dcp.example.com/urn/service/dbc%3A%3Aother"}`, string(relayed))
	})

	t.Run("directory failure propagates", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := client.ListDocumentTypes(context.Background(), testID)
		require.ErrorIs(t, err, apiclient.ErrNoResult)
	})
}

func TestServiceMetadataReferenceHref(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `"https://dcp.example.com/a"`, "https://dcp.example.com/a"},
		{"href", `{"href":"https://dcp.example.com/a"}`, "https://dcp.example.com/a"},
		{"capitalised href", `{"Href":"https://dcp.example.com/a"}`, "https://dcp.example.com/a"},
		{"href is not a string", `{"href":{"url":"x"},"id":"https://dcp.example.com/a"}`, "https://dcp.example.com/a"},
		{"null href", `{"href":null,"id":"https://dcp.example.com/a"}`, "https://dcp.example.com/a"},
		{"no usable key", `{"href":42}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref ServiceMetadataReference
			require.NoError(t, json.Unmarshal([]byte(tt.body), &ref))
			assert.Equal(t, tt.want, ref.Href)
		})
	}

	var ref ServiceMetadataReference
	assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
}

func TestListEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    []string
		wantErr bool
	}{
		{
			name:   "single process and endpoint",
			status: http.StatusOK,
			body:   `{"ProcessList":[{"ProcessIdentifier":["dbc","invoice"],"ServiceEndpointList":[{"EndpointURI":"http://x/msg"}]}]}`,
			want:   []string{"dbc:invoice - http://x/msg"},
		},
		{
			name:   "object identifiers keep document order",
			status: http.StatusOK,
			body: `{"ProcessList":[
				{"ProcessIdentifier":{"scheme":"dbc","value":"invoice"},"ServiceEndpointList":[{"EndpointURI":"http://a"},{"EndpointURI":"http://b"}]},
				{"ProcessIdentifier":{"scheme":"dbc","value":"rcti"},"ServiceEndpointList":[{"EndpointURI":"http://c"}]}
			]}`,
			want: []string{"dbc:invoice - http://a", "dbc:invoice - http://b", "dbc:rcti - http://c"},
		},
		{
			name:   "reached but empty",
			status: http.StatusOK,
			body:   `{"ProcessList":[]}`,
			want:   []string{},
		},
		{
			name:    "directory unreachable",
			status:  http.StatusServiceUnavailable,
			body:    ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/"+testID.String()+"/service/dbc%3A%3Acore-invoice", r.URL.EscapedPath())
				assert.Equal(t, "json", r.URL.Query().Get("format"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := client.ListEndpoints(context.Background(), testID, "dbc::core-invoice")
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got, "empty result must be distinguishable from a failed lookup")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildAdvertisement(t *testing.T) {
	now := time.Date(2028, 2, 29, 10, 0, 0, 0, time.UTC)
	ad := BuildAdvertisement("https://gw.example.com/api/endpoints/ep-1/message/", testID, now)

	assert.Equal(t, DocumentIdentifier{Scheme: "dbc", Value: "core-invoice", ID: "dbc::core-invoice"}, ad.DocumentIdentifier)
	assert.Equal(t, Identifier{Scheme: participant.Scheme, Value: testABN}, ad.ParticipantIdentifier)

	require.Len(t, ad.ProcessList, len(ProcessTypes))
	for i, p := range ad.ProcessList {
		assert.Equal(t, Identifier{Scheme: "dbc", Value: ProcessTypes[i]}, p.ProcessIdentifier)
		require.Len(t, p.ServiceEndpointList, 1)

		ep := p.ServiceEndpointList[0]
		assert.Equal(t, "https://gw.example.com/api/endpoints/ep-1/message/", ep.EndpointURI)
		assert.Equal(t, "TBD", ep.TransportProfile)
		assert.Equal(t, "false", ep.RequireBusinessLevelSignature)
		assert.Equal(t, "0", ep.MinimumAuthenticationLevel)

		activation, err := time.Parse(AdvertisementDateFormat, ep.ServiceActivationDate)
		require.NoError(t, err)
		expiration, err := time.Parse(AdvertisementDateFormat, ep.ServiceExpirationDate)
		require.NoError(t, err)
		assert.Equal(t, "2028-02-29", ep.ServiceActivationDate)
		assert.Equal(t, activation.AddDate(1, 0, 0), expiration)
	}
}

func TestBuildAdvertisementFixedProcessSet(t *testing.T) {
	want := []string{"invoice", "adjustment", "rcti", "taxreceipt", "creditnote", "debitnote"}
	for _, now := range []time.Time{time.Now(), time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)} {
		ad := BuildAdvertisement("u", testID, now)
		var got []string
		for _, p := range ad.ProcessList {
			got = append(got, p.ProcessIdentifier.Value)
		}
		assert.Equal(t, want, got)
	}
}

func TestPublishCapabilities(t *testing.T) {
	now := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/"+testID.String()+"/service/dbc::core-invoice", r.URL.Path)
		assert.Equal(t, "JWT user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json; indent=4", r.Header.Get("Accept"))

		body, _ := io.ReadAll(r.Body)
		var ad Advertisement
		assert.NoError(t, json.Unmarshal(body, &ad))
		assert.Len(t, ad.ProcessList, 6)
		assert.Equal(t, "https://gw.example.com/api/endpoints/ep-42/message/", ad.ProcessList[0].ServiceEndpointList[0].EndpointURI)
		assert.Equal(t, "2026-10-17", ad.ProcessList[0].ServiceEndpointList[0].ServiceActivationDate)
		assert.Equal(t, "2027-10-17", ad.ProcessList[0].ServiceEndpointList[0].ServiceExpirationDate)

		_, _ = w.Write(body)
	}).WithClock(func() time.Time { return now })

	resp, err := client.PublishCapabilities(context.Background(), "ep-42", apiclient.UserToken("user-token"), testID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = client.PublishCapabilities(context.Background(), "", apiclient.UserToken("user-token"), testID)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apiclient.ErrNoResult))
}

func TestOrderedValuesRejectsNested(t *testing.T) {
	var v OrderedValues
	require.Error(t, json.Unmarshal([]byte(`{"scheme":{"a":1}}`), &v))
	require.NoError(t, json.Unmarshal([]byte(`"dbc"`), &v))
	assert.Equal(t, "dbc", v.String())
}
