package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/financeai/internal/api"
	"github.com/nhle/financeai/internal/credential"
)

func TestSyncGmail_SendsBearerAndDecodes(t *testing.T) {
	var gotAuth, gotRequestID, gotContentType string
	var gotBody api.GmailCredentials

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, api.PathGmailSync, r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotContentType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"total_found": 10, "new_transactions": 3}`)
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, credential.StaticToken("tok"))
	resp, err := c.SyncGmail(context.Background(), api.GmailCredentials{
		Email:       "alice@gmail.com",
		AppPassword: "abcd1234efgh5678",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, resp.TotalFound)
	assert.Equal(t, 3, resp.NewTransactions)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "alice@gmail.com", gotBody.Email)
	assert.Equal(t, "abcd1234efgh5678", gotBody.AppPassword)
}

func TestConnectGmail_IgnoresBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, credential.StaticToken("tok"))
	err := c.ConnectGmail(context.Background(), api.GmailCredentials{Email: "a@gmail.com", AppPassword: "x"})
	assert.NoError(t, err)
}

func TestNoToken_OmitsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		assert.False(t, present)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail": "Not authenticated"}`)
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, credential.StaticToken(""))
	_, err := c.DashboardStats(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	detail, ok := api.Detail(err)
	assert.True(t, ok)
	assert.Equal(t, "Not authenticated", detail)
}

func TestServerError_Detail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantOK     bool
	}{
		{"string detail", http.StatusUnauthorized, `{"detail": "Invalid app password"}`, "Invalid app password", true},
		{"validation list", http.StatusUnprocessableEntity, `{"detail": [{"msg": "field required"}]}`, "", false},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, "", false},
		{"empty detail", http.StatusInternalServerError, `{"detail": ""}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := api.NewClient(srv.URL, nil)
			err := c.ConnectGmail(context.Background(), api.GmailCredentials{})
			require.Error(t, err)

			var serverErr *api.ServerError
			require.ErrorAs(t, err, &serverErr)
			assert.Equal(t, tt.status, serverErr.StatusCode)

			detail, ok := api.Detail(err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := api.NewClient(url, credential.StaticToken("tok"))
	_, err := c.SyncGmail(context.Background(), api.GmailCredentials{})
	require.Error(t, err)
	assert.True(t, api.IsTransport(err))
	assert.False(t, api.IsUnauthorized(err))
}

func TestLogin_FormEncodedWithoutAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, api.PathLogin, r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "alice@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))
		_, _ = io.WriteString(w, `{"access_token":"abc","token_type":"bearer","user":{"id":1,"email":"alice@example.com","name":"Alice"}}`)
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, credential.StaticToken("stale"))
	resp, err := c.Login(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.AccessToken)
	assert.Equal(t, "Alice", resp.User.Name)
}

func TestAdvice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "How can I save more?", body["query"])
		_, _ = io.WriteString(w, `{"response": "Spend less on dining."}`)
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL+"/", credential.StaticToken("tok"))
	answer, err := c.Advice(context.Background(), "How can I save more?")
	require.NoError(t, err)
	assert.Equal(t, "Spend less on dining.", answer)
}

func TestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := api.NewClient(srv.URL, credential.StaticToken("tok"))
	_, err := c.Goals(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
