package authclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh", r.URL.Path)
		ck, err := r.Cookie("refreshToken")
		if err != nil || ck.Value != "old-refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a","refresh_token":"r","access_exp":10,"refresh_exp":20}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.RefreshTokens(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "a", res.AccessToken)
	assert.EqualValues(t, 20, res.RefreshExp)

	_, err = c.RefreshTokens(context.Background(), "stale")
	require.Error(t, err)
}

func TestRefreshTokens_NotConfigured(t *testing.T) {
	_, err := NewClient("").RefreshTokens(context.Background(), "x")
	require.Error(t, err)
}
