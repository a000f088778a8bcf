package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, cfg Config, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := Middleware(cfg)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
	return rec, err
}

func TestCSRF_SafeMethodIssuesToken(t *testing.T) {
	rec, err := serve(t, DefaultConfig(), httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/till/cart", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))
}

func TestCSRF_UnsafeMethod(t *testing.T) {
	newReq := func(header string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/till/checkout", nil)
		req.Header.Set("Origin", "http://example.com")
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
		if header != "" {
			req.Header.Set("X-CSRF-Token", header)
		}
		return req
	}

	_, err := serve(t, DefaultConfig(), newReq(""))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)

	_, err = serve(t, DefaultConfig(), newReq("wrong"))
	require.Error(t, err)

	rec, err := serve(t, DefaultConfig(), newReq("tok"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCSRF_CrossOriginRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("X-CSRF-Token", "tok")
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})

	_, err := serve(t, DefaultConfig(), req)
	require.Error(t, err)
}

func TestCSRF_SkipPrefixes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipPrefixes = []string{"/api/v1/auth/"}
	rec, err := serve(t, cfg, httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/auth/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
