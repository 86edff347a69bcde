package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visitorEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := VisitorIDFromContext(r.Context())
		if !ok {
			t.Error("visitor ID missing from context")
		}
		_, _ = io.WriteString(w, id)
	})
}

func TestVisitor_IssuesCookieForNewBrowser(t *testing.T) {
	vt := newTestVisitorTokens(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Visitor(vt, false, logger)(visitorEcho(t))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	res := rr.Result()
	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, VisitorCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	id, err := vt.Verify(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, id, rr.Body.String())
}

func TestVisitor_ReusesValidCookie(t *testing.T) {
	vt := newTestVisitorTokens(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Visitor(vt, false, logger)(visitorEcho(t))

	signed, err := vt.Issue("known-visitor")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: signed})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "known-visitor", rr.Body.String())
	assert.Empty(t, rr.Result().Cookies(), "no new cookie for a valid visitor")
}

func TestVisitor_ReplacesTamperedCookie(t *testing.T) {
	vt := newTestVisitorTokens(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Visitor(vt, false, logger)(visitorEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: "forged"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.NotEqual(t, "forged", rr.Body.String())
	assert.NotEmpty(t, rr.Body.String())
	assert.Len(t, rr.Result().Cookies(), 1)
}

func TestBearerClient(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	base := srv.Client()

	t.Run("token attached", func(t *testing.T) {
		resp, err := BearerClient(base, "abc123").Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "Bearer abc123", gotAuth)
	})

	t.Run("anonymous", func(t *testing.T) {
		assert.Same(t, base, BearerClient(base, ""))
		resp, err := BearerClient(base, "").Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Empty(t, gotAuth)
	})
}
