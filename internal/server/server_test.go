package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/activities-portal/internal/config"
)

// fakeActivitiesAPI is a minimal in-memory activities backend.
type fakeActivitiesAPI struct {
	mu           sync.Mutex
	participants map[string][]string
}

func (f *fakeActivitiesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/activities":
		fmt.Fprintf(w, `{"Chess Club": {"description": "Strategy", "schedule": "Fridays", "max_participants": 12, "participants": %s},
			"Art Club": {"description": "Painting", "schedule": "Thursdays", "max_participants": 15, "participants": %s}}`,
			jsonList(f.participants["Chess Club"]), jsonList(f.participants["Art Club"]))

	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		r.ParseForm()
		if r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail": "Incorrect username or password"}`)
			return
		}
		io.WriteString(w, `{"access_token": "tok-1", "token_type": "bearer", "user": {"name": "Ms. Rodriguez"}}`)

	case r.Method == http.MethodGet && r.URL.Path == "/auth/me":
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail": "Could not validate credentials"}`)
			return
		}
		io.WriteString(w, `{"name": "Ms. Rodriguez"}`)

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/signup"):
		name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/activities/"), "/signup")
		email := r.URL.Query().Get("email")
		f.participants[name] = append(f.participants[name], email)
		fmt.Fprintf(w, `{"message": "Signed up %s for %s"}`, email, name)

	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail": "Not found"}`)
	}
}

func jsonList(s []string) string {
	if s == nil {
		s = []string{}
	}
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	api := httptest.NewServer(&fakeActivitiesAPI{participants: map[string][]string{}})
	t.Cleanup(api.Close)

	cfg := config.Default()
	cfg.BackendURL = api.URL
	cfg.BackendTimeout = 5 * time.Second
	cfg.DBPath = ":memory:"
	cfg.TemplateDir = "../../web/templates"
	cfg.StaticDir = "../../web/static"
	cfg.SessionSecret = "integration-test-secret"

	srv, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

var csrfField = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

func getPage(t *testing.T, c *http.Client, target string) (int, string) {
	t.Helper()
	resp, err := c.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func csrfToken(t *testing.T, page string) string {
	t.Helper()
	m := csrfField.FindStringSubmatch(page)
	require.Len(t, m, 2, "page has no CSRF field")
	return m[1]
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	status, body := getPage(t, http.DefaultClient, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t)

	status, body := getPage(t, http.DefaultClient, ts.URL+"/static/app.js")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "activities/list")
}

func TestIndex_AnonymousVisitor(t *testing.T) {
	ts := newTestServer(t)
	browser := newBrowser(t)

	status, body := getPage(t, browser, ts.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Chess Club")
	assert.Contains(t, body, "Art Club")
	assert.NotContains(t, body, `id="signup-form"`)

	u, _ := url.Parse(ts.URL)
	var names []string
	for _, c := range browser.Jar.Cookies(u) {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "visitor")
}

func TestPostWithoutCSRFTokenIsForbidden(t *testing.T) {
	ts := newTestServer(t)
	browser := newBrowser(t)
	getPage(t, browser, ts.URL+"/")

	resp, err := browser.PostForm(ts.URL+"/logout", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLoginSignupFlow(t *testing.T) {
	ts := newTestServer(t)
	browser := newBrowser(t)

	_, page := getPage(t, browser, ts.URL+"/?login=1")
	token := csrfToken(t, page)

	// wrong password: dialog stays open with the backend's text
	resp, err := browser.PostForm(ts.URL+"/login", url.Values{
		"gorilla.csrf.Token": {token}, "username": {"mrodriguez"}, "password": {"nope"},
	})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "Incorrect username or password")

	// right password: redirected to the page, welcomed, controls shown
	resp, err = browser.PostForm(ts.URL+"/login", url.Values{
		"gorilla.csrf.Token": {token}, "username": {"mrodriguez"}, "password": {"secret"},
	})
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Welcome, Ms. Rodriguez!")
	assert.Contains(t, string(body), `id="signup-form"`)

	// signup: the new participant is on the reloaded page
	resp, err = browser.PostForm(ts.URL+"/signup", url.Values{
		"gorilla.csrf.Token": {csrfToken(t, string(body))}, "activity": {"Art Club"}, "email": {"emma@mergington.edu"},
	})
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "Signed up emma@mergington.edu for Art Club")
	assert.Contains(t, string(body), `<span class="participant-email">emma@mergington.edu</span>`)
	assert.Contains(t, string(body), "14 spots left")

	// a second visit restores the session from storage
	_, page = getPage(t, browser, ts.URL+"/")
	assert.Contains(t, page, "Ms. Rodriguez")

	// logout
	resp, err = browser.PostForm(ts.URL+"/logout", url.Values{"gorilla.csrf.Token": {csrfToken(t, page)}})
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "You have been logged out.")
	assert.NotContains(t, string(body), `id="signup-form"`)
}

func TestListFragment(t *testing.T) {
	ts := newTestServer(t)
	browser := newBrowser(t)

	status, body := getPage(t, browser, ts.URL+"/activities/list?search=art")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Art Club")
	assert.NotContains(t, body, "Chess Club")
}
