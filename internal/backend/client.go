// Package backend is a typed client for the activities REST API.
//
// The portal never owns activity data: it asks the backend for the full
// directory, forwards signup/unregister requests, and delegates login and
// identity checks. This package turns those five calls into Go methods and
// classifies every failure with the apperror taxonomy:
//
//	request never completed      → apperror.ErrTransport
//	non-2xx answer               → apperror.ErrRejected (with the "detail" text)
//	2xx answer we cannot decode  → apperror.ErrMalformed
//
// No call is retried. Authenticated calls carry the visitor's opaque bearer
// token, attached by an oauth2.Transport (see auth.BearerClient).
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/activities-portal/internal/apperror"
	"github.com/sakif/activities-portal/internal/auth"
	"github.com/sakif/activities-portal/internal/model"
)

// DefaultTimeout bounds every backend round trip.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a rejection body we read looking for "detail".
const maxErrorBody = 64 << 10

// Client talks to one activities backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (tests use the
// httptest server's client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		clone := *c.http
		clone.Timeout = d
		c.http = &clone
	}
}

// New creates a Client for the backend at baseURL (scheme and host required,
// path prefix optional).
func New(baseURL string, logger *slog.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: base URL %q must include scheme and host", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListActivities fetches the whole directory. GET /activities, no auth.
func (c *Client) ListActivities(ctx context.Context) (model.Directory, error) {
	var dir model.Directory
	if err := c.do(ctx, "", http.MethodGet, "/activities", nil, "", &dir); err != nil {
		return model.Directory{}, err
	}
	return dir, nil
}

// messageBody is the success shape of signup and unregister.
type messageBody struct {
	Message string `json:"message"`
}

// Signup registers email for activity and returns the backend's message.
// POST /activities/{name}/signup?email=…, bearer attached when token != "".
func (c *Client) Signup(ctx context.Context, token, activity, email string) (string, error) {
	var body messageBody
	if err := c.do(ctx, token, http.MethodPost, activityPath(activity, "signup", email), nil, "", &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// Unregister removes email from activity and returns the backend's message.
// DELETE /activities/{name}/unregister?email=…, bearer attached.
func (c *Client) Unregister(ctx context.Context, token, activity, email string) (string, error) {
	var body messageBody
	if err := c.do(ctx, token, http.MethodDelete, activityPath(activity, "unregister", email), nil, "", &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// Login exchanges form-encoded credentials for a bearer token and profile.
// POST /auth/login.
func (c *Client) Login(ctx context.Context, username, password string) (*model.LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var res model.LoginResult
	err := c.do(ctx, "", http.MethodPost, "/auth/login",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &res)
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, apperror.Malformed("POST /auth/login", fmt.Errorf("response has no access_token"))
	}
	return &res, nil
}

// Me performs the identity check for token. GET /auth/me.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, token, http.MethodGet, "/auth/me", nil, "", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// activityPath builds /activities/{name}/{action}?email=…, escaping the name
// as a single path segment (a "/" in a name must not split the path).
func activityPath(activity, action, email string) string {
	q := url.Values{}
	q.Set("email", email)
	return "/activities/" + url.PathEscape(activity) + "/" + action + "?" + q.Encode()
}

// do performs one round trip and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, token, method, path string, body io.Reader, contentType string, out any) error {
	op := method + " " + path
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperror.Transport(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := auth.BearerClient(c.http, token).Do(req)
	if err != nil {
		return apperror.Transport(op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("bearer", token != ""),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperror.Rejected(resp.StatusCode, readDetail(resp.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Malformed(op, err)
	}
	return nil
}

// readDetail extracts the "detail" field of an error body. Plain strings are
// returned verbatim; a list of validation errors ([{"msg": …}, …]) is joined.
// Anything else yields "", letting the caller fall back to a generic message.
func readDetail(r io.Reader) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&body); err != nil {
		return ""
	}
	if len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
