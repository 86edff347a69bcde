// Package handler contains the portal's HTTP handlers.
//
// Handlers parse the request, call the PortalService and either render a
// template or redirect. Every state-changing form answers with 303 See Other
// back to the page (POST/Redirect/GET), carrying the visitor's current
// search, sort and category along in the query string.
package handler

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/gorilla/csrf"

	"github.com/sakif/activities-portal/internal/auth"
	"github.com/sakif/activities-portal/internal/model"
	"github.com/sakif/activities-portal/internal/notify"
	"github.com/sakif/activities-portal/internal/portal"
)

// Portal is what the handlers need from the service layer.
// *service.PortalService satisfies it.
type Portal interface {
	Page(ctx context.Context, visitorID string, f model.Filter) portal.State
	List(ctx context.Context, visitorID string, f model.Filter) portal.State
	Signup(ctx context.Context, visitorID, activity, email string) error
	Unregister(ctx context.Context, visitorID, activity, email string) error
	Login(ctx context.Context, visitorID, username, password string) (model.Session, error)
	Logout(ctx context.Context, visitorID string) error
}

const pageTitle = "Mergington High School Activities"

// PageHandler serves the activities page and its list fragment.
type PageHandler struct {
	portal    Portal
	templates *template.Template
	logger    *slog.Logger
	now       func() time.Time
}

// NewPageHandler parses base.html, index.html and list.html from templateDir.
// "base" is the full page; "list" is the activity list on its own, served to
// the live search.
func NewPageHandler(p Portal, templateDir string, logger *slog.Logger) (*PageHandler, error) {
	h := &PageHandler{portal: p, logger: logger, now: time.Now}

	tmpl, err := template.New("base.html").Funcs(template.FuncMap{
		"hideAfterMS": func(n *notify.Notice) int64 {
			if n == nil {
				return 0
			}
			return n.HideAfter(h.now()).Milliseconds()
		},
	}).ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, "index.html"),
		filepath.Join(templateDir, "list.html"),
	)
	if err != nil {
		return nil, err
	}
	h.templates = tmpl
	return h, nil
}

type loginDialog struct {
	Open     bool
	Error    string
	Username string
}

type signupForm struct {
	Email    string
	Activity string
}

type pageData struct {
	Title     string
	View      portal.View
	CSRFField template.HTML
	Login     loginDialog
	Signup    signupForm
}

// HandleIndex serves GET /. Query: search, sort, category; login=1 opens the
// login dialog; email and activity refill the signup form after a failure.
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	id, ok := h.visitor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	st := h.portal.Page(r.Context(), id, filterFromValues(q))
	data := h.newPageData(r, st)
	data.Login.Open = q.Get("login") == "1"
	data.Signup = signupForm{Email: q.Get("email"), Activity: q.Get("activity")}

	h.render(w, http.StatusOK, "base", data)
}

// HandleList serves GET /activities/list, the list alone, re-rendered from
// the cached directory on every filter change.
func (h *PageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := h.visitor(w, r)
	if !ok {
		return
	}

	st := h.portal.List(r.Context(), id, filterFromValues(r.URL.Query()))
	h.render(w, http.StatusOK, "list", h.newPageData(r, st))
}

// renderLoginError repaints the page with the login dialog open and err
// shown inside it.
func (h *PageHandler) renderLoginError(w http.ResponseWriter, r *http.Request, id string, f model.Filter, username string, status int, msg string) {
	st := h.portal.Page(r.Context(), id, f)
	data := h.newPageData(r, st)
	data.Login = loginDialog{Open: true, Error: msg, Username: username}
	h.render(w, status, "base", data)
}

func (h *PageHandler) newPageData(r *http.Request, st portal.State) pageData {
	return pageData{
		Title:     pageTitle,
		View:      portal.Render(st),
		CSRFField: csrf.TemplateField(r),
	}
}

// render executes name into a buffer first so a template error still
// produces a clean 500.
func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("client went away", slog.String("error", err.Error()))
	}
}

func (h *PageHandler) visitor(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.VisitorIDFromContext(r.Context())
	if !ok {
		h.logger.Error("request without visitor id", slog.String("path", r.URL.Path))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return "", false
	}
	return id, true
}

// filterFromValues reads search, sort and category, defaulting the latter
// two.
func filterFromValues(v url.Values) model.Filter {
	f := model.DefaultFilter()
	f.Search = v.Get("search")
	if s := v.Get("sort"); s != "" {
		f.Sort = model.SortMode(s)
	}
	if c := v.Get("category"); c != "" {
		f.Category = c
	}
	return f
}

// filterValues is the inverse of filterFromValues, leaving defaults out.
func filterValues(f model.Filter) url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Sort != "" && f.Sort != model.SortByName {
		v.Set("sort", string(f.Sort))
	}
	if !f.AllCategories() {
		v.Set("category", f.Category)
	}
	return v
}

// redirectHome answers a form post with 303 to the page, keeping the filter
// and adding extra.
func redirectHome(w http.ResponseWriter, r *http.Request, f model.Filter, extra url.Values) {
	v := filterValues(f)
	for k, vals := range extra {
		for _, val := range vals {
			v.Add(k, val)
		}
	}
	target := "/"
	if len(v) > 0 {
		target += "?" + v.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
