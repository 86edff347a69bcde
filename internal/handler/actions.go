package handler

import (
	"log/slog"
	"net/http"
	"net/url"
)

// ActionHandler handles the signup form and the participant delete buttons.
// Outcomes reach the visitor as notices; the handler always redirects.
type ActionHandler struct {
	page   *PageHandler
	logger *slog.Logger
}

func NewActionHandler(page *PageHandler, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{page: page, logger: logger}
}

// HandleSignup serves POST /signup (form: activity, email). On failure the
// redirect carries the entered values back so the form is not cleared.
func (h *ActionHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.page.visitor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	activity, email := r.PostForm.Get("activity"), r.PostForm.Get("email")
	var extra url.Values
	if err := h.page.portal.Signup(r.Context(), id, activity, email); err != nil {
		extra = url.Values{"activity": {activity}, "email": {email}}
	}
	redirectHome(w, r, filterFromValues(r.PostForm), extra)
}

// HandleUnregister serves POST /unregister (form: activity, email).
func (h *ActionHandler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	id, ok := h.page.visitor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	_ = h.page.portal.Unregister(r.Context(), id, r.PostForm.Get("activity"), r.PostForm.Get("email"))
	redirectHome(w, r, filterFromValues(r.PostForm), nil)
}
