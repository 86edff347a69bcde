package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/activities-portal/internal/service"
)

// AuthHandler handles the staff login dialog and logout button.
type AuthHandler struct {
	page   *PageHandler
	logger *slog.Logger
}

func NewAuthHandler(page *PageHandler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{page: page, logger: logger}
}

// HandleLogin serves POST /login (form: username, password).
//
// Success redirects to the page, where the welcome notice is waiting. A
// failure repaints the page with the dialog still open and the reason shown
// inline; the password is never echoed back.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	id, ok := h.page.visitor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	f := filterFromValues(r.PostForm)
	username := r.PostForm.Get("username")
	if _, err := h.page.portal.Login(r.Context(), id, username, r.PostForm.Get("password")); err != nil {
		h.page.renderLoginError(w, r, id, f, username, statusFor(err), service.LoginMessage(err))
		return
	}
	redirectHome(w, r, f, nil)
}

// HandleLogout serves POST /logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.page.visitor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	_ = h.page.portal.Logout(r.Context(), id)
	redirectHome(w, r, filterFromValues(r.PostForm), nil)
}
