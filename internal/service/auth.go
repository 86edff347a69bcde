package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/activities-portal/internal/apperror"
	"github.com/sakif/activities-portal/internal/model"
	"github.com/sakif/activities-portal/internal/notify"
)

const (
	MsgLoginInvalid      = "Invalid username or password"
	MsgLoginFailed       = "Login failed. Please try again."
	MsgLoginMissingField = "Please enter your username and password."
	MsgLoggedOut         = "You have been logged out."
)

// Login starts a staff session. On failure nothing is stored and the
// returned error is meant for the login dialog (see LoginMessage); no
// notice is published.
func (s *PortalService) Login(ctx context.Context, visitorID, username, password string) (model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.Session{}, apperror.ValidationFailed(MsgLoginMissingField)
	}

	sess, err := s.sessions.Login(ctx, visitorID, username, password)
	if err != nil {
		if isTransport(err) {
			s.logger.Error("login request failed", slog.String("error", err.Error()))
		} else {
			s.logger.Info("login refused", slog.String("username", username))
		}
		return model.Session{}, err
	}

	s.notices.Show(visitorID, notify.Success, "Welcome, "+sess.User.DisplayName()+"!")
	return sess, nil
}

// LoginMessage is the inline text the login dialog shows for err.
func LoginMessage(err error) string {
	if isTransport(err) {
		return MsgLoginFailed
	}
	return apperror.UserMessage(err, MsgLoginInvalid)
}

// Logout ends the visitor's session. The backend is not contacted.
func (s *PortalService) Logout(ctx context.Context, visitorID string) error {
	if err := s.sessions.Logout(ctx, visitorID); err != nil {
		s.logger.Error("logout failed", slog.String("error", err.Error()))
		s.notices.Show(visitorID, notify.Error, MsgGenericError)
		return err
	}
	s.notices.Show(visitorID, notify.Info, MsgLoggedOut)
	return nil
}

// isTransport reports failures where the backend gave no usable answer.
func isTransport(err error) bool {
	return errors.Is(err, apperror.ErrTransport) || errors.Is(err, apperror.ErrMalformed)
}
