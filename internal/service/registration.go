package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/activities-portal/internal/apperror"
	"github.com/sakif/activities-portal/internal/notify"
)

// Messages shown when an action fails.
const (
	MsgGenericError     = "An error occurred"
	MsgSignupFailed     = "Failed to sign up. Please try again."
	MsgUnregisterFailed = "Failed to unregister. Please try again."
	MsgLoginRequired    = "You must be logged in to unregister students."
	MsgMissingFields    = "Please choose an activity and enter an email."
)

// Signup registers email for activity. The visitor's bearer token is sent
// when they have one; the backend decides whether it is required.
//
// Every outcome is published to the visitor's notice slot. On success the
// directory is reloaded so the new participant shows up.
func (s *PortalService) Signup(ctx context.Context, visitorID, activity, email string) error {
	activity, email = strings.TrimSpace(activity), strings.TrimSpace(email)
	if activity == "" || email == "" {
		s.notices.Show(visitorID, notify.Error, MsgMissingFields)
		return apperror.ValidationFailed(MsgMissingFields)
	}

	token, _ := s.sessions.Token(ctx, visitorID)
	msg, err := s.registrar.Signup(ctx, token, activity, email)
	if err != nil {
		return s.fail(visitorID, "signup", activity, err, MsgSignupFailed)
	}

	s.logger.Info("student signed up",
		slog.String("activity", activity),
		slog.String("email", email),
	)
	s.notices.Show(visitorID, notify.Success, msg)
	s.reloadAfter(ctx, "signup")
	return nil
}

// Unregister removes email from activity. It needs a session.
func (s *PortalService) Unregister(ctx context.Context, visitorID, activity, email string) error {
	token, ok := s.sessions.Token(ctx, visitorID)
	if !ok {
		s.notices.Show(visitorID, notify.Error, MsgLoginRequired)
		return apperror.Unauthorized(MsgLoginRequired)
	}

	activity, email = strings.TrimSpace(activity), strings.TrimSpace(email)
	if activity == "" || email == "" {
		s.notices.Show(visitorID, notify.Error, MsgMissingFields)
		return apperror.ValidationFailed(MsgMissingFields)
	}

	msg, err := s.registrar.Unregister(ctx, token, activity, email)
	if err != nil {
		return s.fail(visitorID, "unregister", activity, err, MsgUnregisterFailed)
	}

	s.logger.Info("student unregistered",
		slog.String("activity", activity),
		slog.String("email", email),
	)
	s.notices.Show(visitorID, notify.Success, msg)
	s.reloadAfter(ctx, "unregister")
	return nil
}

// fail publishes the error notice for a failed action. A backend rejection
// shows the backend's detail (or the generic text); anything that never got
// a usable answer shows transportMsg and is logged.
func (s *PortalService) fail(visitorID, action, activity string, err error, transportMsg string) error {
	text := apperror.UserMessage(err, MsgGenericError)
	if isTransport(err) {
		s.logger.Error(action+" request failed",
			slog.String("activity", activity),
			slog.String("error", err.Error()),
		)
		text = transportMsg
	}
	s.notices.Show(visitorID, notify.Error, text)
	return err
}

func (s *PortalService) reloadAfter(ctx context.Context, action string) {
	if _, err := s.Reload(ctx); err != nil {
		s.logger.Warn("reload after "+action+" failed", slog.String("error", err.Error()))
	}
}
