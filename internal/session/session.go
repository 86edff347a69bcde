// Package session restores, starts and ends a visitor's staff session.
//
// A session is a bearer token plus the user it belongs to. Only the token is
// persisted (sealed, under repository.AuthTokenKey in the visitor's local
// storage); the user is re-fetched from the backend's identity check every
// time the session is restored.
//
//	page load → Restore → stored token? → GET /auth/me → Session
//	                                    ↘ failure → token cleared, logged out
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/activities-portal/internal/auth"
	"github.com/sakif/activities-portal/internal/model"
	"github.com/sakif/activities-portal/internal/repository"
)

// Authenticator is the backend's login and identity-check surface.
// *backend.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*model.LoginResult, error)
	Me(ctx context.Context, token string) (*model.User, error)
}

// Store keeps sessions in a LocalStorage.
type Store struct {
	storage repository.LocalStorage
	sealer  *auth.Sealer
	authn   Authenticator
	logger  *slog.Logger
	now     func() time.Time
}

func NewStore(storage repository.LocalStorage, sealer *auth.Sealer, authn Authenticator, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		sealer:  sealer,
		authn:   authn,
		logger:  logger,
		now:     time.Now,
	}
}

// Restore returns the visitor's session, or the zero Session when they are
// logged out. Any problem with the stored token (unreadable, expired, or
// refused by the identity check) clears it. Errors are logged, never
// returned: a broken session just means logged out.
func (s *Store) Restore(ctx context.Context, visitorID string) model.Session {
	token, ok := s.Token(ctx, visitorID)
	if !ok {
		return model.Session{}
	}

	if auth.BearerExpired(token, s.now()) {
		s.logger.Info("stored token expired", slog.String("visitor", visitorID))
		s.clear(ctx, visitorID)
		return model.Session{}
	}

	user, err := s.authn.Me(ctx, token)
	if err != nil {
		s.logger.Info("identity check failed, logging out",
			slog.String("visitor", visitorID),
			slog.String("error", err.Error()),
		)
		s.clear(ctx, visitorID)
		return model.Session{}
	}

	return model.Session{Token: token, User: user}
}

// Token returns the stored bearer token without asking the backend about
// it. Actions use this: the backend checks the token itself on every call.
func (s *Store) Token(ctx context.Context, visitorID string) (string, bool) {
	sealed, err := s.storage.Get(ctx, visitorID, repository.AuthTokenKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("reading stored token",
				slog.String("visitor", visitorID),
				slog.String("error", err.Error()),
			)
		}
		return "", false
	}

	token, err := s.sealer.Open(visitorID, sealed)
	if err != nil {
		s.logger.Warn("discarding unreadable stored token",
			slog.String("visitor", visitorID),
			slog.String("error", err.Error()),
		)
		s.clear(ctx, visitorID)
		return "", false
	}
	return token, true
}

// Login exchanges credentials for a session and stores its token. On
// failure the stored state is left exactly as it was and the backend's
// error is returned for the caller to show.
func (s *Store) Login(ctx context.Context, visitorID, username, password string) (model.Session, error) {
	res, err := s.authn.Login(ctx, username, password)
	if err != nil {
		return model.Session{}, err
	}

	sealed, err := s.sealer.Seal(visitorID, res.AccessToken)
	if err != nil {
		return model.Session{}, fmt.Errorf("session: sealing token: %w", err)
	}
	if err := s.storage.Set(ctx, visitorID, repository.AuthTokenKey, sealed); err != nil {
		return model.Session{}, fmt.Errorf("session: storing token: %w", err)
	}

	user := res.User
	s.logger.Info("staff logged in",
		slog.String("visitor", visitorID),
		slog.String("user", user.DisplayName()),
	)
	return model.Session{Token: res.AccessToken, User: &user}, nil
}

// Logout forgets the stored token. The backend is not told.
func (s *Store) Logout(ctx context.Context, visitorID string) error {
	if err := s.storage.Remove(ctx, visitorID, repository.AuthTokenKey); err != nil {
		return fmt.Errorf("session: removing token: %w", err)
	}
	return nil
}

func (s *Store) clear(ctx context.Context, visitorID string) {
	if err := s.storage.Remove(ctx, visitorID, repository.AuthTokenKey); err != nil {
		s.logger.Error("clearing stored token",
			slog.String("visitor", visitorID),
			slog.String("error", err.Error()),
		)
	}
}
