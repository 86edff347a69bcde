// Package service contains the portal's use cases.
//
//	Handler (HTTP) → PortalService → session.Store     (local storage + /auth/*)
//	                               → directory.Cache   (GET /activities)
//	                               → Registrar         (signup / unregister)
//	                               → notify.Board      (transient messages)
//
// Methods take primitives and return domain values or apperror errors; they
// know nothing about HTTP. After every successful state-changing action the
// service calls Reload, the one place the directory is re-fetched.
package service

import (
	"context"
	"log/slog"

	"github.com/sakif/activities-portal/internal/model"
	"github.com/sakif/activities-portal/internal/notify"
	"github.com/sakif/activities-portal/internal/portal"
)

// Sessions is the session store. *session.Store satisfies it.
type Sessions interface {
	Restore(ctx context.Context, visitorID string) model.Session
	Token(ctx context.Context, visitorID string) (string, bool)
	Login(ctx context.Context, visitorID, username, password string) (model.Session, error)
	Logout(ctx context.Context, visitorID string) error
}

// Directory is the activity cache. *directory.Cache satisfies it.
type Directory interface {
	Refresh(ctx context.Context) (model.Directory, error)
	Snapshot() (model.Directory, bool)
}

// Registrar forwards registration changes to the backend.
// *backend.Client satisfies it.
type Registrar interface {
	Signup(ctx context.Context, token, activity, email string) (string, error)
	Unregister(ctx context.Context, token, activity, email string) (string, error)
}

// Notices is the message board. *notify.Board satisfies it.
type Notices interface {
	Show(visitorID string, sev notify.Severity, text string) notify.Notice
	Current(visitorID string) (notify.Notice, bool)
}

type PortalService struct {
	sessions  Sessions
	directory Directory
	registrar Registrar
	notices   Notices
	logger    *slog.Logger
}

func NewPortalService(sessions Sessions, dir Directory, registrar Registrar, notices Notices, logger *slog.Logger) *PortalService {
	return &PortalService{
		sessions:  sessions,
		directory: dir,
		registrar: registrar,
		notices:   notices,
		logger:    logger,
	}
}

// Page builds the state of a full page load: the session is restored, the
// directory fetched afresh, and the visitor's current message attached.
func (s *PortalService) Page(ctx context.Context, visitorID string, f model.Filter) portal.State {
	st := portal.Apply(portal.NewState(), portal.SessionStarted{Session: s.sessions.Restore(ctx, visitorID)})
	st = s.withFilter(st, f)

	if dir, err := s.Reload(ctx); err != nil {
		cached, _ := s.directory.Snapshot()
		st = portal.ApplyAll(st, portal.DirectoryLoaded{Directory: cached}, portal.DirectoryFailed{})
	} else {
		st = portal.Apply(st, portal.DirectoryLoaded{Directory: dir})
	}

	if n, ok := s.notices.Current(visitorID); ok {
		st = portal.Apply(st, portal.NoticeShown{Notice: n})
	}
	return st
}

// List builds the state for a filter change. The cached directory is
// reused; the backend is only asked when nothing has been fetched yet.
func (s *PortalService) List(ctx context.Context, visitorID string, f model.Filter) portal.State {
	st := portal.Apply(portal.NewState(), portal.SessionStarted{Session: s.sessions.Restore(ctx, visitorID)})
	st = s.withFilter(st, f)

	dir, loaded := s.directory.Snapshot()
	if !loaded {
		var err error
		if dir, err = s.Reload(ctx); err != nil {
			return portal.Apply(st, portal.DirectoryFailed{})
		}
	}
	return portal.Apply(st, portal.DirectoryLoaded{Directory: dir})
}

// Reload re-fetches the whole directory. Failures are logged by the cache.
func (s *PortalService) Reload(ctx context.Context) (model.Directory, error) {
	return s.directory.Refresh(ctx)
}

func (s *PortalService) withFilter(st portal.State, f model.Filter) portal.State {
	return portal.ApplyAll(st,
		portal.SearchChanged{Text: f.Search},
		portal.SortChanged{Mode: f.Sort},
		portal.CategoryChanged{Category: f.Category},
	)
}
