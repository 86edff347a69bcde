// Package portal holds the page state of one visitor and the pure functions
// over it: Apply moves the state forward in response to an event and Render
// turns a state into the view the templates paint.
//
// Nothing here performs I/O. Handlers build a State from the session store,
// the directory cache and the query string, then Render it.
package portal

import (
	"github.com/sakif/activities-portal/internal/model"
	"github.com/sakif/activities-portal/internal/notify"
)

// State is everything a page render depends on.
type State struct {
	Directory  model.Directory
	LoadFailed bool
	Session    model.Session
	Filter     model.Filter
	Notice     *notify.Notice
}

// NewState is a fresh page: empty directory, logged out, default filter.
func NewState() State {
	return State{Filter: model.DefaultFilter()}
}

// Event is a state transition. The set is closed; see the types below.
type Event interface {
	apply(State) State
}

// Apply returns the state after ev. s itself is not modified.
func Apply(s State, ev Event) State {
	if ev == nil {
		return s
	}
	return ev.apply(s)
}

// ApplyAll folds events over s in order.
func ApplyAll(s State, evs ...Event) State {
	for _, ev := range evs {
		s = Apply(s, ev)
	}
	return s
}

type SearchChanged struct{ Text string }

func (e SearchChanged) apply(s State) State {
	s.Filter.Search = e.Text
	return s
}

type SortChanged struct{ Mode model.SortMode }

func (e SortChanged) apply(s State) State {
	s.Filter.Sort = e.Mode
	return s
}

type CategoryChanged struct{ Category string }

func (e CategoryChanged) apply(s State) State {
	s.Filter.Category = e.Category
	return s
}

// DirectoryLoaded replaces the directory with a fresh fetch.
type DirectoryLoaded struct{ Directory model.Directory }

func (e DirectoryLoaded) apply(s State) State {
	s.Directory = e.Directory
	s.LoadFailed = false
	return s
}

// DirectoryFailed marks the last fetch as failed. The list is replaced by an
// error message; the dropdowns keep whatever they had.
type DirectoryFailed struct{}

func (DirectoryFailed) apply(s State) State {
	s.LoadFailed = true
	return s
}

type SessionStarted struct{ Session model.Session }

func (e SessionStarted) apply(s State) State {
	if e.Session.User != nil {
		u := *e.Session.User
		e.Session.User = &u
	}
	s.Session = e.Session
	return s
}

type SessionEnded struct{}

func (SessionEnded) apply(s State) State {
	s.Session = model.Session{}
	return s
}

type NoticeShown struct{ Notice notify.Notice }

func (e NoticeShown) apply(s State) State {
	n := e.Notice
	s.Notice = &n
	return s
}

type NoticeHidden struct{}

func (NoticeHidden) apply(s State) State {
	s.Notice = nil
	return s
}
