package portal

import (
	"bytes"
	"html/template"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sakif/activities-portal/internal/model"
	"github.com/sakif/activities-portal/internal/notify"
)

// Static page texts.
const (
	LoadFailedText     = "Failed to load activities. Please try again later."
	EmptyText          = "No activities found."
	NoParticipantsText = "No participants yet"
	AllCategoriesText  = "All Categories"
	SelectTargetText   = "-- Select an activity --"
)

// markdown renders activity descriptions. Raw HTML in a description is
// dropped, not passed through.
var markdown = goldmark.New()

// View is the fully computed page.
type View struct {
	Filter        model.Filter
	LoadFailed    bool
	Cards         []Card
	Empty         bool
	Categories    []Option
	Sorts         []Option
	Targets       []Option
	Authenticated bool
	UserName      string
	Notice        *notify.Notice
}

// Card is one activity as shown in the list.
type Card struct {
	Name            string
	Description     template.HTML
	Schedule        string
	Category        string
	MaxParticipants int
	SpotsLeft       int
	Participants    []Participant
}

// Participant is one enrolled email. Removable is true only for a logged-in
// visitor; anonymous visitors see the list without delete controls.
type Participant struct {
	Activity  string
	Email     string
	Key       string
	Removable bool
}

// Option is one <option> of a dropdown.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Render computes the view for s. It is deterministic and does not touch s.
//
// The list pipeline: every entry in declaration order, then the category
// filter, then the search filter (trimmed, case-insensitive substring of the
// name or the description), then the sort.
func Render(s State) View {
	v := View{
		Filter:        s.Filter,
		LoadFailed:    s.LoadFailed,
		Authenticated: s.Session.Active(),
		Categories:    categoryOptions(s.Directory, s.Filter),
		Sorts:         sortOptions(s.Filter),
		Targets:       targetOptions(s.Directory),
	}
	if v.Authenticated {
		v.UserName = s.Session.User.DisplayName()
	}
	if s.Notice != nil {
		n := *s.Notice
		v.Notice = &n
	}
	if s.LoadFailed {
		return v
	}

	entries := Visible(s.Directory, s.Filter)
	if len(entries) == 0 {
		v.Empty = true
		return v
	}

	v.Cards = make([]Card, 0, len(entries))
	for _, e := range entries {
		v.Cards = append(v.Cards, newCard(e, v.Authenticated))
	}
	return v
}

// Visible returns the entries the list shows for f, in display order.
func Visible(dir model.Directory, f model.Filter) []model.Entry {
	q := f.Query()
	all := dir.Entries()
	out := all[:0]
	for _, e := range all {
		if !f.AllCategories() && e.Activity.Category != f.Category {
			continue
		}
		if q != "" && !matches(e, q) {
			continue
		}
		out = append(out, e)
	}

	switch f.Sort {
	case model.SortByName:
		c := collate.New(language.English)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Name, out[j].Name) < 0
		})
	case model.SortBySpots:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Activity.SpotsLeft() > out[j].Activity.SpotsLeft()
		})
	}
	return out
}

func matches(e model.Entry, q string) bool {
	return strings.Contains(strings.ToLower(e.Name), q) ||
		strings.Contains(strings.ToLower(e.Activity.Description), q)
}

func newCard(e model.Entry, authenticated bool) Card {
	a := e.Activity
	c := Card{
		Name:            e.Name,
		Description:     renderDescription(a.Description),
		Schedule:        a.Schedule,
		Category:        a.Category,
		MaxParticipants: a.MaxParticipants,
		SpotsLeft:       a.SpotsLeft(),
	}
	for _, email := range a.Participants {
		c.Participants = append(c.Participants, Participant{
			Activity:  e.Name,
			Email:     email,
			Key:       e.Name + "::" + email,
			Removable: authenticated,
		})
	}
	return c
}

func renderDescription(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func categoryOptions(dir model.Directory, f model.Filter) []Option {
	opts := []Option{{Value: model.CategoryAll, Label: AllCategoriesText, Selected: f.AllCategories()}}
	for _, c := range dir.Categories() {
		opts = append(opts, Option{Value: c, Label: c, Selected: c == f.Category})
	}
	return opts
}

func sortOptions(f model.Filter) []Option {
	return []Option{
		{Value: string(model.SortByName), Label: "Name", Selected: f.Sort == model.SortByName},
		{Value: string(model.SortBySpots), Label: "Spots available", Selected: f.Sort == model.SortBySpots},
	}
}

// targetOptions lists every activity, unfiltered, for the signup form.
func targetOptions(dir model.Directory) []Option {
	opts := []Option{{Value: "", Label: SelectTargetText}}
	for _, name := range dir.Names() {
		opts = append(opts, Option{Value: name, Label: name})
	}
	return opts
}
