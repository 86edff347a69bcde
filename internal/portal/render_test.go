package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/activities-portal/internal/model"
	"github.com/sakif/activities-portal/internal/notify"
)

func entry(name, category string, max int, participants ...string) model.Entry {
	return model.Entry{Name: name, Activity: model.Activity{
		Description:     name + " description",
		Schedule:        "Mondays",
		Category:        category,
		MaxParticipants: max,
		Participants:    participants,
	}}
}

func schoolDirectory() model.Directory {
	return model.NewDirectory(
		entry("Soccer Team", "Sports", 22, "a@x.edu", "b@x.edu"),
		entry("art club", "Arts", 15),
		entry("Basketball Team", "Sports", 15, "c@x.edu"),
		entry("Drama Club", "Arts", 20, "d@x.edu"),
		entry("Math Olympiad", "", 10),
	)
}

func cardNames(v View) []string {
	names := make([]string, 0, len(v.Cards))
	for _, c := range v.Cards {
		names = append(names, c.Name)
	}
	return names
}

func loggedIn() model.Session {
	return model.Session{Token: "tok", User: &model.User{Name: "Ms. Rodriguez"}}
}

// =========================================================================
// SCENARIOS
// =========================================================================

func TestRender_ChessClubSearch(t *testing.T) {
	s := NewState()
	s = Apply(s, DirectoryLoaded{Directory: model.NewDirectory(model.Entry{
		Name: "Chess Club",
		Activity: model.Activity{
			MaxParticipants: 10,
			Participants:    []string{"a@x.com"},
			Category:        "Games",
		},
	})})

	v := Render(Apply(s, SearchChanged{Text: "chess"}))
	require.Len(t, v.Cards, 1)
	assert.Equal(t, "Chess Club", v.Cards[0].Name)
	assert.Equal(t, 9, v.Cards[0].SpotsLeft)
	assert.False(t, v.Empty)

	v = Render(Apply(s, SearchChanged{Text: "art"}))
	assert.Empty(t, v.Cards)
	assert.True(t, v.Empty)
}

func TestRender_IsPure(t *testing.T) {
	s := ApplyAll(NewState(),
		DirectoryLoaded{Directory: schoolDirectory()},
		SortChanged{Mode: model.SortBySpots},
		SearchChanged{Text: "team"},
		SessionStarted{Session: loggedIn()},
	)

	first := Render(s)
	second := Render(s)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Soccer Team", "art club", "Basketball Team", "Drama Club", "Math Olympiad"},
		s.Directory.Names(), "rendering must not reorder the directory")
}

func TestRender_CategoryPartition(t *testing.T) {
	dir := schoolDirectory()
	all := Visible(dir, model.Filter{Category: model.CategoryAll})
	require.Len(t, all, dir.Len())

	seen := make(map[string]int)
	for _, c := range append(dir.Categories(), "") {
		for _, e := range Visible(dir, model.Filter{Category: c}) {
			seen[e.Name]++
			if c != "" {
				assert.Equal(t, c, e.Activity.Category)
			}
		}
	}
	// "" means all, so every entry is counted once for it plus once for its own category
	for _, e := range all {
		want := 1
		if e.Activity.Category != "" {
			want = 2
		}
		assert.Equal(t, want, seen[e.Name], e.Name)
	}

	var union int
	for _, c := range dir.Categories() {
		union += len(Visible(dir, model.Filter{Category: c}))
	}
	assert.Equal(t, 4, union, "single categories do not overlap")
}

func TestRender_UnknownCategoryShowsPlaceholder(t *testing.T) {
	s := ApplyAll(NewState(), DirectoryLoaded{Directory: schoolDirectory()}, CategoryChanged{Category: "sports"})
	v := Render(s)
	assert.True(t, v.Empty, "category match is exact")
}

func TestRender_Search(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"blank keeps all", "   ", []string{"art club", "Basketball Team", "Drama Club", "Math Olympiad", "Soccer Team"}},
		{"case-insensitive name", "TEAM", []string{"Basketball Team", "Soccer Team"}},
		{"trimmed", "  drama  ", []string{"Drama Club"}},
		{"matches description", "olympiad description", []string{"Math Olympiad"}},
		{"no match", "underwater basket weaving", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ApplyAll(NewState(), DirectoryLoaded{Directory: schoolDirectory()}, SearchChanged{Text: tt.search})
			v := Render(s)
			if tt.want == nil {
				assert.True(t, v.Empty)
				assert.Empty(t, v.Cards)
				return
			}
			assert.Equal(t, tt.want, cardNames(v))
		})
	}
}

// =========================================================================
// SORTING
// =========================================================================

func TestVisible_SortByNameIsCollated(t *testing.T) {
	got := Visible(schoolDirectory(), model.Filter{Sort: model.SortByName})
	names := make([]string, 0, len(got))
	for _, e := range got {
		names = append(names, e.Name)
	}
	// a byte-wise sort would put "art club" last
	assert.Equal(t, []string{"art club", "Basketball Team", "Drama Club", "Math Olympiad", "Soccer Team"}, names)
}

func TestVisible_SortBySpotsIsStableDescending(t *testing.T) {
	dir := model.NewDirectory(
		entry("A", "", 5, "1"),      // 4
		entry("B", "", 10),          // 10
		entry("C", "", 6, "1", "2"), // 4
		entry("D", "", 4),           // 4
		entry("E", "", 2, "1", "2", "3"),
	)

	got := Visible(dir, model.Filter{Sort: model.SortBySpots})
	names := make([]string, 0, len(got))
	for _, e := range got {
		names = append(names, e.Name)
	}
	// ties at 4 keep declaration order A, C, D; E is over-enrolled at -1
	assert.Equal(t, []string{"B", "A", "C", "D", "E"}, names)
}

func TestVisible_UnknownSortKeepsFilteredOrder(t *testing.T) {
	got := Visible(schoolDirectory(), model.Filter{Sort: "popularity"})
	assert.Equal(t, "Soccer Team", got[0].Name)
	assert.Equal(t, "Math Olympiad", got[len(got)-1].Name)
}

// =========================================================================
// CARDS
// =========================================================================

func TestRender_ParticipantsGatedBySession(t *testing.T) {
	base := ApplyAll(NewState(), DirectoryLoaded{Directory: schoolDirectory()}, SearchChanged{Text: "soccer"})

	anon := Render(base)
	require.Len(t, anon.Cards, 1)
	require.Len(t, anon.Cards[0].Participants, 2)
	for _, p := range anon.Cards[0].Participants {
		assert.False(t, p.Removable)
	}
	assert.False(t, anon.Authenticated)

	authed := Render(Apply(base, SessionStarted{Session: loggedIn()}))
	assert.True(t, authed.Authenticated)
	assert.Equal(t, "Ms. Rodriguez", authed.UserName)
	p := authed.Cards[0].Participants[1]
	assert.True(t, p.Removable)
	assert.Equal(t, "Soccer Team", p.Activity)
	assert.Equal(t, "b@x.edu", p.Email)
	assert.Equal(t, "Soccer Team::b@x.edu", p.Key)

	ended := Render(Apply(Apply(base, SessionStarted{Session: loggedIn()}), SessionEnded{}))
	assert.False(t, ended.Cards[0].Participants[0].Removable)
}

func TestRender_EmptyParticipants(t *testing.T) {
	s := ApplyAll(NewState(), DirectoryLoaded{Directory: schoolDirectory()}, SearchChanged{Text: "art club"})
	v := Render(s)
	require.Len(t, v.Cards, 1)
	assert.Empty(t, v.Cards[0].Participants)
	assert.Equal(t, 15, v.Cards[0].SpotsLeft)
}

func TestRender_DescriptionMarkdownIsSafe(t *testing.T) {
	dir := model.NewDirectory(model.Entry{Name: "Coding", Activity: model.Activity{
		Description: "Learn **Go**. <script>alert(1)</script> [x](javascript:alert(1))",
	}})
	v := Render(Apply(NewState(), DirectoryLoaded{Directory: dir}))
	require.Len(t, v.Cards, 1)

	html := string(v.Cards[0].Description)
	assert.Contains(t, html, "<strong>Go</strong>")
	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "javascript:")
}

// =========================================================================
// DROPDOWNS, LOAD FAILURE, NOTICE
// =========================================================================

func TestRender_Dropdowns(t *testing.T) {
	s := ApplyAll(NewState(),
		DirectoryLoaded{Directory: schoolDirectory()},
		CategoryChanged{Category: "Arts"},
		SearchChanged{Text: "nothing matches this"},
	)
	v := Render(s)

	require.Len(t, v.Categories, 3)
	assert.Equal(t, Option{Value: model.CategoryAll, Label: AllCategoriesText}, v.Categories[0])
	assert.Equal(t, Option{Value: "Sports", Label: "Sports"}, v.Categories[1])
	assert.Equal(t, Option{Value: "Arts", Label: "Arts", Selected: true}, v.Categories[2])

	// signup targets ignore the filter
	require.Len(t, v.Targets, 6)
	assert.Equal(t, Option{Value: "", Label: SelectTargetText}, v.Targets[0])
	assert.Equal(t, "Soccer Team", v.Targets[1].Value)
	assert.Equal(t, "Math Olympiad", v.Targets[5].Value)

	require.Len(t, v.Sorts, 2)
	assert.True(t, v.Sorts[0].Selected, "name is the default sort")
}

func TestRender_LoadFailed(t *testing.T) {
	s := ApplyAll(NewState(), DirectoryLoaded{Directory: schoolDirectory()}, DirectoryFailed{})
	v := Render(s)
	assert.True(t, v.LoadFailed)
	assert.Empty(t, v.Cards)
	assert.False(t, v.Empty, "the failure message replaces the placeholder")
	assert.Len(t, v.Targets, 6)

	v = Render(Apply(s, DirectoryLoaded{Directory: model.NewDirectory()}))
	assert.False(t, v.LoadFailed)
	assert.True(t, v.Empty)
	assert.Len(t, v.Targets, 1)
}

func TestRender_Notice(t *testing.T) {
	s := Apply(NewState(), NoticeShown{Notice: notify.Notice{Severity: notify.Info, Text: "You have been logged out."}})
	v := Render(s)
	require.NotNil(t, v.Notice)
	assert.Equal(t, notify.Info, v.Notice.Severity)

	v = Render(Apply(s, NoticeHidden{}))
	assert.Nil(t, v.Notice)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	user := &model.User{Name: "Mr. Chen"}
	s := NewState()
	next := ApplyAll(s,
		SearchChanged{Text: "x"},
		SessionStarted{Session: model.Session{Token: "t", User: user}},
	)

	assert.Equal(t, "", s.Filter.Search)
	assert.False(t, s.Session.Active())
	assert.Equal(t, "x", next.Filter.Search)

	user.Name = "changed later"
	assert.Equal(t, "Mr. Chen", next.Session.User.Name)
	assert.Equal(t, s, Apply(s, nil))
}
