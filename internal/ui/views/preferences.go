package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
	"github.com/tgienger/tung/internal/ui/keys"
	"github.com/tgienger/tung/internal/ui/styles"
)

const preferenceRows = 10

// PreferencesView is the onboarding screen where a new user picks the
// categories they are interested in
type PreferencesView struct {
	svc     *market.Service
	session *Session
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	filter     textinput.Model
	categories []models.TaskCategory
	matches    []fuzzy.Match
	cursor     int
	selected   map[int64]bool
	busy       bool
	err        string

	ctx    context.Context
	cancel context.CancelFunc
}

func NewPreferencesView(svc *market.Service, session *Session) *PreferencesView {
	filter := textinput.New()
	filter.Placeholder = "Filter categories..."
	filter.CharLimit = 40
	filter.Prompt = "⌕ "

	ctx, cancel := context.WithCancel(context.Background())
	return &PreferencesView{
		svc:      svc,
		session:  session,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		filter:   filter,
		selected: make(map[int64]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

type preferenceCategoriesMsg struct {
	categories []models.TaskCategory
	err        error
}

type preferencesSavedMsg struct {
	err error
}

func (v *PreferencesView) Init() tea.Cmd {
	ctx, svc := v.ctx, v.svc
	return tea.Batch(v.filter.Focus(), func() tea.Msg {
		cats, err := svc.Categories(ctx)
		return preferenceCategoriesMsg{categories: cats, err: err}
	})
}

func (v *PreferencesView) Close() {
	v.cancel()
}

// refilter ranks the categories against the filter text. An empty filter
// lists every category in server order.
func (v *PreferencesView) refilter() {
	pattern := strings.ToLower(strings.TrimSpace(v.filter.Value()))
	if pattern == "" {
		v.matches = make([]fuzzy.Match, len(v.categories))
		for i, c := range v.categories {
			v.matches[i] = fuzzy.Match{Str: c.Name, Index: i}
		}
	} else {
		v.matches = fuzzy.FindFrom(pattern, categorySource(v.categories))
	}
	v.cursor = clamp(v.cursor, 0, max(0, len(v.matches)-1))
}

// Selected returns the chosen category ids in server order
func (v *PreferencesView) Selected() []int64 {
	var ids []int64
	for _, c := range v.categories {
		if v.selected[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (v *PreferencesView) save() tea.Cmd {
	ids := v.Selected()
	if len(ids) == 0 {
		v.err = "Pick at least one category, or press esc to skip"
		return nil
	}
	if v.busy {
		return nil
	}
	v.busy = true
	ctx, svc, uid := v.ctx, v.svc, v.session.UID()
	return func() tea.Msg {
		return preferencesSavedMsg{err: svc.SavePreferences(ctx, uid, ids)}
	}
}

// Update handles messages
func (v *PreferencesView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case preferenceCategoriesMsg:
		if msg.err != nil {
			v.err = "Could not load categories: " + market.Message(msg.err)
			return v, nil
		}
		v.categories = msg.categories
		v.refilter()
		return v, nil

	case preferencesSavedMsg:
		v.busy = false
		if msg.err != nil {
			v.err = market.Message(msg.err)
			return v, nil
		}
		v.Close()
		return v, tea.Sequence(
			func() tea.Msg { return BackToListings{} },
			notify("Preferences saved", false),
		)

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			v.Close()
			return v, func() tea.Msg { return BackToListings{} }
		case key.Matches(msg, v.keys.Save):
			return v, v.save()
		case msg.String() == "up":
			v.cursor = max(0, v.cursor-1)
			return v, nil
		case msg.String() == "down":
			v.cursor = min(max(0, len(v.matches)-1), v.cursor+1)
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if v.cursor < len(v.matches) {
				id := v.categories[v.matches[v.cursor].Index].ID
				v.selected[id] = !v.selected[id]
				v.err = ""
			}
			return v, nil
		}

		before := v.filter.Value()
		var cmd tea.Cmd
		v.filter, cmd = v.filter.Update(msg)
		if v.filter.Value() != before {
			v.refilter()
		}
		return v, cmd
	}

	return v, nil
}

// View renders the view
func (v *PreferencesView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	start := max(0, v.cursor-preferenceRows+1)
	end := min(len(v.matches), start+preferenceRows)
	var rows []string
	for i := start; i < end; i++ {
		c := v.categories[v.matches[i].Index]
		mark := "[ ] "
		if v.selected[c.ID] {
			mark = "[x] "
		}
		style := s.Suggestion
		if i == v.cursor {
			style = s.SuggestionSelected
		}
		rows = append(rows, style.Render(mark+c.Name))
	}
	if len(rows) == 0 {
		rows = append(rows, s.TitleMuted.Render("No matching categories"))
	}

	status := s.TitleMuted.Render(fmt.Sprintf("%d selected", len(v.Selected())))
	if v.busy {
		status = s.TitleMuted.Render("Saving...")
	} else if v.err != "" {
		status = s.NoticeError.Render(v.err)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("What kind of work interests you?"),
		s.TitleMuted.Render("We use this to rank listings for you."),
		"",
		s.InputFocused.Render(v.filter.View()),
		"",
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		"",
		status,
		s.TitleMuted.Render("↑↓: move • Enter: toggle • Ctrl+S: save • Esc: skip"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
