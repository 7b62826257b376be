package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
	"github.com/tgienger/tung/internal/ui/keys"
	"github.com/tgienger/tung/internal/ui/styles"
)

// ProfileView shows the logged in user's account, reviews and listings
type ProfileView struct {
	svc     *market.Service
	session *Session
	styles  *styles.Styles
	keys    keys.KeyMap
	now     func() time.Time

	width  int
	height int

	profile  *models.Profile
	loading  bool
	err      string
	viewport viewport.Model

	ctx    context.Context
	cancel context.CancelFunc
}

func NewProfileView(svc *market.Service, session *Session) *ProfileView {
	ctx, cancel := context.WithCancel(context.Background())
	return &ProfileView{
		svc:      svc,
		session:  session,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		now:      time.Now,
		viewport: viewport.New(0, 0),
		ctx:      ctx,
		cancel:   cancel,
	}
}

type profileLoadedMsg struct {
	profile models.Profile
	err     error
}

func (v *ProfileView) Init() tea.Cmd {
	return v.load()
}

func (v *ProfileView) Close() {
	v.cancel()
}

func (v *ProfileView) load() tea.Cmd {
	v.loading = true
	ctx, svc, uid := v.ctx, v.svc, v.session.UID()
	return func() tea.Msg {
		p, err := svc.Profile(ctx, uid)
		return profileLoadedMsg{profile: p, err: err}
	}
}

// Update handles messages
func (v *ProfileView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.viewport.Width = max(styles.ContentWidth(v.width)-4, 20)
		v.viewport.Height = max(v.height-6, 3)
		v.viewport.SetContent(v.renderBody())
		return v, nil

	case profileLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = "Could not load profile: " + market.Message(msg.err)
			return v, nil
		}
		v.err = ""
		v.profile = &msg.profile
		v.viewport.SetContent(v.renderBody())
		v.viewport.GotoTop()
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			v.Close()
			return v, func() tea.Msg { return BackToListings{} }
		case key.Matches(msg, v.keys.Refresh):
			return v, v.load()
		case key.Matches(msg, v.keys.Logout):
			v.Close()
			return v, func() tea.Msg { return LoggedOut{} }
		}
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	return v, nil
}

// View renders the view
func (v *ProfileView) View() string {
	s := v.styles

	title := "Profile"
	if v.session.User != nil {
		title = v.session.User.Name
	}

	status := ""
	switch {
	case v.loading:
		status = s.TitleMuted.Render("Loading...")
	case v.err != "":
		status = s.NoticeError.Render(v.err)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(title),
		"",
		v.viewport.View(),
		status,
		s.Help.Render(fmt.Sprintf("%s scroll • %s refresh • %s log out • %s back",
			s.HelpKey.Render("↑↓"), s.HelpKey.Render("r"), s.HelpKey.Render("X"), s.HelpKey.Render("esc"))),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProfileView) renderBody() string {
	s := v.styles
	p := v.profile
	if p == nil {
		return ""
	}
	var b strings.Builder

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(s.Label.Render(fmt.Sprintf("%-10s", label)) + " " + value + "\n")
	}
	row("Email", p.Email)
	row("Phone", p.PhoneNumber)
	if p.OverallRating != nil {
		row("Rating", s.Star.Render(stars(*p.OverallRating))+fmt.Sprintf(" %.1f", *p.OverallRating))
	} else {
		row("Rating", s.TitleMuted.Render("no ratings yet"))
	}
	if p.TotalEarnings != nil {
		row("Earned", s.ListingPrice.Render(formatPrice(*p.TotalEarnings)))
	}

	section := func(title string, n int) {
		b.WriteString("\n" + s.Title.Render(fmt.Sprintf("%s (%d)", title, n)) + "\n")
	}

	section("Reviews", len(p.Reviews))
	for _, r := range p.Reviews {
		line := s.Star.Render(stars(float64(r.Rating)))
		if r.ReviewerName != "" {
			line += " " + s.TitleMuted.Render("from "+r.ReviewerName)
		}
		if r.ListingName != "" {
			line += s.TitleMuted.Render(" on " + r.ListingName)
		}
		b.WriteString(line + "\n")
		if c := strings.TrimSpace(r.Comment); c != "" {
			b.WriteString("  " + c + "\n")
		}
	}

	listingLines := func(ls []models.Listing) {
		for _, l := range ls {
			b.WriteString(fmt.Sprintf("  %s %s %s\n", s.StatusBadge(l.Status), l.Name,
				s.TitleMuted.Render(formatPrice(l.Price)+" · "+formatDeadline(l.Deadline, v.now()))))
		}
	}
	section("Posted", len(p.CreatedListings))
	listingLines(p.CreatedListings)
	section("Working on", len(p.AssignedListings))
	listingLines(p.AssignedListings)

	return b.String()
}
