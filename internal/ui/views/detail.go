package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
	"github.com/tgienger/tung/internal/ui/keys"
	"github.com/tgienger/tung/internal/ui/styles"
)

// DetailView shows one listing with its assignees and reviews and offers
// the take, leave and complete actions
type DetailView struct {
	svc     *market.Service
	session *Session
	styles  *styles.Styles
	keys    keys.KeyMap
	now     func() time.Time

	width  int
	height int

	listing models.Listing
	detail  *market.Detail
	loading bool
	busy    string // action in flight

	viewport viewport.Model
	spinner  spinner.Model
	notices  noticeBox

	ctx    context.Context
	cancel context.CancelFunc

	showHelpPopup bool
}

// NewDetailView creates a detail screen for l. The summary fields of l are
// shown until the full detail arrives.
func NewDetailView(svc *market.Service, session *Session, l models.Listing) *DetailView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Current.Accent)

	ctx, cancel := context.WithCancel(context.Background())
	return &DetailView{
		svc:      svc,
		session:  session,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		now:      time.Now,
		listing:  l,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		ctx:      ctx,
		cancel:   cancel,
	}
}

type detailLoadedMsg struct {
	detail market.Detail
	err    error
}

type mutationDoneMsg struct {
	action   string
	mutation market.Mutation
	err      error
}

// Init loads the listing detail
func (v *DetailView) Init() tea.Cmd {
	return v.load()
}

// Close abandons in-flight requests
func (v *DetailView) Close() {
	v.cancel()
}

func (v *DetailView) load() tea.Cmd {
	v.loading = true
	ctx, svc, id := v.ctx, v.svc, v.listing.ID
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		d, err := svc.Detail(ctx, id)
		return detailLoadedMsg{detail: d, err: err}
	})
}

func (v *DetailView) run(action string, call func(ctx context.Context) (market.Mutation, error)) tea.Cmd {
	if !v.session.LoggedIn() {
		return tea.Batch(
			v.notices.set(Notice{Text: "Log in to " + action + " listings"}),
			func() tea.Msg { return OpenAuth{} },
		)
	}
	if v.busy != "" {
		return nil
	}
	v.busy = action
	ctx := v.ctx
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		m, err := call(ctx)
		return mutationDoneMsg{action: action, mutation: m, err: err}
	})
}

// Update handles messages
func (v *DetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.viewport.Width = max(styles.ContentWidth(v.width)-4, 20)
		v.viewport.Height = max(v.height-10, 3)
		v.viewport.SetContent(v.renderBody())
		return v, nil

	case detailLoadedMsg:
		v.loading = false
		if msg.err != nil {
			return v, v.notices.set(Notice{Text: "Could not load listing: " + market.Message(msg.err), Error: true})
		}
		v.detail = &msg.detail
		v.listing = msg.detail.Listing
		v.viewport.SetContent(v.renderBody())
		return v, nil

	case mutationDoneMsg:
		v.busy = ""
		if msg.err != nil {
			return v, v.notices.set(Notice{Text: market.Message(msg.err), Error: true})
		}
		v.listing = msg.mutation.Listing
		text := strings.TrimSpace(msg.mutation.Message)
		if text == "" {
			text = "Listing updated"
		}
		changed := msg.mutation.Listing
		cmds := []tea.Cmd{
			v.notices.set(Notice{Text: text}),
			func() tea.Msg { return ListingChanged{Listing: changed} },
		}
		if msg.action == "complete" && v.detail != nil && len(v.detail.Assigned) > 0 {
			assigned := v.detail.Assigned
			cmds = append(cmds, func() tea.Msg { return OpenReview{Listing: changed, Assigned: assigned} })
		} else {
			cmds = append(cmds, v.load())
		}
		v.viewport.SetContent(v.renderBody())
		return v, tea.Batch(cmds...)

	case ListingChanged:
		if msg.Listing.ID == v.listing.ID {
			v.listing = msg.Listing
			v.viewport.SetContent(v.renderBody())
		}
		return v, nil

	case Notice:
		return v, v.notices.set(msg)

	case clearNoticeMsg:
		v.notices.clear(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.loading && v.busy == "" {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		return v.updateKeys(msg)
	}

	return v, nil
}

func (v *DetailView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id, uid := v.listing.ID, v.session.UID()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		v.Close()
		return v, func() tea.Msg { return BackToListings{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Refresh):
		return v, v.load()

	case key.Matches(msg, v.keys.Take):
		if v.listing.Status != models.StatusOpen {
			return v, v.notices.set(Notice{Text: "Only open listings can be taken"})
		}
		return v, v.run("take", func(ctx context.Context) (market.Mutation, error) {
			return v.svc.Assign(ctx, id, uid)
		})

	case key.Matches(msg, v.keys.Leave):
		return v, v.run("leave", func(ctx context.Context) (market.Mutation, error) {
			return v.svc.Unassign(ctx, id, uid)
		})

	case key.Matches(msg, v.keys.Complete):
		if v.listing.Status == models.StatusCompleted {
			return v, v.notices.set(Notice{Text: "Listing is already completed"})
		}
		return v, v.run("complete", func(ctx context.Context) (market.Mutation, error) {
			return v.svc.Complete(ctx, id, uid)
		})
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the view
func (v *DetailView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	title := s.Title.Render(truncate(v.listing.Name, max(contentWidth-20, 10)))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", s.StatusBadge(v.listing.Status))

	var status string
	switch {
	case v.notices.notice.Text != "" && v.notices.notice.Error:
		status = s.NoticeError.Render(v.notices.notice.Text)
	case v.notices.notice.Text != "":
		status = s.Notice.Render(v.notices.notice.Text)
	case v.busy != "":
		status = s.StatusBar.Render(v.spinner.View() + " " + v.busy + "...")
	case v.loading:
		status = s.StatusBar.Render(v.spinner.View() + " Loading...")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		v.viewport.View(),
		"",
		status,
		v.renderHelp(),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *DetailView) renderBody() string {
	s := v.styles
	l := v.listing
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(s.Label.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Price", s.ListingPrice.Render(formatPrice(l.Price)))
	row("Duration", formatDuration(l.Duration))
	row("Capacity", fmt.Sprintf("%d", l.Capacity))
	row("Deadline", formatDeadline(l.Deadline, v.now()))
	row("Address", l.Address)
	if d := formatDistance(l.Distance); d != "" {
		row("Distance", d)
	}
	if !l.PostingTime.IsZero() {
		row("Posted", l.PostingTime.Local().Format("Jan 2 2006 15:04"))
	}

	if desc := strings.TrimSpace(l.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(max(v.viewport.Width-2, 20)).Render(desc))
		b.WriteString("\n")
	}

	if v.detail == nil {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(s.Title.Render(fmt.Sprintf("Assigned (%d/%d)", len(v.detail.Assigned), l.Capacity)))
	b.WriteString("\n")
	if len(v.detail.Assigned) == 0 {
		b.WriteString(s.TitleMuted.Render("Nobody has taken this listing yet."))
		b.WriteString("\n")
	}
	for _, a := range v.detail.Assigned {
		name := a.Name
		if a.UID == v.session.UID() {
			name += s.TitleMuted.Render(" (you)")
		}
		b.WriteString("  • " + name + "\n")
	}

	b.WriteString("\n")
	b.WriteString(s.Title.Render(fmt.Sprintf("Reviews (%d)", len(v.detail.Reviews))))
	b.WriteString("\n")
	if len(v.detail.Reviews) == 0 {
		b.WriteString(s.TitleMuted.Render("No reviews yet."))
		b.WriteString("\n")
	}
	for _, r := range v.detail.Reviews {
		b.WriteString(s.Star.Render(stars(float64(r.Rating))))
		b.WriteString(" ")
		b.WriteString(s.TitleMuted.Render(r.Reviewer + " → " + r.Reviewee))
		b.WriteString("\n")
		if c := strings.TrimSpace(r.Comment); c != "" {
			b.WriteString("  " + c + "\n")
		}
	}
	return b.String()
}

func (v *DetailView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	k := v.styles.HelpKey.Render
	return v.styles.Help.Render(
		fmt.Sprintf("%s take • %s leave • %s complete • %s refresh • %s scroll • %s back",
			k("t"), k("u"), k("c"), k("r"), k("↑↓"), k("esc"),
		),
	)
}

func (v *DetailView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("t") + "      take this listing",
		s.HelpKey.Render("u") + "      leave this listing",
		s.HelpKey.Render("c") + "      mark completed and review",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("↑↓") + "     scroll",
		s.HelpKey.Render("esc") + "    back to listings",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Listing"), ""}, helpItems...)...,
	)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
