package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
	"github.com/tgienger/tung/internal/ui/keys"
	"github.com/tgienger/tung/internal/ui/styles"
)

// ReviewView walks the poster through rating each worker of a completed
// listing. Any worker can be skipped.
type ReviewView struct {
	svc     *market.Service
	session *Session
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	listing  models.Listing
	assigned []models.AssignedUser
	index    int
	rating   int
	comment  textarea.Model
	onRating bool
	busy     bool
	err      string
	done     int
	spinner  spinner.Model

	ctx    context.Context
	cancel context.CancelFunc
}

// NewReviewView starts the flow at the first assignee
func NewReviewView(svc *market.Service, session *Session, l models.Listing, assigned []models.AssignedUser) *ReviewView {
	comment := textarea.New()
	comment.Placeholder = "How did it go? (optional)"
	comment.CharLimit = 1000
	comment.SetWidth(50)
	comment.SetHeight(4)
	comment.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())
	return &ReviewView{
		svc:      svc,
		session:  session,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		listing:  l,
		assigned: assigned,
		comment:  comment,
		onRating: true,
		spinner:  sp,
		ctx:      ctx,
		cancel:   cancel,
	}
}

type reviewSubmittedMsg struct {
	err error
}

// Init finishes at once when there is nobody to review
func (v *ReviewView) Init() tea.Cmd {
	if len(v.assigned) == 0 {
		return v.finish()
	}
	return nil
}

// Close abandons an in-flight submission
func (v *ReviewView) Close() {
	v.cancel()
}

func (v *ReviewView) current() models.AssignedUser {
	return v.assigned[v.index]
}

// advance moves to the next assignee or leaves the flow
func (v *ReviewView) advance() tea.Cmd {
	v.index++
	v.rating = 0
	v.err = ""
	v.comment.Reset()
	v.onRating = true
	v.comment.Blur()
	if v.index >= len(v.assigned) {
		return v.finish()
	}
	return nil
}

func (v *ReviewView) finish() tea.Cmd {
	v.Close()
	l, n := v.listing, v.done
	open := func() tea.Msg { return OpenListing{Listing: l} }
	if n == 0 {
		return open
	}
	return tea.Sequence(open, notify(fmt.Sprintf("Submitted %d review(s)", n), false))
}

func (v *ReviewView) submit() tea.Cmd {
	if v.busy {
		return nil
	}
	if v.rating < 1 {
		v.err = "Pick a rating from 1 to 5"
		return nil
	}
	v.busy = true
	v.err = ""
	r := models.NewReview{
		ListingID:   v.listing.ID,
		ReviewerUID: v.session.UID(),
		RevieweeUID: v.current().UID,
		Rating:      v.rating,
		Comment:     v.comment.Value(),
	}
	ctx, svc := v.ctx, v.svc
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		return reviewSubmittedMsg{err: svc.SubmitReview(ctx, r)}
	})
}

// Update handles messages
func (v *ReviewView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.comment.SetWidth(clamp(styles.ContentWidth(v.width)-10, 20, 60))
		return v, nil

	case reviewSubmittedMsg:
		v.busy = false
		if msg.err != nil {
			v.err = market.Message(msg.err)
			return v, nil
		}
		v.done++
		return v, v.advance()

	case spinner.TickMsg:
		if !v.busy {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit

		case key.Matches(msg, v.keys.Back):
			// skip this worker
			return v, v.advance()

		case key.Matches(msg, v.keys.Save):
			return v, v.submit()

		case key.Matches(msg, v.keys.Tab), msg.String() == "shift+tab":
			v.onRating = !v.onRating
			if v.onRating {
				v.comment.Blur()
				return v, nil
			}
			return v, v.comment.Focus()
		}

		if v.onRating {
			return v.updateRating(msg)
		}
		var cmd tea.Cmd
		v.comment, cmd = v.comment.Update(msg)
		return v, cmd
	}

	return v, nil
}

func (v *ReviewView) updateRating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch s := msg.String(); {
	case len(s) == 1 && s[0] >= '1' && s[0] <= '5':
		v.rating = int(s[0] - '0')
	case key.Matches(msg, v.keys.Left):
		v.rating = max(1, v.rating-1)
	case key.Matches(msg, v.keys.Right):
		v.rating = min(5, v.rating+1)
	case key.Matches(msg, v.keys.Enter):
		if v.rating < 1 {
			v.err = "Pick a rating from 1 to 5"
			return v, nil
		}
		v.onRating = false
		return v, v.comment.Focus()
	}
	return v, nil
}

// View renders the view
func (v *ReviewView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	if v.index >= len(v.assigned) {
		return ""
	}

	ratingStyle := s.Input
	commentStyle := s.Input
	if v.onRating {
		ratingStyle = s.InputFocused
	} else {
		commentStyle = s.InputFocused
	}

	starsLine := s.Star.Render(strings.Repeat("★", v.rating)) + s.TitleMuted.Render(strings.Repeat("☆", 5-v.rating))

	status := ""
	switch {
	case v.busy:
		status = v.spinner.View() + " Submitting..."
	case v.err != "":
		status = s.NoticeError.Render(v.err)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Review "+v.current().Name),
		s.TitleMuted.Render(fmt.Sprintf("%s · worker %d of %d", v.listing.Name, v.index+1, len(v.assigned))),
		"",
		"Rating:",
		ratingStyle.Render(starsLine),
		"",
		"Comment:",
		commentStyle.Render(v.comment.View()),
		"",
		status,
		s.TitleMuted.Render("1-5/←→: rate • Tab: comment • Ctrl+S: submit • Esc: skip"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
