package views

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/tung/internal/models"
)

// noticeTimeout is how long a status bar notice stays visible
const noticeTimeout = 4 * time.Second

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// Session is the logged-in user shared by every view. It is only read and
// written on the event loop.
type Session struct {
	User *models.User
}

// UID returns the viewer's id, 0 when anonymous
func (s *Session) UID() int64 {
	if s == nil || s.User == nil {
		return 0
	}
	return s.User.UID
}

// LoggedIn reports whether a user is set
func (s *Session) LoggedIn() bool {
	return s.UID() != 0
}

// Navigation messages handled by the app router

type OpenListing struct {
	Listing models.Listing
}

type BackToListings struct{}

type OpenAuth struct{}

type OpenCreate struct{}

type OpenProfile struct{}

type OpenPreferences struct{}

// OpenReview starts the review flow for a completed listing
type OpenReview struct {
	Listing  models.Listing
	Assigned []models.AssignedUser
}

// ListingChanged carries the server's state of a listing after a mutation
type ListingChanged struct {
	Listing models.Listing
}

// ListingCreated is sent after a listing was posted
type ListingCreated struct {
	Listing models.Listing
}

// LoggedIn is sent after a successful login or signup
type LoggedIn struct {
	User       models.User
	NewAccount bool
}

type LoggedOut struct{}

// Notice is a transient status bar message
type Notice struct {
	Text  string
	Error bool
}

func notify(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return Notice{Text: text, Error: isError} }
}

// noticeBox holds the current notice and expires it
type noticeBox struct {
	notice Notice
	seq    int
}

type clearNoticeMsg struct{ seq int }

func (b *noticeBox) set(n Notice) tea.Cmd {
	b.notice = n
	b.seq++
	seq := b.seq
	return tea.Tick(noticeTimeout, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

func (b *noticeBox) clear(msg clearNoticeMsg) {
	if msg.seq == b.seq {
		b.notice = Notice{}
	}
}

// formatDuration renders a duration in minutes as days, hours or minutes
func formatDuration(minutes int) string {
	switch {
	case minutes <= 0:
		return "-"
	case minutes >= 24*60:
		days := minutes / (24 * 60)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	case minutes >= 60:
		h, m := minutes/60, minutes%60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", minutes)
}

func formatPrice(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("$%.0f", p)
	}
	return fmt.Sprintf("$%.2f", p)
}

// formatDeadline renders t relative to now for near deadlines
func formatDeadline(t models.Timestamp, now time.Time) string {
	if t.IsZero() {
		return "no deadline"
	}
	d := t.Sub(now)
	switch {
	case d < 0:
		return "expired " + t.Local().Format("Jan 2")
	case d < time.Hour:
		return fmt.Sprintf("due in %dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("due in %dh", int(d.Hours()))
	}
	return "due " + t.Local().Format("Mon Jan 2 15:04")
}

// formatDistance renders a coordinate-space distance as rough kilometres
func formatDistance(d *float64) string {
	if d == nil {
		return ""
	}
	km := *d * 111
	if km < 1 {
		return fmt.Sprintf("%.0f m", km*1000)
	}
	return fmt.Sprintf("%.1f km", km)
}

func stars(rating float64) string {
	n := clamp(int(math.Round(rating)), 0, 5)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
