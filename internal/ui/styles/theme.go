package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tung/internal/models"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color

	// Listing status colors
	StatusOpen      lipgloss.Color
	StatusTaken     lipgloss.Color
	StatusCompleted lipgloss.Color
	StatusCancelled lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),

	StatusOpen:      lipgloss.Color("#9ece6a"),
	StatusTaken:     lipgloss.Color("#e0af68"),
	StatusCompleted: lipgloss.Color("#7dcfff"),
	StatusCancelled: lipgloss.Color("#f7768e"),
}

// Current holds the active theme
var Current = TokyoNight

// MaxWidth is the maximum content width for the app
const MaxWidth = 100

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	// Title
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	// Lists
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	// Filter bar
	FilterBar lipgloss.Style

	// Buttons
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	// Category chips
	Chip         lipgloss.Style
	ChipSelected lipgloss.Style
	ChipCursor   lipgloss.Style

	// Listing rows
	ListingName  lipgloss.Style
	ListingMeta  lipgloss.Style
	ListingPrice lipgloss.Style
	Badge        lipgloss.Style

	// Search suggestions
	Suggestion         lipgloss.Style
	SuggestionSelected lipgloss.Style
	SuggestionKind     lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style
	Label        lipgloss.Style

	// Help text
	Help    lipgloss.Style
	HelpKey lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	Notice      lipgloss.Style
	NoticeError lipgloss.Style

	// Rating stars
	Star lipgloss.Style
}

// StatusColor returns the color used for a listing status
func StatusColor(status models.ListingStatus) lipgloss.Color {
	t := Current
	switch status {
	case models.StatusOpen:
		return t.StatusOpen
	case models.StatusTaken:
		return t.StatusTaken
	case models.StatusCompleted:
		return t.StatusCompleted
	case models.StatusCancelled:
		return t.StatusCancelled
	}
	return t.ForegroundDim
}

// StatusBadge renders status as a colored label
func (s *Styles) StatusBadge(status models.ListingStatus) string {
	label := string(status)
	if label == "" {
		label = "unknown"
	}
	return s.Badge.Foreground(StatusColor(status)).Render(label)
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		FilterBar: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		Chip: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		ChipSelected: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Secondary).
			Padding(0, 1).
			Bold(true),

		ChipCursor: lipgloss.NewStyle().
			Underline(true),

		ListingName: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true),

		ListingMeta: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		ListingPrice: lipgloss.NewStyle().
			Foreground(t.Success).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Bold(true),

		Suggestion: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		SuggestionSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 1),

		SuggestionKind: lipgloss.NewStyle().
			Foreground(t.Accent),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Label: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		Notice: lipgloss.NewStyle().
			Foreground(t.Info).
			Padding(0, 1),

		NoticeError: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1).
			Bold(true),

		Star: lipgloss.NewStyle().
			Foreground(t.Warning),
	}
}
