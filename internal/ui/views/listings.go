package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tung/internal/debounce"
	"github.com/tgienger/tung/internal/listings"
	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
	"github.com/tgienger/tung/internal/ui/keys"
	"github.com/tgienger/tung/internal/ui/styles"
)

// ListingsFocus represents which part of the listings screen has focus
type ListingsFocus int

const (
	FocusList ListingsFocus = iota
	FocusSearch
	FocusCategories
)

// ListingsView is the marketplace browser: search, category and status
// filters, sort order and the listing list
type ListingsView struct {
	svc     *market.Service
	session *Session
	vm      *listings.ViewModel
	styles  *styles.Styles
	keys    keys.KeyMap
	now     func() time.Time

	width  int
	height int

	// UI state
	focus       ListingsFocus
	search      textinput.Model
	suggestions []listings.Suggestion
	suggCursor  int // -1 = none
	catCursor   int
	cursor      int
	scrollY     int
	spinner     spinner.Model
	notices     noticeBox

	// fetches run under ctx; cancelled while another screen is shown
	ctx         context.Context
	cancel      context.CancelFunc
	suspended   bool
	catsPending bool

	debounceDelay time.Duration
	debouncer     *debounce.Debouncer[string]

	// Help popup (shown with ?)
	showHelpPopup bool
}

// NewListingsView creates the listings screen positioned at fallback until
// the viewer's location is known
func NewListingsView(svc *market.Service, session *Session, fallback models.Coordinates, debounceDelay time.Duration) *ListingsView {
	s := styles.NewStyles()

	search := textinput.New()
	search.Placeholder = "Search listings, places, categories..."
	search.CharLimit = 100
	search.Prompt = "⌕ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Current.Accent)

	vm := listings.NewViewModel(fallback)
	vm.SetFilters(svc.LoadFilters())
	search.SetValue(vm.Filters.Query)

	ctx, cancel := context.WithCancel(context.Background())
	return &ListingsView{
		svc:           svc,
		session:       session,
		vm:            vm,
		styles:        s,
		keys:          keys.DefaultKeyMap(),
		now:           time.Now,
		focus:         FocusList,
		search:        search,
		suggCursor:    -1,
		spinner:       sp,
		ctx:           ctx,
		cancel:        cancel,
		debounceDelay: debounceDelay,
	}
}

// SetSender routes debounced search input into the running program
func (v *ListingsView) SetSender(send func(tea.Msg)) {
	if send == nil {
		v.debouncer = nil
		return
	}
	v.debouncer = debounce.New(v.debounceDelay, func(q string) {
		send(searchSettledMsg{Query: q})
	})
}

// ViewModel exposes the state behind the screen
func (v *ListingsView) ViewModel() *listings.ViewModel {
	return v.vm
}

type listingsLoadedMsg struct {
	token    uint64
	listings []models.Listing
	err      error
}

type categoriesLoadedMsg struct {
	categories []models.TaskCategory
	err        error
}

type searchSettledMsg struct {
	Query string
}

// LocationResolved is sent once the viewer's position is known
type LocationResolved struct {
	Coordinates models.Coordinates
	Located     bool
}

// Init loads categories and the first listing set
func (v *ListingsView) Init() tea.Cmd {
	return tea.Batch(v.loadCategories(), v.fetch())
}

func (v *ListingsView) loadCategories() tea.Cmd {
	v.catsPending = true
	ctx, svc := v.ctx, v.svc
	return func() tea.Msg {
		cats, err := svc.Categories(ctx)
		return categoriesLoadedMsg{categories: cats, err: err}
	}
}

// fetch issues a new request for the current filters. Responses to older
// requests are dropped when they arrive.
func (v *ListingsView) fetch() tea.Cmd {
	wasLoading := v.vm.Loading
	v.vm.SetViewer(v.session.UID())
	token := v.vm.Begin()
	req := v.vm.Request()
	ctx, svc := v.ctx, v.svc

	load := func() tea.Msg {
		ls, err := svc.Listings(ctx, req)
		return listingsLoadedMsg{token: token, listings: ls, err: err}
	}
	if wasLoading {
		return load
	}
	return tea.Batch(load, v.spinner.Tick)
}

// ensureCategories reloads the category registry when it is still empty
func (v *ListingsView) ensureCategories() tea.Cmd {
	if len(v.vm.Categories) > 0 || v.catsPending {
		return nil
	}
	return v.loadCategories()
}

// Suspend abandons in-flight requests while another screen is shown
func (v *ListingsView) Suspend() {
	v.cancel()
	v.suspended = true
	// a pending category load is cancelled with ctx or delivered elsewhere
	v.catsPending = false
	v.vm.Invalidate()
	if v.debouncer != nil {
		v.debouncer.Cancel()
	}
}

// Resume refetches after returning to the screen
func (v *ListingsView) Resume() tea.Cmd {
	v.ctx, v.cancel = context.WithCancel(context.Background())
	v.suspended = false
	v.vm.Loading = false
	return tea.Batch(v.ensureCategories(), v.fetch())
}

// Refresh refetches with the current viewer, retrying the categories if
// they never loaded
func (v *ListingsView) Refresh() tea.Cmd {
	return tea.Batch(v.ensureCategories(), v.fetch())
}

func (v *ListingsView) persistFilters() {
	_ = v.svc.SaveFilters(v.vm.Filters)
}

// filtersChanged persists the filters and refetches from the top
func (v *ListingsView) filtersChanged() tea.Cmd {
	v.cursor = 0
	v.scrollY = 0
	v.persistFilters()
	return v.fetch()
}

// Update handles messages
func (v *ListingsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.search.Width = clamp(contentWidth-40, 10, 50)
		return v, nil

	case listingsLoadedMsg:
		if !v.vm.Resolve(msg.token, msg.listings, msg.err) {
			return v, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				return v, nil
			}
			return v, v.notices.set(Notice{Text: "Could not load listings: " + market.Message(msg.err), Error: true})
		}
		if n := len(v.vm.Visible()); v.cursor >= n {
			v.cursor = max(0, n-1)
		}
		if v.focus == FocusSearch {
			v.refreshSuggestions()
		}
		return v, nil

	case categoriesLoadedMsg:
		v.catsPending = false
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				return v, nil
			}
			return v, v.notices.set(Notice{Text: "Could not load categories", Error: true})
		}
		hadSelection := len(v.vm.Filters.Categories) > 0
		v.vm.SetCategories(msg.categories)
		v.catCursor = clamp(v.catCursor, 0, max(0, len(v.vm.Categories)-1))
		if hadSelection {
			// the first fetch went out before names could be resolved
			return v, v.fetch()
		}
		return v, nil

	case searchSettledMsg:
		return v, v.applyQuery(msg.Query)

	case LocationResolved:
		v.vm.SetLocation(msg.Coordinates, msg.Located)
		// while suspended Resume refetches with the new position
		if !v.suspended && v.vm.Filters.Sort.NeedsLocation() {
			return v, v.fetch()
		}
		return v, nil

	case ListingChanged:
		v.vm.Patch(msg.Listing)
		return v, nil

	case ListingCreated:
		return v, tea.Batch(v.notices.set(Notice{Text: "Posted " + msg.Listing.Name}), v.fetch())

	case Notice:
		return v, v.notices.set(msg)

	case clearNoticeMsg:
		v.notices.clear(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.vm.Loading {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		switch v.focus {
		case FocusSearch:
			return v.updateSearch(msg)
		case FocusCategories:
			return v.updateCategories(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *ListingsView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := v.vm.Visible()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Search):
		return v, v.setFocus(FocusSearch)

	case key.Matches(msg, v.keys.Categories):
		return v, v.setFocus(FocusCategories)

	case key.Matches(msg, v.keys.Tab):
		return v, v.setFocus((v.focus + 1) % 3)

	case msg.String() == "shift+tab":
		return v, v.setFocus((v.focus + 2) % 3)

	case key.Matches(msg, v.keys.Status):
		v.vm.SetStatus(v.vm.Filters.Status.Next())
		return v, v.filtersChanged()

	case key.Matches(msg, v.keys.Sort):
		v.vm.SetSort(v.vm.Filters.Sort.Next())
		return v, v.filtersChanged()

	case key.Matches(msg, v.keys.Refresh):
		return v, v.Refresh()

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(visible)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.cursor < len(visible) {
			l := visible[v.cursor]
			return v, func() tea.Msg { return OpenListing{Listing: l} }
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		if !v.session.LoggedIn() {
			return v, tea.Batch(
				v.notices.set(Notice{Text: "Log in to post a listing"}),
				func() tea.Msg { return OpenAuth{} },
			)
		}
		return v, func() tea.Msg { return OpenCreate{} }

	case key.Matches(msg, v.keys.Profile):
		if !v.session.LoggedIn() {
			return v, func() tea.Msg { return OpenAuth{} }
		}
		return v, func() tea.Msg { return OpenProfile{} }

	case key.Matches(msg, v.keys.Login):
		if v.session.LoggedIn() {
			return v, v.notices.set(Notice{Text: "Already logged in as " + v.session.User.Name})
		}
		return v, func() tea.Msg { return OpenAuth{} }

	case key.Matches(msg, v.keys.Logout):
		if v.session.LoggedIn() {
			return v, func() tea.Msg { return LoggedOut{} }
		}
		return v, nil
	}

	return v, nil
}

func (v *ListingsView) setFocus(f ListingsFocus) tea.Cmd {
	v.focus = f
	if f == FocusSearch {
		v.refreshSuggestions()
		return v.search.Focus()
	}
	v.search.Blur()
	v.suggestions = nil
	v.suggCursor = -1
	return nil
}

func (v *ListingsView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		if len(v.suggestions) > 0 {
			v.suggestions = nil
			v.suggCursor = -1
			return v, nil
		}
		return v, v.setFocus(FocusList)

	case key.Matches(msg, v.keys.Tab):
		return v, v.setFocus(FocusCategories)

	case msg.String() == "shift+tab":
		return v, v.setFocus(FocusList)

	case msg.String() == "up":
		if v.suggCursor >= 0 {
			v.suggCursor--
		}
		return v, nil

	case msg.String() == "down":
		if v.suggCursor < len(v.suggestions)-1 {
			v.suggCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		q := v.search.Value()
		if v.suggCursor >= 0 && v.suggCursor < len(v.suggestions) {
			q = v.suggestions[v.suggCursor].SearchTerm()
			v.search.SetValue(q)
			v.search.CursorEnd()
		}
		if v.debouncer != nil {
			v.debouncer.Cancel()
		}
		cmd := v.applyQuery(q)
		return v, tea.Batch(cmd, v.setFocus(FocusList))
	}

	before := v.search.Value()
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	if v.search.Value() == before {
		return v, cmd
	}
	return v, tea.Batch(cmd, v.trigger(v.search.Value()))
}

// trigger schedules a debounced search. Without a program to deliver to,
// the search settles immediately.
func (v *ListingsView) trigger(q string) tea.Cmd {
	if v.debouncer != nil {
		v.debouncer.Trigger(q)
		return nil
	}
	return func() tea.Msg { return searchSettledMsg{Query: q} }
}

func (v *ListingsView) applyQuery(q string) tea.Cmd {
	q = strings.TrimSpace(q)
	if q == v.vm.Filters.Query {
		if v.focus == FocusSearch {
			v.refreshSuggestions()
		}
		return nil
	}
	v.vm.SetQuery(q)
	if v.focus == FocusSearch {
		v.refreshSuggestions()
	}
	return v.filtersChanged()
}

func (v *ListingsView) refreshSuggestions() {
	v.suggestions = listings.GenerateSuggestions(v.vm.Listings, v.search.Value())
	if v.suggCursor >= len(v.suggestions) {
		v.suggCursor = len(v.suggestions) - 1
	}
}

func (v *ListingsView) updateCategories(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cats := v.vm.Categories

	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Down):
		return v, v.setFocus(FocusList)

	case key.Matches(msg, v.keys.Left):
		if v.catCursor > 0 {
			v.catCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Right):
		if v.catCursor < len(cats)-1 {
			v.catCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if v.catCursor < len(cats) {
			v.vm.ToggleCategory(cats[v.catCursor].ID)
			return v, v.filtersChanged()
		}
		return v, nil

	case key.Matches(msg, v.keys.ClearCats):
		if len(v.vm.Filters.Categories) == 0 {
			return v, nil
		}
		v.vm.ClearCategories()
		return v, v.filtersChanged()
	}

	return v.updateNormal(msg)
}

// rowsPerListing is the height of one rendered listing including its margin
const rowsPerListing = 3

func (v *ListingsView) visibleRows() int {
	available := v.height - 14
	if len(v.vm.Categories) > 0 {
		available -= 2
	}
	return max(1, available/rowsPerListing)
}

func (v *ListingsView) ensureVisible() {
	rows := v.visibleRows()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+rows {
		v.scrollY = v.cursor - rows + 1
	}
}

// View renders the view
func (v *ListingsView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n")
	if v.focus == FocusSearch && len(v.suggestions) > 0 {
		b.WriteString(v.renderSuggestions())
		b.WriteString("\n")
	}
	if chips := v.renderCategories(); chips != "" {
		b.WriteString(chips)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(v.renderList())
	b.WriteString("\n")
	b.WriteString(v.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *ListingsView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	user := s.TitleMuted.Render("anonymous · L to log in")
	if v.session.LoggedIn() {
		user = s.TitleMuted.Render("signed in as ") + s.HelpKey.Render(v.session.User.Name)
	}
	title := s.Title.Render("TungTung Marketplace")
	gap := max(1, contentWidth-lipgloss.Width(title)-lipgloss.Width(user)-2)
	titleLine := title + strings.Repeat(" ", gap) + user

	searchStyle := s.Input
	if v.focus == FocusSearch {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Render(v.search.View())

	status := s.Button.Render("Status: " + capitalize(string(v.vm.Filters.Status)))
	sort := s.Button.Render("Sort: " + v.vm.Filters.Sort.Label())

	var controls string
	if contentWidth < 70 {
		controls = lipgloss.JoinVertical(lipgloss.Left, searchBox, lipgloss.JoinHorizontal(lipgloss.Center, status, " ", sort))
	} else {
		controls = lipgloss.JoinHorizontal(lipgloss.Center, searchBox, " ", status, " ", sort)
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleLine, controls)
}

func (v *ListingsView) renderSuggestions() string {
	s := v.styles
	var items []string
	for i, sg := range v.suggestions {
		style := s.Suggestion
		if i == v.suggCursor {
			style = s.SuggestionSelected
		}
		kind := s.SuggestionKind.Render(fmt.Sprintf("%-8s", sg.Kind))
		items = append(items, style.Render(kind+" "+sg.Text))
	}
	return s.FilterBar.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *ListingsView) renderCategories() string {
	s := v.styles
	if len(v.vm.Categories) == 0 {
		return ""
	}
	contentWidth := styles.ContentWidth(v.width)

	var lines []string
	var line string
	for i, c := range v.vm.Categories {
		style := s.Chip
		if v.vm.Selected(c.ID) {
			style = s.ChipSelected
		}
		if v.focus == FocusCategories && i == v.catCursor {
			style = style.Inherit(s.ChipCursor).Underline(true)
		}
		chip := style.Render(c.Name)
		if line != "" && lipgloss.Width(line)+lipgloss.Width(chip)+1 > contentWidth-2 {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += chip
	}
	lines = append(lines, line)

	label := s.Label.Render("Categories")
	if n := len(v.vm.Filters.Categories); n > 0 {
		label += s.TitleMuted.Render(fmt.Sprintf(" (%d selected, x to clear)", n))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{label}, lines...)...)
}

func (v *ListingsView) renderList() string {
	s := v.styles
	visible := v.vm.Visible()

	if len(visible) == 0 {
		if v.vm.Loading {
			return s.TitleMuted.Render(v.spinner.View() + " Loading listings...")
		}
		if len(v.vm.Listings) == 0 && v.vm.Err != "" {
			return s.TitleMuted.Render("Could not reach the marketplace. Press r to retry.")
		}
		return s.TitleMuted.Render("No listings match your filters.")
	}

	rows := v.visibleRows()
	end := min(v.scrollY+rows, len(visible))
	var items []string
	for i := v.scrollY; i < end; i++ {
		items = append(items, v.renderListing(visible[i], i == v.cursor && v.focus == FocusList))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *ListingsView) renderListing(l models.Listing, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	price := s.ListingPrice.Render(formatPrice(l.Price))
	badge := s.StatusBadge(l.Status)
	nameWidth := max(8, width-lipgloss.Width(price)-lipgloss.Width(badge)-8)
	top := s.ListingName.Render(truncate(l.Name, nameWidth)) + "  " + price + "  " + badge

	meta := []string{truncate(l.Address, 40), formatDuration(l.Duration), formatDeadline(l.Deadline, v.now())}
	if d := formatDistance(l.Distance); d != "" {
		meta = append(meta, d)
	}
	if l.Capacity > 1 {
		meta = append(meta, fmt.Sprintf("%d spots", l.Capacity))
	}
	bottom := s.ListingMeta.Render(strings.Join(meta, " · "))

	style := s.ListItem.Width(width)
	if selected {
		style = s.ListSelected.Width(width)
	}
	return style.Render(top+"\n"+bottom) + "\n"
}

func (v *ListingsView) renderStatusBar() string {
	s := v.styles

	if n := v.notices.notice; n.Text != "" {
		if n.Error {
			return s.NoticeError.Render(n.Text)
		}
		return s.Notice.Render(n.Text)
	}

	counts := v.vm.Counts()
	parts := []string{fmt.Sprintf("%d listings", len(v.vm.Listings))}
	for _, st := range models.Statuses {
		if c := counts[st]; c > 0 {
			parts = append(parts, lipgloss.NewStyle().Foreground(styles.StatusColor(st)).Render(fmt.Sprintf("%s %d", st, c)))
		}
	}
	if !v.vm.Located {
		parts = append(parts, "approx. location")
	}
	line := strings.Join(parts, " · ")
	if v.vm.Loading {
		line = v.spinner.View() + " " + line
	}
	return s.StatusBar.Render(line)
}

func (v *ListingsView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	k := v.styles.HelpKey.Render
	switch v.focus {
	case FocusSearch:
		return v.styles.Help.Render(fmt.Sprintf("%s pick • %s search • %s close", k("↑↓"), k("↵"), k("esc")))
	case FocusCategories:
		return v.styles.Help.Render(fmt.Sprintf("%s move • %s toggle • %s clear • %s done", k("←→"), k("space"), k("x"), k("esc")))
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s search • %s categories • %s status • %s sort • %s new • %s help • %s quit",
			k("↵"), k("/"), k("f"), k("s"), k("o"), k("n"), k("?"), k("q"),
		),
	)
}

func (v *ListingsView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open listing",
		s.HelpKey.Render("/") + "      search",
		s.HelpKey.Render("f") + "      choose categories",
		s.HelpKey.Render("s") + "      cycle status filter",
		s.HelpKey.Render("o") + "      cycle sort order",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("n") + "      post a listing",
		s.HelpKey.Render("p") + "      profile",
		s.HelpKey.Render("L") + "      log in / sign up",
		s.HelpKey.Render("X") + "      log out",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
