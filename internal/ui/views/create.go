package views

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/tgienger/tung/internal/debounce"
	"github.com/tgienger/tung/internal/geo"
	"github.com/tgienger/tung/internal/listings"
	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
	"github.com/tgienger/tung/internal/ui/keys"
	"github.com/tgienger/tung/internal/ui/styles"
)

// DeadlineLayout is the format the deadline field accepts, in local time
const DeadlineLayout = "2006-01-02 15:04"

// maxPickerRows caps the address and category pickers
const maxPickerRows = 5

const (
	createName = iota
	createDescription
	createPrice
	createCapacity
	createDuration
	createDeadline
	createAddress
	createCategory
)

var draftFields = map[string]int{
	"name":       createName,
	"price":      createPrice,
	"capacity":   createCapacity,
	"duration":   createDuration,
	"deadline":   createDeadline,
	"address":    createAddress,
	"categories": createCategory,
}

// categorySource adapts categories for fuzzy matching
type categorySource []models.TaskCategory

func (c categorySource) String(i int) string {
	return strings.ToLower(c[i].Name)
}

func (c categorySource) Len() int {
	return len(c)
}

// CreateView is the form for posting a new listing
type CreateView struct {
	svc      *market.Service
	session  *Session
	geocoder *geo.Geocoder
	styles   *styles.Styles
	keys     keys.KeyMap
	now      func() time.Time

	width  int
	height int

	form    form
	busy    bool
	err     string
	spinner spinner.Model

	// address resolution
	geocodeDelay time.Duration
	geocode      debounce.Scheduler[string]
	places       []geo.Place
	placeCursor  int
	location     models.Coordinates
	located      bool

	// categories
	categories []models.TaskCategory
	matches    []models.TaskCategory
	catCursor  int
	selected   []int64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCreateView creates an empty listing form
func NewCreateView(svc *market.Service, session *Session, geocoder *geo.Geocoder, geocodeDelay time.Duration) *CreateView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	deadline := newField("Deadline", DeadlineLayout, 16)
	deadline.input.SetValue(time.Now().Add(24 * time.Hour).Truncate(time.Hour).Format(DeadlineLayout))
	capacity := newField("Capacity", "1", 4)
	capacity.input.SetValue("1")

	ctx, cancel := context.WithCancel(context.Background())
	v := &CreateView{
		svc:          svc,
		session:      session,
		geocoder:     geocoder,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		now:          time.Now,
		spinner:      sp,
		geocodeDelay: geocodeDelay,
		ctx:          ctx,
		cancel:       cancel,
		form: form{
			fields: []field{
				newField("Name", "What do you need done?", 100),
				newField("Description", "Details for whoever takes it", 500),
				newField("Price", "0.00", 10),
				capacity,
				newField("Duration (minutes)", "60", 6),
				deadline,
				newField("Address", "Start typing to search", 200),
				newField("Categories", "Type to filter, enter to toggle", 40),
			},
			buttons: []string{"Post listing", "Cancel"},
		},
	}
	return v
}

type createCategoriesMsg struct {
	categories []models.TaskCategory
	err        error
}

type geocodeFireMsg struct {
	token uint64
}

type geocodeResultMsg struct {
	query  string
	places []geo.Place
	err    error
}

type listingPostedMsg struct {
	listing models.Listing
	err     error
}

// Init loads the category vocabulary
func (v *CreateView) Init() tea.Cmd {
	ctx, svc := v.ctx, v.svc
	return tea.Batch(v.form.setFocus(0), textinput.Blink, func() tea.Msg {
		cats, err := svc.Categories(ctx)
		return createCategoriesMsg{categories: cats, err: err}
	})
}

// Close abandons in-flight requests
func (v *CreateView) Close() {
	v.cancel()
	v.geocode.Cancel()
}

// scheduleGeocode arms a lookup for the current address
func (v *CreateView) scheduleGeocode() tea.Cmd {
	address := strings.TrimSpace(v.form.value(createAddress))
	v.located = false
	v.places = nil
	v.placeCursor = 0
	if len(address) < geo.MinGeocodeQuery || v.geocoder == nil {
		v.geocode.Cancel()
		return nil
	}
	token := v.geocode.Arm(address)
	return tea.Tick(v.geocodeDelay, func(time.Time) tea.Msg { return geocodeFireMsg{token: token} })
}

func (v *CreateView) runGeocode(token uint64) tea.Cmd {
	address, ok := v.geocode.Fire(token)
	if !ok {
		return nil
	}
	ctx, g := v.ctx, v.geocoder
	return func() tea.Msg {
		places, err := g.Search(ctx, address)
		return geocodeResultMsg{query: address, places: places, err: err}
	}
}

func (v *CreateView) filterCategories() {
	pattern := strings.ToLower(strings.TrimSpace(v.form.value(createCategory)))
	if pattern == "" {
		v.matches = v.categories
	} else {
		v.matches = nil
		for _, m := range fuzzy.FindFrom(pattern, categorySource(v.categories)) {
			v.matches = append(v.matches, v.categories[m.Index])
		}
	}
	v.catCursor = clamp(v.catCursor, 0, max(0, len(v.matches)-1))
}

func (v *CreateView) toggleCategory(id int64) {
	for i, s := range v.selected {
		if s == id {
			v.selected = append(v.selected[:i], v.selected[i+1:]...)
			return
		}
	}
	v.selected = append(v.selected, id)
}

func (v *CreateView) isSelected(id int64) bool {
	for _, s := range v.selected {
		if s == id {
			return true
		}
	}
	return false
}

// draft builds the listing from the form. Malformed numbers are reported
// as validation errors on their field.
func (v *CreateView) draft() (models.Draft, error) {
	d := models.Draft{
		Name:        v.form.value(createName),
		Description: v.form.value(createDescription),
		Address:     strings.TrimSpace(v.form.value(createAddress)),
		Latitude:    v.location.Latitude,
		Longitude:   v.location.Longitude,
		Located:     v.located,
		PosterUID:   v.session.UID(),
		CategoryIDs: append([]int64(nil), v.selected...),
	}

	var err error
	if d.Price, err = strconv.ParseFloat(strings.TrimSpace(v.form.value(createPrice)), 64); err != nil {
		return d, &listings.ValidationError{Field: "price", Message: "Valid price is required"}
	}
	if d.Capacity, err = strconv.Atoi(strings.TrimSpace(v.form.value(createCapacity))); err != nil {
		return d, &listings.ValidationError{Field: "capacity", Message: "Capacity must be a whole number"}
	}
	if d.Duration, err = strconv.Atoi(strings.TrimSpace(v.form.value(createDuration))); err != nil {
		return d, &listings.ValidationError{Field: "duration", Message: "Duration must be a whole number of minutes"}
	}
	if raw := strings.TrimSpace(v.form.value(createDeadline)); raw != "" {
		t, err := time.ParseInLocation(DeadlineLayout, raw, time.Local)
		if err != nil {
			return d, &listings.ValidationError{Field: "deadline", Message: "Deadline must look like " + DeadlineLayout}
		}
		d.Deadline = models.Timestamp{Time: t}
	}
	return d, nil
}

func (v *CreateView) submit() tea.Cmd {
	if v.busy {
		return nil
	}
	d, err := v.draft()
	if err == nil {
		err = listings.ValidateDraft(d, v.now())
	}
	if err != nil {
		return v.fail(err)
	}

	v.busy = true
	v.err = ""
	ctx, svc := v.ctx, v.svc
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		l, err := svc.CreateListing(ctx, d)
		return listingPostedMsg{listing: l, err: err}
	})
}

// fail shows err and moves focus to the offending field
func (v *CreateView) fail(err error) tea.Cmd {
	v.err = market.Message(err)
	var ve *listings.ValidationError
	if errors.As(err, &ve) {
		if i, ok := draftFields[ve.Field]; ok {
			return v.form.setFocus(i)
		}
	}
	return nil
}

// Update handles messages
func (v *CreateView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case createCategoriesMsg:
		if msg.err != nil {
			v.err = "Could not load categories: " + market.Message(msg.err)
			return v, nil
		}
		v.categories = msg.categories
		v.filterCategories()
		return v, nil

	case geocodeFireMsg:
		return v, v.runGeocode(msg.token)

	case geocodeResultMsg:
		if msg.query != strings.TrimSpace(v.form.value(createAddress)) {
			return v, nil
		}
		if msg.err != nil {
			v.err = "Address lookup failed: " + market.Message(msg.err)
			return v, nil
		}
		v.places = msg.places
		v.placeCursor = 0
		if len(v.places) == 0 {
			v.err = "No matching addresses"
		} else {
			v.err = ""
		}
		return v, nil

	case listingPostedMsg:
		v.busy = false
		if msg.err != nil {
			return v, v.fail(msg.err)
		}
		l := msg.listing
		v.Close()
		return v, func() tea.Msg { return ListingCreated{Listing: l} }

	case spinner.TickMsg:
		if !v.busy {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		return v.updateKeys(msg)
	}

	return v, nil
}

func (v *CreateView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if len(v.places) > 0 {
			v.places = nil
			return v, nil
		}
		v.Close()
		return v, func() tea.Msg { return BackToListings{} }

	case key.Matches(msg, v.keys.Save):
		return v, v.submit()

	case msg.String() == "shift+tab":
		return v, v.form.prev()

	case key.Matches(msg, v.keys.Tab):
		return v, v.form.next()

	case msg.String() == "up":
		switch v.form.focus {
		case createAddress:
			v.placeCursor = max(0, v.placeCursor-1)
			return v, nil
		case createCategory:
			v.catCursor = max(0, v.catCursor-1)
			return v, nil
		}
		return v, v.form.prev()

	case msg.String() == "down":
		switch v.form.focus {
		case createAddress:
			v.placeCursor = min(max(0, len(v.places)-1), v.placeCursor+1)
			return v, nil
		case createCategory:
			v.catCursor = min(max(0, len(v.matches)-1), v.catCursor+1)
			return v, nil
		}
		return v, v.form.next()

	case key.Matches(msg, v.keys.Enter):
		switch v.form.button() {
		case 0:
			return v, v.submit()
		case 1:
			v.Close()
			return v, func() tea.Msg { return BackToListings{} }
		}
		switch v.form.focus {
		case createAddress:
			if v.placeCursor < len(v.places) {
				return v, v.pickPlace(v.places[v.placeCursor])
			}
		case createCategory:
			if v.catCursor < len(v.matches) {
				v.toggleCategory(v.matches[v.catCursor].ID)
			}
			return v, nil
		}
		return v, v.form.next()
	}

	before := ""
	if v.form.onField() {
		before = v.form.value(v.form.focus)
	}
	cmd := v.form.update(msg)
	if !v.form.onField() || v.form.value(v.form.focus) == before {
		return v, cmd
	}
	switch v.form.focus {
	case createAddress:
		return v, tea.Batch(cmd, v.scheduleGeocode())
	case createCategory:
		v.filterCategories()
	}
	return v, cmd
}

func (v *CreateView) pickPlace(p geo.Place) tea.Cmd {
	c, err := p.Coordinates()
	if err != nil {
		v.err = "That address has no usable position"
		return nil
	}
	v.geocode.Cancel()
	v.form.fields[createAddress].input.SetValue(p.DisplayName)
	v.form.fields[createAddress].input.CursorEnd()
	v.location = c
	v.located = true
	v.places = nil
	v.err = ""
	return v.form.next()
}

// View renders the view
func (v *CreateView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 60)

	var extra []string
	switch v.form.focus {
	case createAddress:
		if len(v.places) > 0 {
			extra = append(extra, v.renderPlaces())
		}
	case createCategory:
		extra = append(extra, v.renderCategoryPicker())
	}

	var status string
	switch {
	case v.busy:
		status = v.spinner.View() + " Posting..."
	case v.err != "":
		status = s.NoticeError.Render(v.err)
	case v.located:
		status = s.Notice.Render("✓ address located")
	}

	rows := []string{
		s.Title.Render("Post a listing"),
		"",
		v.form.render(s, inputWidth),
	}
	rows = append(rows, extra...)
	rows = append(rows, "", v.renderSelected(), status,
		s.TitleMuted.Render("Tab: next • ↑↓: pick • Enter: choose • Ctrl+S: post • Esc: cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.CenterView(lipgloss.NewStyle().Padding(1, 2).Render(content), v.width, v.height)
}

func (v *CreateView) renderPlaces() string {
	s := v.styles
	var items []string
	for i, p := range v.places {
		if i >= maxPickerRows {
			break
		}
		style := s.Suggestion
		if i == v.placeCursor {
			style = s.SuggestionSelected
		}
		items = append(items, style.Render(truncate(p.DisplayName, 70)))
	}
	return s.FilterBar.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *CreateView) renderCategoryPicker() string {
	s := v.styles
	if len(v.matches) == 0 {
		return s.TitleMuted.Render("No matching categories")
	}
	start := max(0, v.catCursor-maxPickerRows+1)
	end := min(len(v.matches), start+maxPickerRows)
	var items []string
	for i := start; i < end; i++ {
		c := v.matches[i]
		mark := "[ ] "
		if v.isSelected(c.ID) {
			mark = "[x] "
		}
		style := s.Suggestion
		if i == v.catCursor {
			style = s.SuggestionSelected
		}
		items = append(items, style.Render(mark+c.Name))
	}
	return s.FilterBar.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *CreateView) renderSelected() string {
	s := v.styles
	if len(v.selected) == 0 {
		return s.TitleMuted.Render("No categories selected")
	}
	names := listings.NewCategories(v.categories).Names(v.selected)
	chips := make([]string, len(names))
	for i, n := range names {
		chips[i] = s.ChipSelected.Render(n)
	}
	return strings.Join(chips, " ")
}
