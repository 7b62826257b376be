package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tgienger/tung/internal/geo"
	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
	"github.com/tgienger/tung/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewListings View = iota
	ViewDetail
	ViewAuth
	ViewCreate
	ViewReview
	ViewProfile
	ViewPreferences
)

// Options wires the application
type Options struct {
	Service        *market.Service
	Geocoder       *geo.Geocoder
	Locator        geo.Locator // nil keeps the fallback position
	Fallback       models.Coordinates
	LocateTimeout  time.Duration
	SearchDebounce time.Duration
	Logger         *zap.Logger
}

// closer is implemented by views that own in-flight requests
type closer interface {
	Close()
}

type App struct {
	opts        Options
	svc         *market.Service
	log         *zap.Logger
	session     *views.Session
	currentView View
	listings    *views.ListingsView
	screen      tea.Model // active view other than listings
	width       int
	height      int
}

// Creates a new application
func NewApp(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	session := &views.Session{User: opts.Service.Session()}
	return &App{
		opts:        opts,
		svc:         opts.Service,
		log:         opts.Logger.Named("ui"),
		session:     session,
		currentView: ViewListings,
		listings:    views.NewListingsView(opts.Service, session, opts.Fallback, opts.SearchDebounce),
	}
}

// SetSender lets background timers deliver messages to the running program
func (a *App) SetSender(send func(tea.Msg)) {
	a.listings.SetSender(send)
}

// CurrentView reports which view is active
func (a *App) CurrentView() View {
	return a.currentView
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.listings.Init(), a.locate())
}

// locate resolves the viewer's position once; the listings start on the
// fallback until it arrives
func (a *App) locate() tea.Cmd {
	if a.opts.Locator == nil {
		return nil
	}
	loc, timeout, fallback, log := a.opts.Locator, a.opts.LocateTimeout, a.opts.Fallback, a.log
	return func() tea.Msg {
		c, ok := geo.Resolve(context.Background(), loc, timeout, fallback, log)
		return views.LocationResolved{Coordinates: c, Located: ok}
	}
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) closeScreen() {
	if c, ok := a.screen.(closer); ok {
		c.Close()
	}
	a.screen = nil
}

// open switches to a view other than listings
func (a *App) open(view View, m tea.Model) tea.Cmd {
	if a.currentView == ViewListings {
		a.listings.Suspend()
	} else {
		a.closeScreen()
	}
	a.currentView = view
	a.screen = m

	// Initialize with window size
	return tea.Batch(
		m.Init(),
		a.resize(),
	)
}

func (a *App) back() tea.Cmd {
	if a.currentView == ViewListings {
		return nil
	}
	a.closeScreen()
	a.currentView = ViewListings
	return tea.Batch(
		a.listings.Resume(),
		a.resize(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update listings size since it persists
		a.listings.Update(msg)

	case views.LocationResolved:
		a.log.Debug("location resolved", zap.Bool("located", msg.Located))
		_, cmd := a.listings.Update(msg)
		return a, cmd

	case views.ListingChanged:
		// listings keep their copy current while hidden
		_, cmd := a.listings.Update(msg)
		if a.currentView == ViewListings {
			return a, cmd
		}

	case views.ListingCreated:
		cmd := a.back()
		_, lcmd := a.listings.Update(msg)
		return a, tea.Batch(cmd, lcmd)

	case views.OpenListing:
		return a, a.open(ViewDetail, views.NewDetailView(a.svc, a.session, msg.Listing))

	case views.OpenAuth:
		return a, a.open(ViewAuth, views.NewAuthView(a.svc))

	case views.OpenCreate:
		return a, a.open(ViewCreate, views.NewCreateView(a.svc, a.session, a.opts.Geocoder, a.opts.SearchDebounce))

	case views.OpenProfile:
		return a, a.open(ViewProfile, views.NewProfileView(a.svc, a.session))

	case views.OpenPreferences:
		return a, a.open(ViewPreferences, views.NewPreferencesView(a.svc, a.session))

	case views.OpenReview:
		return a, a.open(ViewReview, views.NewReviewView(a.svc, a.session, msg.Listing, msg.Assigned))

	case views.BackToListings:
		return a, a.back()

	case views.LoggedIn:
		u := msg.User
		a.session.User = &u
		a.log.Info("logged in", zap.Int64("uid", u.UID), zap.Bool("new_account", msg.NewAccount))
		if msg.NewAccount {
			return a, a.open(ViewPreferences, views.NewPreferencesView(a.svc, a.session))
		}
		return a, tea.Batch(a.back(), notice("Welcome back, "+u.Name))

	case views.LoggedOut:
		if err := a.svc.Logout(); err != nil {
			a.log.Warn("logout", zap.Error(err))
		}
		a.session.User = nil
		if a.currentView == ViewListings {
			return a, tea.Batch(a.listings.Refresh(), notice("Logged out"))
		}
		return a, tea.Batch(a.back(), notice("Logged out"))
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewListings:
		_, cmd = a.listings.Update(msg)
	default:
		if a.screen != nil {
			_, cmd = a.screen.Update(msg)
		}
	}

	return a, cmd
}

func notice(text string) tea.Cmd {
	return func() tea.Msg { return views.Notice{Text: text} }
}

func (a *App) View() string {
	if a.currentView != ViewListings && a.screen != nil {
		return a.screen.View()
	}
	return a.listings.View()
}
