package views

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tung/internal/market"
	"github.com/tgienger/tung/internal/models"
	"github.com/tgienger/tung/internal/ui/keys"
	"github.com/tgienger/tung/internal/ui/styles"
)

type authMode int

const (
	modeLogin authMode = iota
	modeSignup
)

// field indexes per mode
const (
	loginEmail = iota
	loginPhone
	loginPassword
)

const (
	signupName = iota
	signupEmail
	signupPhone
	signupPassword
)

// AuthView is the login and signup screen
type AuthView struct {
	svc    *market.Service
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	mode    authMode
	form    form
	busy    bool
	err     string
	spinner spinner.Model

	ctx    context.Context
	cancel context.CancelFunc
}

// NewAuthView creates the screen in login mode
func NewAuthView(svc *market.Service) *AuthView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())
	v := &AuthView{
		svc:     svc,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		spinner: sp,
		ctx:     ctx,
		cancel:  cancel,
	}
	v.setMode(modeLogin)
	return v
}

func (v *AuthView) setMode(m authMode) tea.Cmd {
	v.mode = m
	v.err = ""

	email := newField("Email", "you@example.com", 100)
	phone := newField("Phone number", "optional if email is set", 20)
	password := newField("Password", "", 100)
	password.input.EchoMode = textinput.EchoPassword
	password.input.EchoCharacter = '•'

	if m == modeSignup {
		name := newField("Name", "Your name", 60)
		v.form = form{
			fields:  []field{name, email, phone, password},
			buttons: []string{"Sign up", "I have an account"},
		}
	} else {
		v.form = form{
			fields:  []field{email, phone, password},
			buttons: []string{"Log in", "Create an account"},
		}
	}
	return v.form.setFocus(0)
}

type authDoneMsg struct {
	user   models.User
	signup bool
	err    error
}

// Init focuses the first field
func (v *AuthView) Init() tea.Cmd {
	return tea.Batch(v.form.updateFocus(), textinput.Blink)
}

// Close abandons an in-flight request
func (v *AuthView) Close() {
	v.cancel()
}

func (v *AuthView) submit() tea.Cmd {
	if v.busy {
		return nil
	}
	v.busy = true
	v.err = ""
	ctx, svc := v.ctx, v.svc

	if v.mode == modeSignup {
		in := models.Signup{
			Name:        v.form.value(signupName),
			Email:       v.form.value(signupEmail),
			PhoneNumber: v.form.value(signupPhone),
			Password:    v.form.value(signupPassword),
		}
		return tea.Batch(v.spinner.Tick, func() tea.Msg {
			u, err := svc.Signup(ctx, in)
			return authDoneMsg{user: u, signup: true, err: err}
		})
	}

	cr := models.Credentials{
		Email:       v.form.value(loginEmail),
		PhoneNumber: v.form.value(loginPhone),
		Password:    v.form.value(loginPassword),
	}
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		u, err := svc.Login(ctx, cr)
		return authDoneMsg{user: u, err: err}
	})
}

// Update handles messages
func (v *AuthView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case authDoneMsg:
		v.busy = false
		if msg.err != nil {
			v.err = market.Message(msg.err)
			return v, nil
		}
		u, signup := msg.user, msg.signup
		return v, func() tea.Msg { return LoggedIn{User: u, NewAccount: signup} }

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
			v.Close()
			return v, func() tea.Msg { return BackToListings{} }

		case key.Matches(msg, v.keys.Save):
			return v, v.submit()

		case msg.String() == "shift+tab", msg.String() == "up":
			return v, v.form.prev()

		case key.Matches(msg, v.keys.Tab), msg.String() == "down":
			return v, v.form.next()

		case key.Matches(msg, v.keys.Enter):
			switch v.form.button() {
			case 0:
				return v, v.submit()
			case 1:
				if v.mode == modeLogin {
					return v, v.setMode(modeSignup)
				}
				return v, v.setMode(modeLogin)
			}
			// enter on the last field submits
			if v.form.focus == len(v.form.fields)-1 {
				return v, v.submit()
			}
			return v, v.form.next()
		}
		return v, v.form.update(msg)
	}

	return v, nil
}

// View renders the view
func (v *AuthView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	title := "Log in to TungTung"
	if v.mode == modeSignup {
		title = "Create your TungTung account"
	}

	status := ""
	switch {
	case v.busy:
		status = v.spinner.View() + " Please wait..."
	case v.err != "":
		status = s.NoticeError.Render(v.err)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(title),
		"",
		v.form.render(s, inputWidth),
		"",
		status,
		s.TitleMuted.Render("Tab: next • Ctrl+S: submit • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
