package views

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tung/internal/ui/styles"
)

// field is a labelled single-line input of a form
type field struct {
	label string
	input textinput.Model
}

func newField(label, placeholder string, limit int) field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	return field{label: label, input: ti}
}

// form is a column of fields followed by buttons. focus indexes the fields
// first, then the buttons.
type form struct {
	fields  []field
	buttons []string
	focus   int
}

func (f *form) len() int {
	return len(f.fields) + len(f.buttons)
}

func (f *form) next() tea.Cmd {
	f.focus = (f.focus + 1) % f.len()
	return f.updateFocus()
}

func (f *form) prev() tea.Cmd {
	f.focus = (f.focus + f.len() - 1) % f.len()
	return f.updateFocus()
}

func (f *form) setFocus(i int) tea.Cmd {
	f.focus = clamp(i, 0, f.len()-1)
	return f.updateFocus()
}

func (f *form) updateFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.fields {
		if i == f.focus {
			cmd = f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
	return cmd
}

// onField reports whether an input has focus
func (f *form) onField() bool {
	return f.focus < len(f.fields)
}

// button returns the index of the focused button, or -1
func (f *form) button() int {
	if f.onField() {
		return -1
	}
	return f.focus - len(f.fields)
}

func (f *form) value(i int) string {
	return f.fields[i].input.Value()
}

// update forwards msg to the focused input
func (f *form) update(msg tea.Msg) tea.Cmd {
	if !f.onField() {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *form) render(s *styles.Styles, inputWidth int) string {
	var rows []string
	for i, fl := range f.fields {
		style := s.Input
		if i == f.focus {
			style = s.InputFocused
		}
		rows = append(rows, fl.label+":", style.Width(inputWidth).Render(fl.input.View()))
	}
	var buttons []string
	for i, b := range f.buttons {
		style := s.Button
		switch {
		case f.button() == i && i == 0:
			style = s.ButtonPrimary
		case f.button() == i:
			style = s.ButtonFocused
		}
		buttons = append(buttons, style.Render(" "+b+" "))
	}
	rows = append(rows, "", lipgloss.JoinHorizontal(lipgloss.Center, buttons...))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
