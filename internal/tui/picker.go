package tui

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"
	tuiconfig "github.com/olduvai-jp/ComfyUI-S3-IO/internal/tui/config"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/tui/messaging"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/tui/theme"
)

// PickerKeyMap defines keybindings for the file picker
type PickerKeyMap struct {
	Confirm key.Binding
	Clear   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultPickerKeyMap returns default keybindings
func DefaultPickerKeyMap() PickerKeyMap {
	return PickerKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("ctrl+s", "tab"),
			key.WithHelp("tab", "upload selection"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "clear selection"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c", "q"),
			key.WithHelp("q/esc", "cancel"),
		),
	}
}

// ShortHelp returns the short help view
func (k PickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Help, k.Quit}
}

// FullHelp returns the full help view
func (k PickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Confirm, k.Clear},
		{k.Help, k.Quit},
	}
}

// PickerModel lets the user choose one or several local files. In multiple
// mode enter toggles a file and the confirm key finishes; otherwise enter on
// an accepted file finishes right away.
type PickerModel struct {
	picker   filepicker.Model
	title    string
	multiple bool
	selected []string

	keyMap PickerKeyMap
	help   help.Model
	status messaging.StatusManager

	done      bool
	cancelled bool
	width     int
}

// NewPickerModel creates a picker rooted at dir, limited to allowedExts when
// that is non-empty.
func NewPickerModel(title, dir string, allowedExts []string, multiple bool) *PickerModel {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = pickerExtensions(allowedExts)
	fp.AutoHeight = true
	fp.ShowPermissions = false
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorBrightBlue)).Bold(true)
	fp.Styles.DisabledFile = theme.CreateSecondaryTextStyle()

	return &PickerModel{
		picker:   fp,
		title:    title,
		multiple: multiple,
		keyMap:   DefaultPickerKeyMap(),
		help:     help.New(),
		status:   messaging.NewStatusManager(4 * time.Second),
		width:    tuiconfig.PickerDefaultWidth,
	}
}

// pickerExtensions lists both cases of each extension; the picker matches
// suffixes case-sensitively.
func pickerExtensions(exts []string) []string {
	var out []string
	for _, ext := range exts {
		for _, v := range []string{strings.ToLower(ext), strings.ToUpper(ext)} {
			if !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// Init implements tea.Model
func (m *PickerModel) Init() tea.Cmd {
	return m.picker.Init()
}

// Update implements tea.Model
func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keyMap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keyMap.Clear):
			m.selected = nil
			m.status.SetMessage("Selection cleared", messaging.MessageInfo)
			return m, nil
		case key.Matches(msg, m.keyMap.Confirm):
			if len(m.selected) == 0 {
				m.status.SetMessage("Nothing selected", messaging.MessageWarning)
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = max(tuiconfig.PickerMinWidth, msg.Width-4)
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		if m.choose(path) {
			return m, tea.Quit
		}
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.status.SetMessage(fmt.Sprintf("%s is not an accepted file type", filepath.Base(path)), messaging.MessageWarning)
	}

	return m, cmd
}

// choose records path and reports whether the picker is finished
func (m *PickerModel) choose(path string) bool {
	if !m.multiple {
		m.selected = []string{path}
		m.done = true
		return true
	}

	if i := slices.Index(m.selected, path); i >= 0 {
		m.selected = slices.Delete(m.selected, i, i+1)
	} else {
		m.selected = append(m.selected, path)
	}
	m.status.SetMessage(fmt.Sprintf("%d file(s) selected", len(m.selected)), messaging.MessageInfo)
	return false
}

// View implements tea.Model
func (m *PickerModel) View() string {
	var b strings.Builder

	b.WriteString(theme.CreateHeaderStyle().Render(m.title))
	b.WriteString("\n")
	b.WriteString(theme.CreateSecondaryTextStyle().Render(m.picker.CurrentDirectory))
	b.WriteString("\n")
	b.WriteString(theme.CreatePanelStyle(m.width).Render(m.picker.View()))

	if m.multiple && len(m.selected) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderSelected())
	}
	if status := m.status.RenderMessage(); status != "" {
		b.WriteString("\n")
		b.WriteString(status)
	}

	b.WriteString(theme.CreateFooterStyle().Render(m.help.View(m.keyMap)))
	return b.String()
}

func (m *PickerModel) renderSelected() string {
	lines := make([]string, 0, tuiconfig.SelectedListMax+1)
	for i, path := range m.selected {
		if i == tuiconfig.SelectedListMax {
			lines = append(lines, fmt.Sprintf("  … and %d more", len(m.selected)-i))
			break
		}
		name := filepath.Base(path)
		if len(name) > tuiconfig.FileNameTruncateLength {
			name = name[:tuiconfig.FileNameTruncateLength-1] + "…"
		}
		color := theme.FileColor(media.GetFileCategory(media.TypeForPath(path)))
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(name))
	}
	return strings.Join(lines, "\n")
}

// Selected returns the chosen paths, empty when the picker was cancelled
func (m *PickerModel) Selected() []string {
	if m.cancelled || !m.done {
		return nil
	}
	return slices.Clone(m.selected)
}

// Cancelled reports whether the user left without choosing
func (m *PickerModel) Cancelled() bool {
	return m.cancelled
}
