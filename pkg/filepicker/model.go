package filepicker

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gabriel-vasile/mimetype"

	"github.com/rescp17/landrop/internal/style"
	"github.com/rescp17/landrop/internal/util"
)

type mode int

const (
	modeBrowse mode = iota
	modeInput
)

// FileSelectedMsg is emitted when the user confirms a file.
type FileSelectedMsg struct {
	Path string
}

// SelectionCancelledMsg is emitted when the user leaves without choosing.
type SelectionCancelledMsg struct{}

// --- Key Map ---
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding // Page up
	Right       key.Binding // Page down
	Parent      key.Binding
	ToggleInput key.Binding
	Confirm     key.Binding
	Quit        key.Binding
}

var DefaultKeyMap = KeyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "page up")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "page down")),
	Parent:      key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "parent dir")),
	ToggleInput: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "input path")),
	Confirm:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/choose")),
	Quit:        key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc/ctrl+c", "cancel")),
}

type entry struct {
	name    string
	isDir   bool
	size    int64
	modTime string
	mime    string
}

// Model browses directories and lets the user choose one file that passes
// its Filter. Directories are always listed so the user can descend.
type Model struct {
	path     string
	items    []entry
	cursor   int
	offset   int
	height   int
	keys     KeyMap
	mode     mode
	input    textinput.Model
	inputErr error
	filter   Filter
	done     bool
}

// New creates a picker for filter. It starts in path input mode until
// SetPath loads a directory.
func New(filter Filter) Model {
	ti := textinput.New()
	ti.Placeholder = "path to a directory or file"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80
	ti.Cursor.Style = style.InputCursor
	ti.PromptStyle = style.PromptStyle

	return Model{
		keys:   DefaultKeyMap,
		mode:   modeInput,
		input:  ti,
		filter: filter,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Path returns the directory being browsed.
func (m Model) Path() string {
	return m.path
}

// Done reports whether the user already chose or cancelled.
func (m Model) Done() bool {
	return m.done
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.done {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			// Leave input mode first if there is a directory to go back to.
			if m.mode == modeInput && m.path != "" {
				m.mode = modeBrowse
				m.input.Blur()
				m.input.Reset()
				m.inputErr = nil
				return m, nil
			}
			m.done = true
			return m, func() tea.Msg { return SelectionCancelledMsg{} }
		}

		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeInput:
			return m.updateInput(msg)
		}
	}

	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (Model, tea.Cmd) {
	if len(m.items) == 0 && !key.Matches(msg, m.keys.ToggleInput, m.keys.Parent) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.ToggleInput):
		m.mode = modeInput
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset--
			}
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.visibleItems() {
				m.offset++
			}
		}

	case key.Matches(msg, m.keys.Right): // Page down
		visible := m.visibleItems()
		m.cursor = min(m.cursor+visible, len(m.items)-1)
		m.offset = max(0, min(m.offset+visible, len(m.items)-visible))
		if m.cursor >= m.offset+visible {
			m.offset = m.cursor - visible + 1
		}

	case key.Matches(msg, m.keys.Left): // Page up
		visible := m.visibleItems()
		m.cursor = max(m.cursor-visible, 0)
		m.offset = max(m.offset-visible, 0)
		if m.cursor < m.offset {
			m.offset = m.cursor
		}

	case key.Matches(msg, m.keys.Parent):
		parent := filepath.Dir(m.path)
		if parent != m.path {
			if err := m.SetPath(parent); err != nil {
				m.inputErr = err
			}
		}

	case key.Matches(msg, m.keys.Confirm):
		item := m.items[m.cursor]
		path := filepath.Join(m.path, item.name)
		if item.isDir {
			if err := m.SetPath(path); err != nil {
				m.inputErr = err
			}
			return m, nil
		}
		return m.choose(path)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Confirm) {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	path := util.ExpandHome(strings.TrimSpace(m.input.Value()))
	if !filepath.IsAbs(path) && m.path != "" {
		path = filepath.Join(m.path, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		m.inputErr = fmt.Errorf("invalid path: %w", err)
		return m, nil
	}

	exists, isDir, err := util.CheckDirectory(absPath)
	switch {
	case err != nil:
		m.inputErr = fmt.Errorf("could not stat path: %w", err)
		return m, nil
	case !exists:
		m.inputErr = fmt.Errorf("path does not exist: %s", absPath)
		return m, nil
	case !isDir:
		m.input.Reset()
		return m.choose(absPath)
	}

	if err := m.SetPath(absPath); err != nil {
		m.inputErr = err
		return m, nil
	}
	m.input.Reset()
	m.input.Blur()
	return m, nil
}

// choose accepts path if it passes the filter.
func (m Model) choose(path string) (Model, tea.Cmd) {
	if !m.filter.Match(path) {
		m.inputErr = fmt.Errorf("%s does not match %s", filepath.Base(path), m.filter)
		return m, nil
	}
	m.done = true
	m.inputErr = nil
	return m, func() tea.Msg { return FileSelectedMsg{Path: path} }
}

// SetPath loads the directory at path and switches to browsing it. Files
// that do not pass the filter are left out of the listing.
func (m *Model) SetPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	exists, isDir, err := util.CheckDirectory(absPath)
	if err != nil || !exists {
		return fmt.Errorf("path does not exist: %s", absPath)
	}
	if !isDir {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}
	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		return fmt.Errorf("could not read directory: %w", err)
	}

	m.path = absPath
	m.items = m.loadEntries(absPath, dirEntries)
	m.cursor = 0
	m.offset = 0
	m.inputErr = nil
	m.mode = modeBrowse
	return nil
}

func (m *Model) loadEntries(dir string, dirEntries []fs.DirEntry) []entry {
	items := make([]entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		full := filepath.Join(dir, de.Name())
		e := entry{name: de.Name(), isDir: de.IsDir()}
		if info, err := de.Info(); err == nil {
			e.size = info.Size()
			e.modTime = info.ModTime().Format("2006-01-02 15:04:05")
		}
		if !e.isDir {
			if !m.filter.Match(full) {
				continue
			}
			if mt, err := mimetype.DetectFile(full); err == nil {
				e.mime = mt.String()
			} else {
				slog.Debug("Could not detect file type", "path", full, "error", err)
			}
		}
		items = append(items, e)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].isDir != items[j].isDir {
			return items[i].isDir
		}
		return items[i].name < items[j].name
	})
	return items
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(style.TitleStyle.Render("Choose a file") + " " + style.HelpStyle.Render("("+m.filter.String()+")") + "\n")
	s.WriteString(m.helpView() + "\n\n")
	if m.mode == modeInput {
		s.WriteString(m.input.View())
		s.WriteString("\n")
	}
	if m.inputErr != nil {
		s.WriteString(style.ErrorStyle.Render(m.inputErr.Error()) + "\n")
	}
	s.WriteString("\n")

	if m.path == "" {
		return s.String()
	}
	s.WriteString(fmt.Sprintf("Browsing: %s\n\n", m.path))

	const (
		nameWidth = 36
		timeWidth = 20
		sizeWidth = 12
		typeWidth = 30
	)
	s.WriteString(style.HeaderStyle.Render(
		util.PadRight("", 2)+
			util.PadRight("Name", nameWidth)+" "+
			util.PadRight("Last Modified", timeWidth)+" "+
			util.PadRight("Size", sizeWidth)+" "+
			util.PadRight("Type", typeWidth)) + "\n")

	if len(m.items) == 0 {
		s.WriteString(style.DisabledStyle.Render("  (no matching files)") + "\n")
		return s.String()
	}

	visible := m.visibleItems()
	end := min(m.offset+visible, len(m.items))
	for i := m.offset; i < end; i++ {
		item := m.items[i]
		if i == m.cursor {
			s.WriteString(style.CursorStyle.String())
		} else {
			s.WriteString(style.NoCursorStyle.String())
		}

		name := item.name
		size := util.FormatSize(item.size)
		if item.isDir {
			name += "/"
			size = "<DIR>"
		}
		nameCell := util.PadRight(name, nameWidth)
		if item.isDir {
			nameCell = style.DirStyle.Render(nameCell)
		} else {
			nameCell = style.FileStyle.Render(nameCell)
		}
		s.WriteString(nameCell + " " +
			util.PadRight(item.modTime, timeWidth) + " " +
			util.PadRight(size, sizeWidth) + " " +
			util.PadRight(item.mime, typeWidth) + "\n")
	}

	if len(m.items) > visible {
		s.WriteString(fmt.Sprintf("\n... %d/%d ...\n", m.cursor+1, len(m.items)))
	}
	return s.String()
}

func (m Model) helpView() string {
	return style.HelpStyle.Render(
		fmt.Sprintf("'%s' open/choose, '%s' parent, '%s'/'%s' page, '%s' type a path, '%s' cancel",
			m.keys.Confirm.Help().Key, m.keys.Parent.Help().Key, m.keys.Left.Help().Key,
			m.keys.Right.Help().Key, m.keys.ToggleInput.Help().Key, m.keys.Quit.Help().Key),
	)
}

func (m Model) visibleItems() int {
	headerHeight := 9
	if m.inputErr != nil {
		headerHeight++
	}
	visible := m.height - headerHeight
	if visible < 1 {
		visible = 10
	}
	return visible
}
