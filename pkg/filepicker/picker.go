package filepicker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// Picker runs a Model as a standalone Bubble Tea program. It is used by the
// command line when no path was given.
type Picker struct {
	// StartDir is opened first. Empty means the working directory.
	StartDir string
	Input    io.Reader
	Output   io.Writer
}

func NewPicker(startDir string) *Picker {
	return &Picker{StartDir: startDir}
}

// PickFile shows the picker until the user chooses a file or cancels.
func (p *Picker) PickFile(ctx context.Context, filter Filter) (string, error) {
	m := New(filter)
	dir := p.StartDir
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	if dir != "" {
		if err := m.SetPath(dir); err != nil {
			slog.Warn("Could not open start directory", "dir", dir, "error", err)
		}
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if p.Input != nil {
		opts = append(opts, tea.WithInput(p.Input))
	}
	if p.Output != nil {
		opts = append(opts, tea.WithOutput(p.Output))
	}

	final, err := tea.NewProgram(program{picker: m}, opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("file picker failed: %w", err)
	}

	res, ok := final.(program)
	if !ok || res.selected == "" {
		return "", ErrSelectionCancelled
	}
	return res.selected, nil
}

// program adapts Model to tea.Model and quits once the user is done.
type program struct {
	picker   Model
	selected string
}

func (p program) Init() tea.Cmd {
	return p.picker.Init()
}

func (p program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FileSelectedMsg:
		p.selected = msg.Path
		return p, tea.Quit
	case SelectionCancelledMsg:
		return p, tea.Quit
	}
	var cmd tea.Cmd
	p.picker, cmd = p.picker.Update(msg)
	return p, cmd
}

func (p program) View() string {
	return p.picker.View()
}

var errNotTerminal = errors.New("file picker needs an interactive terminal")

// CheckTerminal reports an error when stdin is not a terminal and no input
// override was given.
func (p *Picker) CheckTerminal() error {
	if p.Input != nil {
		return nil
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", errNotTerminal, err)
	}
	if fi.Mode()&os.ModeCharDevice == 0 {
		return errNotTerminal
	}
	return nil
}
