// Package tui holds the terminal user interface: a file selection control
// built on bubbletea.
package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"
)

// ErrReleased is returned by Open once the selector has been released
var ErrReleased = errors.New("selector released")

// runFunc runs a picker to completion
type runFunc func(model *PickerModel) (*PickerModel, error)

// Selector is a terminal file-selection control. Open blocks while the picker
// is shown and hands the chosen files to the change handler.
type Selector struct {
	mu       sync.Mutex
	title    string
	dir      string
	accept   []string
	multiple bool
	onChange func([]editor.File)
	released bool

	run runFunc
}

// NewSelector creates a selector starting in dir. Program options are passed
// to bubbletea, e.g. tea.WithAltScreen().
func NewSelector(title, dir string, opts ...tea.ProgramOption) *Selector {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return &Selector{
		title: title,
		dir:   dir,
		run: func(model *PickerModel) (*PickerModel, error) {
			final, err := tea.NewProgram(model, opts...).Run()
			if err != nil {
				return nil, fmt.Errorf("failed to run file picker: %w", err)
			}
			picked, ok := final.(*PickerModel)
			if !ok {
				return nil, fmt.Errorf("unexpected model type %T", final)
			}
			return picked, nil
		},
	}
}

// SetAccept limits the picker to the extensions of the given content types
func (s *Selector) SetAccept(accept []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accept = slices.Clone(accept)
}

// SetMultiple toggles multi-file selection
func (s *Selector) SetMultiple(multiple bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.multiple = multiple
}

// OnChange installs the selection handler; nil detaches it
func (s *Selector) OnChange(fn func([]editor.File)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Dir returns the directory the next Open starts in
func (s *Selector) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// Open shows the picker. A cancelled picker changes nothing.
func (s *Selector) Open() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return ErrReleased
	}
	model := NewPickerModel(s.title, s.dir, media.ExtensionsFor(s.accept), s.multiple)
	s.mu.Unlock()

	final, err := s.run(model)
	if err != nil {
		return err
	}

	paths := final.Selected()
	if len(paths) == 0 {
		logrus.Debug("File selection cancelled")
		return nil
	}

	files := make([]editor.File, 0, len(paths))
	for _, path := range paths {
		file, err := editor.FileFromPath(path)
		if err != nil {
			logrus.Warnf("Skipping %s: %v", path, err)
			continue
		}
		files = append(files, file)
	}

	s.mu.Lock()
	s.dir = filepath.Dir(paths[0])
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil && len(files) > 0 {
		fn(files)
	}
	return nil
}

// Release detaches the handler; later Open calls fail
func (s *Selector) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.onChange = nil
}
