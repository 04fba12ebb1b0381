// Package surface holds the named text views where batch results are shown.
package surface

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	"golang.org/x/term"

	"github.com/canonical/sqlbatch/internal/executor"
	"github.com/canonical/sqlbatch/internal/render"
)

// ResultViewName is the name of the view reused for every batch of a window.
const ResultViewName = "Query Result:"

// StatusKey is the key under which batch progress is kept in the window status.
const StatusKey = "tsqlexec"

// Window is a set of views and status messages belonging to one editing session.
type Window struct {
	mu       sync.Mutex
	views    map[string]*View
	statuses map[string]string
	format   render.Format
	mirror   io.Writer
}

// Option configures a Window.
type Option func(*Window)

// WithFormat sets the format used by views created in the window.
func WithFormat(format render.Format) Option {
	return func(w *Window) {
		w.format = format
	}
}

// WithStatusMirror echoes the batch status on a single, rewritten line of f.
// Nothing is mirrored unless f is a terminal.
func WithStatusMirror(f *os.File) Option {
	return func(w *Window) {
		if f != nil && term.IsTerminal(int(f.Fd())) {
			w.mirror = f
		}
	}
}

// NewWindow returns an empty window.
func NewWindow(opts ...Option) *Window {
	w := &Window{
		views:    map[string]*View{},
		statuses: map[string]string{},
		format:   render.FormatText,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// View returns the view with the given name, creating it if needed.
func (w *Window) View(name string) *View {
	w.mu.Lock()
	defer w.mu.Unlock()

	view, ok := w.views[name]
	if !ok {
		view = &View{name: name, format: w.format}
		w.views[name] = view
	}

	return view
}

// ResultView returns the results view of the window.
func (w *Window) ResultView() *View {
	return w.View(ResultViewName)
}

// Views returns the names of all views, sorted.
func (w *Window) Views() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.views))
	for name := range w.views {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// SetStatus sets the batch status of the window.
func (w *Window) SetStatus(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.statuses[StatusKey] = message
	w.mirrorStatus(message)
}

// ClearStatus erases the batch status of the window.
func (w *Window) ClearStatus() {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.statuses, StatusKey)
	w.mirrorStatus("")
}

// Status returns the batch status of the window.
func (w *Window) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.statuses[StatusKey]
}

func (w *Window) mirrorStatus(message string) {
	if w.mirror == nil {
		return
	}

	// Carriage return and erase line.
	_, _ = fmt.Fprint(w.mirror, "\r\x1b[K"+message)
}

// View is an append-only text buffer.
type View struct {
	name   string
	format render.Format

	mu  sync.Mutex
	buf strings.Builder
}

// Name returns the view name.
func (v *View) Name() string {
	return v.name
}

// Insert appends text at the end of the view.
func (v *View) Insert(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.buf.WriteString(text)
}

// Present appends the rendered batch to the view.
func (v *View) Present(batch executor.Batch) error {
	var out strings.Builder

	err := render.Write(&out, v.format, batch)
	if err != nil {
		return err
	}

	v.Insert(out.String())

	return nil
}

// Text returns the content of the view.
func (v *View) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.buf.String()
}

// Size returns the length of the content in bytes.
func (v *View) Size() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.buf.Len()
}

// Clear empties the view.
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.buf.Reset()
}

// Flush writes the content of the view to w.
func (v *View) Flush(w io.Writer) error {
	_, err := io.WriteString(w, v.Text())

	return err
}

// FlushFile atomically replaces the file at path with the content of the view.
func (v *View) FlushFile(path string) error {
	err := renameio.WriteFile(path, []byte(v.Text()), 0600)
	if err != nil {
		return fmt.Errorf("Failed to write view %q to %q: %w", v.name, path, err)
	}

	return nil
}
