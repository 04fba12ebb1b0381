package surface

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlbatch/internal/executor"
	"github.com/canonical/sqlbatch/internal/poll"
	"github.com/canonical/sqlbatch/internal/render"
)

// Both the window and its views plug into the poll controller.
var (
	_ poll.StatusSink = (*Window)(nil)
	_ poll.Presenter  = (*View)(nil)
)

func TestResultViewSingleton(t *testing.T) {
	w := NewWindow()

	view := w.ResultView()
	view.Insert("first")

	again := w.ResultView()
	assert.Same(t, view, again)
	assert.Equal(t, ResultViewName, again.Name())
	assert.Equal(t, "first", again.Text())
	assert.Equal(t, []string{ResultViewName}, w.Views())

	other := NewWindow()
	assert.NotSame(t, view, other.ResultView(), "Each window has its own results view")
}

func TestStatus(t *testing.T) {
	w := NewWindow(WithStatusMirror(nil))
	assert.Empty(t, w.Status())

	w.SetStatus("Executing query " + poll.Gauge(0))
	assert.Equal(t, "Executing query [=     ]", w.Status())

	w.ClearStatus()
	assert.Empty(t, w.Status())
}

func TestPresentAppends(t *testing.T) {
	view := NewWindow().ResultView()

	batch := executor.Batch{{Query: "bad", Err: errors.New("boom")}}
	require.NoError(t, view.Present(batch))
	require.NoError(t, view.Present(batch))

	want := render.ErrorSeparator + "bad\nboom"
	assert.Equal(t, want+want, view.Text())
	assert.Equal(t, 2*len(want), view.Size())

	view.Clear()
	assert.Empty(t, view.Text())
}

func TestPresentFormat(t *testing.T) {
	view := NewWindow(WithFormat(render.FormatCSV)).ResultView()

	require.NoError(t, view.Present(executor.Batch{{Query: "select 1", Columns: []string{"one"}, Rows: [][]any{{int64(1)}}}}))
	assert.Equal(t, "one\n1\n", view.Text())
}

func TestFlush(t *testing.T) {
	view := NewWindow().View("notes")
	view.Insert("hello\n")

	buf := &bytes.Buffer{}
	require.NoError(t, view.Flush(buf))
	assert.Equal(t, "hello\n", buf.String())

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, view.FlushFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}
