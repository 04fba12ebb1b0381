package sys

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOS(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), "state")

	_, err := DefaultOS(stateDir, "", false)
	assert.Error(t, err, "Missing directories are not created")

	s, err := DefaultOS(stateDir, "", true)
	require.NoError(t, err)

	info, err := os.Stat(s.ResultsDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	socket := s.ControlSocket()
	assert.Equal(t, filepath.Join(stateDir, "control.socket"), socket.Hostname())
	assert.Equal(t, filepath.Join(stateDir, "settings.yaml"), s.SettingsPath())
	assert.Equal(t, filepath.Join(stateDir, ".env"), s.EnvPath())
}

func TestResultsPath(t *testing.T) {
	s := &OS{ResultsDir: "/results"}

	assert.Equal(t, "/results/query-result.txt", s.ResultsPath("Query Result:"))
	assert.Equal(t, "/results/users.txt", s.ResultsPath(" users "))
}

func TestWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := t.TempDir()
	w, err := NewWatcher(ctx, root)
	require.NoError(t, err)

	assert.Error(t, w.Watch(filepath.Join(root, "sub", "file"), nil))
	assert.Error(t, w.Watch("/elsewhere/file", nil))

	events := make(chan fsnotify.Op, 10)
	target := filepath.Join(root, "settings.yaml")
	require.NoError(t, w.Watch(target, func(path string, event fsnotify.Op) error {
		events <- event
		return nil
	}))

	// Files that are not watched are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "other"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(target, []byte("a: b\n"), 0600))

	select {
	case event := <-events:
		assert.True(t, event.Has(fsnotify.Create) || event.Has(fsnotify.Write))
	case <-time.After(5 * time.Second):
		t.Fatal("No event for the watched file")
	}

	require.NoError(t, os.Remove(target))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Has(fsnotify.Remove) {
				return
			}
		case <-deadline:
			t.Fatal("No remove event for the watched file")
		}
	}
}

func TestWatcherMissingRoot(t *testing.T) {
	_, err := NewWatcher(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
