package sys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/canonical/lxd/shared/api"
)

// OS contains fields and methods for interacting with the state directory.
type OS struct {
	StateDir    string
	ResultsDir  string
	SocketGroup string

	LogFile string
}

// DefaultOS returns a fresh uninitialized OS instance with default values.
func DefaultOS(stateDir string, socketGroup string, createDir bool) (*OS, error) {
	os := &OS{
		StateDir:    stateDir,
		ResultsDir:  filepath.Join(stateDir, "results"),
		SocketGroup: socketGroup,
		LogFile:     "",
	}

	err := os.init(createDir)
	if err != nil {
		return nil, err
	}

	return os, nil
}

func (s *OS) init(createDir bool) error {
	dirs := []struct {
		path string
		mode os.FileMode
	}{
		{s.StateDir, 0711},
		{s.ResultsDir, 0700},
	}

	for _, dir := range dirs {
		// If we are not creating the directories, ensure they still exist.
		if !createDir {
			_, err := os.Stat(dir.path)
			if err != nil {
				return fmt.Errorf("Unable to get state dir information: %w", err)
			}

			continue
		}

		err := os.MkdirAll(dir.path, dir.mode)
		if err != nil {
			if !os.IsExist(err) {
				return fmt.Errorf("Failed to init dir %q: %w", dir.path, err)
			}

			err = os.Chmod(dir.path, dir.mode)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("Failed to chmod dir %q: %w", dir.path, err)
			}
		}
	}

	return nil
}

// ControlSocket returns the full path to the control.socket file that the daemon is listening on.
func (s *OS) ControlSocket() api.URL {
	return *api.NewURL().Scheme("http").Host(filepath.Join(s.StateDir, "control.socket"))
}

// SettingsPath returns the path of the settings file holding the connection profiles.
func (s *OS) SettingsPath() string {
	return filepath.Join(s.StateDir, "settings.yaml")
}

// EnvPath returns the path of the optional .env file used to expand credentials.
func (s *OS) EnvPath() string {
	return filepath.Join(s.StateDir, ".env")
}

// ResultsPath returns the file backing the named results view.
func (s *OS) ResultsPath(name string) string {
	slug := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}

		return '-'
	}, strings.TrimSpace(name))

	return filepath.Join(s.ResultsDir, fmt.Sprintf("%s.txt", strings.Trim(slug, "-")))
}
