package api

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/macropower/browserhost/pkg/yaml"
)

// AppName is the directory name used under the user's config directory.
const AppName = "browserhost"

var errNoConfigDir = errors.New("neither $XDG_CONFIG_HOME nor $HOME is set")

// ConfigDir returns the browserhost directory under $XDG_CONFIG_HOME, or
// under ~/.config when that is unset.
func ConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, AppName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", errors.Join(errNoConfigDir, err)
	}

	return filepath.Join(home, ".config", AppName), nil
}

// GetConfigPath returns the path of filename in [ConfigDir]. When there is
// no usable config directory, a path in the temp directory is returned.
func GetConfigPath(filename string) string {
	dir, err := ConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), AppName)

		slog.Warn("using temp directory for configuration",
			slog.String("dir", dir),
			slog.Any("error", err),
		)
	}

	return filepath.Join(dir, filename)
}

// ReadFile reads a regular file. Missing files are reported with an error
// wrapping [os.ErrNotExist].
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	switch {
	case info.IsDir():
		return nil, fmt.Errorf("%s: path is a directory", path)
	case !info.Mode().IsRegular():
		return nil, fmt.Errorf("%s: not a regular file", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is user configuration.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes obj using its JSON field names.
func MarshalYAML(obj any) ([]byte, error) {
	b, err := yaml.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return b, nil
}

// WriteFileAtomic replaces path with data. The data is written to a
// temporary file in the same directory which is then renamed over path,
// creating parent directories as needed.
func WriteFileAtomic(path string, data []byte) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s: path is a directory", path)
	}

	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Gone after a successful rename.

	err = writeAndClose(tmp, data)
	if err != nil {
		return err
	}

	err = os.Rename(tmpName, path)
	if err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	_, err := f.Write(data)
	if err == nil {
		err = f.Chmod(0o600)
	}

	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	return nil
}
