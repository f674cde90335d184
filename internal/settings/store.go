// Package settings persists user preferences in a TOML file.
package settings

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"tapedeck/internal/domain"
)

const fileName = "settings.toml"

var supportedThemes = map[string]bool{"system": true, "light": true, "dark": true}

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Load reads the settings file, writing defaults when it does not exist yet.
func (s *Store) Load() (domain.Settings, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.Settings{}, err
	}

	b, err := os.ReadFile(s.Path())
	if err == nil {
		var settings domain.Settings
		if err := toml.Unmarshal(b, &settings); err != nil {
			return domain.Settings{}, err
		}
		return Normalize(settings), nil
	}
	if !os.IsNotExist(err) {
		return domain.Settings{}, err
	}

	settings := Normalize(domain.Settings{})
	if err := writeAtomically(s.Path(), settings); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

func (s *Store) Save(settings domain.Settings) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return writeAtomically(s.Path(), Normalize(settings))
}

// Normalize fills defaults and folds unknown themes to "system".
func Normalize(settings domain.Settings) domain.Settings {
	settings.Language = strings.TrimSpace(settings.Language)
	if settings.Language == "" {
		settings.Language = "en"
	}
	settings.Theme = strings.ToLower(strings.TrimSpace(settings.Theme))
	if !supportedThemes[settings.Theme] {
		settings.Theme = "system"
	}
	return settings
}

func writeAtomically(path string, v any) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
