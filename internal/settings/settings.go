// Package settings manages persisted operator settings: account credentials, the download
// directory and caption tag count. Settings live in a TOML file, with environment variable
// overrides for the credentials so they can stay out of the file entirely.
package settings

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "clipforge"

var Keys = struct {
	Username    string
	Password    string
	DownloadDir string
	TagCount    string
}{
	Username:    "account.username",
	Password:    "account.password",
	DownloadDir: "download.directory",
	TagCount:    "caption.tag_count",
}

// Settings are the resolved values after defaults, config file and environment are merged.
type Settings struct {
	Username    string
	Password    string
	DownloadDir string
	TagCount    int
}

// envOverrides are credentials supplied via CLIPFORGE_USERNAME / CLIPFORGE_PASSWORD; they win
// over the config file but are never written back to it.
type envOverrides struct {
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}

type Manager struct {
	v    *viper.Viper
	path string
	log  *zap.SugaredLogger
}

// NewManager manages settings stored at <configDir>/settings.toml.
func NewManager(configDir string) *Manager {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault(Keys.Username, "")
	v.SetDefault(Keys.Password, "")
	v.SetDefault(Keys.DownloadDir, defaultDownloadDir())
	v.SetDefault(Keys.TagCount, 3)

	return &Manager{
		v:    v,
		path: filepath.Join(configDir, "settings.toml"),
		log:  zap.S().Named("settings"),
	}
}

func defaultDownloadDir() string {
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, "downloads")
	}
	return "downloads"
}

// Load reads the config file (a missing file is fine) and applies environment overrides.
func (m *Manager) Load() (*Settings, error) {
	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		m.log.Debugw("no settings file, using defaults", "path", m.path)
	}

	settings := &Settings{
		Username:    m.v.GetString(Keys.Username),
		Password:    m.v.GetString(Keys.Password),
		DownloadDir: m.v.GetString(Keys.DownloadDir),
		TagCount:    m.v.GetInt(Keys.TagCount),
	}

	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, err
	}
	if env.Username != "" {
		settings.Username = env.Username
	}
	if env.Password != "" {
		settings.Password = env.Password
	}

	return settings, nil
}

// Save writes the settings back to the config file, creating the directory if needed.
// Credentials that only came from the environment are not persisted.
func (m *Manager) Save(settings *Settings) error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return err
	}
	if env.Username == "" || settings.Username != env.Username {
		m.v.Set(Keys.Username, settings.Username)
	}
	if env.Password == "" || settings.Password != env.Password {
		m.v.Set(Keys.Password, settings.Password)
	}
	m.v.Set(Keys.DownloadDir, settings.DownloadDir)
	m.v.Set(Keys.TagCount, settings.TagCount)

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	return m.v.WriteConfigAs(m.path)
}
