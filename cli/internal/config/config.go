package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem config files are read from and written to.
var AppFs = afero.NewOsFs()

const (
	fileName  = ".sqlkit"
	envPrefix = "SQLKIT"
)

// Config holds the connection settings shared by the CLI commands.
type Config struct {
	Driver        string
	URL           string
	Prefix        string
	ServerVersion string
	Debug         bool
}

// LoadConfig loads .env files from the working directory, then reads
// .sqlkit.yaml from the working directory, the home directory and
// ~/.config/sqlkit. SQLKIT_* variables override file values.
func LoadConfig() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	// .env.local wins over .env
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	return LoadFrom(AppFs, ".", home, filepath.Join(home, ".config", "sqlkit"))
}

// LoadFrom reads the first .sqlkit.yaml found in dirs. A missing file is not
// an error; a malformed one is.
func LoadFrom(fs afero.Fs, dirs ...string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("driver", "sqlite")
	v.SetDefault("prefix", "")
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Driver:        v.GetString("driver"),
		URL:           v.GetString("url"),
		Prefix:        v.GetString("prefix"),
		ServerVersion: v.GetString("server_version"),
		Debug:         v.GetBool("debug"),
	}
	if cfg.URL == "" {
		cfg.URL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// SaveConfig writes cfg to ~/.config/sqlkit/.sqlkit.yaml.
func SaveConfig(cfg *Config) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return SaveTo(AppFs, filepath.Join(home, ".config", "sqlkit"), cfg)
}

// SaveTo writes cfg as .sqlkit.yaml inside dir and returns the file path.
func SaveTo(fs afero.Fs, dir string, cfg *Config) (string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	v := viper.New()
	v.SetFs(fs)
	v.Set("driver", cfg.Driver)
	v.Set("url", cfg.URL)
	v.Set("prefix", cfg.Prefix)
	v.Set("server_version", cfg.ServerVersion)
	v.Set("debug", cfg.Debug)

	path := filepath.Join(dir, fileName+".yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

// RedactedURL returns the connection string with its password masked.
func (c *Config) RedactedURL() string {
	return Redact(c.Driver, c.URL)
}

// Redact masks the password in a DSN. MySQL DSNs use the driver's own
// format; URL-style DSNs are masked through net/url.
func Redact(driver, dsn string) string {
	if dsn == "" {
		return ""
	}

	switch strings.ToLower(driver) {
	case "mysql", "mariadb":
		parsed, err := mysql.ParseDSN(dsn)
		if err != nil {
			return dsn
		}
		if parsed.Passwd != "" {
			parsed.Passwd = "xxxxx"
		}
		return parsed.FormatDSN()
	}

	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
