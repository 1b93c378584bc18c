package main

import (
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cpacia/tab-server/tabroom"
)

const envPrefix = "TAB_"

// options are the command line flags. Anything set here beats the config
// file and the environment.
type options struct {
	Config     string `long:"config" env:"TAB_CONFIG" description:"Path to a YAML config file"`
	Addr       string `long:"addr" description:"Address to listen on"`
	BaseURL    string `long:"base-url" description:"Tabroom base URL"`
	CatalogURL string `long:"catalog-url" description:"Judge catalog URL, empty to disable"`
	LogLevel   string `long:"log-level" description:"debug, info, warn or error"`
	Dev        bool   `long:"dev" description:"Human readable logs"`
}

type Config struct {
	Addr           string        `koanf:"addr"`
	BaseURL        string        `koanf:"base_url"`
	CookieName     string        `koanf:"cookie_name"`
	UserAgent      string        `koanf:"user_agent"`
	HTTPTimeout    time.Duration `koanf:"http_timeout"`
	CatalogURL     string        `koanf:"catalog_url"`
	CatalogTimeout time.Duration `koanf:"catalog_timeout"`
	CORSOrigins    []string      `koanf:"cors_origins"`
	LoginRate      string        `koanf:"login_rate"`
	LogLevel       string        `koanf:"log_level"`
	DebugPreview   bool          `koanf:"debug_preview"`
}

func defaultConfig() *Config {
	return &Config{
		Addr:           ":8080",
		BaseURL:        tabroom.DefaultBaseURL,
		CookieName:     tabroom.DefaultCookieName,
		UserAgent:      tabroom.DefaultUserAgent,
		HTTPTimeout:    tabroom.DefaultTimeout,
		CatalogTimeout: tabroom.DefaultCatalogTimeout,
		CORSOrigins:    []string{"*"},
		LoginRate:      "10-M",
		LogLevel:       "info",
	}
}

// loadConfig layers, lowest first: defaults, the YAML file, TAB_* environment
// variables, then flags.
func loadConfig(opts options) (*Config, error) {
	k := koanf.New(".")

	if opts.Config != "" {
		if err := k.Load(file.Provider(opts.Config), yaml.Parser()); err != nil {
			return nil, crerr.Wrapf(err, "read config %s", opts.Config)
		}
	}

	// TAB_BASE_URL -> base_url. Lists are comma separated.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if key == "config" {
			return "", nil
		}
		if key == "cors_origins" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, crerr.Wrap(err, "read environment")
	}

	cfg := defaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, crerr.Wrap(err, "decode config")
	}

	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.CatalogURL != "" {
		cfg.CatalogURL = opts.CatalogURL
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return crerr.New("addr must not be empty")
	case c.BaseURL == "":
		return crerr.New("base_url must not be empty")
	case c.HTTPTimeout <= 0:
		return crerr.Newf("http_timeout must be positive, got %s", c.HTTPTimeout)
	case c.CatalogTimeout <= 0:
		return crerr.Newf("catalog_timeout must be positive, got %s", c.CatalogTimeout)
	}
	if _, err := limiter.NewRateFromFormatted(c.LoginRate); err != nil {
		return crerr.Wrapf(err, "login_rate %q", c.LoginRate)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return crerr.Wrapf(err, "log_level %q", c.LogLevel)
	}
	return nil
}

func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
