package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/expensy/internal/common"
	"github.com/spf13/viper"
)

// App holds the settings every command needs.
type App struct {
	BaseURL        string
	SessionPath    string
	ExportCurrency string
	ExportAccount  string
	ExportDir      string
	Theme          string
	Timeout        time.Duration
	RateLimit      float64
	RateBurst      int
	PageSize       int
}

// SetDefaults registers the default value of every key App reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:5000")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.rate_burst", 5)
	v.SetDefault("session.path", DefaultSessionPath())
	v.SetDefault("table.page_size", 25)
	v.SetDefault("export.currency", "ILS")
	v.SetDefault("export.account_id", "expensy")
	v.SetDefault("export.dir", ".")
	v.SetDefault("tui.theme", "default")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// LoadApp reads App from v.
func LoadApp(v *viper.Viper) (*App, error) {
	app := &App{
		BaseURL:        v.GetString("api.base_url"),
		Timeout:        v.GetDuration("api.timeout"),
		RateLimit:      v.GetFloat64("api.rate_limit"),
		RateBurst:      v.GetInt("api.rate_burst"),
		SessionPath:    ExpandPath(v.GetString("session.path")),
		PageSize:       v.GetInt("table.page_size"),
		ExportCurrency: v.GetString("export.currency"),
		ExportAccount:  v.GetString("export.account_id"),
		ExportDir:      ExpandPath(v.GetString("export.dir")),
		Theme:          v.GetString("tui.theme"),
	}

	if app.BaseURL == "" {
		return nil, fmt.Errorf("%w: api.base_url", common.ErrMissingConfig)
	}
	if app.SessionPath == "" {
		return nil, fmt.Errorf("%w: session.path", common.ErrMissingConfig)
	}
	if app.PageSize <= 0 {
		return nil, fmt.Errorf("%w: table.page_size must be positive", common.ErrInvalidConfig)
	}
	if app.Timeout < 0 {
		return nil, fmt.Errorf("%w: api.timeout cannot be negative", common.ErrInvalidConfig)
	}
	if app.RateLimit < 0 {
		return nil, fmt.Errorf("%w: api.rate_limit cannot be negative", common.ErrInvalidConfig)
	}

	return app, nil
}
