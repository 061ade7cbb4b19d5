package config

import (
	"os"
	"path/filepath"

	"github.com/Veraticus/expensy/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads Google Sheets configuration. Viper keys (config file
// or EXPENSY_SHEETS_* variables) win over the plain GOOGLE_SHEETS_* variables.
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	pick := func(key, env string) string {
		if val := v.GetString(key); val != "" {
			return val
		}
		return os.Getenv(env)
	}

	config.ServiceAccountPath = ExpandPath(pick("sheets.service_account_path", "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))
	config.ClientID = pick("sheets.client_id", "GOOGLE_SHEETS_CLIENT_ID")
	config.ClientSecret = pick("sheets.client_secret", "GOOGLE_SHEETS_CLIENT_SECRET")
	config.RefreshToken = pick("sheets.refresh_token", "GOOGLE_SHEETS_REFRESH_TOKEN")
	config.SpreadsheetID = pick("sheets.spreadsheet_id", "GOOGLE_SHEETS_SPREADSHEET_ID")
	if name := pick("sheets.spreadsheet_name", "GOOGLE_SHEETS_SPREADSHEET_NAME"); name != "" {
		config.SpreadsheetName = name
	}
	if tz := v.GetString("sheets.time_zone"); tz != "" {
		config.TimeZone = tz
	}
	if addr := v.GetString("sheets.callback_addr"); addr != "" {
		config.CallbackAddr = addr
	}

	// OAuth2 users without a refresh token keep the one the browser flow
	// yields next to the session database.
	if config.ServiceAccountPath == "" && config.RefreshToken == "" {
		config.TokenFile = ExpandPath(v.GetString("sheets.token_file"))
		if config.TokenFile == "" {
			config.TokenFile = filepath.Join(filepath.Dir(ExpandPath(v.GetString("session.path"))), "google-token.json")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
