package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearSheetsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_SPREADSHEET_ID",
		"GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Run("environment fallback", func(t *testing.T) {
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/keys/sa.json")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "Env Sheet")

		v := viper.New()
		SetDefaults(v)
		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "Env Sheet", cfg.SpreadsheetName)
		assert.Empty(t, cfg.TokenFile)
	})

	t.Run("viper wins", func(t *testing.T) {
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "from-env")

		v := viper.New()
		SetDefaults(v)
		v.Set("sheets.client_id", "id")
		v.Set("sheets.client_secret", "secret")
		v.Set("sheets.refresh_token", "refresh")
		v.Set("sheets.spreadsheet_id", "from-viper")
		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "from-viper", cfg.SpreadsheetID)
		assert.Equal(t, "Expensy Report", cfg.SpreadsheetName)
	})

	t.Run("token file next to session", func(t *testing.T) {
		clearSheetsEnv(t)
		v := viper.New()
		SetDefaults(v)
		v.Set("session.path", "/data/expensy/session.db")
		v.Set("sheets.client_id", "id")
		v.Set("sheets.client_secret", "secret")
		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "/data/expensy/google-token.json", cfg.TokenFile)
		assert.True(t, cfg.HasOAuth())
	})

	t.Run("missing credentials", func(t *testing.T) {
		clearSheetsEnv(t)
		v := viper.New()
		SetDefaults(v)
		_, err := LoadSheetsConfig(v)
		assert.Error(t, err)
	})
}
