package tui

import (
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/tui/themes"
)

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 25

// Config holds TUI configuration.
type Config struct {
	Theme      themes.Theme
	Currency   string
	Categories []model.Category
	PageSize   int
	Width      int
	Height     int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:    themes.Default,
		PageSize: DefaultPageSize,
		Width:    100,
		Height:   32,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithPageSize sets the rows per page. It must fit in one backend chunk.
func WithPageSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.PageSize = size
		}
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithCurrency sets the currency shown for settled rows.
func WithCurrency(currency string) Option {
	return func(c *Config) {
		c.Currency = currency
	}
}

// WithCategories sets the categories the category filter resolves names
// against.
func WithCategories(categories []model.Category) Option {
	return func(c *Config) {
		c.Categories = categories
	}
}
