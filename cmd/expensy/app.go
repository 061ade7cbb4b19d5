package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/expensy/internal/api"
	"github.com/Veraticus/expensy/internal/cli"
	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/config"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/storage"
	"github.com/Veraticus/expensy/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is what a command runs against: the API client, the cached state
// restored from the session database, and the terminal.
type app struct {
	cfg      *config.App
	v        *viper.Viper
	client   *api.Client
	state    *store.State
	sessions *storage.SQLiteStorage
	prompter *cli.Prompter
	out      io.Writer
	now      func() time.Time
	discard  bool
}

func openApp(ctx context.Context, cmd *cobra.Command, v *viper.Viper) (*app, error) {
	cfg, err := config.LoadApp(v)
	if err != nil {
		return nil, err
	}

	sessions, err := storage.NewSQLiteStorage(cfg.SessionPath)
	if err != nil {
		return nil, common.NewUserError("Could not open the session database at "+cfg.SessionPath, err)
	}
	if err := sessions.Migrate(ctx); err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("failed to migrate session: %w", err)
	}

	client, err := api.NewClient(cfg.BaseURL,
		api.WithTimeout(cfg.Timeout),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	)
	if err != nil {
		_ = sessions.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		v:        v,
		client:   client,
		state:    store.New(client),
		sessions: sessions,
		prompter: cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		out:      cmd.OutOrStdout(),
		now:      time.Now,
	}

	if err := a.state.Load(ctx, sessions); err != nil {
		_ = sessions.Close()
		return nil, err
	}
	if user := a.state.User(); user != nil {
		if api.TokenExpired(user.AccessToken, a.now()) {
			slog.Info("Stored session has expired", "email", user.Email)
			a.state.Reset()
		} else {
			client.SetAccessToken(user.AccessToken)
		}
	}
	return a, nil
}

// close saves the state unless the command discarded it.
func (a *app) close(ctx context.Context) error {
	var saveErr error
	if !a.discard {
		saveErr = a.state.Save(context.WithoutCancel(ctx), a.sessions)
	}
	if err := a.sessions.Close(); err != nil {
		slog.Warn("Failed to close session database", "error", err)
	}
	return saveErr
}

// run opens the app, runs fn, and saves the state even when fn fails. An
// expired session signs the user out.
func run(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, v)
	if err != nil {
		return err
	}

	runErr := fn(ctx, a)
	if errors.Is(runErr, common.ErrSessionExpired) {
		a.state.Reset()
		a.client.SetAccessToken("")
	}

	if err := a.close(ctx); err != nil {
		if runErr == nil {
			return err
		}
		slog.Warn("Failed to save session", "error", err)
	}
	return runErr
}

// user returns the signed-in user.
func (a *app) user() (*model.User, error) {
	user := a.state.User()
	if user == nil {
		return nil, common.ErrNotLoggedIn
	}
	return user, nil
}

// categories returns the user's categories, fetching them when not held or
// stale.
func (a *app) categories(ctx context.Context) ([]model.Category, error) {
	if err := a.state.FetchAndSetCategories(ctx, true); err != nil {
		return nil, err
	}
	categories, _ := a.state.Categories()
	return categories, nil
}

func (a *app) println(s string) {
	_, _ = fmt.Fprintln(a.out, s)
}
