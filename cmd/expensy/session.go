package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/expensy/internal/api"
	"github.com/Veraticus/expensy/internal/cli"
	"github.com/Veraticus/expensy/internal/dashboard"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func loginCmd(v *viper.Viper) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				var err error
				if email == "" {
					if email, err = a.prompter.AskRequired(ctx, "Email", ""); err != nil {
						return err
					}
				}
				if password == "" {
					if password, err = a.prompter.AskPassword(ctx, "Password"); err != nil {
						return err
					}
				}

				user, err := a.client.Login(ctx, model.LoginRequest{Email: email, Password: password})
				if err != nil {
					return err
				}
				signIn(a, user)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func registerCmd(v *viper.Viper) *cobra.Command {
	var email, password, inviteKey string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account with an invite key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				var err error
				if email == "" {
					if email, err = a.prompter.AskRequired(ctx, "Email", ""); err != nil {
						return err
					}
				}
				if password == "" {
					if password, err = a.prompter.AskPassword(ctx, "Password (8 characters or more)"); err != nil {
						return err
					}
				}
				if inviteKey == "" {
					if inviteKey, err = a.prompter.AskRequired(ctx, "Invite key", ""); err != nil {
						return err
					}
				}

				user, err := a.client.Register(ctx, model.RegisterRequest{
					Email:     email,
					Password:  password,
					InviteKey: inviteKey,
				})
				if err != nil {
					return err
				}
				signIn(a, user)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	cmd.Flags().StringVar(&inviteKey, "invite-key", "", "invite key")
	return cmd
}

// signIn replaces whatever the session held with user.
func signIn(a *app, user *model.User) {
	a.state.Reset()
	a.state.SetUser(user)
	a.client.SetAccessToken(user.AccessToken)

	a.println(cli.FormatSuccess("Signed in as " + user.Email))
	if !user.InitialSetupDone {
		a.println(cli.FormatInfo("Run 'expensy setup' to set your budget and categories."))
	}
}

func logoutCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the cached session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				if err := a.state.Clear(ctx, a.sessions); err != nil {
					return err
				}
				a.client.SetAccessToken("")
				a.discard = true
				a.println(cli.FormatSuccess("Signed out"))
				return nil
			})
		},
	}
}

func whoamiCmd(v *viper.Viper) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				user, err := a.user()
				if err != nil {
					return err
				}
				if refresh {
					if user, err = a.client.GetUserData(ctx); err != nil {
						return err
					}
					a.state.SetUser(user)
				}

				rows := [][]string{
					{"Email", user.Email},
					{"Name", user.FullName},
					{"Currency", user.Currency},
					{"Monthly budget", dashboard.FormatAmount(user.MonthlyBudget, user.Currency)},
					{"Setup done", fmt.Sprint(user.InitialSetupDone)},
				}
				if expiry, ok, err := api.TokenExpiry(user.AccessToken); err == nil && ok {
					rows = append(rows, []string{"Session expires", humanize.Time(expiry)})
				}
				infos, err := a.sessions.ListSnapshots(ctx)
				if err != nil {
					return err
				}
				for _, info := range infos {
					if info.Name == store.StoreName {
						rows = append(rows, []string{"Session saved", humanize.Time(info.UpdatedAt)})
					}
				}
				a.println(cli.RenderTable([]string{"Field", "Value"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the account from the server")
	return cmd
}
