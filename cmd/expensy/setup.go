package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/expensy/internal/api"
	"github.com/Veraticus/expensy/internal/cli"
	"github.com/Veraticus/expensy/internal/dashboard"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/setup"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func setupCmd(v *viper.Viper) *cobra.Command {
	var restart, force bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Set your budget, categories and card credentials",
		Long: `Walk through the account setup: the monthly budget, how it splits across
categories, then your name, currency and credit card site credentials.

Progress is saved after every step; running setup again resumes where you
stopped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				user, err := a.user()
				if err != nil {
					return err
				}
				if user.InitialSetupDone && !force {
					a.println(cli.FormatInfo("Setup is already done; use --force to run it again"))
					return nil
				}
				if restart {
					a.state.SetSetupData(model.InitialSetupData())
				}

				w := setup.New(a.state.SetupData())
				if msg := w.Data().ErrorMessage; msg != nil {
					a.println(cli.FormatWarning("Last attempt failed: " + *msg))
				}

				done, err := runWizard(ctx, a, w)
				if !done {
					return err
				}

				a.println(cli.FormatInfo("Submitting setup..."))
				updated, err := w.Submit(ctx, a.client, api.UserMessage)
				if err != nil {
					a.state.SetSetupData(w.Data())
					return err
				}
				a.state.SetUser(updated)
				a.client.SetAccessToken(updated.AccessToken)
				a.state.SetSetupData(model.InitialSetupData())
				a.println(cli.FormatSuccess("Setup complete. Run 'expensy dashboard' to see your month"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&restart, "restart", false, "discard saved progress and start over")
	cmd.Flags().BoolVar(&force, "force", false, "run even when setup is already done")
	return cmd
}

// runWizard asks for every step from the current one on. It saves the
// wizard after each step and reports done once the last step is complete.
func runWizard(ctx context.Context, a *app, w *setup.Wizard) (bool, error) {
	for {
		a.println(cli.FormatTitle(fmt.Sprintf("Step %d of %d", w.Step(), setup.StepCount)))

		var err error
		switch w.Step() {
		case setup.StepBudget:
			err = askBudget(ctx, a, w)
		case setup.StepCategories:
			err = askCategories(ctx, a, w)
		case setup.StepProfile:
			err = askProfile(ctx, a, w)
		}
		if err != nil {
			a.state.SetSetupData(w.Data())
			return false, err
		}

		done, err := w.Next()
		a.state.SetSetupData(w.Data())
		switch {
		case errors.Is(err, setup.ErrOverBudget):
			a.println(cli.FormatWarning(setup.OverBudgetMessage))
			continue
		case err != nil:
			return false, err
		case done:
			return true, nil
		}
	}
}

func askBudget(ctx context.Context, a *app, w *setup.Wizard) error {
	for {
		budget, err := a.prompter.AskInt(ctx, "Monthly budget", w.Data().MonthlyBudget)
		if err != nil {
			return err
		}
		if budget > 0 {
			w.SetMonthlyBudget(budget)
			return nil
		}
		a.println(cli.FormatWarning("The budget must be above zero"))
	}
}

func askCategories(ctx context.Context, a *app, w *setup.Wizard) error {
	data := w.Data()
	if len(data.Categories) == 0 {
		defaults, err := a.client.GetDefaultCategories(ctx)
		if err != nil {
			return err
		}
		w.SetCategories(setup.SpreadEvenly(defaults))
		data = w.Data()
	}

	a.println(cli.FormatInfo(fmt.Sprintf("Split %s across categories, in percent. Zero leaves a category out.",
		dashboard.FormatAmount(float64(data.MonthlyBudget), data.Currency))))
	for i, c := range data.Categories {
		percent, err := a.prompter.AskFloat(ctx, c.CategoryName, c.Budget)
		if err != nil {
			return err
		}
		if err := w.SetCategoryBudget(i, percent); err != nil {
			return err
		}
	}
	a.println(cli.FormatInfo(fmt.Sprintf("Allocated %.0f%%", w.AllocatedPercent())))
	return nil
}

func askProfile(ctx context.Context, a *app, w *setup.Wizard) error {
	data := w.Data()
	name, err := a.prompter.AskRequired(ctx, "Full name", data.FullName)
	if err != nil {
		return err
	}
	currency, err := a.prompter.AskRequired(ctx, "Currency symbol", data.Currency)
	if err != nil {
		return err
	}
	w.SetProfile(name, currency)

	for {
		var creds model.Credentials
		if creds.Username, err = a.prompter.AskRequired(ctx, "Card site username", ""); err != nil {
			return err
		}
		if creds.Password, err = a.prompter.AskPassword(ctx, "Card site password"); err != nil {
			return err
		}
		if creds.ID, err = a.prompter.AskRequired(ctx, "ID number", ""); err != nil {
			return err
		}

		err := w.TestCredentials(ctx, a.client, creds)
		if err == nil {
			a.println(cli.FormatSuccess("Credentials verified"))
			return nil
		}
		a.println(cli.FormatError(api.UserMessage(err)))
		retry, err := a.prompter.Confirm(ctx, "Try again?", true)
		if err != nil {
			return err
		}
		if !retry {
			return fmt.Errorf("credentials were not verified: %w", setup.ErrCredentialsNotTested)
		}
	}
}
