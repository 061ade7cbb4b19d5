package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/expensy/internal/cli"
	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/dashboard"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var frequencyUnits = []model.FrequencyUnit{model.FrequencyDays, model.FrequencyWeeks, model.FrequencyMonths}

func recurringCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"rec"},
		Short:   "Manage recurring transactions",
	}
	cmd.AddCommand(
		recurringListCmd(v),
		recurringCreateCmd(v),
		recurringUpdateCmd(v),
		recurringDeleteCmd(v),
	)
	return cmd
}

func recurringListCmd(v *viper.Viper) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				user, err := a.user()
				if err != nil {
					return err
				}
				if err := a.state.FetchAndSetRecurringTransactions(ctx, !refresh); err != nil {
					return err
				}
				items, _ := a.state.RecurringTransactions()
				if len(items) == 0 {
					a.println(cli.FormatInfo("No recurring transactions"))
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, r := range items {
					rows = append(rows, recurringRow(r, user.Currency))
				}
				a.println(cli.RenderTable([]string{"ID", "Name", "Every", "Starts", "Category", "Amount"}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached list")
	return cmd
}

func recurringRow(r model.RecurringTransaction, currency string) []string {
	category, amount := "", ""
	if r.Transaction != nil {
		category = r.Transaction.Category()
		amount = dashboard.FormatTransaction(r.Transaction, currency)
	}
	return []string{
		strconv.Itoa(r.ID),
		r.TransactionName,
		fmt.Sprintf("%d %s", r.FrequencyValue, r.FrequencyUnit),
		r.StartDate.DateString(),
		category,
		amount,
	}
}

type recurringFlags struct {
	name      string
	unit      string
	startDate string
	category  string
	every     int
	amount    float64
}

var recurringFields = []string{"name", "unit", "every", "start", "category", "amount"}

func (f *recurringFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "name of the recurring transaction")
	flags.Float64Var(&f.amount, "amount", 0, "amount charged each time")
	flags.StringVar(&f.category, "category", "", "category name or id")
	flags.IntVar(&f.every, "every", 1, "how many units between charges, 1 to 4")
	flags.StringVar(&f.unit, "unit", string(model.FrequencyMonths), "days, weeks or months")
	flags.StringVar(&f.startDate, "start", "", "first charge, YYYY-MM-DD")
}

func (f *recurringFlags) any(cmd *cobra.Command) bool {
	for _, name := range recurringFields {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// apply copies the flags that were set onto in.
func (f *recurringFlags) apply(cmd *cobra.Command, in *model.RecurringInput, categories []model.Category) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = strings.TrimSpace(f.name)
	}
	if flags.Changed("amount") {
		in.Amount = f.amount
	}
	if flags.Changed("category") {
		category, err := findCategory(f.category, categories)
		if err != nil {
			return err
		}
		in.CategoryID = category.ID
	}
	if flags.Changed("every") {
		in.FrequencyValue = f.every
	}
	if flags.Changed("unit") {
		unit := model.FrequencyUnit(strings.ToLower(f.unit))
		if !unit.Valid() {
			return fmt.Errorf("%w: unit %q is not days, weeks or months", common.ErrInvalidInput, f.unit)
		}
		in.FrequencyUnit = unit
	}
	if flags.Changed("start") {
		in.StartDate = f.startDate
	}
	return nil
}

func promptRecurring(ctx context.Context, a *app, in *model.RecurringInput, categories []model.Category) error {
	p := a.prompter
	var err error
	if in.Name, err = p.AskRequired(ctx, "Name", in.Name); err != nil {
		return err
	}
	if in.Amount, err = p.AskFloat(ctx, "Amount", in.Amount); err != nil {
		return err
	}

	names := make([]string, len(categories))
	current := -1
	for i, c := range categories {
		names[i] = c.CategoryName
		if c.ID == in.CategoryID {
			current = i
		}
	}
	picked, err := p.Choose(ctx, "Category", names, current)
	if err != nil {
		return err
	}
	in.CategoryID = categories[picked].ID

	if in.FrequencyValue, err = p.AskInt(ctx, "Every", max(in.FrequencyValue, 1)); err != nil {
		return err
	}
	units := make([]string, len(frequencyUnits))
	currentUnit := len(frequencyUnits) - 1
	for i, u := range frequencyUnits {
		units[i] = string(u)
		if u == in.FrequencyUnit {
			currentUnit = i
		}
	}
	pickedUnit, err := p.Choose(ctx, "Unit", units, currentUnit)
	if err != nil {
		return err
	}
	in.FrequencyUnit = frequencyUnits[pickedUnit]

	in.StartDate, err = p.AskRequired(ctx, "Start date", in.StartDate)
	return err
}

func recurringCreateCmd(v *viper.Viper) *cobra.Command {
	var flags recurringFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a recurring transaction",
		Long: `Create a recurring transaction. Without flags every field is asked for.
The start date defaults to the first of next month, or today when today is
the first, and may not be in the past.`,
		Example: `  expensy recurring create --name Rent --amount 4500 --category Housing
  expensy recurring create --name Gym --amount 120 --category Health --every 1 --unit months --start 2024-05-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				if _, err := a.user(); err != nil {
					return err
				}
				categories, err := a.categories(ctx)
				if err != nil {
					return err
				}

				now := a.now()
				in := model.RecurringInput{
					FrequencyValue: 1,
					FrequencyUnit:  model.FrequencyMonths,
					StartDate:      model.DefaultStartDate(now).Format(time.DateOnly),
				}
				if flags.any(cmd) {
					err = flags.apply(cmd, &in, categories)
				} else {
					err = promptRecurring(ctx, a, &in, categories)
				}
				if err != nil {
					return err
				}
				if err := in.CheckStartDate(now); err != nil {
					return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
				}

				if err := a.state.CreateRecurringTransaction(ctx, a.client, in); err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Recurring transaction " + in.Name + " created"))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func recurringUpdateCmd(v *viper.Viper) *cobra.Command {
	var flags recurringFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a recurring transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				if _, err := a.user(); err != nil {
					return err
				}
				existing, err := findRecurring(ctx, a, args[0])
				if err != nil {
					return err
				}
				categories, err := a.categories(ctx)
				if err != nil {
					return err
				}

				in := model.NewRecurringInput(existing)
				if flags.any(cmd) {
					err = flags.apply(cmd, &in, categories)
				} else {
					err = promptRecurring(ctx, a, &in, categories)
				}
				if err != nil {
					return err
				}

				if err := a.state.UpdateRecurringTransaction(ctx, a.client, in); err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Recurring transaction " + in.Name + " updated"))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func recurringDeleteCmd(v *viper.Viper) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recurring transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				if _, err := a.user(); err != nil {
					return err
				}
				existing, err := findRecurring(ctx, a, args[0])
				if err != nil {
					return err
				}
				if !yes {
					confirmed, err := a.prompter.Confirm(ctx, "Delete "+existing.TransactionName+"?", false)
					if err != nil {
						return err
					}
					if !confirmed {
						a.println(cli.FormatInfo("Nothing deleted"))
						return nil
					}
				}

				if err := a.state.DeleteRecurringTransaction(ctx, a.client, existing.ID); err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Recurring transaction " + existing.TransactionName + " deleted"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}

func findRecurring(ctx context.Context, a *app, rawID string) (*model.RecurringTransaction, error) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: recurring id %q is not a number", common.ErrInvalidInput, rawID)
	}
	if err := a.state.FetchAndSetRecurringTransactions(ctx, true); err != nil {
		return nil, err
	}
	items, _ := a.state.RecurringTransactions()
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: recurring transaction %d", common.ErrNotFound, id)
}
