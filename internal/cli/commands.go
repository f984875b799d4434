package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bills/internal/core"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Execute runs billsctl with args and closes the store afterwards.
func Execute(ctx context.Context, app *App, args []string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	return err
}

// NewRootCommand builds the billsctl command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "billsctl",
		Short: "Manage bills and see what fits the budget",
		Long: "billsctl edits the same bill database as the web app and shows which\n" +
			"bills the current budget covers.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.loadConfig(cmd.Flags().Changed)
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	root.SetIn(app.In)

	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default "+ConfigPath()+")")
	root.PersistentFlags().StringVar(&app.dbPath, "db", "", "SQLite database path")
	root.PersistentFlags().StringVar(&app.currency, "currency", "", "currency symbol")
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "log backend activity")

	root.AddCommand(
		newListCmd(app),
		newAddCmd(app),
		newEditCmd(app),
		newDeleteCmd(app),
		newBudgetCmd(app),
		newAffordCmd(app),
		newSummaryCmd(app),
		newThemeCmd(app),
		newConfigCmd(app),
	)
	return root
}

func newListCmd(app *App) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills, marking the ones the budget covers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			ov, err := svc.Overview(cmd.Context(), category)
			if err != nil {
				return err
			}
			title := "Bills"
			if ov.Category != "" && !strings.EqualFold(ov.Category, core.AllCategories) {
				title += " in " + ov.Category
			}
			app.printf("%s", RenderBills(title, ov.Bills, ov.Affordable, app.cfg.Currency))
			app.printf("%s", RenderSelection(ov.Affordable, core.FormatMoney(app.cfg.Currency, ov.Summary.Budget), app.cfg.Currency))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only show this category")
	return cmd
}

// billFlags are the fields shared by add and edit.
type billFlags struct {
	description string
	category    string
	amount      string
	date        string
}

func (f *billFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "what the bill is for")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "category label")
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "amount, e.g. 42.50")
	cmd.Flags().StringVar(&f.date, "date", "", "due date (YYYY-MM-DD)")
}

// apply copies the flags that were set onto b.
func (f *billFlags) apply(cmd *cobra.Command, b *core.Bill) error {
	changed := cmd.Flags().Changed
	if changed("description") {
		b.Description = f.description
	}
	if changed("category") {
		b.Category = f.category
	}
	if changed("amount") {
		b.Amount = f.amount
	}
	if changed("date") {
		d, err := core.ParseDate(f.date)
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		b.Date = d
	}
	return nil
}

func newAddCmd(app *App) *cobra.Command {
	var flags billFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a bill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := app.Now()
			b := core.Bill{Date: core.NewDate(now.Year(), int(now.Month()), now.Day())}
			if err := flags.apply(cmd, &b); err != nil {
				return err
			}
			svc, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			created, err := svc.CreateBill(cmd.Context(), b)
			if err != nil {
				return err
			}
			app.printf("Added bill #%d %s\n", created.ID, created.Description)
			return nil
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var flags billFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			b, err := svc.GetBill(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &b); err != nil {
				return err
			}
			if err := svc.UpdateBill(cmd.Context(), b); err != nil {
				return err
			}
			app.printf("Updated bill #%d\n", id)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a bill",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			if !yes {
				b, err := svc.GetBill(cmd.Context(), id)
				if err != nil {
					return err
				}
				app.printf("Delete bill #%d %q? [y/N] ", b.ID, b.Description)
				line, _ := bufio.NewReader(app.In).ReadString('\n')
				if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
					app.printf("Aborted\n")
					return nil
				}
			}
			if err := svc.DeleteBill(cmd.Context(), id); err != nil {
				return err
			}
			app.printf("Deleted bill #%d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newBudgetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show the budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			budget, err := svc.Budget(cmd.Context())
			if err != nil {
				return err
			}
			app.printf("Budget: %s\n", core.FormatMoney(app.cfg.Currency, budget))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <amount>",
		Short: "Set the budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			budget, err := svc.SetBudget(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.printf("Budget set to %s\n", core.FormatMoney(app.cfg.Currency, budget))
			return nil
		},
	})
	return cmd
}

func newAffordCmd(app *App) *cobra.Command {
	var budgetFlag string
	cmd := &cobra.Command{
		Use:   "afford",
		Short: "Show the bills the budget covers",
		Long: "afford takes bills from the smallest amount up and keeps every bill\n" +
			"that still fits in what is left of the budget.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var override *decimal.Decimal
			if cmd.Flags().Changed("budget") {
				b, err := core.ParseBudget(budgetFlag)
				if err != nil {
					return err
				}
				override = &b
			}
			svc, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			sel, bills, err := svc.Affordable(cmd.Context(), override)
			if err != nil {
				return err
			}
			budget := decimal.Zero
			if override != nil {
				budget = *override
			} else if budget, err = svc.Budget(cmd.Context()); err != nil {
				return err
			}

			selected := make([]core.Bill, 0, sel.IDs.Len())
			for _, b := range bills {
				if sel.IDs.Has(b.ID) {
					selected = append(selected, b)
				}
			}
			app.printf("%s", RenderBills("Affordable bills", selected, sel, app.cfg.Currency))
			app.printf("%s", RenderSelection(sel, core.FormatMoney(app.cfg.Currency, budget), app.cfg.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&budgetFlag, "budget", "", "use this budget instead of the stored one")
	return cmd
}

func newSummaryCmd(app *App) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals against the budget, per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, mon := 0, 0
			title := "Summary (all bills)"
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("month must be YYYY-MM: %w", core.ErrInvalidMonth)
				}
				year, mon = t.Year(), int(t.Month())
				title = "Summary for " + t.Format("January 2006")
			}
			svc, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			sum, err := svc.Summary(cmd.Context(), year, mon)
			if err != nil {
				return err
			}
			app.printf("%s", RenderSummary(title, sum, app.cfg.Currency))
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "only bills due in this month (YYYY-MM)")
	return cmd
}

func newThemeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the web app theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				theme, err := svc.Theme(cmd.Context())
				if err != nil {
					return err
				}
				app.printf("Theme: %s\n", theme)
				return nil
			}
			theme, err := svc.SetTheme(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.printf("Theme set to %s\n", theme)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.printf("config:   %s\n", app.configFile())
			app.printf("db_path:  %s\n", app.cfg.DBPath)
			app.printf("currency: %s\n", app.cfg.Currency)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := SaveFileConfig(app.configFile(), app.cfg); err != nil {
				return err
			}
			app.printf("Wrote %s\n", app.configFile())
			return nil
		},
	})
	return cmd
}

func (a *App) configFile() string {
	if a.configPath != "" {
		return a.configPath
	}
	return ConfigPath()
}

var errInvalidID = errors.New("bill id must be a positive integer")

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%q: %w", s, errInvalidID)
	}
	return id, nil
}
