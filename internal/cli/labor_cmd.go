package cli

import (
	"fmt"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/cli/formatter"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/spf13/cobra"
)

func newLaborCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labor",
		Short: "Show or confirm the labor total of a case",
	}

	cmd.AddCommand(
		newLaborShowCmd(app),
		newLaborConfirmCmd(app),
	)

	return cmd
}

func newLaborShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show CASE",
		Short: "Show estimated and confirmed labor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCase(ctx, app, args[0])
			if err != nil {
				return err
			}
			st, err := app.Diagnostics.LaborStatus(ctx, c.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatLaborStatus(st))
			return nil
		},
	}
}

func newLaborConfirmCmd(app *App) *cobra.Command {
	var hours hoursValue

	cmd := &cobra.Command{
		Use:   "confirm CASE",
		Short: "Confirm the total labor hours",
		Long: `Record the confirmed labor total for a case. Without --hours a form
asks for it on a terminal, prefilled with the current estimate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCase(ctx, app, args[0])
			if err != nil {
				return err
			}

			if !hours.set {
				if !app.interactive() {
					return fmt.Errorf("--hours is required when not running in a terminal")
				}
				st, err := app.Diagnostics.LaborStatus(ctx, c.ID)
				if err != nil {
					return err
				}
				value := ""
				if st.Entry.HasEstimate() {
					value = domain.FormatHours(st.Entry.EstimatedHours)
				}
				if err := laborHoursForm(&value).Run(); err != nil {
					return err
				}
				if err := hours.Set(value); err != nil {
					return err
				}
			}

			if err := app.Diagnostics.ConfirmLabor(ctx, c.ID, hours.hours); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				formatter.StyleGreen.Render("Labor confirmed:"), formatter.Hours(hours.hours))
			return nil
		},
	}

	addHoursFlag(cmd.Flags(), &hours)
	return cmd
}
