package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/cli/formatter"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Request, check or cancel the final repair report",
	}

	cmd.AddCommand(
		newReportRequestCmd(app),
		newReportCheckCmd(app),
		newReportCancelCmd(app),
	)

	return cmd
}

func newReportRequestCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "request CASE",
		Short: "Ask for the final repair report",
		Long: `Ask for the final report of a case. The report is only written once
the total labor has been confirmed; otherwise the desk asks for it and
keeps the request pending.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCase(ctx, app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Diagnostics.RequestFinalReport(ctx, c.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTurn(res))
			return nil
		},
	}
}

func newReportCheckCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check CASE",
		Short: "Check a drafted report against the confirmed labor",
		Long: `Validate a report written outside the desk. The draft is read from
--file, or from stdin when no file is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCase(ctx, app, args[0])
			if err != nil {
				return err
			}

			var draft []byte
			if file != "" {
				draft, err = os.ReadFile(file)
			} else {
				draft, err = io.ReadAll(app.stdin())
			}
			if err != nil {
				return fmt.Errorf("reading draft: %w", err)
			}

			outcome, err := app.Diagnostics.RequestReport(ctx, c.ID, string(draft))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatReportOutcome(outcome))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the drafted report")
	return cmd
}

func newReportCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel CASE",
		Short: "Drop a pending report request",
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
			if st.Pending == nil && st.State.Kind != domain.StateReportPending {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No report request is pending."))
				return nil
			}
			if err := app.Diagnostics.AbandonReport(ctx, c.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Report request cancelled.")
			return nil
		},
	}
}
