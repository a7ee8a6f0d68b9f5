package cli

import (
	"fmt"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/cli/formatter"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/spf13/cobra"
)

func newCaseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Open, list and inspect service cases",
	}

	cmd.AddCommand(
		newCaseNewCmd(app),
		newCaseListCmd(app),
		newCaseShowCmd(app),
	)

	return cmd
}

func newCaseNewCmd(app *App) *cobra.Command {
	var unit string

	cmd := &cobra.Command{
		Use:   "new TITLE...",
		Short: "Open a new case",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Cases.Create(cmd.Context(), strings.Join(args, " "), unit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCaseCreated(c))
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "", "Coach or vehicle, e.g. \"2019 Jayco Eagle 5th wheel\"")
	return cmd
}

func newCaseListCmd(app *App) *cobra.Command {
	var status domain.CaseStatus

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases, most recently active first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := app.Cases.List(cmd.Context(), status)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCaseList(cases))
			return nil
		},
	}

	addStatusFlag(cmd.Flags(), &status)
	return cmd
}

func newCaseShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show CASE",
		Short: "Show a case transcript and its session state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCase(ctx, app, args[0])
			if err != nil {
				return err
			}
			state, err := app.Diagnostics.State(ctx, c.ID)
			if err != nil {
				return err
			}
			msgs, err := app.Cases.Transcript(ctx, c.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.FormatCaseHeader(c, state))
			fmt.Fprint(out, formatter.FormatTranscript(msgs))
			return nil
		},
	}
}
