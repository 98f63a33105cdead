package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/sheets"
)

func appsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List tracked applications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			apps, err := a.store.ListApplications(ctx, settings.User.ID)
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), cli.FormatApplications(apps))
			return nil
		},
	}
	cmd.AddCommand(appEventsCmd(), appExportCmd())
	return cmd
}

func appEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <application-id>",
		Short: "Show the audit log of one application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			app, err := a.store.GetApplication(ctx, args[0])
			if err != nil {
				return err
			}
			events, err := a.store.ListApplicationEvents(ctx, app.ID)
			if err != nil {
				return err
			}

			var b strings.Builder
			for _, e := range events {
				line := fmt.Sprintf("%s  %-15s %s", e.CreatedAt.Format("2006-01-02 15:04"), e.EventType, e.Title)
				if e.PreviousStatus != "" || e.NewStatus != "" {
					line += cli.SubtleStyle.Render(fmt.Sprintf("  (%s → %s)", e.PreviousStatus, e.NewStatus))
				}
				b.WriteString(line + "\n")
			}
			writeln(cmd.OutOrStdout(), cli.RenderBox(app.CompanyName+" · "+app.RoleTitle, strings.TrimRight(b.String(), "\n")))
			return nil
		},
	}
}

func appExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export tracked applications to Google Sheets",
		Long: `Replace the Applications tab of a Google spreadsheet with the current
tracker. Set sheets.service_account_path, or sheets.client_id,
sheets.client_secret and sheets.refresh_token. Without
sheets.spreadsheet_id a new spreadsheet is created.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !settings.Sheets.Configured() {
				return common.NewUserError("Google Sheets is not configured. Set sheets.service_account_path or OAuth credentials.", common.ErrMissingConfig)
			}
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			apps, err := a.store.ListApplications(ctx, settings.User.ID)
			if err != nil {
				return err
			}
			writer, err := sheets.NewWriter(ctx, settings.Sheets, slog.Default())
			if err != nil {
				return err
			}
			id, err := writer.Export(ctx, apps)
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d application(s) to spreadsheet %s", len(apps), id)))
			return nil
		},
	}
}
