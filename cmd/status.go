package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	statusrender "github.com/bnema/parley-cli/internal/adapters/render/status"
	"github.com/bnema/parley-cli/internal/application"
)

type statusReport struct {
	Auth       application.AuthStatus      `json:"auth"`
	AccountID  string                      `json:"accountId,omitempty"`
	Connection application.ConnectionState `json:"connection"`
	LastError  string                      `json:"lastError,omitempty"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session and connection state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.startup(cmd); err != nil {
				return err
			}
			// Wait out the rebind that follows a restored identity so the
			// report shows the settled state.
			_, _ = app.probe.WaitSettled(cmd.Context())

			report := statusReport{
				Auth:       app.lifecycle.Status(),
				AccountID:  app.lifecycle.Identity().AccountID,
				Connection: app.probe.State(),
			}
			if message := app.lifecycle.LastError(); message != "" {
				report.LastError = message
			} else if message := app.probe.LastError(); message != "" {
				report.LastError = message
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			rendered, err := statusrender.Render(statusrender.Report{
				Auth:       string(report.Auth),
				AccountID:  report.AccountID,
				Connection: string(report.Connection),
				ServerURL:  app.cfg.ServerURL,
				LastError:  report.LastError,
			})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")

	return cmd
}
