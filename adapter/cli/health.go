package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check storage and broker connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		health := app.Container.Health.GetOverallHealth(cmd.Context())
		if JSONOutput() {
			if err := PrintJSON(cmd.OutOrStdout(), health); err != nil {
				return err
			}
		} else {
			names := make([]string, 0, len(health.Checks))
			for name := range health.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				result := health.Checks[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s %s\n", name, result.Status, result.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), health.Status)
		}
		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
