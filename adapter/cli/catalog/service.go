package catalog

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stationbook/adapter/cli"
	"github.com/felixgeelhaar/stationbook/internal/catalog/application/commands"
	"github.com/spf13/cobra"
)

var (
	serviceDuration   int
	servicePriceCents int64
)

// ServiceCmd is the parent command for service management.
var ServiceCmd = &cobra.Command{
	Use:     "service",
	Short:   "Manage bookable services",
	Aliases: []string{"services"},
}

var serviceAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a service",
	Long: `Register a service with a fixed duration and price.

Examples:
  stationbook service add "Express wash" --duration 30 --price-cents 1999`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		id, err := app.CreateServiceHandler.Handle(cmd.Context(), commands.CreateServiceCommand{
			Name:            strings.Join(args, " "),
			DurationMinutes: serviceDuration,
			PriceCents:      servicePriceCents,
		})
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Service created: %s\n", id)
		return nil
	},
}

var serviceListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List services",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		services, err := app.ListServicesHandler.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list services: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(services) == 0 {
			fmt.Fprintln(out, "No services yet. Add one with 'stationbook service add <name>'.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-20s  %8s  %10s\n", "ID", "NAME", "DURATION", "PRICE")
		for _, s := range services {
			fmt.Fprintf(out, "%-36s  %-20s  %7dm  %10s\n", s.ID, s.Name, s.DurationMinutes, cli.FormatMoney(s.PriceCents))
		}
		return nil
	},
}

func init() {
	serviceAddCmd.Flags().IntVar(&serviceDuration, "duration", 30, "duration in minutes")
	serviceAddCmd.Flags().Int64Var(&servicePriceCents, "price-cents", 0, "price in cents")

	ServiceCmd.AddCommand(serviceAddCmd)
	ServiceCmd.AddCommand(serviceListCmd)
}
