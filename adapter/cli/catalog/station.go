package catalog

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stationbook/adapter/cli"
	"github.com/felixgeelhaar/stationbook/internal/catalog/application/commands"
	"github.com/spf13/cobra"
)

var (
	stationGeneric  bool
	stationOperator string
)

// StationCmd is the parent command for station management.
var StationCmd = &cobra.Command{
	Use:     "station",
	Short:   "Manage stations",
	Aliases: []string{"stations"},
}

var stationAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a station",
	Long: `Register a station that services can be booked on.

Examples:
  stationbook station add "Bay 1"
  stationbook station add "Bay 2" --generic
  stationbook station add "Bay 3" --operator 6f1c...`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		operatorID, err := cli.ParseOptionalID("operator", stationOperator)
		if err != nil {
			return err
		}

		id, err := app.CreateStationHandler.Handle(cmd.Context(), commands.CreateStationCommand{
			Name:                strings.Join(args, " "),
			UsesGenericSchedule: stationGeneric,
			OperatorID:          operatorID,
		})
		if err != nil {
			return fmt.Errorf("failed to create station: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Station created: %s\n", id)
		return nil
	},
}

var stationListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stations",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		stations, err := app.ListStationsHandler.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list stations: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(stations) == 0 {
			fmt.Fprintln(out, "No stations yet. Add one with 'stationbook station add <name>'.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-20s  %-8s  %s\n", "ID", "NAME", "ACTIVE", "HOURS")
		for _, s := range stations {
			hours := "own"
			if s.UsesGenericSchedule {
				hours = "generic"
			}
			fmt.Fprintf(out, "%-36s  %-20s  %-8t  %s\n", s.ID, s.Name, s.Active, hours)
		}
		return nil
	},
}

func init() {
	stationAddCmd.Flags().BoolVar(&stationGeneric, "generic", false, "use the global business hours only")
	stationAddCmd.Flags().StringVar(&stationOperator, "operator", "", "operator user ID")

	StationCmd.AddCommand(stationAddCmd)
	StationCmd.AddCommand(stationListCmd)
}
