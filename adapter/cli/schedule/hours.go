package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/stationbook/adapter/cli"
	"github.com/felixgeelhaar/stationbook/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

// HoursCmd prints the effective business hours of a station on a date.
var HoursCmd = &cobra.Command{
	Use:   "hours <station-id> [date]",
	Short: "Show a station's business hours for a date",
	Long: `Resolve the business hours that apply to a station on a date.

Blocked rules win over special rules, which win over the regular weekly
hours. Stations on the generic schedule use the global rules.

Examples:
  stationbook hours 6f1c...
  stationbook hours 6f1c... 2026-12-24`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		stationID, err := cli.ParseID("station", args[0])
		if err != nil {
			return err
		}
		var dateArg string
		if len(args) == 2 {
			dateArg = args[1]
		}
		date, err := cli.ParseDate(dateArg, app.Location)
		if err != nil {
			return err
		}

		schedule, err := app.ResolveScheduleHandler.Handle(cmd.Context(), queries.ResolveScheduleQuery{
			StationID: stationID,
			Date:      date,
		})
		if err != nil {
			return fmt.Errorf("failed to resolve hours: %w", err)
		}

		out := cmd.OutOrStdout()
		label := date.StartOfDay(app.Location).Format("Monday, January 2, 2006")
		switch {
		case schedule == nil:
			fmt.Fprintf(out, "%s: closed (no hours defined)\n", label)
		case schedule.IsBlocked():
			fmt.Fprintf(out, "%s: closed (blocked)\n", label)
		case schedule.Opens == nil || schedule.Closes == nil:
			fmt.Fprintf(out, "%s: closed\n", label)
		default:
			fmt.Fprintf(out, "%s: open %s - %s (%s)\n",
				label,
				schedule.Opens.In(app.Location).Format("15:04"),
				schedule.Closes.In(app.Location).Format("15:04"),
				schedule.Kind,
			)
		}
		return nil
	},
}
