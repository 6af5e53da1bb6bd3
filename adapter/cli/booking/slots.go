package booking

import (
	"fmt"

	"github.com/felixgeelhaar/stationbook/adapter/cli"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/queries"
	"github.com/spf13/cobra"
)

var slotsAll bool

// SlotsCmd lists the bookable start times of a service on a station day.
var SlotsCmd = &cobra.Command{
	Use:   "slots <station-id> <service-id> [date]",
	Short: "List bookable start times",
	Long: `List the start times a service can be booked at on a station for a date.

Examples:
  stationbook slots 6f1c... 9a2e...
  stationbook slots 6f1c... 9a2e... 2026-11-03 --all`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		stationID, err := cli.ParseID("station", args[0])
		if err != nil {
			return err
		}
		serviceID, err := cli.ParseID("service", args[1])
		if err != nil {
			return err
		}
		var dateArg string
		if len(args) == 3 {
			dateArg = args[2]
		}
		date, err := cli.ParseDate(dateArg, app.Location)
		if err != nil {
			return err
		}

		slots, err := app.GenerateSlotsHandler.Handle(cmd.Context(), queries.GenerateSlotsQuery{
			StationID: stationID,
			Date:      date,
			ServiceID: serviceID,
		})
		if err != nil {
			return cli.UserError(err)
		}

		out := cmd.OutOrStdout()
		available := 0
		for _, slot := range slots {
			if slot.Available {
				available++
			}
		}
		fmt.Fprintf(out, "Slots for %s: %d of %d available\n", date, available, len(slots))

		for _, slot := range slots {
			switch {
			case slot.Available:
				fmt.Fprintf(out, "  %s\n", slot.Time.Format("15:04"))
			case slotsAll:
				fmt.Fprintf(out, "  %s  (%s)\n", slot.Time.Format("15:04"), slot.Reason)
			}
		}
		return nil
	},
}

func init() {
	SlotsCmd.Flags().BoolVar(&slotsAll, "all", false, "include unavailable slots with the reason")
}
