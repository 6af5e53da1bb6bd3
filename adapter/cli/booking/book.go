package booking

import (
	"fmt"

	"github.com/felixgeelhaar/stationbook/adapter/cli"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/commands"
	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	"github.com/spf13/cobra"
)

var (
	bookName      string
	bookEmail     string
	bookPhone     string
	bookRequester string
	bookNotes     string
)

// BookCmd books a service on a station.
var BookCmd = &cobra.Command{
	Use:   "book <station-id> <service-id> <start>",
	Short: "Book a service on a station",
	Long: `Book a service starting at the given time. The start is read in the
booking time zone unless it carries an offset.

Examples:
  stationbook book 6f1c... 9a2e... "2026-11-03 10:00" --name "Ada Lovelace"
  stationbook book 6f1c... 9a2e... 2026-11-03T10:00:00+01:00 --name Ada --requester 41b7...`,
	Args: cobra.ExactArgs(3),
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
		start, err := cli.ParseStart(args[2], app.Location)
		if err != nil {
			return err
		}
		requesterID, err := cli.ParseOptionalID("requester", bookRequester)
		if err != nil {
			return err
		}

		result, err := app.Coordinator.Create(cmd.Context(), commands.CreateReservationCommand{
			StationID: stationID,
			ServiceID: serviceID,
			Start:     start,
			Customer: domain.Customer{
				Name:  bookName,
				Email: bookEmail,
				Phone: bookPhone,
			},
			RequesterID: requesterID,
			Notes:       bookNotes,
		})
		if err != nil {
			return cli.UserError(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Booked %s\n", result.Code)
		printResult(cmd, app, result)
		return nil
	},
}

func printResult(cmd *cobra.Command, app *cli.App, result *commands.ReservationResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  ID:      %s\n", result.ID)
	fmt.Fprintf(out, "  Status:  %s\n", result.Status)
	fmt.Fprintf(out, "  Station: %s\n", result.StationID)
	fmt.Fprintf(out, "  Time:    %s - %s\n",
		result.Start.In(app.Location).Format("Mon Jan 2 2006 15:04"),
		result.End.In(app.Location).Format("15:04"),
	)
	if result.LoyaltyPoints > 0 {
		fmt.Fprintf(out, "  Points:  %d\n", result.LoyaltyPoints)
	}
}

func init() {
	BookCmd.Flags().StringVar(&bookName, "name", "", "customer name (required)")
	BookCmd.Flags().StringVar(&bookEmail, "email", "", "customer email")
	BookCmd.Flags().StringVar(&bookPhone, "phone", "", "customer phone")
	BookCmd.Flags().StringVar(&bookRequester, "requester", "", "account ID earning loyalty points")
	BookCmd.Flags().StringVar(&bookNotes, "notes", "", "notes for the station")
}
