package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stationbook/adapter/cli"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/commands"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cancelReason      string
	rescheduleStart   string
	rescheduleStation string
)

// ReservationCmd is the parent command for managing booked reservations.
// Reservations are addressed by ID or by their eight character code.
var ReservationCmd = &cobra.Command{
	Use:     "reservation",
	Short:   "Manage reservations",
	Aliases: []string{"res"},
}

var showCmd = &cobra.Command{
	Use:   "show <id-or-code>",
	Short: "Show a reservation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		r, err := lookup(cmd.Context(), app, args[0])
		if err != nil {
			return cli.UserError(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Reservation %s\n", r.Code)
		fmt.Fprintf(out, "  ID:       %s\n", r.ID)
		fmt.Fprintf(out, "  Status:   %s\n", r.Status)
		fmt.Fprintf(out, "  Station:  %s\n", r.StationID)
		fmt.Fprintf(out, "  Service:  %s (%dm, %s)\n", r.ServiceID, r.DurationMinutes, cli.FormatMoney(r.PriceCents))
		fmt.Fprintf(out, "  Time:     %s - %s\n",
			r.Start.In(app.Location).Format("Mon Jan 2 2006 15:04"),
			r.End.In(app.Location).Format("15:04"),
		)
		fmt.Fprintf(out, "  Customer: %s\n", r.CustomerName)
		if r.CustomerEmail != "" {
			fmt.Fprintf(out, "  Email:    %s\n", r.CustomerEmail)
		}
		if r.CustomerPhone != "" {
			fmt.Fprintf(out, "  Phone:    %s\n", r.CustomerPhone)
		}
		if r.LoyaltyPoints > 0 {
			fmt.Fprintf(out, "  Points:   %d\n", r.LoyaltyPoints)
		}
		if r.Notes != "" {
			fmt.Fprintf(out, "  Notes:    %s\n", r.Notes)
		}
		if r.CancelReason != "" {
			fmt.Fprintf(out, "  Reason:   %s\n", r.CancelReason)
		}
		return nil
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <id-or-code>",
	Short: "Confirm a pending reservation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(cmd, args[0], func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.ReservationResult, error) {
			return app.Coordinator.Confirm(ctx, commands.ConfirmReservationCommand{
				ReservationID: id,
				ActorID:       app.CurrentActorID,
				Role:          app.CurrentRole,
			})
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <id-or-code>",
	Short: "Cancel a reservation and free its slot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(cmd, args[0], func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.ReservationResult, error) {
			return app.Coordinator.Cancel(ctx, commands.CancelReservationCommand{
				ReservationID: id,
				Reason:        cancelReason,
				ActorID:       app.CurrentActorID,
				Role:          app.CurrentRole,
			})
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <id-or-code>",
	Short: "Mark a confirmed reservation as delivered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(cmd, args[0], func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.ReservationResult, error) {
			return app.Coordinator.Complete(ctx, commands.CompleteReservationCommand{
				ReservationID: id,
				ActorID:       app.CurrentActorID,
				Role:          app.CurrentRole,
			})
		})
	},
}

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <id-or-code>",
	Short: "Move a reservation to another time or station",
	Long: `Move a reservation. The new slot is locked and checked like a new
booking; the reservation keeps its code.

Examples:
  stationbook reservation reschedule K7M2QX9A --start "2026-11-03 14:00"
  stationbook reservation reschedule K7M2QX9A --station 6f1c...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if rescheduleStart == "" && rescheduleStation == "" {
			return fmt.Errorf("nothing to change, use --start or --station")
		}
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		var start *time.Time
		if rescheduleStart != "" {
			t, err := cli.ParseStart(rescheduleStart, app.Location)
			if err != nil {
				return err
			}
			start = &t
		}
		stationID, err := cli.ParseOptionalID("station", rescheduleStation)
		if err != nil {
			return err
		}

		return transition(cmd, args[0], func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.ReservationResult, error) {
			return app.Coordinator.Update(ctx, commands.UpdateReservationCommand{
				ReservationID: id,
				StationID:     stationID,
				Start:         start,
				ActorID:       app.CurrentActorID,
				Role:          app.CurrentRole,
			})
		})
	},
}

type transitionFunc func(ctx context.Context, app *cli.App, id uuid.UUID) (*commands.ReservationResult, error)

func transition(cmd *cobra.Command, ref string, fn transitionFunc) error {
	app, err := cli.RequireApp()
	if err != nil {
		return err
	}

	current, err := lookup(cmd.Context(), app, ref)
	if err != nil {
		return cli.UserError(err)
	}

	result, err := fn(cmd.Context(), app, current.ID)
	if err != nil {
		return cli.UserError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reservation %s is %s\n", result.Code, result.Status)
	printResult(cmd, app, result)
	return nil
}

// lookup resolves a reservation by ID, falling back to its code.
func lookup(ctx context.Context, app *cli.App, ref string) (*queries.ReservationDTO, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return app.GetReservationHandler.Handle(ctx, queries.GetReservationQuery{ReservationID: id})
	}
	return app.GetReservationByCodeHandler.Handle(ctx, queries.GetReservationByCodeQuery{Code: ref})
}

func init() {
	cancelCmd.Flags().StringVar(&cancelReason, "reason", "", "cancellation reason")
	rescheduleCmd.Flags().StringVar(&rescheduleStart, "start", "", "new start (\"YYYY-MM-DD HH:MM\" or RFC 3339)")
	rescheduleCmd.Flags().StringVar(&rescheduleStation, "station", "", "new station ID")

	ReservationCmd.AddCommand(showCmd)
	ReservationCmd.AddCommand(confirmCmd)
	ReservationCmd.AddCommand(cancelCmd)
	ReservationCmd.AddCommand(completeCmd)
	ReservationCmd.AddCommand(rescheduleCmd)
}
