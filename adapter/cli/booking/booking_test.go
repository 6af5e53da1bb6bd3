package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/stationbook/adapter/cli"
	internalApp "github.com/felixgeelhaar/stationbook/internal/app"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/queries"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	catalogCommands "github.com/felixgeelhaar/stationbook/internal/catalog/application/commands"
	scheduleCommands "github.com/felixgeelhaar/stationbook/internal/scheduling/application/commands"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/stationbook/pkg/config"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testActorID is a fixed actor ID for tests
var testActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type fixture struct {
	app       *cli.App
	stationID uuid.UUID
	serviceID uuid.UUID
	date      schedulingDomain.Date
	outbox    outbox.Repository
}

// setupLocalModeTestApp creates a SQLite backed app with one station open
// 08:00-18:00 every day and a 30 minute service.
func setupLocalModeTestApp(t *testing.T) fixture {
	t.Helper()

	cfg := &config.Config{
		AppEnv:                   "test",
		SQLitePath:               filepath.Join(t.TempDir(), "test.db"),
		BookingTimezone:          "UTC",
		BookingMinAdvanceMinutes: 60,
		BookingMaxAdvanceDays:    60,
		BookingSlotStepMinutes:   15,
		LockWaitTimeout:          time.Second,
		LockLease:                10 * time.Second,
		LockRetryInterval:        10 * time.Millisecond,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	container, err := internalApp.NewContainer(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	stationID, err := container.CreateStationHandler.Handle(ctx, catalogCommands.CreateStationCommand{Name: "Bay 1"})
	require.NoError(t, err)
	serviceID, err := container.CreateServiceHandler.Handle(ctx, catalogCommands.CreateServiceCommand{
		Name:            "Express wash",
		DurationMinutes: 30,
		PriceCents:      1999,
	})
	require.NoError(t, err)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		weekday := wd
		_, err := container.AddRuleHandler.Handle(ctx, scheduleCommands.AddRuleCommand{
			StationID: &stationID,
			Kind:      schedulingDomain.RuleRegular,
			Weekday:   &weekday,
			Start:     schedulingDomain.MustTimeOfDay("08:00"),
			End:       schedulingDomain.MustTimeOfDay("18:00"),
		})
		require.NoError(t, err)
	}

	app := cli.NewApp(
		container.Coordinator,
		container.GenerateSlotsHandler,
		container.GetReservationHandler,
		container.GetReservationByCodeHandler,
		container.CreateStationHandler,
		container.CreateServiceHandler,
		container.ListStationsHandler,
		container.ListServicesHandler,
		container.AddRuleHandler,
		container.ResolveScheduleHandler,
	)
	app.SetActor(testActorID, services.RoleAdmin)

	return fixture{
		app:       app,
		stationID: stationID,
		serviceID: serviceID,
		date:      schedulingDomain.DateOf(time.Now().UTC(), time.UTC).AddDays(3),
		outbox:    container.OutboxRepo,
	}
}

func resetBookFlags() {
	bookName = "Ada Lovelace"
	bookEmail = ""
	bookPhone = ""
	bookRequester = ""
	bookNotes = ""
}

// book runs the book command and returns the reservation code.
func book(t *testing.T, f fixture, at string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	BookCmd.SetOut(&out)
	BookCmd.SetContext(context.Background())

	err := BookCmd.RunE(BookCmd, []string{f.stationID.String(), f.serviceID.String(), f.date.String() + " " + at})
	if err != nil {
		return "", err
	}
	first := strings.SplitN(out.String(), "\n", 2)[0]
	return strings.TrimPrefix(first, "Booked "), nil
}

func run(t *testing.T, cmd interface {
	SetOut(io.Writer)
}, fn func() error) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	err := fn()
	return out.String(), err
}

func TestBookCmd_BooksAndBlocksSlot(t *testing.T) {
	f := setupLocalModeTestApp(t)
	cli.SetApp(f.app)
	defer cli.SetApp(nil)

	resetBookFlags()
	bookRequester = uuid.New().String()
	defer resetBookFlags()

	code, err := book(t, f, "10:00")
	require.NoError(t, err)
	require.Len(t, code, 8)

	r, err := f.app.GetReservationByCodeHandler.Handle(context.Background(), queries.GetReservationByCodeQuery{Code: code})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", r.Status)
	assert.Equal(t, 19, r.LoyaltyPoints)
	assert.Equal(t, "Ada Lovelace", r.CustomerName)

	slotsAll = true
	defer func() { slotsAll = false }()
	SlotsCmd.SetContext(context.Background())
	out, err := run(t, SlotsCmd, func() error {
		return SlotsCmd.RunE(SlotsCmd, []string{f.stationID.String(), f.serviceID.String(), f.date.String()})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "10:00  (booked)")
	assert.Contains(t, out, "  10:30\n")
}

func TestBookCmd_OverlapIsConflict(t *testing.T) {
	f := setupLocalModeTestApp(t)
	cli.SetApp(f.app)
	defer cli.SetApp(nil)

	resetBookFlags()
	defer resetBookFlags()

	_, err := book(t, f, "10:00")
	require.NoError(t, err)

	_, err = book(t, f, "10:15")
	assert.EqualError(t, err, "this time slot is no longer available, please retry")
}

func TestBookCmd_Rejections(t *testing.T) {
	f := setupLocalModeTestApp(t)
	cli.SetApp(f.app)
	defer cli.SetApp(nil)

	defer resetBookFlags()

	resetBookFlags()
	_, err := book(t, f, "19:00")
	assert.ErrorContains(t, err, "outside opening hours")

	resetBookFlags()
	bookName = "  "
	_, err = book(t, f, "11:00")
	assert.EqualError(t, err, "customer name is required")

	resetBookFlags()
	_, err = book(t, f, "noon")
	assert.ErrorContains(t, err, "invalid start")
}

func TestReservationCmd_Lifecycle(t *testing.T) {
	f := setupLocalModeTestApp(t)
	cli.SetApp(f.app)
	defer cli.SetApp(nil)

	ctx := context.Background()
	resetBookFlags()
	bookNotes = "bring keys"
	defer resetBookFlags()

	code, err := book(t, f, "09:00")
	require.NoError(t, err)

	showCmd.SetContext(ctx)
	out, err := run(t, showCmd, func() error { return showCmd.RunE(showCmd, []string{strings.ToLower(code)}) })
	require.NoError(t, err)
	assert.Contains(t, out, "Reservation "+code)
	assert.Contains(t, out, "Notes:    bring keys")

	rescheduleStart = f.date.String() + " 14:00"
	defer func() { rescheduleStart = "" }()
	rescheduleCmd.SetContext(ctx)
	out, err = run(t, rescheduleCmd, func() error { return rescheduleCmd.RunE(rescheduleCmd, []string{code}) })
	require.NoError(t, err)
	assert.Contains(t, out, "14:00 - 14:30")

	completeCmd.SetContext(ctx)
	out, err = run(t, completeCmd, func() error { return completeCmd.RunE(completeCmd, []string{code}) })
	require.NoError(t, err)
	assert.Contains(t, out, "is completed")

	cancelReason = "changed plans"
	defer func() { cancelReason = "" }()
	cancelCmd.SetContext(ctx)
	_, err = run(t, cancelCmd, func() error { return cancelCmd.RunE(cancelCmd, []string{code}) })
	assert.ErrorContains(t, err, "cannot be cancelled")
}

func TestReservationCmd_RoleIsEnforced(t *testing.T) {
	f := setupLocalModeTestApp(t)
	cli.SetApp(f.app)
	defer cli.SetApp(nil)

	ctx := context.Background()
	resetBookFlags()
	defer resetBookFlags()

	code, err := book(t, f, "12:00")
	require.NoError(t, err)

	f.app.SetActor(testActorID, services.RoleCustomer)
	completeCmd.SetContext(ctx)
	_, err = run(t, completeCmd, func() error { return completeCmd.RunE(completeCmd, []string{code}) })
	assert.ErrorContains(t, err, "may not move reservation")

	cancelCmd.SetContext(ctx)
	out, err := run(t, cancelCmd, func() error { return cancelCmd.RunE(cancelCmd, []string{code}) })
	require.NoError(t, err)
	assert.Contains(t, out, "is cancelled")

	// The freed slot can be booked again.
	_, err = book(t, f, "12:00")
	require.NoError(t, err)
}

func TestReservationCmd_UnknownReservation(t *testing.T) {
	f := setupLocalModeTestApp(t)
	cli.SetApp(f.app)
	defer cli.SetApp(nil)

	showCmd.SetContext(context.Background())
	_, err := run(t, showCmd, func() error { return showCmd.RunE(showCmd, []string{uuid.New().String()}) })
	assert.EqualError(t, err, "reservation not found")

	_, err = run(t, showCmd, func() error { return showCmd.RunE(showCmd, []string{"nope"}) })
	assert.ErrorContains(t, err, "is not a reservation code")
}

func TestRescheduleCmd_RequiresChange(t *testing.T) {
	rescheduleStart = ""
	rescheduleStation = ""
	err := rescheduleCmd.RunE(rescheduleCmd, []string{"K7M2QX9A"})
	assert.ErrorContains(t, err, "nothing to change")
}

func TestBookCmd_EventsCarryCorrelationID(t *testing.T) {
	f := setupLocalModeTestApp(t)
	cli.SetApp(f.app)
	defer cli.SetApp(nil)
	resetBookFlags()

	correlationID := uuid.New().String()
	var out bytes.Buffer
	BookCmd.SetOut(&out)
	BookCmd.SetContext(observability.WithCorrelationID(context.Background(), correlationID))
	defer BookCmd.SetContext(context.Background())

	err := BookCmd.RunE(BookCmd, []string{f.stationID.String(), f.serviceID.String(), f.date.String() + " 11:00"})
	require.NoError(t, err)

	msgs, err := f.outbox.GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	for _, msg := range msgs {
		var metadata struct {
			CorrelationID string `json:"correlation_id"`
		}
		require.NoError(t, json.Unmarshal(msg.Metadata, &metadata))
		assert.Equal(t, correlationID, metadata.CorrelationID, msg.RoutingKey)
	}
}
