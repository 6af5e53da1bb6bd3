package cli

import (
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
)

// ErrNotInitialized is returned by commands that need the container.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// RequireApp returns the global app or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// UserError turns a booking failure into the message shown on the terminal.
// Business failures keep their message; anything else is logged and
// reported as an internal error.
func UserError(err error) error {
	if err == nil {
		return nil
	}
	var be *domain.BookingError
	if errors.As(err, &be) {
		if be.Kind == domain.KindInfrastructure {
			return internalError(err)
		}
		return errors.New(be.Message)
	}
	return internalError(err)
}

func internalError(err error) error {
	l := logger
	if l == nil {
		l = slog.Default()
	}
	l.Error("command failed", "error", err)
	return errors.New("internal error, see logs for details")
}
