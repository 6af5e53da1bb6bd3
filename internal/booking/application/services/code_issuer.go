package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
)

// MaxCodeAttempts bounds how many codes are tried for one reservation.
const MaxCodeAttempts = 10

// ErrCodesExhausted is returned when every attempt hit a taken code.
var ErrCodesExhausted = errors.New("could not issue a unique reservation code")

// CodeIssuer hands out reservation codes that are not in use.
type CodeIssuer struct {
	generator    domain.CodeGenerator
	reservations domain.ReservationRepository
	logger       *slog.Logger
}

// NewCodeIssuer creates an issuer. A nil generator selects
// domain.RandomCodeGenerator.
func NewCodeIssuer(generator domain.CodeGenerator, reservations domain.ReservationRepository, logger *slog.Logger) *CodeIssuer {
	if generator == nil {
		generator = domain.RandomCodeGenerator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeIssuer{
		generator:    generator,
		reservations: reservations,
		logger:       logger,
	}
}

// Place calls store with fresh codes until one is accepted. Codes already
// present are skipped up front; a store that still reports
// domain.ErrDuplicateCode lost a race and is retried with a new code.
func (i *CodeIssuer) Place(ctx context.Context, store func(code string) error) (string, error) {
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code, err := i.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("generate reservation code: %w", err)
		}

		exists, err := i.reservations.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if exists {
			i.logger.DebugContext(ctx, "reservation code taken", "attempt", attempt)
			continue
		}

		err = store(code)
		if errors.Is(err, domain.ErrDuplicateCode) {
			i.logger.DebugContext(ctx, "reservation code collided on insert", "attempt", attempt)
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodesExhausted, MaxCodeAttempts)
}
