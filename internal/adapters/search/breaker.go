package search

import (
	"time"

	"github.com/cartloom/marketplace/backend/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// newSearchBreaker builds the circuit breaker guarding Typesense
// calls. Three consecutive failures open the circuit; after 30s a
// couple of probe requests decide whether it closes again.
func newSearchBreaker(name string, logger *zerolog.Logger) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("search circuit breaker state changed")
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// wrapBreakerError translates breaker rejections into external errors
// so callers see one failure taxonomy.
func wrapBreakerError(err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return errors.NewExternalError("search index unavailable", err)
	}
	return err
}
