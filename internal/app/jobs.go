/**
 * @description
 * Scheduled job implementations. The only recurring task today is the
 * exchange-rate cache refresh.
 */
package app

import (
	"context"
	"log/slog"
	"time"
)

// Jobs holds the scheduled task implementations.
type Jobs struct {
	rates  *RatesService
	logger *slog.Logger
}

// NewJobs creates the job set.
func NewJobs(rates *RatesService, logger *slog.Logger) *Jobs {
	return &Jobs{rates: rates, logger: logger}
}

// RefreshExchangeRates re-fetches the upstream rate snapshot and rewrites
// the cache. A failed refresh leaves the previous snapshot in place; the
// request path has its own fallback.
func (j *Jobs) RefreshExchangeRates() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.rates.Refresh(ctx); err != nil {
		j.logger.Warn("scheduled exchange rate refresh failed", "error", err)
		return
	}
	j.logger.Info("exchange rate cache refreshed")
}
