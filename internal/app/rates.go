/**
 * @description
 * Exchange rate retrieval. Rates come from a third-party HTTP API mapped
 * through a fixed currency allow-list and are cached in Redis. This one
 * integration favors availability over correctness: on any upstream
 * failure the service degrades to a synthetic stale snapshot instead of
 * propagating the error.
 */
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/merchly/dashboard-service/internal/domain"
)

const ratesCacheKey = "dashboard:exchange_rates"

// SupportedCurrencies is the allow-list exposed on the dashboard. USD is
// the base and must always be present in every payload.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "CAD", "NGN", "GHS", "KES", "ZAR"}

// RatesService fetches and caches exchange rate snapshots.
type RatesService struct {
	upstreamURL string
	httpClient  *http.Client
	cache       redis.UniversalClient
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// NewRatesService creates a rates service. cache may be nil, in which case
// every request hits the upstream API.
func NewRatesService(upstreamURL string, cache redis.UniversalClient, cacheTTL time.Duration, logger *slog.Logger) *RatesService {
	return &RatesService{
		upstreamURL: upstreamURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// GetRates returns the current snapshot: cached if fresh, freshly fetched
// on a miss, synthetic and stale when both fail. It never returns an error;
// the fallback payload is always served with success semantics.
func (s *RatesService) GetRates(ctx context.Context) domain.ExchangeRates {
	if cached, ok := s.cachedRates(ctx); ok {
		return cached
	}

	rates, err := s.fetchUpstream(ctx)
	if err != nil {
		s.logger.Warn("exchange rate fetch failed, serving stale fallback", "error", err)
		return FallbackRates(time.Now())
	}

	s.storeRates(ctx, rates)
	return rates
}

// Refresh fetches upstream and rewrites the cached snapshot. The cron job
// calls this on a schedule so request paths rarely pay the upstream
// latency.
func (s *RatesService) Refresh(ctx context.Context) error {
	rates, err := s.fetchUpstream(ctx)
	if err != nil {
		return err
	}
	s.storeRates(ctx, rates)
	return nil
}

// FallbackRates builds the degraded payload: USD pinned to 1, every other
// supported currency zeroed, stale marker set.
func FallbackRates(now time.Time) domain.ExchangeRates {
	rates := make(map[string]float64, len(SupportedCurrencies))
	for _, currency := range SupportedCurrencies {
		rates[currency] = 0
	}
	rates["USD"] = 1

	return domain.ExchangeRates{
		Base:  "USD",
		Date:  now.Format("2006-01-02"),
		Rates: rates,
		Stale: true,
	}
}

func (s *RatesService) fetchUpstream(ctx context.Context) (domain.ExchangeRates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.upstreamURL, nil)
	if err != nil {
		return domain.ExchangeRates{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.ExchangeRates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ExchangeRates{}, fmt.Errorf("rates upstream returned %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.ExchangeRates{}, err
	}
	if len(payload.Rates) == 0 {
		return domain.ExchangeRates{}, fmt.Errorf("rates upstream returned no rates")
	}

	rates := make(map[string]float64, len(SupportedCurrencies))
	for _, currency := range SupportedCurrencies {
		rates[currency] = payload.Rates[currency]
	}
	rates["USD"] = 1

	return domain.ExchangeRates{
		Base:  "USD",
		Date:  time.Now().Format("2006-01-02"),
		Rates: rates,
	}, nil
}

func (s *RatesService) cachedRates(ctx context.Context) (domain.ExchangeRates, bool) {
	if s.cache == nil {
		return domain.ExchangeRates{}, false
	}

	raw, err := s.cache.Get(ctx, ratesCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("rates cache read failed", "error", err)
		}
		return domain.ExchangeRates{}, false
	}

	var rates domain.ExchangeRates
	if err := json.Unmarshal(raw, &rates); err != nil {
		return domain.ExchangeRates{}, false
	}
	return rates, true
}

func (s *RatesService) storeRates(ctx context.Context, rates domain.ExchangeRates) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(rates)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, ratesCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("rates cache write failed", "error", err)
	}
}
