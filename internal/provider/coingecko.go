package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"marketpulse/internal/domain"
	"marketpulse/internal/retry"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

const (
	connectTimeout = 30 * time.Second
	readTimeout    = 90 * time.Second
)

// ErrMissingCoins reports an upstream payload without both tracked coins.
// It is a data-shape failure and is never retried.
var ErrMissingCoins = errors.New("market data missing BTC or ETH")

// CoinGeckoProvider fetches the per-cycle market snapshot from the CoinGecko
// markets endpoint, retrying transient failures with linear backoff.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
	policy  retry.Policy
	logger  zerolog.Logger
}

// NewCoinGeckoProvider creates a provider with built-in rate limiting
// (8 requests per minute, one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer, policy retry.Policy) *CoinGeckoProvider {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &CoinGeckoProvider{
		client: &http.Client{
			Timeout:   readTimeout,
			Transport: &http.Transport{DialContext: dialer.DialContext},
		},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
		policy:  policy,
		logger:  log.With().Str("component", "coingecko").Logger(),
	}
}

// marketRecord is one coin record from /coins/markets.
type marketRecord struct {
	Symbol            string  `json:"symbol"`
	CurrentPrice      float64 `json:"current_price"`
	PriceChange24hPct float64 `json:"price_change_percentage_24h"`
	TotalVolume       float64 `json:"total_volume"`
}

// FetchSnapshot returns the current snapshot for the tracked coin set.
// Transient network failures are retried up to the policy budget; a payload
// missing either tracked coin fails the call immediately.
func (p *CoinGeckoProvider) FetchSnapshot(ctx context.Context) (*domain.MarketSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-snapshot")
	defer span.End()

	ids := make([]string, 0, len(domain.TrackedSymbols))
	for _, symbol := range domain.TrackedSymbols {
		ids = append(ids, domain.CoinGeckoID[symbol])
	}

	url := fmt.Sprintf(
		"%s/coins/markets?vs_currency=usd&ids=%s&order=market_cap_desc&per_page=%d&page=1&sparkline=false&price_change_percentage=24h",
		p.baseURL, strings.Join(ids, ","), len(ids),
	)

	var snapshot *domain.MarketSnapshot
	attempt := 0
	err := retry.Do(ctx, p.policy, func() error {
		attempt++
		snap, err := p.fetchOnce(ctx, url)
		if err != nil {
			if errors.Is(err, ErrMissingCoins) {
				p.logger.Error().Int("attempt", attempt).Err(err).Msg("market data fetch failed")
				return retry.Permanent(err)
			}
			p.logger.Warn().Int("attempt", attempt).Err(err).Msg("market data fetch failed")
			return err
		}
		p.logger.Info().Int("attempt", attempt).Msg("market data fetch succeeded")
		snapshot = snap
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("coins", len(snapshot.Coins)))
	return snapshot, nil
}

func (p *CoinGeckoProvider) fetchOnce(ctx context.Context, url string) (*domain.MarketSnapshot, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	var records []marketRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse markets response: %w", err)
	}

	coins := make(map[string]domain.CoinStats, len(records))
	for _, rec := range records {
		symbol := strings.ToUpper(rec.Symbol)
		coins[symbol] = domain.CoinStats{
			Symbol:       symbol,
			PriceUSD:     rec.CurrentPrice,
			Change24hPct: rec.PriceChange24hPct,
			Volume24h:    rec.TotalVolume,
		}
	}

	for _, symbol := range domain.TrackedSymbols {
		if _, ok := coins[symbol]; !ok {
			return nil, fmt.Errorf("%w: %s absent", ErrMissingCoins, symbol)
		}
	}

	return &domain.MarketSnapshot{Coins: coins, FetchedAt: time.Now().UTC()}, nil
}
