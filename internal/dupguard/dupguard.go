// Package dupguard decides whether a candidate post is a near-duplicate of a
// recent one: both price fields moved less than 0.01% and the posts are less
// than 30 seconds apart. When a comparison cannot be made the guard fails
// open — an unprovable duplicate is allowed through.
package dupguard

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"marketpulse/internal/domain"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	minChangeThresholdPct = 0.01
	minRepostWindow       = 30 * time.Second

	timestampLayout = "2006-01-02 15:04:05"
)

// Field layout rendered by the composer. A historical post that does not
// match both price patterns is non-comparable and skipped.
var (
	timestampRe = regexp.MustCompile(`Analysis - ([\d-]+ [\d:]+)`)
	btcRe       = regexp.MustCompile(`BTC: \$([0-9,.]+)`)
	ethRe       = regexp.MustCompile(`ETH: \$([0-9,.]+)`)
)

type Guard struct {
	logger zerolog.Logger
}

func New() *Guard {
	return &Guard{logger: log.With().Str("component", "dupguard").Logger()}
}

// ExtractFields parses prices and, when present, the timestamp out of a
// post's raw text. ok is false when no usable price pair exists.
func ExtractFields(text string) (fields domain.ExtractedFields, ok bool) {
	btcMatch := btcRe.FindStringSubmatch(text)
	ethMatch := ethRe.FindStringSubmatch(text)
	if btcMatch == nil || ethMatch == nil {
		return domain.ExtractedFields{}, false
	}

	btc, err := parsePrice(btcMatch[1])
	if err != nil {
		return domain.ExtractedFields{}, false
	}
	eth, err := parsePrice(ethMatch[1])
	if err != nil {
		return domain.ExtractedFields{}, false
	}

	fields = domain.ExtractedFields{BTC: btc, ETH: eth}
	if tsMatch := timestampRe.FindStringSubmatch(text); tsMatch != nil {
		if ts, err := time.Parse(timestampLayout, tsMatch[1]); err == nil {
			fields.Timestamp = &ts
		}
	}
	return fields, true
}

func parsePrice(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

// IsDuplicate checks the candidate against history, most recent first. The
// candidate's structured fields are compared directly; only historical raw
// texts are re-parsed. The first matching entry decides.
func (g *Guard) IsDuplicate(candidate domain.Post, history []string) bool {
	candTS := candidate.Timestamp

	for _, raw := range history {
		old, ok := ExtractFields(raw)
		if !ok {
			continue
		}

		btcChange, btcOK := pctChange(candidate.BTCPrice, old.BTC)
		ethChange, ethOK := pctChange(candidate.ETHPrice, old.ETH)
		if !btcOK || !ethOK {
			// Zero historical price: treat as infinite movement, never a duplicate.
			continue
		}

		if btcChange >= minChangeThresholdPct || ethChange >= minChangeThresholdPct {
			continue
		}
		if old.Timestamp == nil {
			continue
		}
		if candTS.Sub(*old.Timestamp) < minRepostWindow {
			g.logger.Info().
				Float64("btc_change_pct", btcChange).
				Float64("eth_change_pct", ethChange).
				Time("previous_post", *old.Timestamp).
				Msg("skipping near-duplicate post")
			return true
		}
	}
	return false
}

func pctChange(newVal, oldVal float64) (float64, bool) {
	if oldVal == 0 {
		return 0, false
	}
	return math.Abs((newVal - oldVal) / oldVal * 100), true
}
