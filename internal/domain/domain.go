package domain

import "time"

const (
	SymbolBTC = "BTC"
	SymbolETH = "ETH"
)

// TrackedSymbols is the fixed coin set the agent reports on. Both symbols
// must be present in every market snapshot.
var TrackedSymbols = []string{SymbolBTC, SymbolETH}

var CoinGeckoID = map[string]string{
	SymbolBTC: "bitcoin",
	SymbolETH: "ethereum",
}

var CoinGeckoIDToSymbol = map[string]string{
	"bitcoin":  SymbolBTC,
	"ethereum": SymbolETH,
}

// CoinStats is the per-symbol slice of a market snapshot.
type CoinStats struct {
	Symbol       string  `json:"symbol"`
	PriceUSD     float64 `json:"price_usd"`
	Change24hPct float64 `json:"change_24h_pct"`
	Volume24h    float64 `json:"volume_24h"`
}

// MarketSnapshot holds current stats for all tracked symbols. It is created
// once per cycle and never mutated afterwards.
type MarketSnapshot struct {
	Coins     map[string]CoinStats `json:"coins"`
	FetchedAt time.Time            `json:"fetched_at"`
}

func (s *MarketSnapshot) BTC() CoinStats { return s.Coins[SymbolBTC] }
func (s *MarketSnapshot) ETH() CoinStats { return s.Coins[SymbolETH] }

// Post is a formatted, publishable post. The numeric fields and timestamp are
// carried alongside the rendered text so duplicate checking can compare them
// directly instead of re-parsing its own output.
type Post struct {
	Timestamp time.Time `json:"timestamp"`
	BTCPrice  float64   `json:"btc_price"`
	ETHPrice  float64   `json:"eth_price"`
	Text      string    `json:"text"`
}

// ExtractedFields is what can be recovered from a historical post's raw text.
// Timestamp is nil when the text carries no parseable timestamp.
type ExtractedFields struct {
	BTC       float64
	ETH       float64
	Timestamp *time.Time
}

// PostConstraints bounds the rendered post length.
type PostConstraints struct {
	MinLength      int
	MaxLength      int
	HardStopLength int
}
