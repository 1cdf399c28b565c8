package analyst

import (
	"fmt"

	"marketpulse/internal/domain"
)

const promptTemplate = `Analyze ETH/BTC Market Dynamics:

Current Market Data:
Bitcoin:
- Price: $%.2f
- 24h Change: %.2f%%
- Volume: $%.0f

Ethereum:
- Price: $%.2f
- 24h Change: %.2f%%
- Volume: $%.0f

Please provide a concise but detailed market analysis:
1. Short-term Movement:
   - Price action in last few minutes
   - Volume profile significance
   - Immediate support/resistance levels

2. Market Microstructure:
   - Order flow analysis
   - Volume weighted price trends
   - Market depth indicators

3. Cross-Pair Dynamics:
   - ETH/BTC correlation changes
   - Relative strength shifts
   - Market maker activity signals

Focus on actionable micro-trends and real-time market behavior. Identify minimal but significant price movements.
Keep the analysis technical but concise, emphasizing key shifts in market dynamics.`

// BuildPrompt substitutes the six numeric snapshot fields into the fixed
// analysis prompt.
func BuildPrompt(snapshot *domain.MarketSnapshot) string {
	btc := snapshot.BTC()
	eth := snapshot.ETH()
	return fmt.Sprintf(promptTemplate,
		btc.PriceUSD, btc.Change24hPct, btc.Volume24h,
		eth.PriceUSD, eth.Change24hPct, eth.Volume24h,
	)
}
