// Package composer renders generated commentary into a length-bounded post.
// The header layout is a contract: dupguard parses prices and the timestamp
// back out of historical posts in exactly this textual form.
package composer

import (
	"fmt"
	"strings"
	"time"

	"marketpulse/internal/domain"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	hashtagSuffix   = "\n#Crypto #ETH #BTC"
	fillerSentence  = "\nDetailed analysis available."
)

type Composer struct {
	constraints domain.PostConstraints
	now         func() time.Time
}

func New(constraints domain.PostConstraints) *Composer {
	return &Composer{constraints: constraints, now: time.Now}
}

// Compose builds the post: fixed header, then analysis lines appended one at
// a time while the total (with the trailing hashtag block) stays within the
// hard stop. Lines are never split; a line that does not fit ends the body.
// If the result is still short of the minimum, the filler sentence is added,
// but only when it keeps the post at or under the hard stop.
func (c *Composer) Compose(analysis string, snapshot *domain.MarketSnapshot) domain.Post {
	// UTC keeps rendered timestamps comparable with ones parsed back out of
	// historical posts.
	ts := c.now().UTC()
	btc := snapshot.BTC()
	eth := snapshot.ETH()

	header := fmt.Sprintf(
		"ETH/BTC Market Analysis - %s\n\nBTC: $%.2f (%.2f%%)\nETH: $%.2f (%.2f%%)\n\n",
		ts.Format(timestampLayout),
		btc.PriceUSD, btc.Change24hPct,
		eth.PriceUSD, eth.Change24hPct,
	)

	var body strings.Builder
	for _, line := range strings.Split(analysis, "\n") {
		if len(header)+body.Len()+len(line)+len("\n")+len(hashtagSuffix) > c.constraints.HardStopLength {
			break
		}
		body.WriteString(line)
		body.WriteString("\n")
	}

	text := header + body.String() + hashtagSuffix

	if len(text) < c.constraints.MinLength && len(text)+len(fillerSentence) <= c.constraints.HardStopLength {
		text += fillerSentence
	}

	return domain.Post{
		Timestamp: ts,
		BTCPrice:  btc.PriceUSD,
		ETHPrice:  eth.PriceUSD,
		Text:      text,
	}
}
