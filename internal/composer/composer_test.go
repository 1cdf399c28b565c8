package composer

import (
	"strings"
	"testing"
	"time"

	"marketpulse/internal/domain"
)

func defaultConstraints() domain.PostConstraints {
	return domain.PostConstraints{MinLength: 220, MaxLength: 270, HardStopLength: 280}
}

func testSnapshot() *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		Coins: map[string]domain.CoinStats{
			domain.SymbolBTC: {Symbol: "BTC", PriceUSD: 50000, Change24hPct: 1.25, Volume24h: 3e10},
			domain.SymbolETH: {Symbol: "ETH", PriceUSD: 3000, Change24hPct: -0.75, Volume24h: 1e10},
		},
	}
}

func fixedComposer(constraints domain.PostConstraints) *Composer {
	c := New(constraints)
	c.now = func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return c
}

func TestComposeHeaderLayout(t *testing.T) {
	c := fixedComposer(defaultConstraints())
	post := c.Compose("Market looks balanced.\nVolume steady.", testSnapshot())

	for _, want := range []string{
		"Analysis - 2024-01-01 00:00:00",
		"BTC: $50000.00 (1.25%)",
		"ETH: $3000.00 (-0.75%)",
		"#Crypto #ETH #BTC",
	} {
		if !strings.Contains(post.Text, want) {
			t.Fatalf("post missing %q:\n%s", want, post.Text)
		}
	}
	if post.BTCPrice != 50000 || post.ETHPrice != 3000 {
		t.Fatalf("structured fields not carried: %+v", post)
	}
	if !post.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", post.Timestamp)
	}
}

func TestComposeNeverExceedsHardStop(t *testing.T) {
	c := fixedComposer(defaultConstraints())
	long := strings.Repeat("This line talks about order flow and market depth in detail.\n", 40)
	post := c.Compose(long, testSnapshot())

	if len(post.Text) > 280 {
		t.Fatalf("post length %d exceeds hard stop:\n%s", len(post.Text), post.Text)
	}
}

func TestComposeGreedyPrefixNeverSplitsLines(t *testing.T) {
	c := fixedComposer(defaultConstraints())
	fits := "Short opening line."
	tooLong := strings.Repeat("x", 300)
	post := c.Compose(fits+"\n"+tooLong+"\nAfterwards.", testSnapshot())

	if !strings.Contains(post.Text, fits) {
		t.Fatalf("fitting line dropped:\n%s", post.Text)
	}
	if strings.Contains(post.Text, "xxx") {
		t.Fatalf("oversized line must not appear, even partially:\n%s", post.Text)
	}
	// A break stops the body: lines after the first misfit are not reconsidered.
	if strings.Contains(post.Text, "Afterwards.") {
		t.Fatalf("lines after the first misfit must be dropped:\n%s", post.Text)
	}
}

func TestComposeAppendsFillerBelowMinimum(t *testing.T) {
	c := fixedComposer(defaultConstraints())
	post := c.Compose("Quiet market.", testSnapshot())

	if len(post.Text) >= 220 {
		t.Fatalf("test setup expects a short post, got length %d", len(post.Text))
	}
	if !strings.Contains(post.Text, "Detailed analysis available.") {
		t.Fatalf("expected filler sentence:\n%s", post.Text)
	}
}

func TestComposeSkipsFillerWhenItWouldBreachHardStop(t *testing.T) {
	constraints := domain.PostConstraints{MinLength: 150, MaxLength: 140, HardStopLength: 130}
	c := fixedComposer(constraints)
	post := c.Compose("line", testSnapshot())

	if len(post.Text) > 130 {
		t.Fatalf("post length %d exceeds hard stop", len(post.Text))
	}
	if strings.Contains(post.Text, "Detailed analysis available.") {
		t.Fatalf("filler must be skipped when it would breach the hard stop:\n%s", post.Text)
	}
}

func TestComposeReachesMinimumForTypicalAnalysis(t *testing.T) {
	c := fixedComposer(defaultConstraints())
	analysis := "BTC consolidates near resistance with steady spot volume.\n" +
		"ETH shows relative strength; the pair grinds higher.\n" +
		"Order books remain thin above current levels."
	post := c.Compose(analysis, testSnapshot())

	if len(post.Text) < 220 {
		t.Fatalf("expected at least minimum length, got %d:\n%s", len(post.Text), post.Text)
	}
	if len(post.Text) > 280 {
		t.Fatalf("post length %d exceeds hard stop", len(post.Text))
	}
}
