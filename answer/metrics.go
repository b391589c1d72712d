package answer

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/poiesic/minirag/core"
)

const (
	// CharsPerToken is the characters-per-token ratio used to estimate tokens.
	CharsPerToken = 4

	// DefaultUnitPrice is the price in USD per 1000 tokens used for estimates.
	DefaultUnitPrice = 0.0000185
)

// Measure computes query metrics at DefaultUnitPrice.
func Measure(start, end time.Time, context, question string) core.Metrics {
	return MeasureWithPrice(start, end, context, question, DefaultUnitPrice)
}

// MeasureWithPrice computes query metrics. Latency is end-start in seconds
// rounded to two decimals. Tokens are approximated as characters/4 over the
// context and question; the cost is that count per 1000 times unitPrice.
// The cost is an order-of-magnitude estimate only.
func MeasureWithPrice(start, end time.Time, context, question string, unitPrice float64) core.Metrics {
	latency := end.Sub(start).Seconds()
	if latency < 0 {
		latency = 0
	}

	chars := utf8.RuneCountInString(context) + utf8.RuneCountInString(question)
	tokens := float64(chars) / CharsPerToken

	return core.Metrics{
		LatencySeconds:  math.Round(latency*100) / 100,
		EstimatedTokens: int(math.Ceil(tokens)),
		CostEstimate:    tokens / 1000 * unitPrice,
	}
}
