package classify

import "strings"

// Category selects user-facing phrasing for a failed submission. It is
// display-only and never feeds back into control flow.
type Category string

const (
	InsufficientBalance Category = "insufficient_balance"
	SlippageExceeded    Category = "slippage_exceeded"
	UserRejected        Category = "user_rejected"
	SimulationFailed    Category = "simulation_failed"
	Timeout             Category = "timeout"
	Unknown             Category = "unknown"
)

type Classified struct {
	Category Category
	// Message is the raw provider text, kept for diagnostic display
	// only; it is never used as the user-facing category phrasing.
	Message string
}

type rule struct {
	needles  []string
	category Category
}

// Rules are matched in order; the first substring hit wins.
var rules = []rule{
	{[]string{"insufficient lamports", "insufficient funds", "insufficient collateral", "insufficient balance"}, InsufficientBalance},
	{[]string{"slippage tolerance exceeded", "slippage"}, SlippageExceeded},
	{[]string{"user rejected the request", "rejected the request", "user denied"}, UserRejected},
	{[]string{"simulation failed", "transaction simulation"}, SimulationFailed},
	{[]string{"timed out", "timeout", "deadline exceeded"}, Timeout},
}

// Classify maps any failure to a category. It is total: nil errors and
// unrecognized messages fall through to Unknown with the original text
// preserved.
func Classify(err error) Classified {
	if err == nil {
		return Classified{Category: Unknown}
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, r := range rules {
		for _, needle := range r.needles {
			if strings.Contains(lower, needle) {
				return Classified{Category: r.category, Message: msg}
			}
		}
	}
	return Classified{Category: Unknown, Message: msg}
}

// Phrase returns the user-facing wording for a category.
func (c Category) Phrase() string {
	switch c {
	case InsufficientBalance:
		return "Insufficient balance for this order"
	case SlippageExceeded:
		return "Price moved beyond your slippage tolerance"
	case UserRejected:
		return "Request rejected in wallet"
	case SimulationFailed:
		return "Order simulation failed"
	case Timeout:
		return "The venue did not respond in time"
	default:
		return "Order failed"
	}
}
