package validate

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Reason identifies the first rule an entered quantity violated.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonEmpty              Reason = "empty"
	ReasonScientificNotation Reason = "scientific_notation"
	ReasonNotANumber         Reason = "not_a_number"
	ReasonNegative           Reason = "negative"
	ReasonBelowMinimum       Reason = "below_minimum"
	ReasonAboveMaximum       Reason = "above_maximum"
	ReasonTooManyDecimals    Reason = "too_many_decimals"
)

type Result struct {
	Valid  bool
	Reason Reason
}

// Limits bounds an order quantity in units of the quoted currency.
type Limits struct {
	Min         decimal.Decimal
	Max         decimal.Decimal
	MaxDecimals int
}

func DefaultLimits() Limits {
	return Limits{
		Min:         decimal.NewFromInt(1),
		Max:         decimal.NewFromInt(100000),
		MaxDecimals: 2,
	}
}

// NewLimits parses configured bounds. The fractional-digit cap stays at
// two, matching the quoted currency's cent precision.
func NewLimits(minQuantity, maxQuantity string) (Limits, error) {
	min, err := decimal.NewFromString(minQuantity)
	if err != nil {
		return Limits{}, err
	}
	max, err := decimal.NewFromString(maxQuantity)
	if err != nil {
		return Limits{}, err
	}
	return Limits{Min: min, Max: max, MaxDecimals: 2}, nil
}

// Validate checks a raw user-entered quantity string against the
// limits. Rules run in a fixed order and the first violation decides
// the reason. The function is pure: it is re-run on every edit and
// again on submission, which never trusts an earlier result.
func Validate(text string, limits Limits) Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{Reason: ReasonEmpty}
	}
	// Exponent entry is ambiguous about magnitude, reject it outright
	// even when the string would parse to an in-bounds value.
	if strings.ContainsAny(trimmed, "eE") {
		return Result{Reason: ReasonScientificNotation}
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Result{Reason: ReasonNotANumber}
	}
	if value.IsNegative() {
		return Result{Reason: ReasonNegative}
	}
	if value.Cmp(limits.Min) < 0 {
		return Result{Reason: ReasonBelowMinimum}
	}
	if value.Cmp(limits.Max) > 0 {
		return Result{Reason: ReasonAboveMaximum}
	}
	if fractionalDigits(trimmed) > limits.MaxDecimals {
		return Result{Reason: ReasonTooManyDecimals}
	}
	return Result{Valid: true}
}

func fractionalDigits(text string) int {
	_, frac, ok := strings.Cut(text, ".")
	if !ok {
		return 0
	}
	return len(frac)
}

// Message maps a rejection reason to inline user-facing phrasing.
func (r Reason) Message() string {
	switch r {
	case ReasonEmpty:
		return "enter an amount"
	case ReasonScientificNotation:
		return "scientific notation is not allowed"
	case ReasonNotANumber:
		return "amount must be a number"
	case ReasonNegative:
		return "amount must be positive"
	case ReasonBelowMinimum:
		return "amount is below the minimum"
	case ReasonAboveMaximum:
		return "amount is above the maximum"
	case ReasonTooManyDecimals:
		return "amount supports at most 2 decimal places"
	default:
		return ""
	}
}
