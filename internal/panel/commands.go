package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"perp-trade-panel/internal/sizing"

	"github.com/shopspring/decimal"
)

// ParseCommand splits a slash-prefixed input line into a command and
// its arguments. Non-command lines are ignored by the loop.
func ParseCommand(text string) (string, []string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !strings.HasPrefix(trimmed, "/") {
		return "", nil, false
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return "", nil, false
	}
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	return cmd, fields[1:], true
}

// HandleCommand executes one panel command. It returns true when the
// loop should exit.
func (p *Panel) HandleCommand(ctx context.Context, text string) bool {
	cmd, args, ok := ParseCommand(text)
	if !ok {
		return false
	}
	switch cmd {
	case "amount":
		if len(args) != 1 {
			p.emit(Event{LevelWarning, "usage: /amount <usd>"})
			return false
		}
		if result := p.SetAmount(args[0]); result.Valid {
			p.emit(Event{LevelInfo, fmt.Sprintf("amount set to %s", args[0])})
		}
	case "leverage":
		if len(args) != 1 {
			p.emit(Event{LevelWarning, "usage: /leverage <1..10>"})
			return false
		}
		leverage, err := strconv.Atoi(args[0])
		if err != nil {
			p.emit(Event{LevelWarning, "leverage must be an integer"})
			return false
		}
		if err := p.SetLeverage(leverage); err != nil {
			p.emit(Event{LevelWarning, err.Error()})
			return false
		}
		p.emit(Event{LevelInfo, fmt.Sprintf("leverage set to %dx", leverage)})
	case "slippage":
		if len(args) != 1 {
			p.emit(Event{LevelWarning, "usage: /slippage <percent>"})
			return false
		}
		if err := p.SetSlippage(args[0]); err != nil {
			p.emit(Event{LevelWarning, err.Error()})
			return false
		}
		p.emit(Event{LevelInfo, fmt.Sprintf("slippage set to %s%%", args[0])})
	case "accept":
		p.SetDisclosureAccepted(true)
		p.emit(Event{LevelInfo, "risk disclosure accepted"})
	case "market":
		if len(args) != 1 {
			p.emit(Event{LevelWarning, "usage: /market <index|symbol>"})
			return false
		}
		if err := p.SelectMarket(args[0]); err != nil {
			p.emit(Event{LevelWarning, err.Error()})
			return false
		}
		p.emit(Event{LevelInfo, fmt.Sprintf("market set to %s", strings.ToUpper(args[0]))})
	case "connect":
		p.Connect(ctx)
	case "disconnect":
		p.Disconnect(ctx)
	case "long":
		p.SubmitOrder(ctx, sizing.Long)
	case "short":
		p.SubmitOrder(ctx, sizing.Short)
	case "status":
		p.emit(Event{LevelInfo, p.StatusText()})
	case "quit", "exit":
		return true
	default:
		p.emit(Event{LevelInfo, helpText()})
	}
	return false
}

func helpText() string {
	return strings.Join([]string{
		"commands:",
		"/connect - establish a session for the wallet",
		"/disconnect - tear the session down",
		"/market <index|symbol> - select the perp market",
		"/amount <usd> - set the order quantity",
		"/leverage <1..10> - set the leverage multiplier",
		"/slippage <percent> - set the slippage tolerance",
		"/accept - accept the risk disclosure",
		"/long | /short - submit a market order",
		"/status - show panel and session state",
		"/quit - exit",
	}, "\n")
}

// validateSlippage admits a non-negative percentage with at most one
// fractional digit, the venue's slippage entry granularity.
func validateSlippage(pct string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(pct)
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, errors.New("slippage must be a number")
	}
	if value.IsNegative() {
		return decimal.Decimal{}, errors.New("slippage must not be negative")
	}
	if _, frac, ok := strings.Cut(trimmed, "."); ok && len(frac) > 1 {
		return decimal.Decimal{}, errors.New("slippage supports one decimal place")
	}
	return value, nil
}
