package panel

import (
	"context"
	"fmt"
	"strings"

	"perp-trade-panel/internal/config"
	"perp-trade-panel/internal/market"
	"perp-trade-panel/internal/metrics"
	"perp-trade-panel/internal/session"
	"perp-trade-panel/internal/sizing"
	"perp-trade-panel/internal/submit"
	"perp-trade-panel/internal/validate"
	"perp-trade-panel/internal/wallet"

	"go.uber.org/zap"
)

// Level categorizes a status event for rendering.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Event struct {
	Level Level
	Text  string
}

// MarketResolver resolves a user market selector (index or symbol).
type MarketResolver interface {
	Refresh(ctx context.Context) error
	Resolve(selector string) (market.Market, bool)
}

// Notifier pushes outcome notifications out-of-band; failures are
// logged and never surfaced.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// State is the panel's mutable input state. It lives in one struct
// owned by the Panel and is handed to the pure components explicitly.
type State struct {
	AmountText         string
	AmountResult       validate.Result
	Leverage           int
	SlippagePct        string
	DisclosureAccepted bool
	Market             market.Market
	HasMarket          bool
}

type Options struct {
	Config    *config.Config
	Log       *zap.Logger
	Wallet    wallet.Provider
	Sessions  *session.Manager
	Submitter *submit.Submitter
	Registry  MarketResolver

	// NewConnection builds a fresh venue client and account handle
	// pair sharing one websocket. Sessions are single-use, so every
	// Connect gets a new pair.
	NewConnection func() (session.VenueClient, session.AccountHandle)

	Alerts  Notifier
	Metrics *metrics.Metrics
	Emit    func(Event)
}

// Panel composes the validator, sizer, session manager and submitter
// against user input and emits status events.
type Panel struct {
	cfg      *config.Config
	log      *zap.Logger
	limits   validate.Limits
	wallet   wallet.Provider
	sessions *session.Manager
	submit   *submit.Submitter
	registry MarketResolver

	newConnection func() (session.VenueClient, session.AccountHandle)

	alerts  Notifier
	metrics *metrics.Metrics
	emit    func(Event)

	state State
}

func New(opts Options) (*Panel, error) {
	limits, err := validate.NewLimits(opts.Config.Trading.MinQuantityUSD, opts.Config.Trading.MaxQuantityUSD)
	if err != nil {
		return nil, fmt.Errorf("trading limits: %w", err)
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewNoop()
	}
	emit := opts.Emit
	if emit == nil {
		emit = func(Event) {}
	}
	p := &Panel{
		cfg:           opts.Config,
		log:           opts.Log,
		limits:        limits,
		wallet:        opts.Wallet,
		sessions:      opts.Sessions,
		submit:        opts.Submitter,
		registry:      opts.Registry,
		newConnection: opts.NewConnection,
		alerts:        opts.Alerts,
		metrics:       m,
		emit:          emit,
	}
	p.state.Leverage = 1
	p.state.SlippagePct = opts.Config.Trading.DefaultSlippage
	if p.submit != nil {
		p.submit.SetProgress(func(stage string) {
			switch stage {
			case submit.StageSubmitting:
				p.emit(Event{LevelInfo, "submitting order"})
			case submit.StageConfirming:
				p.emit(Event{LevelInfo, "confirming transaction"})
			}
		})
	}
	return p, nil
}

// State returns a copy of the current panel state.
func (p *Panel) State() State {
	return p.state
}

// SetAmount records the entered quantity and validates it, as on every
// keystroke. The stored result is advisory; submission re-validates.
func (p *Panel) SetAmount(text string) validate.Result {
	p.state.AmountText = text
	p.state.AmountResult = validate.Validate(text, p.limits)
	if !p.state.AmountResult.Valid && strings.TrimSpace(text) != "" {
		p.emit(Event{LevelWarning, p.state.AmountResult.Reason.Message()})
	}
	return p.state.AmountResult
}

func (p *Panel) SetLeverage(leverage int) error {
	if leverage < 1 || leverage > p.cfg.Trading.MaxLeverage {
		return fmt.Errorf("leverage must be between 1 and %d", p.cfg.Trading.MaxLeverage)
	}
	p.state.Leverage = leverage
	return nil
}

func (p *Panel) SetSlippage(pct string) error {
	if _, err := validateSlippage(pct); err != nil {
		return err
	}
	p.state.SlippagePct = strings.TrimSpace(pct)
	return nil
}

func (p *Panel) SetDisclosureAccepted(accepted bool) {
	p.state.DisclosureAccepted = accepted
}

func (p *Panel) SelectMarket(selector string) error {
	m, ok := p.registry.Resolve(selector)
	if !ok {
		return fmt.Errorf("unknown market %q", selector)
	}
	p.state.Market = m
	p.state.HasMarket = true
	return nil
}

// Connect establishes a fresh session for the connected wallet.
func (p *Panel) Connect(ctx context.Context) {
	p.emit(Event{LevelInfo, "connecting to venue"})
	venue, acct := p.newConnection()
	sess, err := p.sessions.Initialize(ctx, p.wallet, venue, acct)
	if err != nil {
		p.emit(Event{LevelError, fmt.Sprintf("connection failed: %v", err)})
		return
	}
	if sess.Status() != session.Ready {
		// Account precondition not met, not a failure.
		p.emit(Event{LevelWarning, sess.StatusMessage()})
		return
	}
	p.metrics.SessionsInitialized.Inc()
	if err := p.registry.Refresh(ctx); err != nil {
		p.log.Warn("market refresh failed", zap.Error(err))
	} else if !p.state.HasMarket && p.cfg.Trading.DefaultMarket != "" {
		if err := p.SelectMarket(p.cfg.Trading.DefaultMarket); err != nil {
			p.log.Warn("default market unavailable", zap.String("market", p.cfg.Trading.DefaultMarket))
		}
	}
	p.emit(Event{LevelSuccess, "session ready"})
}

// Disconnect is the wallet-disconnect event: the session is torn down
// unconditionally.
func (p *Panel) Disconnect(ctx context.Context) {
	p.sessions.HandleWalletDisconnect(ctx)
	p.emit(Event{LevelInfo, "wallet disconnected"})
}

// SubmitOrder sizes the entered quantity and runs the submission
// pipeline for the given direction.
func (p *Panel) SubmitOrder(ctx context.Context, direction sizing.Direction) submit.Outcome {
	sess := p.sessions.Current()
	if !p.state.HasMarket {
		outcome := submit.Outcome{PreconditionFailed: true, Reason: "select a market first"}
		p.renderOutcome(ctx, outcome)
		return outcome
	}
	if result := validate.Validate(p.state.AmountText, p.limits); !result.Valid {
		outcome := submit.Outcome{PreconditionFailed: true, Reason: result.Reason.Message()}
		p.renderOutcome(ctx, outcome)
		return outcome
	}
	sized, err := sizing.Build(p.state.AmountText, p.state.Leverage, p.state.SlippagePct, p.state.Market.Index, direction)
	if err != nil {
		outcome := submit.Outcome{PreconditionFailed: true, Reason: err.Error()}
		p.renderOutcome(ctx, outcome)
		return outcome
	}
	outcome := p.submit.Submit(ctx, sess, sized, submit.Preflight{
		QuantityText:       p.state.AmountText,
		DisclosureAccepted: p.state.DisclosureAccepted,
		Limits:             p.limits,
	})
	p.renderOutcome(ctx, outcome)
	return outcome
}

func (p *Panel) renderOutcome(ctx context.Context, outcome submit.Outcome) {
	switch {
	case outcome.PreconditionFailed:
		p.emit(Event{LevelWarning, outcome.Reason})
	case outcome.Confirmed:
		p.emit(Event{LevelSuccess, fmt.Sprintf("order confirmed (tx %s)", truncateSignature(outcome.TxSignature))})
		p.notify(ctx, fmt.Sprintf("Order confirmed: %s", outcome.TxSignature))
	default:
		text := outcome.Category.Phrase()
		if outcome.Message != "" {
			text = fmt.Sprintf("%s: %s", text, outcome.Message)
		}
		p.emit(Event{LevelError, text})
		p.notify(ctx, fmt.Sprintf("Order failed (%s)", outcome.Category))
	}
}

func (p *Panel) notify(ctx context.Context, message string) {
	if p.alerts == nil {
		return
	}
	if err := p.alerts.Send(ctx, message); err != nil {
		p.log.Warn("alert send failed", zap.Error(err))
	}
}

// StatusText summarizes panel and session state for the /status
// command.
func (p *Panel) StatusText() string {
	status := session.Uninitialized
	message := ""
	if sess := p.sessions.Current(); sess != nil {
		status = sess.Status()
		message = sess.StatusMessage()
	}
	marketLabel := "none"
	if p.state.HasMarket {
		marketLabel = fmt.Sprintf("%s (index %d)", p.state.Market.Symbol, p.state.Market.Index)
	}
	lines := []string{
		fmt.Sprintf("session: %s", status),
		fmt.Sprintf("market: %s", marketLabel),
		fmt.Sprintf("amount: %q valid=%t", p.state.AmountText, p.state.AmountResult.Valid),
		fmt.Sprintf("leverage: %dx", p.state.Leverage),
		fmt.Sprintf("slippage: %s%%", p.state.SlippagePct),
		fmt.Sprintf("disclosure_accepted: %t", p.state.DisclosureAccepted),
	}
	if message != "" {
		lines = append(lines, fmt.Sprintf("note: %s", message))
	}
	return strings.Join(lines, "\n")
}

func truncateSignature(sig string) string {
	if len(sig) <= 16 {
		return sig
	}
	return sig[:8] + "…" + sig[len(sig)-8:]
}
