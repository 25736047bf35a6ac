package submit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"perp-trade-panel/internal/classify"
	"perp-trade-panel/internal/metrics"
	"perp-trade-panel/internal/session"
	"perp-trade-panel/internal/sizing"
	"perp-trade-panel/internal/validate"
	"perp-trade-panel/internal/venue/exchange"
	"perp-trade-panel/internal/venue/rest"

	"go.uber.org/zap"
)

// Placer is the venue's place-and-execute call. It is invoked exactly
// once per submission; retrying a mutating financial call risks
// duplicate execution, so retry is always an explicit user action.
type Placer interface {
	PlaceOrder(ctx context.Context, order exchange.OrderWire) (string, error)
}

// Confirmer reports the on-chain status of a submitted transaction.
type Confirmer interface {
	TxStatus(ctx context.Context, signature string) (rest.Confirmation, error)
}

// Preflight carries the caller-side preconditions that are re-checked
// immediately before submission. The quantity text is re-validated
// here; UI validity is never trusted.
type Preflight struct {
	QuantityText       string
	DisclosureAccepted bool
	Limits             validate.Limits
}

// Outcome is the terminal result of one submission attempt.
type Outcome struct {
	TxSignature        string
	Confirmed          bool
	Category           classify.Category
	Message            string
	PreconditionFailed bool
	Reason             string
}

func (o Outcome) Failed() bool {
	return !o.Confirmed
}

type Submitter struct {
	placer    Placer
	confirmer Confirmer
	log       *zap.Logger
	metrics   *metrics.Metrics

	confirmTimeout time.Duration
	confirmPoll    time.Duration

	progress func(stage string)
	inFlight atomic.Bool
}

// Submission stages reported through the progress hook.
const (
	StageSubmitting = "submitting"
	StageConfirming = "confirming"
)

func New(placer Placer, confirmer Confirmer, log *zap.Logger, m *metrics.Metrics, confirmTimeout, confirmPoll time.Duration) *Submitter {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Submitter{
		placer:         placer,
		confirmer:      confirmer,
		log:            log,
		metrics:        m,
		confirmTimeout: confirmTimeout,
		confirmPoll:    confirmPoll,
	}
}

// Submit runs the full pipeline for one sized order: preflight, a
// single venue submission, confirmation, and failure classification.
// Precondition failures return before any network call. The submitter
// never mutates the session; if the session is torn down while the
// call is outstanding the outcome is still returned for display.
func (s *Submitter) Submit(ctx context.Context, sess *session.Session, order sizing.SizedOrder, pre Preflight) Outcome {
	if reason, ok := s.checkPreconditions(sess, pre); !ok {
		s.metrics.PreflightRejected.Inc()
		return Outcome{PreconditionFailed: true, Reason: reason}
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.PreflightRejected.Inc()
		return Outcome{PreconditionFailed: true, Reason: "a submission is already in flight"}
	}
	defer s.inFlight.Store(false)

	s.reportProgress(StageSubmitting)
	wire := exchange.OrderWire{
		MarketIndex:     order.MarketIndex,
		IsLong:          order.Direction == sizing.Long,
		BaseAssetAmount: order.BaseAssetAmount,
		OrderType:       exchange.OrderTypeMarket,
		MarketType:      exchange.MarketTypePerp,
		MaxSlippageBps:  order.MaxSlippageBps,
		Cloid:           fmt.Sprintf("panel-%s", time.Now().UTC().Format("20060102T150405.000Z0700")),
	}
	s.log.Info("submitting order",
		zap.Int("market_index", wire.MarketIndex),
		zap.Bool("is_long", wire.IsLong),
		zap.Int64("base_asset_amount", wire.BaseAssetAmount),
		zap.Int("max_slippage_bps", wire.MaxSlippageBps),
	)
	txSig, err := s.placer.PlaceOrder(ctx, wire)
	if err != nil {
		s.metrics.OrdersFailed.Inc()
		classified := classify.Classify(err)
		s.log.Warn("order submission failed", zap.String("category", string(classified.Category)), zap.Error(err))
		return Outcome{Category: classified.Category, Message: classified.Message}
	}
	s.metrics.OrdersSubmitted.Inc()

	s.reportProgress(StageConfirming)
	conf, err := s.awaitConfirmation(ctx, txSig)
	if err != nil {
		s.metrics.OrdersFailed.Inc()
		classified := classify.Classify(err)
		s.log.Warn("order confirmation failed", zap.String("tx", txSig), zap.String("category", string(classified.Category)), zap.Error(err))
		return Outcome{TxSignature: txSig, Category: classified.Category, Message: classified.Message}
	}
	if conf.Err != "" {
		// Landed on chain but was rejected during execution: a failed
		// outcome even though a transaction signature exists.
		s.metrics.OrdersFailed.Inc()
		classified := classify.Classify(errors.New(conf.Err))
		s.log.Warn("order failed on chain", zap.String("tx", txSig), zap.String("category", string(classified.Category)))
		return Outcome{TxSignature: txSig, Category: classified.Category, Message: classified.Message}
	}
	s.metrics.OrdersConfirmed.Inc()
	s.log.Info("order confirmed", zap.String("tx", txSig))
	return Outcome{TxSignature: txSig, Confirmed: true}
}

// SetProgress installs a hook invoked at each submission stage, used
// by the panel to surface informational status.
func (s *Submitter) SetProgress(fn func(stage string)) {
	s.progress = fn
}

func (s *Submitter) reportProgress(stage string) {
	if s.progress != nil {
		s.progress(stage)
	}
}

func (s *Submitter) checkPreconditions(sess *session.Session, pre Preflight) (string, bool) {
	if sess == nil || sess.Status() != session.Ready {
		if sess != nil && sess.StatusMessage() != "" {
			return sess.StatusMessage(), false
		}
		return "session is not ready", false
	}
	if result := validate.Validate(pre.QuantityText, pre.Limits); !result.Valid {
		return result.Reason.Message(), false
	}
	if !pre.DisclosureAccepted {
		return "accept the risk disclosure before submitting", false
	}
	return "", true
}

func (s *Submitter) awaitConfirmation(ctx context.Context, txSig string) (rest.Confirmation, error) {
	deadline := time.NewTimer(s.confirmTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.confirmPoll)
	defer ticker.Stop()
	for {
		conf, err := s.confirmer.TxStatus(ctx, txSig)
		if err != nil {
			return rest.Confirmation{}, err
		}
		if conf.Confirmed || conf.Err != "" {
			return conf, nil
		}
		select {
		case <-ctx.Done():
			return rest.Confirmation{}, ctx.Err()
		case <-deadline.C:
			return rest.Confirmation{}, fmt.Errorf("confirmation timed out after %s", s.confirmTimeout)
		case <-ticker.C:
		}
	}
}
