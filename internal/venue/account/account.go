package account

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"perp-trade-panel/internal/venue/rest"
	"perp-trade-panel/internal/venue/ws"

	"go.uber.org/zap"
)

// Handle is the wallet's trading-account view on the venue: existence
// lookup by derived address and a live account-update subscription.
type Handle struct {
	rest    *rest.Client
	ws      *ws.Client
	log     *zap.Logger
	address string

	mu   sync.Mutex
	snap Snapshot
}

// Snapshot is the small slice of account state the panel displays.
// Position bookkeeping beyond the order being placed is out of scope.
type Snapshot struct {
	CollateralUSD float64
	UpdatedAt     time.Time
}

func New(restClient *rest.Client, wsClient *ws.Client, log *zap.Logger, address string) *Handle {
	return &Handle{rest: restClient, ws: wsClient, log: log, address: address}
}

func (h *Handle) Address() string {
	return h.address
}

// Exists reports whether the derived trading account is present on the
// venue. A missing account is a precondition-not-met state; this
// client never creates accounts.
func (h *Handle) Exists(ctx context.Context) (bool, error) {
	return h.rest.AccountExists(ctx, h.address)
}

func (h *Handle) subscription() any {
	return map[string]any{"type": "accountUpdates", "user": h.address}
}

func (h *Handle) Subscribe(ctx context.Context) error {
	return h.ws.Subscribe(ctx, h.subscription())
}

func (h *Handle) Unsubscribe(ctx context.Context) error {
	return h.ws.Unsubscribe(ctx, h.subscription())
}

// HandleMessage folds an accountUpdates frame into the snapshot.
// Unknown frames are ignored.
func (h *Handle) HandleMessage(msg json.RawMessage) {
	var frame struct {
		Channel string `json:"channel"`
		Data    struct {
			CollateralUSD float64 `json:"collateralUsd"`
		} `json:"data"`
	}
	if err := json.Unmarshal(msg, &frame); err != nil {
		if h.log != nil {
			h.log.Debug("unparseable account frame", zap.Error(err))
		}
		return
	}
	if frame.Channel != "accountUpdates" {
		return
	}
	h.mu.Lock()
	h.snap = Snapshot{CollateralUSD: frame.Data.CollateralUSD, UpdatedAt: time.Now().UTC()}
	h.mu.Unlock()
}

func (h *Handle) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}
