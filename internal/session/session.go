package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"perp-trade-panel/internal/metrics"
	"perp-trade-panel/internal/wallet"

	"go.uber.org/zap"
)

// Status is the session lifecycle state. Disconnected is terminal for
// a session instance; a fresh wallet connection creates a new session.
type Status int32

const (
	Uninitialized Status = iota
	Initializing
	Ready
	Disconnected
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Disconnected:
		return "disconnected"
	default:
		return "uninitialized"
	}
}

// VenueClient is the subscribed connection to the venue's live state.
type VenueClient interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, sub any) error
	Unsubscribe(ctx context.Context, sub any) error
	Close() error
}

// AccountHandle is the wallet's trading account on the venue.
type AccountHandle interface {
	Address() string
	Exists(ctx context.Context) (bool, error)
	Subscribe(ctx context.Context) error
	Unsubscribe(ctx context.Context) error
}

// VenueStateSubscription is the venue-wide live state stream every
// session subscribes to while active.
var VenueStateSubscription = map[string]any{"type": "venueState"}

// MsgAccountMissing distinguishes the account-not-created outcome from
// real initialization failures.
const MsgAccountMissing = "trading account not found for this wallet; create one on the venue before trading"

// Session is the live pairing of a wallet with the venue. The account
// handle is set only once the session is Ready; readers must treat a
// non-Ready session as having no account.
type Session struct {
	status  atomic.Int32
	message atomic.Value // string

	venue   VenueClient
	account AccountHandle
}

func (s *Session) Status() Status {
	return Status(s.status.Load())
}

// StatusMessage carries the human-readable reason for a non-Ready
// terminal state, e.g. the missing-account direction.
func (s *Session) StatusMessage() string {
	if msg, ok := s.message.Load().(string); ok {
		return msg
	}
	return ""
}

func (s *Session) Account() AccountHandle {
	if s.Status() != Ready {
		return nil
	}
	return s.account
}

func (s *Session) setStatus(status Status, message string) {
	s.message.Store(message)
	s.status.Store(int32(status))
}

var (
	ErrInitInProgress  = errors.New("session initialization already in progress")
	ErrSessionActive   = errors.New("a session already exists for this wallet")
	ErrWalletIncapable = errors.New("wallet is missing a required capability")
)

// Manager exclusively owns the session. Other components read session
// state but never mutate it.
type Manager struct {
	log     *zap.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	sess *Session
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{log: log, metrics: metrics.NewNoop()}
}

func (m *Manager) SetMetrics(metrics *metrics.Metrics) {
	if metrics != nil {
		m.metrics = metrics
	}
}

// Current returns the session instance, or nil when none exists.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// Initialize establishes a session: connects the venue client,
// subscribes to live venue state, resolves whether the wallet's
// trading account exists, and on success subscribes to account
// updates and transitions to Ready.
//
// Re-entrancy is guarded by the state machine: while a session is
// Initializing or Ready a second call is rejected before any network
// work, so overlapping initializations can never leak a duplicate
// subscription set.
//
// If the account does not exist the session terminates Uninitialized
// with MsgAccountMissing and no subscriptions held; that is a
// precondition-not-met state, not an error.
func (m *Manager) Initialize(ctx context.Context, provider wallet.Provider, venue VenueClient, acct AccountHandle) (*Session, error) {
	if provider == nil || !provider.Capabilities().Complete() {
		return nil, ErrWalletIncapable
	}

	m.mu.Lock()
	if m.sess != nil {
		switch m.sess.Status() {
		case Initializing:
			m.mu.Unlock()
			return nil, ErrInitInProgress
		case Ready:
			m.mu.Unlock()
			return nil, ErrSessionActive
		}
	}
	sess := &Session{}
	sess.setStatus(Initializing, "")
	m.sess = sess
	m.mu.Unlock()

	fail := func(err error) (*Session, error) {
		m.releaseVenue(ctx, venue)
		sess.setStatus(Uninitialized, "")
		return nil, err
	}

	if err := venue.Connect(ctx); err != nil {
		sess.setStatus(Uninitialized, "")
		return nil, err
	}
	if err := venue.Subscribe(ctx, VenueStateSubscription); err != nil {
		return fail(err)
	}
	exists, err := acct.Exists(ctx)
	if err != nil {
		return fail(err)
	}
	if !exists {
		m.releaseVenue(ctx, venue)
		sess.setStatus(Uninitialized, MsgAccountMissing)
		m.log.Info("trading account missing", zap.String("account", acct.Address()))
		return sess, nil
	}
	if err := acct.Subscribe(ctx); err != nil {
		return fail(err)
	}

	sess.venue = venue
	sess.account = acct
	sess.setStatus(Ready, "")
	m.log.Info("session ready", zap.String("account", acct.Address()))
	return sess, nil
}

// Teardown unsubscribes the account and venue streams and marks the
// session Disconnected. Unsubscribe failures are logged and swallowed:
// teardown always completes, and calling it with no session is a no-op.
func (m *Manager) Teardown(ctx context.Context) {
	m.mu.Lock()
	sess := m.sess
	m.sess = nil
	m.mu.Unlock()
	if sess == nil {
		return
	}
	if sess.account != nil {
		if err := sess.account.Unsubscribe(ctx); err != nil {
			m.metrics.TeardownErrors.Inc()
			m.log.Warn("account unsubscribe failed", zap.Error(err))
		}
	}
	if sess.venue != nil {
		m.releaseVenue(ctx, sess.venue)
	}
	sess.venue = nil
	sess.account = nil
	sess.setStatus(Disconnected, "")
	m.log.Info("session torn down")
}

// HandleWalletDisconnect is the disconnect event hook: the session is
// proactively torn down even if individual unsubscribes fail. An
// in-flight submission is not aborted; its outcome will land against a
// session that is already Disconnected and must only be displayed.
func (m *Manager) HandleWalletDisconnect(ctx context.Context) {
	m.log.Info("wallet disconnected")
	m.Teardown(ctx)
}

func (m *Manager) releaseVenue(ctx context.Context, venue VenueClient) {
	if venue == nil {
		return
	}
	if err := venue.Unsubscribe(ctx, VenueStateSubscription); err != nil {
		m.metrics.TeardownErrors.Inc()
		m.log.Warn("venue state unsubscribe failed", zap.Error(err))
	}
	if err := venue.Close(); err != nil {
		m.metrics.TeardownErrors.Inc()
		m.log.Warn("venue connection close failed", zap.Error(err))
	}
}
