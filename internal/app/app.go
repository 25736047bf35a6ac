package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"perp-trade-panel/internal/alerts"
	"perp-trade-panel/internal/config"
	"perp-trade-panel/internal/market"
	"perp-trade-panel/internal/metrics"
	"perp-trade-panel/internal/panel"
	"perp-trade-panel/internal/session"
	"perp-trade-panel/internal/state/sqlite"
	"perp-trade-panel/internal/submit"
	"perp-trade-panel/internal/venue/account"
	"perp-trade-panel/internal/venue/exchange"
	"perp-trade-panel/internal/venue/rest"
	"perp-trade-panel/internal/venue/ws"
	"perp-trade-panel/internal/wallet"

	"go.uber.org/zap"
)

// App wires the panel against the live venue: local wallet, REST and
// exchange clients, durable nonce state, and the operator command loop
// on stdin.
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *sqlite.Store
	rest     *rest.Client
	exchange *exchange.Client
	registry *market.Registry
	sessions *session.Manager
	panel    *panel.Panel
	prom     *metrics.Prometheus

	accountAddress string

	// ctx is the run context; connection factories capture it for the
	// websocket read loops they spawn.
	ctx context.Context
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}

	privateKey := strings.TrimSpace(os.Getenv("PANEL_PRIVATE_KEY"))
	if privateKey == "" {
		return nil, errors.New("PANEL_PRIVATE_KEY is required")
	}
	walletProvider, err := wallet.FromHexKey(privateKey)
	if err != nil {
		return nil, err
	}
	walletAddr, _ := walletProvider.Address()
	if expected := strings.TrimSpace(os.Getenv("PANEL_WALLET_ADDRESS")); expected != "" {
		if !strings.EqualFold(expected, walletAddr.Hex()) {
			return nil, fmt.Errorf("wallet address does not match private key: got %s expected %s", expected, walletAddr.Hex())
		}
	}
	accountAddress := exchange.DeriveAccountAddress(walletAddr).Hex()

	signer, err := exchange.NewSigner(walletProvider, cfg.Mainnet)
	if err != nil {
		return nil, err
	}
	exClient, err := exchange.NewClient(cfg.REST.BaseURL, cfg.REST.Timeout, signer, accountAddress)
	if err != nil {
		return nil, err
	}
	exClient.SetLogger(log)

	restClient := rest.New(cfg.REST.BaseURL, cfg.REST.Timeout, log)
	registry := market.NewRegistry(restClient, log)
	sessions := session.NewManager(log)

	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.ListenAddr != "" {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}
	sessions.SetMetrics(m)
	submitter := submit.New(exClient, restClient, log, m, cfg.Confirm.Timeout, cfg.Confirm.PollInterval)
	alertsClient := alerts.NewTelegram(cfg.Telegram, log)

	a := &App{
		cfg:            cfg,
		log:            log,
		store:          store,
		rest:           restClient,
		exchange:       exClient,
		registry:       registry,
		sessions:       sessions,
		prom:           prom,
		accountAddress: accountAddress,
	}
	tradePanel, err := panel.New(panel.Options{
		Config:        cfg,
		Log:           log,
		Wallet:        walletProvider,
		Sessions:      sessions,
		Submitter:     submitter,
		Registry:      registry,
		NewConnection: a.newConnection,
		Alerts:        alertsClient,
		Metrics:       m,
		Emit:          printEvent,
	})
	if err != nil {
		return nil, err
	}
	a.panel = tradePanel
	return a, nil
}

// newConnection builds a fresh websocket and account handle pair for
// one session and starts the read loop. The loop ends on its own once
// the session closes the client.
func (a *App) newConnection() (session.VenueClient, session.AccountHandle) {
	wsClient := ws.New(a.cfg.WS.URL, a.cfg.WS.ReconnectDelay, a.cfg.WS.PingInterval, a.log)
	acct := account.New(a.rest, wsClient, a.log, a.accountAddress)
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		if err := wsClient.Run(ctx, acct.HandleMessage); err != nil && ctx.Err() == nil {
			a.log.Warn("ws run ended", zap.Error(err))
		}
	}()
	return wsClient, acct
}

// Run serves the operator command loop until the context ends or the
// operator quits.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	defer a.store.Close()
	defer a.sessions.Teardown(context.Background())

	if err := a.exchange.InitNonceStore(ctx, a.store); err != nil {
		a.log.Warn("nonce store init failed", zap.Error(err))
	}
	if a.prom != nil {
		a.serveMetrics(ctx)
	}

	a.log.Info("panel ready",
		zap.String("account", a.accountAddress),
		zap.Bool("mainnet", a.cfg.Mainnet),
	)
	fmt.Println("perp trade panel: /help for commands")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if a.panel.HandleCommand(ctx, line) {
				return nil
			}
		}
	}
}

func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.prom.Handler())
	srv := &http.Server{Addr: a.cfg.Metrics.ListenAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Warn("metrics server ended", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func printEvent(ev panel.Event) {
	fmt.Printf("[%s] %s\n", ev.Level, ev.Text)
}
