package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"perp-trade-panel/internal/config"
	"perp-trade-panel/internal/logging"
	"perp-trade-panel/internal/market"
	"perp-trade-panel/internal/sizing"
	"perp-trade-panel/internal/state/sqlite"
	"perp-trade-panel/internal/validate"
	"perp-trade-panel/internal/venue/exchange"
	"perp-trade-panel/internal/venue/rest"
	"perp-trade-panel/internal/wallet"
)

const (
	defaultVerifyQuantity = "5"
	defaultVerifyLeverage = 1
	defaultVerifyMarket   = "0"
	defaultVerifyEnvFile  = ".env"
)

// verify exercises the wallet, sizing, and venue plumbing end to end
// with a small order: derive the trading account, size the order, and
// unless -dry-run, submit it against the configured network.
func main() {
	configPath := flag.String("config", "", "optional config path")
	dryRun := flag.Bool("dry-run", false, "print the derived account and order, then exit")
	flag.Parse()

	if err := config.LoadEnv(defaultVerifyEnvFile); err != nil {
		fatal(err)
	}

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	privateKey := strings.TrimSpace(os.Getenv("PANEL_PRIVATE_KEY"))
	if privateKey == "" {
		fatal(errors.New("PANEL_PRIVATE_KEY is required"))
	}
	walletProvider, err := wallet.FromHexKey(privateKey)
	if err != nil {
		fatal(err)
	}
	walletAddr, _ := walletProvider.Address()
	if expected := strings.TrimSpace(os.Getenv("PANEL_WALLET_ADDRESS")); expected != "" {
		if !strings.EqualFold(expected, walletAddr.Hex()) {
			fatal(fmt.Errorf("wallet address does not match private key: got %s expected %s", expected, walletAddr.Hex()))
		}
	}
	accountAddr := exchange.DeriveAccountAddress(walletAddr)

	quantity := envOr("PANEL_VERIFY_QUANTITY", defaultVerifyQuantity)
	slippage := envOr("PANEL_VERIFY_SLIPPAGE", cfg.Trading.DefaultSlippage)
	selector := envOr("PANEL_VERIFY_MARKET", defaultVerifyMarket)
	leverage := defaultVerifyLeverage
	if raw := strings.TrimSpace(os.Getenv("PANEL_VERIFY_LEVERAGE")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			fatal(fmt.Errorf("invalid PANEL_VERIFY_LEVERAGE: %w", err))
		}
		leverage = parsed
	}

	limits, err := validate.NewLimits(cfg.Trading.MinQuantityUSD, cfg.Trading.MaxQuantityUSD)
	if err != nil {
		fatal(err)
	}
	if result := validate.Validate(quantity, limits); !result.Valid {
		fatal(fmt.Errorf("quantity %q rejected: %s", quantity, result.Reason.Message()))
	}

	ctx := context.Background()
	marketIndex, haveIndex := numericSelector(selector)
	if !haveIndex || !*dryRun {
		restClient := rest.New(cfg.REST.BaseURL, cfg.REST.Timeout, log)
		registry := market.NewRegistry(restClient, log)
		if err := registry.Refresh(ctx); err != nil {
			fatal(err)
		}
		resolved, ok := registry.Resolve(selector)
		if !ok {
			fatal(fmt.Errorf("market %q not listed on the venue", selector))
		}
		marketIndex = resolved.Index
	}

	order, err := sizing.Build(quantity, leverage, slippage, marketIndex, sizing.Long)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("wallet: %s\n", walletAddr.Hex())
	fmt.Printf("account: %s\n", accountAddr.Hex())
	fmt.Printf("verify order: market_index=%d base_asset_amount=%d max_slippage_bps=%d network=%s\n",
		order.MarketIndex, order.BaseAssetAmount, order.MaxSlippageBps, networkName(cfg.Mainnet))
	if *dryRun {
		return
	}

	restClient := rest.New(cfg.REST.BaseURL, cfg.REST.Timeout, log)
	exists, err := restClient.AccountExists(ctx, accountAddr.Hex())
	if err != nil {
		fatal(err)
	}
	if !exists {
		fatal(fmt.Errorf("trading account %s does not exist on the venue", accountAddr.Hex()))
	}

	signer, err := exchange.NewSigner(walletProvider, cfg.Mainnet)
	if err != nil {
		fatal(err)
	}
	exClient, err := exchange.NewClient(cfg.REST.BaseURL, cfg.REST.Timeout, signer, accountAddr.Hex())
	if err != nil {
		fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		fatal(err)
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		fatal(err)
	}
	defer store.Close()
	if err := exClient.InitNonceStore(ctx, store); err != nil {
		fatal(err)
	}

	wire := exchange.OrderWire{
		MarketIndex:     order.MarketIndex,
		IsLong:          order.Direction == sizing.Long,
		BaseAssetAmount: order.BaseAssetAmount,
		OrderType:       exchange.OrderTypeMarket,
		MarketType:      exchange.MarketTypePerp,
		MaxSlippageBps:  order.MaxSlippageBps,
	}
	txSig, err := exClient.PlaceOrder(ctx, wire)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("exchange response: tx=%s\n", txSig)
}

func numericSelector(selector string) (int, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(selector))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func envOr(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func networkName(mainnet bool) string {
	if mainnet {
		return "mainnet"
	}
	return "testnet"
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
