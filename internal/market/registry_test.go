package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"perp-trade-panel/internal/venue/rest"

	"go.uber.org/zap"
)

func marketsServer(t *testing.T, payload any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["type"] != "perpMarkets" {
			t.Errorf("unexpected info type %v", req["type"])
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func listing() []any {
	return []any{
		map[string]any{"index": 0, "symbol": "SOL-PERP", "maxLeverage": 10},
		map[string]any{"index": 1, "symbol": "BTC-PERP", "maxLeverage": 20},
	}
}

func newRegistry(t *testing.T, serverURL string) *Registry {
	t.Helper()
	return NewRegistry(rest.New(serverURL, time.Second, zap.NewNop()), zap.NewNop())
}

func TestRefreshAndResolve(t *testing.T) {
	server := marketsServer(t, listing())
	defer server.Close()

	registry := newRegistry(t, server.URL)
	if err := registry.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	byIndex, ok := registry.Resolve("1")
	if !ok || byIndex.Symbol != "BTC-PERP" {
		t.Fatalf("resolve by index: %+v ok=%t", byIndex, ok)
	}
	bySymbol, ok := registry.Resolve("sol-perp")
	if !ok || bySymbol.Index != 0 {
		t.Fatalf("resolve by symbol: %+v ok=%t", bySymbol, ok)
	}
	if _, ok := registry.Resolve("DOGE-PERP"); ok {
		t.Fatal("unknown symbol resolved")
	}
	if _, ok := registry.Resolve(""); ok {
		t.Fatal("empty selector resolved")
	}
}

func TestRefreshWrappedListing(t *testing.T) {
	server := marketsServer(t, map[string]any{"markets": listing()})
	defer server.Close()

	registry := newRegistry(t, server.URL)
	if err := registry.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if m, ok := registry.ByIndex(0); !ok || m.MaxLeverage != 10 {
		t.Fatalf("ByIndex(0) = %+v ok=%t", m, ok)
	}
}

func TestRefreshMalformed(t *testing.T) {
	server := marketsServer(t, map[string]any{"nope": true})
	defer server.Close()

	registry := newRegistry(t, server.URL)
	if err := registry.Refresh(context.Background()); err == nil {
		t.Fatal("expected error for malformed listing")
	}
}

func TestRefreshEmptyListing(t *testing.T) {
	server := marketsServer(t, []any{})
	defer server.Close()

	registry := newRegistry(t, server.URL)
	if err := registry.Refresh(context.Background()); err == nil {
		t.Fatal("expected error for empty listing")
	}
}
