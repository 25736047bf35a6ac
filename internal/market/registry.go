package market

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"perp-trade-panel/internal/venue/rest"

	"go.uber.org/zap"
)

// Market is one perpetual market listed on the venue.
type Market struct {
	Index       int
	Symbol      string
	MaxLeverage int
}

// Registry resolves user market selectors (index or symbol) against
// the venue's perp market listing.
type Registry struct {
	rest *rest.Client
	log  *zap.Logger

	mu          sync.RWMutex
	byIndex     map[int]Market
	bySymbol    map[string]Market
	refreshedAt time.Time
}

func NewRegistry(restClient *rest.Client, log *zap.Logger) *Registry {
	return &Registry{
		rest:     restClient,
		log:      log,
		byIndex:  make(map[int]Market),
		bySymbol: make(map[string]Market),
	}
}

// Refresh replaces the listing from the venue's info endpoint.
func (r *Registry) Refresh(ctx context.Context) error {
	raw, err := r.rest.InfoAny(ctx, rest.InfoRequest{Type: "perpMarkets"})
	if err != nil {
		return err
	}
	markets, err := parseMarkets(raw)
	if err != nil {
		return err
	}
	byIndex := make(map[int]Market, len(markets))
	bySymbol := make(map[string]Market, len(markets))
	for _, m := range markets {
		byIndex[m.Index] = m
		bySymbol[strings.ToUpper(m.Symbol)] = m
	}
	r.mu.Lock()
	r.byIndex = byIndex
	r.bySymbol = bySymbol
	r.refreshedAt = time.Now().UTC()
	r.mu.Unlock()
	return nil
}

// Resolve accepts either a market index ("0") or a symbol ("SOL-PERP",
// case-insensitive).
func (r *Registry) Resolve(selector string) (Market, bool) {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return Market{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx, err := strconv.Atoi(trimmed); err == nil {
		m, ok := r.byIndex[idx]
		return m, ok
	}
	m, ok := r.bySymbol[strings.ToUpper(trimmed)]
	return m, ok
}

func (r *Registry) ByIndex(index int) (Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byIndex[index]
	return m, ok
}

func parseMarkets(raw any) ([]Market, error) {
	entries, ok := raw.([]any)
	if !ok {
		if wrapped, isMap := raw.(map[string]any); isMap {
			entries, ok = wrapped["markets"].([]any)
		}
		if !ok {
			return nil, errors.New("malformed perpMarkets response")
		}
	}
	out := make([]Market, 0, len(entries))
	for _, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		symbol := stringFromAny(fields["symbol"])
		if symbol == "" {
			continue
		}
		out = append(out, Market{
			Index:       intFromAny(fields["index"]),
			Symbol:      symbol,
			MaxLeverage: intFromAny(fields["maxLeverage"]),
		})
	}
	if len(out) == 0 {
		return nil, errors.New("perpMarkets response listed no markets")
	}
	return out, nil
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

func intFromAny(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	case string:
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
