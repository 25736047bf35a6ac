package exchange

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func sampleAction() OrderAction {
	return OrderAction{
		Type: orderActionType,
		Orders: []OrderWire{{
			MarketIndex:     0,
			IsLong:          true,
			BaseAssetAmount: 2_500_000_000,
			OrderType:       OrderTypeMarket,
			MarketType:      MarketTypePerp,
			MaxSlippageBps:  50,
		}},
		Grouping: actionGroupingNone,
	}
}

func TestEncodeOrderActionDeterministic(t *testing.T) {
	first, err := EncodeOrderAction(sampleAction())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := EncodeOrderAction(sampleAction())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("identical actions must encode to identical bytes")
	}
}

func TestEncodeOrderActionRoundTrip(t *testing.T) {
	data, err := EncodeOrderAction(sampleAction())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := msgpack.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["type"] != orderActionType {
		t.Fatalf("type = %v", decoded["type"])
	}
	if decoded["grouping"] != actionGroupingNone {
		t.Fatalf("grouping = %v", decoded["grouping"])
	}
	orders, ok := decoded["orders"].([]any)
	if !ok || len(orders) != 1 {
		t.Fatalf("orders = %v", decoded["orders"])
	}
	order, ok := orders[0].(map[string]any)
	if !ok {
		t.Fatalf("order entry = %T", orders[0])
	}
	if _, present := order["c"]; present {
		t.Fatal("empty cloid must be omitted from the wire")
	}
	if order["o"] != OrderTypeMarket || order["k"] != MarketTypePerp {
		t.Fatalf("order/market type fields: %v", order)
	}
}

func TestEncodeOrderActionIncludesCloid(t *testing.T) {
	action := sampleAction()
	action.Orders[0].Cloid = "panel-test"
	data, err := EncodeOrderAction(action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := msgpack.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	order := decoded["orders"].([]any)[0].(map[string]any)
	if order["c"] != "panel-test" {
		t.Fatalf("cloid = %v", order["c"])
	}
}

func TestEncodeOrderActionValidation(t *testing.T) {
	if _, err := EncodeOrderAction(OrderAction{Orders: []OrderWire{{OrderType: OrderTypeMarket, MarketType: MarketTypePerp}}}); err == nil {
		t.Fatal("expected error for missing action type")
	}
	if _, err := EncodeOrderAction(OrderAction{Type: orderActionType}); err == nil {
		t.Fatal("expected error for empty orders")
	}
	bad := sampleAction()
	bad.Orders[0].OrderType = ""
	if _, err := EncodeOrderAction(bad); err == nil {
		t.Fatal("expected error for missing order type")
	}
}
