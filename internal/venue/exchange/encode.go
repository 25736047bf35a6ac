package exchange

import (
	"bytes"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeOrderAction produces the canonical msgpack bytes the venue
// hashes before signature verification. Field order is part of the
// protocol and must not change.
func EncodeOrderAction(action OrderAction) ([]byte, error) {
	if action.Type == "" {
		return nil, errors.New("action type is required")
	}
	if len(action.Orders) == 0 {
		return nil, errors.New("action orders are required")
	}
	if action.Grouping == "" {
		action.Grouping = actionGroupingNone
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(3); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("type"); err != nil {
		return nil, err
	}
	if err := enc.EncodeString(action.Type); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("orders"); err != nil {
		return nil, err
	}
	if err := enc.EncodeArrayLen(len(action.Orders)); err != nil {
		return nil, err
	}
	for _, order := range action.Orders {
		if err := encodeOrderWire(enc, order); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeString("grouping"); err != nil {
		return nil, err
	}
	if err := enc.EncodeString(action.Grouping); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeOrderWire(enc *msgpack.Encoder, order OrderWire) error {
	if order.OrderType == "" || order.MarketType == "" {
		return errors.New("order type and market type are required")
	}
	mapLen := 6
	if order.Cloid != "" {
		mapLen++
	}
	if err := enc.EncodeMapLen(mapLen); err != nil {
		return err
	}
	if err := enc.EncodeString("m"); err != nil {
		return err
	}
	if err := enc.EncodeInt(int64(order.MarketIndex)); err != nil {
		return err
	}
	if err := enc.EncodeString("d"); err != nil {
		return err
	}
	if err := enc.EncodeBool(order.IsLong); err != nil {
		return err
	}
	if err := enc.EncodeString("s"); err != nil {
		return err
	}
	if err := enc.EncodeInt(order.BaseAssetAmount); err != nil {
		return err
	}
	if err := enc.EncodeString("o"); err != nil {
		return err
	}
	if err := enc.EncodeString(order.OrderType); err != nil {
		return err
	}
	if err := enc.EncodeString("k"); err != nil {
		return err
	}
	if err := enc.EncodeString(order.MarketType); err != nil {
		return err
	}
	if err := enc.EncodeString("x"); err != nil {
		return err
	}
	if err := enc.EncodeInt(int64(order.MaxSlippageBps)); err != nil {
		return err
	}
	if order.Cloid != "" {
		if err := enc.EncodeString("c"); err != nil {
			return err
		}
		if err := enc.EncodeString(order.Cloid); err != nil {
			return err
		}
	}
	return nil
}
