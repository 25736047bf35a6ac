package exchange

// OrderWire is the venue's market-order payload: market index, side,
// exact integer base asset amount in micro-units, and the slippage cap
// in basis points. Order type and market type are fixed by this
// front end to market/perpetual.
type OrderWire struct {
	MarketIndex     int    `json:"m"`
	IsLong          bool   `json:"d"`
	BaseAssetAmount int64  `json:"s"`
	OrderType       string `json:"o"`
	MarketType      string `json:"k"`
	MaxSlippageBps  int    `json:"x"`
	Cloid           string `json:"c,omitempty"`
}

const (
	OrderTypeMarket    = "market"
	MarketTypePerp     = "perp"
	orderActionType    = "placeAndExecute"
	actionGroupingNone = "na"
)

type OrderAction struct {
	Type     string      `json:"type"`
	Orders   []OrderWire `json:"orders"`
	Grouping string      `json:"grouping"`
}

type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

type SignedAction struct {
	Action    any       `json:"action"`
	Nonce     uint64    `json:"nonce"`
	Signature Signature `json:"signature"`
	Account   string    `json:"account"`
}
