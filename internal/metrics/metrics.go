package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	OrdersSubmitted     Counter
	OrdersConfirmed     Counter
	OrdersFailed        Counter
	PreflightRejected   Counter
	SessionsInitialized Counter
	TeardownErrors      Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	return &Metrics{
		OrdersSubmitted:     noopCounter{},
		OrdersConfirmed:     noopCounter{},
		OrdersFailed:        noopCounter{},
		PreflightRejected:   noopCounter{},
		SessionsInitialized: noopCounter{},
		TeardownErrors:      noopCounter{},
	}
}
