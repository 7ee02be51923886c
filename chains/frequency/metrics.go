package frequency

import "github.com/prometheus/client_golang/prometheus"

var (
	txTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "transactions_total",
		Help:      "Submitted transactions by call and outcome.",
	}, []string{"call", "outcome"})

	blockHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashboard",
		Name:      "block_height",
		Help:      "Latest block number seen on the connected node.",
	})
)

// RegisterMetrics adds the dashboard collectors to reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{txTotal, blockHeight} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
