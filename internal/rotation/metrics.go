//nolint:gochecknoglobals
package rotation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invitationsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "benchline",
		Name:      "invitations_total",
		Help:      "The total number of invitations issued",
	}, []string{"tier", "position"})

	responsesMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "benchline",
		Name:      "responses_total",
		Help:      "The total number of invitation responses recorded",
	}, []string{"response"})

	exhaustedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "benchline",
		Name:      "cascade_exhausted_total",
		Help:      "The total number of cascades that ran out of spares",
	}, []string{"position"})

	deliveryFailMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "benchline",
		Name:      "delivery_failures_total",
		Help:      "The total number of failed invitation deliveries",
	}, []string{"tier"})
)
