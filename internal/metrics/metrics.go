package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AssignmentsTotal counts fresh variant assignments, labelled by
	// experiment and arm. Sticky recalls are not counted.
	AssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "experiment",
		Name:      "assignments_total",
		Help:      "Fresh variant assignments made, by test_id and variant.",
	}, []string{"test_id", "variant"})

	// RecordsPublishedTotal counts exposure/event records handed to the
	// publisher, by record kind.
	RecordsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "experiment",
		Name:      "records_published_total",
		Help:      "Exposure and event records published, by kind.",
	}, []string{"kind"})

	// PublishFailuresTotal counts records dropped because the publisher
	// returned an error. Recorders are best-effort, so these are the only
	// trace a dropped record leaves.
	PublishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "experiment",
		Name:      "publish_failures_total",
		Help:      "Records dropped due to publish errors, by kind.",
	}, []string{"kind"})
)
