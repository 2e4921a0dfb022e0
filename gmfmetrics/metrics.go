// Package gmfmetrics exposes per-pipeline/element Prometheus counters and
// gauges, grounded on the linkerd2 corpus's
// multicluster/service-mirror/metrics.go idiom: promauto-registered
// CounterVec/GaugeVec keyed by a small set of label names, with a
// per-instance view obtained by currying labels once up front.
package gmfmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	labelPipeline = "pipeline"
	labelElement  = "element"
	labelPort     = "port"
	labelSub      = "sub_state"
)

var (
	stateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmf_element_state_transitions_total",
			Help: "Number of element state-change events observed, by resulting sub-state.",
		},
		[]string{labelPipeline, labelElement, labelSub},
	)

	portBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmf_port_bytes_total",
			Help: "Bytes released through a port's data bus.",
		},
		[]string{labelPipeline, labelElement, labelPort},
	)

	jobRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gmf_job_retries_total",
			Help: "Number of JOB_TRUNCATE/timeout reschedules observed for an element.",
		},
		[]string{labelPipeline, labelElement},
	)

	pipelineState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gmf_pipeline_state",
			Help: "Current pipeline state as its element.State ordinal.",
		},
		[]string{labelPipeline},
	)
)

// PipelineRecorder is the per-pipeline curried view handed to a
// pipeline.Event callback, so call sites never repeat label values.
type PipelineRecorder struct {
	tag string
}

// NewPipelineRecorder returns a recorder scoped to pipeline tag.
func NewPipelineRecorder(tag string) *PipelineRecorder {
	return &PipelineRecorder{tag: tag}
}

// ObserveStateChange increments the transition counter for element and
// records the pipeline's new overall state.
func (r *PipelineRecorder) ObserveStateChange(element string, sub string, pipelineOrdinal int) {
	stateTransitions.WithLabelValues(r.tag, element, sub).Inc()
	pipelineState.WithLabelValues(r.tag).Set(float64(pipelineOrdinal))
}

// ObserveBytes adds n to the running total moved through element's port.
func (r *PipelineRecorder) ObserveBytes(element, port string, n int) {
	if n <= 0 {
		return
	}
	portBytes.WithLabelValues(r.tag, element, port).Add(float64(n))
}

// ObserveRetry increments the reschedule counter for element.
func (r *PipelineRecorder) ObserveRetry(element string) {
	jobRetries.WithLabelValues(r.tag, element).Inc()
}
