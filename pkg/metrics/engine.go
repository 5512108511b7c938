package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics counts trigger pipeline activity by event name.
type EngineMetrics struct {
	eventsTriggered   *prometheus.CounterVec
	rulesFired        *prometheus.CounterVec
	sequencesEnrolled *prometheus.CounterVec
	sequencesExited   *prometheus.CounterVec
}

// NewEngineMetrics registers the trigger pipeline counters on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	eventsTriggered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_triggered_total",
		Help: "Business events handled by the trigger pipeline.",
	}, []string{"event_name"})
	rulesFired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rules_fired_total",
		Help: "Automation rules that produced a scheduled message.",
	}, []string{"event_name"})
	sequencesEnrolled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sequences_enrolled_total",
		Help: "Contacts enrolled into sequences.",
	}, []string{"event_name"})
	sequencesExited := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sequences_exited_total",
		Help: "Enrollments cancelled by exit events.",
	}, []string{"event_name"})
	reg.MustRegister(eventsTriggered, rulesFired, sequencesEnrolled, sequencesExited)
	return &EngineMetrics{
		eventsTriggered:   eventsTriggered,
		rulesFired:        rulesFired,
		sequencesEnrolled: sequencesEnrolled,
		sequencesExited:   sequencesExited,
	}
}

// ObserveTrigger records the outcome of one TriggerEvent call.
func (e *EngineMetrics) ObserveTrigger(eventName string, rulesFired, enrolled, exited int) {
	if e == nil || e.eventsTriggered == nil {
		return
	}
	label := normalizeLabel(eventName)
	e.eventsTriggered.WithLabelValues(label).Inc()
	e.rulesFired.WithLabelValues(label).Add(float64(rulesFired))
	e.sequencesEnrolled.WithLabelValues(label).Add(float64(enrolled))
	e.sequencesExited.WithLabelValues(label).Add(float64(exited))
}
