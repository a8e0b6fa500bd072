package ports

// Metrics records outcome counters for the public flows.
type Metrics interface {
	ObserveIssuance(outcome string)
	ObserveRedemption(outcome string)
	ObserveSubmission(kind, outcome string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveIssuance(string)           {}
func (NopMetrics) ObserveRedemption(string)         {}
func (NopMetrics) ObserveSubmission(string, string) {}
