package metrics

import "time"

// Collector records supervisor lifecycle events
type Collector interface {
	// PathResolution records the outcome of computing the companion entry path
	PathResolution(mode string, err error)

	// LaunchAttempt records the single launch attempt and how long the spawn took
	LaunchAttempt(duration time.Duration, err error)

	// Termination records what the shutdown trigger did
	Termination(outcome string)

	// CompanionUp reports whether a companion process is currently held
	CompanionUp(up bool)

	// LifecycleTransition records a supervisor state change
	LifecycleTransition(from, to string)
}

type noopCollector struct{}

func (n *noopCollector) PathResolution(mode string, err error)           {}
func (n *noopCollector) LaunchAttempt(duration time.Duration, err error) {}
func (n *noopCollector) Termination(outcome string)                      {}
func (n *noopCollector) CompanionUp(up bool)                             {}
func (n *noopCollector) LifecycleTransition(from, to string)             {}

func NewNoopCollector() Collector {
	return &noopCollector{}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
