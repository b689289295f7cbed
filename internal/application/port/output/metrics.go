package output

import "time"

type MetricsPort interface {
	ObservePlanRequest(provider, status string, duration time.Duration)
	ObserveCommand(outcome string)
	ObserveRun(outcome string, iterations int)
	SetActiveSessions(n int)
}
