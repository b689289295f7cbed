package entity

const ExhaustedMessage = "Maximum steps reached. Task may be incomplete."

type RunOutcome string

const (
	RunFinished  RunOutcome = "finished"
	RunExhausted RunOutcome = "exhausted"
	RunFailed    RunOutcome = "error"
)

type RunResult struct {
	FinalAnswer string
	Iterations  int
	Outcome     RunOutcome
}
