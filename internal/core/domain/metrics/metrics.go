package metrics

type Outcome string

const (
	Success Outcome = "success"
	Failure Outcome = "failure"
)

type Recorder interface {
	Observe(operation string, outcome Outcome)
}
