package doctor

import "time"

// Check is one diagnostic. Run must not modify anything; repairs go through
// Fixer.
type Check interface {
	// Name is the stable identifier shown in reports, e.g. "store-permissions".
	Name() string

	// Category groups checks in output: "config", "store" or "system".
	Category() string

	Run() *CheckResult
}

// Runner runs checks in registration order.
type Runner struct {
	checks []Check
	now    func() time.Time
}

// NewRunner creates a runner with checks registered in order.
func NewRunner(checks ...Check) *Runner {
	return &Runner{
		checks: append(make([]Check, 0, len(checks)), checks...),
		now:    time.Now,
	}
}

// AddCheck appends c to the run order.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Checks returns the registered checks in run order.
func (r *Runner) Checks() []Check {
	return r.checks
}

// Run executes every check once and tallies the results.
func (r *Runner) Run() *Report {
	report := &Report{
		Timestamp: r.now().UTC(),
		Results:   make([]*CheckResult, 0, len(r.checks)),
	}
	for _, check := range r.checks {
		result := check.Run()
		report.Results = append(report.Results, result)
		report.Summary.add(result.Status)
	}
	return report
}

// Report is the outcome of one Runner.Run.
type Report struct {
	Timestamp time.Time      `json:"timestamp"`
	Results   []*CheckResult `json:"results"`
	Summary   Summary        `json:"summary"`
}

// HasErrors reports whether any check failed.
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings reports whether any check warned.
func (r *Report) HasWarnings() bool {
	return r.Summary.Warnings > 0
}

// Problems returns the warning and error results in run order.
func (r *Report) Problems() []*CheckResult {
	var problems []*CheckResult
	for _, result := range r.Results {
		if result.Status.IsProblem() {
			problems = append(problems, result)
		}
	}
	return problems
}
