package types

// ProblemType is the classified category of a diagnosed problem.
// Domain modules may define additional types; these are the generic ones
// the classifier can produce on its own.
type ProblemType string

const (
	ProblemCrashError    ProblemType = "crash_error"
	ProblemPerformance   ProblemType = "performance"
	ProblemBrokenFeature ProblemType = "broken_functionality"
	ProblemUnknown       ProblemType = "unknown"
)

// String returns the string representation of the problem type
func (p ProblemType) String() string {
	return string(p)
}

// RootCause is the category of root cause a problem type maps to
type RootCause string

const (
	RootCauseErrorHandling RootCause = "error_handling"
	RootCauseResources     RootCause = "resource_optimization"
	RootCauseLogicFault    RootCause = "logic_fault"
	RootCauseUnknown       RootCause = "unknown"
)

// String returns the string representation of the root cause
func (r RootCause) String() string {
	return string(r)
}

// Indicator is a boolean signal extracted from evidence text by the classifier
type Indicator string

const (
	IndicatorHasError       Indicator = "has_error"
	IndicatorSystemFailure  Indicator = "system_failure"
	IndicatorPerformance    Indicator = "performance_issue"
	IndicatorBrokenFunction Indicator = "functionality_broken"
	IndicatorNothingWorks   Indicator = "nothing_works"
	IndicatorManyAttempts   Indicator = "multiple_attempts"
	IndicatorTimeCritical   Indicator = "time_critical"
)

// String returns the string representation of the indicator
func (i Indicator) String() string {
	return string(i)
}
