package classifier

import (
	"regexp"
	"strings"

	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// Result is the outcome of classifying a problem from evidence
type Result struct {
	ProblemType    types.ProblemType
	Confidence     float64
	SecondaryTypes []types.ProblemType
	RootCause      types.RootCause
	Indicators     []types.Indicator
}

// Classifier maps an observation plus optional baseline to a problem
// category. The keyword families, priority order, and confidence formula
// are fixed contracts: downstream scoring and the decision policy depend
// on these exact values.
type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

const (
	baseConfidence = 0.3
	perIndicator   = 0.15
	maxConfidence  = 0.95
)

// Classify derives the problem type, confidence, and root cause category
// for an observation. The baseline may be nil; classification then runs
// on observation text alone with correspondingly fewer indicators.
func (c *Classifier) Classify(domain string, observation model.Observation, baseline *model.Baseline) Result {
	indicators := extractIndicators(observation, baseline)
	primary, secondary := mapProblemType(indicators)

	confidence := baseConfidence + perIndicator*float64(len(indicators))
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return Result{
		ProblemType:    primary,
		Confidence:     confidence,
		SecondaryTypes: secondary,
		RootCause:      rootCauseOf(primary),
		Indicators:     indicators,
	}
}

// extractIndicators scans the observation text case-insensitively for the
// fixed keyword families, then adds baseline-derived signals.
func extractIndicators(observation model.Observation, baseline *model.Baseline) []types.Indicator {
	var indicators []types.Indicator

	text := strings.ToLower(observation.Description)
	if strings.Contains(text, "error") {
		indicators = append(indicators, types.IndicatorHasError)
	}
	if strings.Contains(text, "crash") || strings.Contains(text, "hang") {
		indicators = append(indicators, types.IndicatorSystemFailure)
	}
	if strings.Contains(text, "slow") || strings.Contains(text, "performance") {
		indicators = append(indicators, types.IndicatorPerformance)
	}
	if strings.Contains(text, "won't") || strings.Contains(text, "doesn't") {
		indicators = append(indicators, types.IndicatorBrokenFunction)
	}

	if baseline != nil {
		if len(baseline.WhatWorks) == 0 {
			indicators = append(indicators, types.IndicatorNothingWorks)
		}
		if len(baseline.PreviousAttempts) > 3 {
			indicators = append(indicators, types.IndicatorManyAttempts)
		}
		for _, constraint := range baseline.Constraints {
			if constraint.Type == types.ConstraintTime && constraint.Severity == types.SeverityHigh {
				indicators = append(indicators, types.IndicatorTimeCritical)
				break
			}
		}
	}

	return indicators
}

// mapProblemType applies the priority table. crash_error must be checked
// first: a crashing system also shows performance-like symptoms, and the
// first match wins. Candidates below the winner become secondary types.
func mapProblemType(indicators []types.Indicator) (types.ProblemType, []types.ProblemType) {
	has := make(map[types.Indicator]bool, len(indicators))
	for _, ind := range indicators {
		has[ind] = true
	}

	var candidates []types.ProblemType
	if has[types.IndicatorHasError] && has[types.IndicatorSystemFailure] {
		candidates = append(candidates, types.ProblemCrashError)
	}
	if has[types.IndicatorPerformance] {
		candidates = append(candidates, types.ProblemPerformance)
	}
	if has[types.IndicatorBrokenFunction] {
		candidates = append(candidates, types.ProblemBrokenFeature)
	}

	if len(candidates) == 0 {
		return types.ProblemUnknown, nil
	}
	return candidates[0], candidates[1:]
}

func rootCauseOf(p types.ProblemType) types.RootCause {
	switch p {
	case types.ProblemCrashError:
		return types.RootCauseErrorHandling
	case types.ProblemPerformance:
		return types.RootCauseResources
	case types.ProblemBrokenFeature:
		return types.RootCauseLogicFault
	default:
		return types.RootCauseUnknown
	}
}

var toolPattern = regexp.MustCompile(`(?i)tool|framework|library|platform`)

// ExtractConstraints derives constraints the baseline implies but the
// user did not state: heavy retrying implies time pressure, and failed
// items naming a tool imply a tooling restriction.
func (c *Classifier) ExtractConstraints(baseline *model.Baseline) []model.ConstraintInfo {
	if baseline == nil {
		return nil
	}

	var constraints []model.ConstraintInfo

	if len(baseline.PreviousAttempts) > 5 {
		constraints = append(constraints, model.ConstraintInfo{
			Type:     types.ConstraintTime,
			Value:    "limited - multiple attempts already made",
			Severity: types.SeverityHigh,
		})
	}

	for _, item := range baseline.WhatDoesntWork {
		if toolPattern.MatchString(item) {
			constraints = append(constraints, model.ConstraintInfo{
				Type:     types.ConstraintTools,
				Value:    "Cannot use: " + item,
				Severity: types.SeverityMedium,
			})
		}
	}

	return constraints
}

// DetectMisconceptions flags signals that the user is guessing instead of
// diagnosing: hedging language in the observation, or repeated attempts
// with documented failures and no narrowing.
func (c *Classifier) DetectMisconceptions(observation model.Observation, baseline *model.Baseline) []string {
	var misconceptions []string

	if strings.Contains(observation.Description, "assume") || strings.Contains(observation.Description, "probably") {
		misconceptions = append(misconceptions, "User is making assumptions rather than verifying")
	}

	if baseline != nil && len(baseline.PreviousAttempts) > 3 && len(baseline.WhatDoesntWork) > 0 {
		misconceptions = append(misconceptions, "Trying solutions without diagnosing root cause")
	}

	return misconceptions
}
