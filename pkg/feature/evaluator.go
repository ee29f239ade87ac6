package feature

import (
	"math"
	"slices"
	"time"
)

// Evaluator decides whether a flag is enabled for a user context. It is
// stateless aside from the injected clock and safe for concurrent use.
type Evaluator struct {
	clock Clock
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorClock overrides the time source used for date-window checks
// and gradual rollout math.
func WithEvaluatorClock(clock Clock) EvaluatorOption {
	return func(e *Evaluator) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewEvaluator creates a rollout evaluator.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{clock: systemClock}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the ordered rollout checks and returns the enabled decision
// with its reason code. Checks short-circuit on the first failure: status,
// environment targeting, date window, then strategy dispatch. Misconfigured
// strategies fail closed rather than erroring.
func (e *Evaluator) Evaluate(flag *Flag, user UserContext, environment string) (bool, string) {
	if flag.Status != StatusActive {
		return false, ReasonFlagInactive
	}
	// An empty environment set means the flag is not restricted by
	// environment.
	if len(flag.Environments) > 0 && !slices.Contains(flag.Environments, environment) {
		return false, ReasonEnvironmentNotTargeted
	}

	if flag.Rollout == nil {
		return false, ReasonDisabledByDefault
	}

	now := e.clock()
	if flag.Rollout.StartDate != nil && now.Before(*flag.Rollout.StartDate) {
		return false, ReasonBeforeStartDate
	}
	if flag.Rollout.EndDate != nil && now.After(*flag.Rollout.EndDate) {
		return false, ReasonAfterEndDate
	}

	switch flag.Rollout.Strategy {
	case StrategyPercentage:
		if flag.Rollout.Percentage == nil {
			return false, ReasonStrategyNotConfigured
		}
		return evaluatePercentage(*flag.Rollout.Percentage, user)
	case StrategyUserList:
		return evaluateUserList(flag.Rollout.UserIDs, user)
	case StrategyUserAttribute:
		if len(flag.Rollout.TargetingRules) == 0 {
			return false, ReasonStrategyNotConfigured
		}
		if attr, ok := matchTargetingRules(flag.Rollout.TargetingRules, user); ok {
			return true, targetingMatchReason(attr)
		}
		return false, ReasonNoTargetingRuleMatch
	case StrategyGradual:
		if flag.Rollout.StartDate == nil || flag.Rollout.GradualIncrement == nil {
			return false, ReasonStrategyNotConfigured
		}
		pct := gradualPercentage(*flag.Rollout.GradualIncrement, *flag.Rollout.StartDate, now)
		return evaluatePercentage(pct, user)
	case StrategyCanary:
		return evaluateCanary(flag.Rollout, user)
	default:
		return false, ReasonUnknownStrategy
	}
}

// SelectVariant picks the weighted variant for an enabled evaluation. The
// bucket is the same one computed for the rollout decision, so a user's
// enablement and variant stay correlated. Selection walks the variants in
// stored order accumulating weight and picks the first one whose cumulative
// weight exceeds the bucket; rounding shortfalls fall back to the first
// variant.
func SelectVariant(variants []Variant, bucket int) (Variant, bool) {
	if len(variants) == 0 {
		return Variant{}, false
	}
	cumulative := 0.0
	for _, v := range variants {
		cumulative += v.Weight
		if float64(bucket) < cumulative {
			return v, true
		}
	}
	return variants[0], true
}

// BucketFor returns the rollout bucket for the user context, sampling
// randomly for anonymous callers.
func BucketFor(user UserContext) int {
	if user.Anonymous() {
		return randomBucket()
	}
	return Bucket(user.UserID)
}

func evaluatePercentage(pct float64, user UserContext) (bool, string) {
	if pct >= 100 {
		return true, ReasonPercentage100
	}
	if pct <= 0 {
		return false, ReasonPercentage0
	}
	return float64(BucketFor(user)) < pct, percentageReason(pct)
}

func evaluateUserList(userIDs []string, user UserContext) (bool, string) {
	if len(userIDs) == 0 || user.Anonymous() {
		return false, ReasonNoUserListOrContext
	}
	if slices.Contains(userIDs, user.UserID) {
		return true, ReasonUserListMatch
	}
	return false, ReasonUserListNoMatch
}

func evaluateCanary(rc *RolloutConfig, user UserContext) (bool, string) {
	if !user.Anonymous() && slices.Contains(rc.UserIDs, user.UserID) {
		return true, ReasonCanaryUserList
	}
	if rc.Percentage != nil {
		if enabled, reason := evaluatePercentage(*rc.Percentage, user); enabled {
			return true, reason
		}
	}
	return false, ReasonCanaryNoMatch
}

// gradualPercentage computes the effective rollout percentage of a gradual
// flag: increment percent per elapsed day since the start date, capped at
// 100. Elapsed time is fractional so the percentage climbs continuously
// rather than stepping at midnight.
func gradualPercentage(incrementPerDay float64, start, now time.Time) float64 {
	if now.Before(start) {
		return 0
	}
	days := now.Sub(start).Hours() / 24
	return math.Min(incrementPerDay*days, 100)
}
