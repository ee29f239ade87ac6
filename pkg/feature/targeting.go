package feature

import (
	"slices"
	"strconv"
	"strings"
)

// Matches evaluates a single targeting rule against the user context.
// Unresolved attributes and non-parseable numeric operands are non-matches;
// rule evaluation never errors.
func (r TargetingRule) Matches(user UserContext) bool {
	actual, ok := user.attribute(r.Attribute)
	if !ok {
		return false
	}

	switch r.Operator {
	case OpEquals, OpIn:
		return slices.Contains(r.Values, actual)
	case OpNotEquals, OpNotIn:
		return !slices.Contains(r.Values, actual)
	case OpContains:
		for _, v := range r.Values {
			if strings.Contains(actual, v) {
				return true
			}
		}
		return false
	case OpGreaterThan:
		lhs, rhs, ok := r.numericOperands(actual)
		return ok && lhs > rhs
	case OpLessThan:
		lhs, rhs, ok := r.numericOperands(actual)
		return ok && lhs < rhs
	default:
		return false
	}
}

// numericOperands parses the attribute value and the rule's first value for
// ordered comparison.
func (r TargetingRule) numericOperands(actual string) (float64, float64, bool) {
	if len(r.Values) == 0 {
		return 0, 0, false
	}
	lhs, err := strconv.ParseFloat(actual, 64)
	if err != nil {
		return 0, 0, false
	}
	rhs, err := strconv.ParseFloat(r.Values[0], 64)
	if err != nil {
		return 0, 0, false
	}
	return lhs, rhs, true
}

// matchTargetingRules applies OR semantics over the configured rules and
// returns the attribute of the first matching rule.
func matchTargetingRules(rules []TargetingRule, user UserContext) (string, bool) {
	for _, rule := range rules {
		if rule.Matches(user) {
			return rule.Attribute, true
		}
	}
	return "", false
}
