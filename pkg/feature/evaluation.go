package feature

import (
	"strconv"
	"time"
)

// Reason codes attached to every evaluation outcome. Dynamic reasons
// (percentage value, matched attribute) are produced by the helpers below.
const (
	ReasonFlagNotFound           = "flag_not_found"
	ReasonFlagInactive           = "flag_inactive"
	ReasonEnvironmentNotTargeted = "environment_not_targeted"
	ReasonBeforeStartDate        = "before_start_date"
	ReasonAfterEndDate           = "after_end_date"
	ReasonPercentage100          = "percentage_100"
	ReasonPercentage0            = "percentage_0"
	ReasonUserListMatch          = "user_list_match"
	ReasonUserListNoMatch        = "user_list_no_match"
	ReasonNoUserListOrContext    = "no_user_list_or_context"
	ReasonNoTargetingRuleMatch   = "no_targeting_rule_match"
	ReasonCanaryUserList         = "canary_user_list"
	ReasonCanaryNoMatch          = "canary_no_match"
	ReasonUnknownStrategy        = "unknown_strategy"
	ReasonStoreUnavailable       = "store_unavailable"
	ReasonDisabledByDefault      = "disabled_by_default"
	ReasonStrategyNotConfigured  = "strategy_not_configured"
)

func percentageReason(pct float64) string {
	return "percentage_" + strconv.FormatFloat(pct, 'f', -1, 64)
}

func targetingMatchReason(attribute string) string {
	return "targeting_rule_match_" + attribute
}

// Evaluation is the outcome of checking a flag against a user context and
// environment at a point in time. It is produced fresh per call and only
// persisted through the analytics recorder.
type Evaluation struct {
	FlagName    string    `json:"flag_name"`
	Enabled     bool      `json:"enabled"`
	Variant     string    `json:"variant,omitempty"`
	Value       Value     `json:"value,omitzero"`
	Reason      string    `json:"reason"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
