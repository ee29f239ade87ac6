package feature

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"time"
)

// Status is the lifecycle state of a flag. Only active flags evaluate to
// enabled; inactive and archived flags always resolve disabled.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

// Strategy names the rollout algorithm configured for a flag.
type Strategy string

const (
	StrategyPercentage    Strategy = "percentage"
	StrategyUserList      Strategy = "user_list"
	StrategyUserAttribute Strategy = "user_attribute"
	StrategyGradual       Strategy = "gradual"
	StrategyCanary        Strategy = "canary"
)

// Operator names the comparison applied by a targeting rule.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// TargetingRule is a predicate over a single user attribute. A flag using
// the user_attribute strategy is enabled when any of its rules match.
type TargetingRule struct {
	Attribute string   `json:"attribute" yaml:"attribute"`
	Operator  Operator `json:"operator" yaml:"operator"`
	Values    []string `json:"values" yaml:"values"`
}

// Variant is one weighted alternative returned for A/B testing. Weights
// across a flag's variants must sum to 100.
type Variant struct {
	Name   string  `json:"name" yaml:"name"`
	Value  Value   `json:"value" yaml:"value"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// RolloutConfig describes how an active flag is rolled out. Only the fields
// relevant to the chosen strategy need to be set; evaluation fails closed
// when a required field is missing.
type RolloutConfig struct {
	Strategy         Strategy        `json:"strategy" yaml:"strategy"`
	Percentage       *float64        `json:"percentage,omitempty" yaml:"percentage,omitempty"`
	UserIDs          []string        `json:"user_ids,omitempty" yaml:"user_ids,omitempty"`
	TargetingRules   []TargetingRule `json:"targeting_rules,omitempty" yaml:"targeting_rules,omitempty"`
	StartDate        *time.Time      `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate          *time.Time      `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	GradualIncrement *float64        `json:"gradual_increment,omitempty" yaml:"gradual_increment,omitempty"`
}

// Flag is a named feature switch with its rollout configuration. The name is
// the unique storage key; mutations are full-field, last write wins.
type Flag struct {
	Name         string         `json:"name" yaml:"name"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	Status       Status         `json:"status" yaml:"status"`
	DefaultValue Value          `json:"default_value,omitzero" yaml:"default_value,omitempty"`
	Rollout      *RolloutConfig `json:"rollout,omitempty" yaml:"rollout,omitempty"`
	Variants     []Variant      `json:"variants,omitempty" yaml:"variants,omitempty"`
	Environments []string       `json:"environments,omitempty" yaml:"environments,omitempty"`
	Tags         []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	CreatedBy    string         `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
	UpdatedBy    string         `json:"updated_by,omitempty" yaml:"updated_by,omitempty"`
}

// Flag names double as cache key prefixes, so the separator characters used
// by the evaluation cache are excluded.
var flagNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

const weightTolerance = 0.01

// Validate checks the flag invariants enforced at create/update time:
// well-formed name, known status, variant weights summing to 100 and a
// rollout configuration complete for its strategy. Evaluation relies on
// flags in the store having passed this check, but still fails closed on
// ones that did not.
func (f *Flag) Validate() error {
	if f == nil {
		return errors.Join(ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	if !flagNameRe.MatchString(f.Name) {
		return errors.Join(ErrInvalidFlag, fmt.Errorf("invalid flag name %q", f.Name))
	}
	switch f.Status {
	case StatusActive, StatusInactive, StatusArchived:
	default:
		return errors.Join(ErrInvalidFlag, fmt.Errorf("unknown status %q", f.Status))
	}
	if err := validateVariants(f.Variants); err != nil {
		return err
	}
	if f.Rollout != nil {
		if err := f.Rollout.validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateVariants(variants []Variant) error {
	if len(variants) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(variants))
	sum := 0.0
	for _, v := range variants {
		if v.Name == "" {
			return errors.Join(ErrInvalidFlag, errors.New("variant name cannot be empty"))
		}
		if _, dup := seen[v.Name]; dup {
			return errors.Join(ErrInvalidFlag, fmt.Errorf("duplicate variant name %q", v.Name))
		}
		seen[v.Name] = struct{}{}
		if v.Weight < 0 || v.Weight > 100 {
			return errors.Join(ErrInvalidFlag, fmt.Errorf("variant %q weight must be within [0,100]", v.Name))
		}
		sum += v.Weight
	}
	if math.Abs(sum-100) > weightTolerance {
		return errors.Join(ErrInvalidFlag, fmt.Errorf("variant weights must sum to 100, got %v", sum))
	}
	return nil
}

func (rc *RolloutConfig) validate() error {
	if rc.Percentage != nil && (*rc.Percentage < 0 || *rc.Percentage > 100) {
		return errors.Join(ErrInvalidFlag, errors.New("rollout percentage must be within [0,100]"))
	}
	if rc.StartDate != nil && rc.EndDate != nil && rc.EndDate.Before(*rc.StartDate) {
		return errors.Join(ErrInvalidFlag, errors.New("rollout end date precedes start date"))
	}

	switch rc.Strategy {
	case StrategyPercentage:
		if rc.Percentage == nil {
			return errors.Join(ErrInvalidFlag, errors.New("percentage strategy requires a percentage"))
		}
	case StrategyUserList:
		if len(rc.UserIDs) == 0 {
			return errors.Join(ErrInvalidFlag, errors.New("user_list strategy requires user ids"))
		}
	case StrategyUserAttribute:
		if len(rc.TargetingRules) == 0 {
			return errors.Join(ErrInvalidFlag, errors.New("user_attribute strategy requires targeting rules"))
		}
		for _, rule := range rc.TargetingRules {
			if err := rule.validate(); err != nil {
				return err
			}
		}
	case StrategyGradual:
		if rc.StartDate == nil {
			return errors.Join(ErrInvalidFlag, errors.New("gradual strategy requires a start date"))
		}
		if rc.GradualIncrement == nil || *rc.GradualIncrement <= 0 {
			return errors.Join(ErrInvalidFlag, errors.New("gradual strategy requires a positive daily increment"))
		}
	case StrategyCanary:
		if len(rc.UserIDs) == 0 && rc.Percentage == nil {
			return errors.Join(ErrInvalidFlag, errors.New("canary strategy requires user ids or a percentage"))
		}
	default:
		return errors.Join(ErrInvalidFlag, fmt.Errorf("unknown rollout strategy %q", rc.Strategy))
	}
	return nil
}

func (r TargetingRule) validate() error {
	if r.Attribute == "" {
		return errors.Join(ErrInvalidFlag, errors.New("targeting rule attribute cannot be empty"))
	}
	switch r.Operator {
	case OpEquals, OpNotEquals, OpIn, OpNotIn, OpContains, OpGreaterThan, OpLessThan:
	default:
		return errors.Join(ErrInvalidFlag, fmt.Errorf("unknown targeting operator %q", r.Operator))
	}
	if len(r.Values) == 0 {
		return errors.Join(ErrInvalidFlag, errors.New("targeting rule values cannot be empty"))
	}
	return nil
}

// Clone returns a deep copy so stores can hand out flags without sharing
// mutable slices with callers.
func (f *Flag) Clone() *Flag {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Variants = slices.Clone(f.Variants)
	cp.Environments = slices.Clone(f.Environments)
	cp.Tags = slices.Clone(f.Tags)
	if f.Rollout != nil {
		rc := *f.Rollout
		rc.UserIDs = slices.Clone(f.Rollout.UserIDs)
		rc.TargetingRules = slices.Clone(f.Rollout.TargetingRules)
		for i, rule := range rc.TargetingRules {
			rc.TargetingRules[i].Values = slices.Clone(rule.Values)
		}
		if f.Rollout.Percentage != nil {
			p := *f.Rollout.Percentage
			rc.Percentage = &p
		}
		if f.Rollout.GradualIncrement != nil {
			g := *f.Rollout.GradualIncrement
			rc.GradualIncrement = &g
		}
		if f.Rollout.StartDate != nil {
			t := *f.Rollout.StartDate
			rc.StartDate = &t
		}
		if f.Rollout.EndDate != nil {
			t := *f.Rollout.EndDate
			rc.EndDate = &t
		}
		cp.Rollout = &rc
	}
	return &cp
}
