package feature

import (
	"fmt"
	"strconv"
	"time"
)

// UserContext carries the identity and attributes a flag is evaluated
// against. A zero UserID means an anonymous caller; percentage rollouts then
// sample randomly per call since there is no identity to bucket on. The
// struct is treated as immutable for the duration of an evaluation.
type UserContext struct {
	UserID     string         `json:"user_id,omitempty"`
	Email      string         `json:"email,omitempty"`
	Role       string         `json:"role,omitempty"`
	Plan       string         `json:"plan,omitempty"`
	Country    string         `json:"country,omitempty"`
	CreatedAt  time.Time      `json:"created_at,omitzero"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Anonymous reports whether the context has no user identity.
func (u UserContext) Anonymous() bool { return u.UserID == "" }

// attribute resolves a targeting attribute, built-in fields first, then the
// free-form attribute map. Unresolved attributes report false and the
// calling rule does not match.
func (u UserContext) attribute(name string) (string, bool) {
	switch name {
	case "user_id":
		return u.UserID, u.UserID != ""
	case "email":
		return u.Email, u.Email != ""
	case "role":
		return u.Role, u.Role != ""
	case "plan":
		return u.Plan, u.Plan != ""
	case "country":
		return u.Country, u.Country != ""
	case "created_at":
		if u.CreatedAt.IsZero() {
			return "", false
		}
		return u.CreatedAt.Format(time.RFC3339), true
	}
	raw, ok := u.Attributes[name]
	if !ok || raw == nil {
		return "", false
	}
	return stringify(raw), true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
