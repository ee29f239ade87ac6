package feature

import "time"

// Clock supplies the current time. Injecting it keeps date-window checks,
// gradual rollout math and cache expiry deterministic under test.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }
