// Package feature implements a deterministic feature flag rollout and
// evaluation engine.
//
// Given a flag definition and an optional user context, the engine decides
// whether the feature is enabled, which A/B variant (if any) the user sees,
// and records the decision for analytics. Decisions are deterministic:
// bucketing uses a stable, seed-free FNV-1a hash of the user identifier, so
// the same user lands in the same bucket across processes and restarts, and
// variant selection shares that bucket.
//
// # Architecture
//
// The package is built around four concepts:
//
//  1. Flags - named switches with a rollout configuration, weighted variants
//     and environment targeting
//  2. The Evaluator - ordered checks (status, environment, date window,
//     strategy) producing an enabled decision and a reason code
//  3. Stores - persistence backends behind the Store interface (in-memory,
//     Redis, YAML-seeded)
//  4. The Service - the injected facade tying store, evaluation cache,
//     change notification and usage analytics together
//
// Rollout strategies: percentage, user_list, user_attribute (OR over
// targeting rules), gradual (time-driven percentage growth) and canary
// (user list with percentage fallback).
//
// # Failure semantics
//
// Evaluation never errors. A missing flag, a strategy with missing fields or
// an unreachable store all degrade to a disabled result carrying a reason
// code; store outages fall back to the last cached result when one exists.
// Validation errors surface only on the administrative path (create/update).
//
// # Usage
//
//	store, _ := feature.NewMemoryStore()
//	svc, err := feature.NewService(store)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer svc.Close()
//
//	err = svc.CreateFlag(ctx, &feature.Flag{
//		Name:   "new-checkout",
//		Status: feature.StatusActive,
//		Rollout: &feature.RolloutConfig{
//			Strategy:   feature.StrategyPercentage,
//			Percentage: ptr(25.0),
//		},
//	})
//
//	eval := svc.Evaluate(ctx, "new-checkout", feature.UserContext{UserID: "u42"}, "production")
//	if eval.Enabled {
//		// Show new checkout
//	}
//
// The GradualScheduler runs alongside the service and persists the advancing
// percentage of gradual flags:
//
//	sched, _ := feature.NewGradualScheduler(store,
//		feature.WithInvalidator(svc.InvalidateFlag),
//	)
//	go sched.Start(ctx)
package feature
