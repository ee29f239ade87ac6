// Package notify distributes flag-change events between feature service
// instances.
//
// Every create, update or delete publishes a Change naming the flag and the
// operation. Subscribers (typically the evaluation cache of each instance)
// invalidate their local entries for that flag. Delivery is best-effort and
// at-most-once: the cache TTL bounds staleness when an event is missed, so
// consistency across instances is eventual by design.
//
// Two implementations are provided: MemoryBroadcaster for single-process
// deployments and tests, and RedisBroadcaster for fleets sharing a Redis
// instance.
package notify
