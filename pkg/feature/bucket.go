package feature

import (
	"hash/fnv"
	"math/rand"
)

// Bucket maps a user identifier onto [0,99] with FNV-1a. The hash is
// seed-free and stable across processes and restarts, so a given user lands
// in the same bucket everywhere; enablement and variant assignment stay
// consistent together because both decisions share the bucket.
func Bucket(userID string) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return int(h.Sum32() % 100)
}

// randomBucket samples a bucket for anonymous evaluations. Without an
// identity to key on there is nothing to keep stable, so each call rolls
// independently.
func randomBucket() int {
	return rand.Intn(100)
}
