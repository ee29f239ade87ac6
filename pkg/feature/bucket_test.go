package feature_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/rollout/pkg/feature"
)

func TestBucket(t *testing.T) {
	t.Parallel()

	t.Run("Range", func(t *testing.T) {
		t.Parallel()
		for i := 0; i < 1000; i++ {
			b := feature.Bucket(fmt.Sprintf("user-%d", i))
			assert.GreaterOrEqual(t, b, 0)
			assert.Less(t, b, 100)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		t.Parallel()
		first := feature.Bucket("user-42")
		for n := 0; n < 100; n++ {
			assert.Equal(t, first, feature.Bucket("user-42"))
		}
	})

	t.Run("SpreadsAcrossBuckets", func(t *testing.T) {
		t.Parallel()
		hits := make(map[int]int)
		for i := 0; i < 10000; i++ {
			hits[feature.Bucket(fmt.Sprintf("user-%d", i))]++
		}
		// FNV-1a mod 100 over 10k ids should touch every bucket.
		assert.Len(t, hits, 100)
		for bucket, n := range hits {
			assert.Greater(t, n, 30, "bucket %d underpopulated", bucket)
		}
	})
}

func TestBucketFor(t *testing.T) {
	t.Parallel()

	t.Run("NamedUserIsStable", func(t *testing.T) {
		t.Parallel()
		user := feature.UserContext{UserID: "u1"}
		assert.Equal(t, feature.Bucket("u1"), feature.BucketFor(user))
	})

	t.Run("AnonymousStaysInRange", func(t *testing.T) {
		t.Parallel()
		for n := 0; n < 1000; n++ {
			b := feature.BucketFor(feature.UserContext{})
			assert.GreaterOrEqual(t, b, 0)
			assert.Less(t, b, 100)
		}
	})
}
