package util

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

var (
	jitterMtx sync.Mutex
	// NOTE: We don't need good random numbers here; it's only used for
	// jittering the retry timing a bit.
	jitterRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Backoff returns the delay before retry number `retries` (1 is the first
// retry). The first retry waits base, each following retry multiplies the
// delay by factor until max is reached. A jitter > 0 randomizes the delay
// by +/- jitter*delay, but the result never leaves [0, max].
func Backoff(base, max time.Duration, jitter, factor float64, retries int) time.Duration {
	if retries <= 0 || base <= 0 {
		return 0
	}
	if factor < 1 {
		factor = 1
	}

	backoff, limit := float64(base), float64(max)
	for (limit <= 0 || backoff < limit) && retries > 1 {
		backoff *= factor
		retries--
	}
	if limit > 0 && backoff > limit {
		backoff = limit
	}

	// Randomize backoff delays so that if a cluster of requests start at
	// the same time, they won't operate in lockstep.
	if jitter > 0 {
		jitterMtx.Lock()
		backoff *= 1 + jitter*(jitterRand.Float64()*2-1)
		jitterMtx.Unlock()
	}

	if backoff <= 0 {
		return 0
	}
	if backoff >= math.MaxInt64 {
		if max > 0 {
			return max
		}
		return math.MaxInt64
	}

	// compare as durations, float rounding can land a few ns past max
	d := time.Duration(backoff)
	if max > 0 && d > max {
		return max
	}
	return d
}
