package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func lookupFrom(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestParseEnv(t *testing.T) {
	t.Parallel()

	lookup := lookupFrom(map[string]string{
		"STRING":   "value",
		"INT":      "42",
		"BAD_INT":  "forty-two",
		"BOOL":     "false",
		"BAD_BOOL": "nope",
		"DURATION": "1500",
		"EMPTY":    "",
	})

	assert.Equal(t, "value", ParseEnv(lookup, "STRING", "default"))
	assert.Equal(t, 42, ParseEnv(lookup, "INT", 1))
	assert.Equal(t, 1, ParseEnv(lookup, "BAD_INT", 1))
	assert.Equal(t, false, ParseEnv(lookup, "BOOL", true))
	assert.Equal(t, true, ParseEnv(lookup, "BAD_BOOL", true))
	assert.Equal(t, 1500*time.Millisecond, ParseEnv(lookup, "DURATION", time.Second))
	assert.Equal(t, time.Second, ParseEnv(lookup, "STRING", time.Second))
	assert.Equal(t, "default", ParseEnv(lookup, "EMPTY", "default"))
	assert.Equal(t, "default", ParseEnv(lookup, "MISSING", "default"))
}

func TestParseEnv_DurationOverflow(t *testing.T) {
	t.Parallel()

	lookup := lookupFrom(map[string]string{
		"TOO_LARGE":    "9300000000000",
		"TOO_SMALL":    "-9300000000000",
		"LARGEST":      strconv.FormatInt(maxDurationMillis, 10),
		"OUT_OF_INT64": "99999999999999999999",
	})

	assert.Equal(t, time.Second, ParseEnv(lookup, "TOO_LARGE", time.Second))
	assert.Equal(t, time.Second, ParseEnv(lookup, "TOO_SMALL", time.Second))
	assert.Equal(t, time.Second, ParseEnv(lookup, "OUT_OF_INT64", time.Second))
	assert.Equal(t, time.Duration(maxDurationMillis)*time.Millisecond, ParseEnv(lookup, "LARGEST", time.Second))
}
