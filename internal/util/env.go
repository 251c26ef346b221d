package util

import (
	"math"
	"strconv"
	"time"
)

const maxDurationMillis = math.MaxInt64 / int64(time.Millisecond)

type EnvType interface {
	string | int | bool | time.Duration
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(string) (string, bool)

// ParseEnv returns the value of envName parsed as T, or current when the
// variable is unset, empty or can't be parsed. Durations are read as whole
// milliseconds; values a time.Duration can't hold count as unparseable.
func ParseEnv[T EnvType](lookup LookupFunc, envName string, current T) T {
	value, ok := lookup(envName)
	if !ok || value == "" {
		return current
	}

	var ret any = current
	switch any(current).(type) {
	case string:
		ret = value
	case bool:
		b, err := strconv.ParseBool(value)
		if err == nil {
			ret = b
		}
	case int:
		i, err := strconv.Atoi(value)
		if err == nil {
			ret = i
		}
	case time.Duration:
		ms, err := strconv.ParseInt(value, 10, 64)
		if err == nil && ms <= maxDurationMillis && ms >= -maxDurationMillis {
			ret = time.Duration(ms) * time.Millisecond
		}
	}

	return ret.(T)
}
