package pdptest

import (
	"errors"
	"testing"

	"github.com/open-policy-agent/opa/rego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache(t *testing.T) {
	t.Parallel()

	qc := newQueryCache()
	calls := 0
	prepare := func(string) (*rego.PreparedEvalQuery, error) {
		calls++
		return &rego.PreparedEvalQuery{}, nil
	}

	first, err := qc.Get("data.authz", prepare)
	require.NoError(t, err)
	second, err := qc.Get("data.authz", prepare)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, qc.Len())

	qc.Clear()
	assert.Zero(t, qc.Len())

	_, err = qc.Get("data.authz", prepare)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestQueryCache_ErrorIsNotCached(t *testing.T) {
	t.Parallel()

	qc := newQueryCache()
	errPrepare := errors.New("rego_parse_error")

	_, err := qc.Get("data.x", func(string) (*rego.PreparedEvalQuery, error) {
		return nil, errPrepare
	})

	assert.ErrorIs(t, err, errPrepare)
	assert.Zero(t, qc.Len())
}
