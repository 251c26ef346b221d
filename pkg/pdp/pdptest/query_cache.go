package pdptest

import (
	"fmt"
	"sync"

	"github.com/open-policy-agent/opa/rego"
)

// queryCache keeps prepared queries per data path until the next policy
// load invalidates them.
type queryCache struct {
	sync.Mutex
	cache map[string]*rego.PreparedEvalQuery
}

func newQueryCache() *queryCache {
	return &queryCache{cache: map[string]*rego.PreparedEvalQuery{}}
}

func (qc *queryCache) Get(key string, orElse func(string) (*rego.PreparedEvalQuery, error)) (*rego.PreparedEvalQuery, error) {
	qc.Lock()
	defer qc.Unlock()

	result, ok := qc.cache[key]
	if ok {
		return result, nil
	}

	result, err := orElse(key)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query %s: %w", key, err)
	}

	qc.cache[key] = result
	return result, nil
}

func (qc *queryCache) Len() int {
	qc.Lock()
	defer qc.Unlock()

	return len(qc.cache)
}

func (qc *queryCache) Clear() {
	qc.Lock()
	defer qc.Unlock()

	qc.cache = make(map[string]*rego.PreparedEvalQuery)
}
