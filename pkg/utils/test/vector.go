package testutils

import (
	"context"

	"github.com/engramhq/engram/pkg/vector"
)

// MockVectorDriver is a test vector driver with configurable results and
// failure modes.
type MockVectorDriver struct {
	Documents []vector.Document
	Results   []vector.QueryResult

	// ProbeErr causes Probe to return this error
	ProbeErr error

	// QueryErr causes Query to return this error
	QueryErr error

	// ProbeCalls counts how many times Probe was invoked
	ProbeCalls int

	// QueryCalls counts how many times Query was invoked
	QueryCalls int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make([]vector.Document, 0),
		Results:   make([]vector.QueryResult, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.Documents = append(m.Documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int, threshold float32, types []string) ([]vector.QueryResult, error) {
	m.QueryCalls++

	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	results := make([]vector.QueryResult, 0, len(m.Results))
	for _, res := range m.Results {
		if res.Score < threshold {
			continue
		}
		if len(types) > 0 && !containsType(types, res.Type) {
			continue
		}
		results = append(results, res)
	}

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, _ []string) error {
	return nil
}

func (m *MockVectorDriver) Probe(_ context.Context) error {
	m.ProbeCalls++
	return m.ProbeErr
}

func (m *MockVectorDriver) Close() error {
	return nil
}

func containsType(types []string, t string) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
