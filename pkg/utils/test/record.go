package testutils

import (
	"time"

	"github.com/engramhq/engram/pkg/record"
)

// NewTestRecord creates a simple record for testing
func NewTestRecord(name, recordType string, observations ...string) *record.Record {
	now := time.Now().UTC()

	obs := make([]record.Observation, 0, len(observations))
	for _, content := range observations {
		obs = append(obs, record.Observation{Content: content, CreatedAt: now})
	}

	return &record.Record{
		Name:         name,
		Type:         recordType,
		Observations: obs,
	}
}
