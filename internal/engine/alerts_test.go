package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade/internal/api/models"
	"cascade/pkg"
)

func TestClassifyGenerationError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"404 is unavailable", &pkg.ChatError{StatusCode: 404, Message: "not found"}, true},
		{"410 is unavailable", &pkg.ChatError{StatusCode: 410, Message: "gone"}, true},
		{"400 mentioning model", &pkg.ChatError{StatusCode: 400, Message: `model "llama9" not found`}, true},
		{"400 unrelated", &pkg.ChatError{StatusCode: 400, Message: "bad payload"}, false},
		{"500 is not unavailable", &pkg.ChatError{StatusCode: 500, Message: "boom"}, false},
		{"plain error", errors.New("timeout"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := ClassifyGenerationError(tc.err, "llama9", "acme", "wf", "n1")
			if !tc.want {
				assert.Nil(t, event)
				return
			}
			require.NotNil(t, event)
			assert.Equal(t, models.AlertTypeModelUnavailable, event.Type)
			assert.Equal(t, models.AlertSeverityCritical, event.Severity)
			assert.Equal(t, "llama9", event.Model)
		})
	}
}

func TestDedupKey_ByAlertType(t *testing.T) {
	unavailable := AlertEvent{Type: models.AlertTypeModelUnavailable, Model: "llama9", NodeID: "n1"}
	// Same model, different node: still the same key.
	other := AlertEvent{Type: models.AlertTypeModelUnavailable, Model: "llama9", NodeID: "n2"}
	assert.Equal(t, unavailable.DedupKey(), other.DedupKey())

	truncationA := AlertEvent{Type: models.AlertTypeTokenTruncation, Model: "llama9"}
	truncationB := AlertEvent{Type: models.AlertTypeTokenTruncation, Model: "mistral"}
	assert.NotEqual(t, truncationA.DedupKey(), truncationB.DedupKey())

	qualityA := AlertEvent{Type: models.AlertTypeLowQuality, CompanyID: "acme", WorkflowID: "wf", NodeID: "n1", Metric: MetricHallucination}
	qualityB := AlertEvent{Type: models.AlertTypeLowQuality, CompanyID: "acme", WorkflowID: "wf", NodeID: "n1", Metric: MetricDataQuality}
	assert.NotEqual(t, qualityA.DedupKey(), qualityB.DedupKey())
}

func TestLowQualityEvents_OnePerFlaggedMetric(t *testing.T) {
	record := &models.EvaluationRecord{
		Hallucination: &models.MetricScore{Score: 35, Reasoning: "made things up"},
		DataQuality:   &models.MetricScore{Score: 90},
		Complexity:    &models.MetricScore{Score: 10, Reasoning: "too shallow"},
	}

	events := LowQualityEvents(record, "acme", "wf", "n1")
	require.Len(t, events, 2)

	metrics := []string{events[0].Metric, events[1].Metric}
	assert.ElementsMatch(t, []string{MetricHallucination, MetricComplexity}, metrics)
	for _, event := range events {
		assert.Equal(t, models.AlertTypeLowQuality, event.Type)
		assert.Equal(t, models.AlertSeverityWarning, event.Severity)
	}
}

func TestLowQualityEvents_NoFlags(t *testing.T) {
	record := &models.EvaluationRecord{
		Hallucination: &models.MetricScore{Score: 90},
	}
	assert.Empty(t, LowQualityEvents(record, "acme", "wf", "n1"))
}
