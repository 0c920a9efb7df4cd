package engine

import (
	"errors"
	"fmt"
	"strings"

	"cascade/internal/api/models"
	"cascade/pkg"
)

// AlertEvent is one occurrence of an operational problem. Events with the
// same DedupKey are upserted, not re-inserted.
type AlertEvent struct {
	Type        models.AlertType
	Severity    models.AlertSeverity
	Title       string
	Description string
	Model       string
	CompanyID   string
	WorkflowID  string
	NodeID      string
	Metric      string
}

// DedupKey is the stable identity used for alert deduplication: model-level
// alerts dedup by model, quality alerts by node and metric.
func (slf AlertEvent) DedupKey() string {
	switch slf.Type {
	case models.AlertTypeModelUnavailable:
		return fmt.Sprintf("model_unavailable:%s", slf.Model)
	case models.AlertTypeTokenTruncation:
		return fmt.Sprintf("token_truncation:%s", slf.Model)
	case models.AlertTypeLowQuality:
		return fmt.Sprintf("low_quality:%s:%s:%s:%s", slf.CompanyID, slf.WorkflowID, slf.NodeID, slf.Metric)
	}
	return fmt.Sprintf("%s:%s:%s:%s", slf.Type, slf.CompanyID, slf.WorkflowID, slf.NodeID)
}

// ClassifyGenerationError detects a model-unavailable failure: HTTP 404/410,
// or a 400 whose error text mentions the model. Returns nil for everything
// else.
func ClassifyGenerationError(err error, model, companyID, workflowID, nodeID string) *AlertEvent {
	var chatErr *pkg.ChatError
	if !errors.As(err, &chatErr) {
		return nil
	}

	unavailable := chatErr.StatusCode == 404 || chatErr.StatusCode == 410 ||
		(chatErr.StatusCode == 400 && strings.Contains(strings.ToLower(chatErr.Message), "model"))
	if !unavailable {
		return nil
	}

	return &AlertEvent{
		Type:        models.AlertTypeModelUnavailable,
		Severity:    models.AlertSeverityCritical,
		Title:       fmt.Sprintf("Model %s unavailable", model),
		Description: chatErr.Message,
		Model:       model,
		CompanyID:   companyID,
		WorkflowID:  workflowID,
		NodeID:      nodeID,
	}
}

// TruncationEvent reports an output cut off at the token limit.
func TruncationEvent(model, companyID, workflowID, nodeID string) AlertEvent {
	return AlertEvent{
		Type:       models.AlertTypeTokenTruncation,
		Severity:   models.AlertSeverityWarning,
		Title:      fmt.Sprintf("Output truncated at token limit for model %s", model),
		Model:      model,
		CompanyID:  companyID,
		WorkflowID: workflowID,
		NodeID:     nodeID,
	}
}

// LowQualityEvents derives one alert per flagged metric of an evaluation.
func LowQualityEvents(record *models.EvaluationRecord, companyID, workflowID, nodeID string) []AlertEvent {
	var events []AlertEvent

	add := func(metric string, score *models.MetricScore) {
		events = append(events, AlertEvent{
			Type:        models.AlertTypeLowQuality,
			Severity:    models.AlertSeverityWarning,
			Title:       fmt.Sprintf("Low %s score on node %s", metric, nodeID),
			Description: score.Reasoning,
			CompanyID:   companyID,
			WorkflowID:  workflowID,
			NodeID:      nodeID,
			Metric:      metric,
		})
	}

	if record.Hallucination != nil && record.Hallucination.Score <= floorHallucination {
		add(MetricHallucination, record.Hallucination)
	}
	if record.DataQuality != nil && record.DataQuality.Score <= floorDataQuality {
		add(MetricDataQuality, record.DataQuality)
	}
	if record.Complexity != nil && record.Complexity.Score <= floorComplexity {
		add(MetricComplexity, record.Complexity)
	}

	return events
}
