package engine

import (
	"context"
	"encoding/json"

	"cascade/internal/api/models"
)

// ingestExecutor reads the most recent qualifying external submission. Ingest
// nodes are always stale by policy: they represent live external state that
// cannot be hash-compared ahead of fetch.
type ingestExecutor struct{}

func (ingestExecutor) Execute(ctx context.Context, node *models.Node, p *pass) (any, error) {
	submissions, err := p.rt.Submissions.Recent(ctx, p.companyID)
	if err != nil {
		return nil, err
	}
	return SelectSubmission(submissions), nil
}

// SelectSubmission picks the submission to use by fixed priority:
// platform-synced first, then API submissions with a substantive payload,
// then manual ones with a substantive payload. Defaults to an empty object.
func SelectSubmission(submissions []models.IngestionSubmission) map[string]any {
	priority := []models.SubmissionSource{
		models.SubmissionSourcePlatform,
		models.SubmissionSourceAPI,
		models.SubmissionSourceManual,
	}

	for _, source := range priority {
		for _, submission := range submissions {
			if submission.Source != source {
				continue
			}
			payload := parseSubmissionPayload(submission)
			if source == models.SubmissionSourcePlatform || len(payload) > 0 {
				return payload
			}
		}
	}

	return map[string]any{}
}

func parseSubmissionPayload(submission models.IngestionSubmission) map[string]any {
	if submission.Data == nil {
		return map[string]any{}
	}
	var payload map[string]any
	if err := json.Unmarshal(submission.Data, &payload); err != nil || payload == nil {
		return map[string]any{}
	}
	return payload
}
