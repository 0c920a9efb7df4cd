package service

import (
	"cascade"
	"cascade/internal/api/models"
	"cascade/internal/api/repo"
	"cascade/internal/engine"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type AlertService struct {
	alertRepo *repo.AlertRepository
	mail      *MailService
	logger    zerolog.Logger
}

func NewAlertService() *AlertService {
	return &AlertService{
		alertRepo: repo.NewAlertRepository(),
		mail:      NewMailService(),
		logger:    cascade.Logger,
	}
}

// Raise implements engine.AlertSink. An unresolved alert with the same dedup
// key gets its occurrence counter bumped; otherwise a fresh row is created.
// The first occurrence of a critical alert also goes out by email.
func (slf *AlertService) Raise(_ context.Context, event engine.AlertEvent) {
	now := time.Now()
	dedupKey := event.DedupKey()

	existing, err := slf.alertRepo.FindUnresolved(dedupKey)
	if err != nil {
		slf.logger.Error().Err(err).Str("dedupKey", dedupKey).Msg("Error looking up alert")
		return
	}
	if existing != nil {
		if err = slf.alertRepo.Touch(existing.ID, now); err != nil {
			slf.logger.Error().Err(err).Str("dedupKey", dedupKey).Msg("Error touching alert")
		}
		return
	}

	alert := models.Alert{
		DedupKey:        dedupKey,
		AlertType:       event.Type,
		Severity:        event.Severity,
		Title:           event.Title,
		Description:     event.Description,
		AffectedModel:   event.Model,
		CompanyID:       event.CompanyID,
		WorkflowID:      event.WorkflowID,
		NodeID:          event.NodeID,
		OccurrenceCount: 1,
		FirstSeenAt:     now,
		LastSeenAt:      now,
	}
	if err = slf.alertRepo.Create(&alert); err != nil {
		slf.logger.Error().Err(err).Str("dedupKey", dedupKey).Msg("Error creating alert")
		return
	}

	if alert.Severity == models.AlertSeverityCritical {
		slf.notify(alert)
	}
}

func (slf *AlertService) notify(alert models.Alert) {
	to := cascade.GetConfig().SmtpConfig.AlertTo
	if to == "" {
		return
	}
	subject := fmt.Sprintf("[cascade] %s: %s", alert.Severity, alert.Title)
	body := fmt.Sprintf("%s\n\nCompany: %s\nWorkflow: %s\nNode: %s\nModel: %s\nFirst seen: %s\n",
		alert.Description, alert.CompanyID, alert.WorkflowID, alert.NodeID,
		alert.AffectedModel, alert.FirstSeenAt.Format(time.RFC3339))
	if err := slf.mail.SendInternal([]string{to}, subject, body); err != nil {
		slf.logger.Error().Err(err).Uint("alertId", alert.ID).Msg("Error sending alert email")
	}
}

func (slf *AlertService) ListByCompany(companyID string, includeResolved bool) ([]models.Alert, error) {
	return slf.alertRepo.ListByCompany(companyID, includeResolved)
}

func (slf *AlertService) Resolve(id uint) error {
	return slf.alertRepo.Resolve(id)
}
