package application

import (
	"context"
	"log/slog"
	"time"

	"meridian/contexts/rating-operations/committee-engine/domain/entities"
	"meridian/contexts/rating-operations/committee-engine/ports"
)

// GatewayUseCase is the committee side of the workflow bridge: the workflow
// engine asks it for a mandate's aggregate voting status and tells it when
// a mandate has been sent to committee.
type GatewayUseCase struct {
	Repo   ports.CommitteeRepository
	Logger *slog.Logger
}

// VotingStatus aggregates a mandate's register entries into one status.
// No entries means no voting record; any non-completed entry keeps the
// aggregate open.
func (uc GatewayUseCase) VotingStatus(ctx context.Context, mandateID string) (string, bool, error) {
	entries, err := uc.Repo.ListRegistersByMandate(ctx, mandateID)
	if err != nil {
		return "", false, err
	}
	status := ""
	found := false
	for _, entry := range entries {
		if !entry.Active {
			continue
		}
		found = true
		switch entry.VotingStatus {
		case entities.VotingStatusLive:
			return entities.VotingStatusLive, true, nil
		case entities.VotingStatusUpcoming:
			status = entities.VotingStatusUpcoming
		case entities.VotingStatusCompleted:
			if status == "" {
				status = entities.VotingStatusCompleted
			}
		}
	}
	return status, found, nil
}

// OpenVoting stamps the mandate's pending register entries as upcoming.
// Mandates without registered cases are left untouched; their status stays
// absent until a case is added.
func (uc GatewayUseCase) OpenVoting(ctx context.Context, mandateID string, openedAt time.Time) error {
	logger := ResolveLogger(uc.Logger)
	entries, err := uc.Repo.ListRegistersByMandate(ctx, mandateID)
	if err != nil {
		return err
	}
	opened := 0
	for _, entry := range entries {
		if !entry.Active || entry.VotingStatus != "" {
			continue
		}
		entry.VotingStatus = entities.VotingStatusUpcoming
		entry.UpdatedAt = openedAt
		if err := uc.Repo.SaveRegister(ctx, entry); err != nil {
			return err
		}
		opened++
	}
	logger.Info("voting opened for mandate",
		"event", "committee_voting_opened",
		"module", "rating-operations/committee-engine",
		"layer", "application",
		"mandate_id", mandateID,
		"entries_opened", opened,
	)
	return nil
}
