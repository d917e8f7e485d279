package usecase

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

// ActivityTracker records portal actions and fans them out as realtime
// events. Both backends are optional and a nil tracker does nothing.
// Failures are logged and never reach the caller.
type ActivityTracker struct {
	repo      ActivityRepository
	publisher EventPublisher
	now       func() time.Time
}

func NewActivityTracker(repo ActivityRepository, publisher EventPublisher) *ActivityTracker {
	return &ActivityTracker{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

func (t *ActivityTracker) Track(ctx context.Context, user *domain.UserTokenData, kind domain.ActivityKind, caseID *int64) {
	if t == nil {
		return
	}

	activity := domain.Activity{
		UserID:    user.InnohassleID,
		Email:     user.Email,
		Kind:      kind,
		CaseID:    caseID,
		CreatedAt: t.now().UTC(),
	}

	if t.repo != nil {
		recorded, err := t.repo.Record(ctx, activity)
		if err != nil {
			slog.WarnContext(
				ctx, "failed to record activity",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
				slog.String("module", "activity"),
			)
		} else {
			activity = recorded
		}
	}

	if t.publisher != nil {
		err := t.publisher.Publish(ctx, user.InnohassleID, activity.Event())
		if err != nil {
			slog.WarnContext(
				ctx, "failed to publish event",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
				slog.String("module", "activity"),
			)
		}
	}
}

type ActivityUsecase struct {
	repo ActivityRepository
}

func NewActivityUsecase(repo ActivityRepository) *ActivityUsecase {
	return &ActivityUsecase{repo: repo}
}

// List returns the caller's most recent actions, newest first. Without an
// activity store the list is always empty.
func (uc *ActivityUsecase) List(ctx context.Context, user *domain.UserTokenData, limit int) ([]domain.Activity, error) {
	err := validation.Validate(limit, validation.Required, validation.Min(1), validation.Max(domain.MaxPageLimit))
	if err != nil {
		return nil, &domain.ValidationError{Err: validation.Errors{"limit": err}}
	}

	if uc.repo == nil {
		return []domain.Activity{}, nil
	}

	activities, err := uc.repo.ListByUser(ctx, user.InnohassleID, limit)
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []domain.Activity{}
	}
	return activities, nil
}
