package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
	"github.com/one-zero-eight/omnidesk-portal/internal/infrastructure/database/models"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Record(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	row := activityModel(activity)
	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		return domain.Activity{}, errors.Wrap(err, "failed to record activity")
	}
	return activityDomain(row), nil
}

// ListByUser returns up to limit entries of userID, newest first.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	var rows []models.Activity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("c_date DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list activity")
	}

	activities := make([]domain.Activity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, activityDomain(row))
	}
	return activities, nil
}

func activityModel(a domain.Activity) models.Activity {
	return models.Activity{
		ID:     a.ID,
		UserID: a.UserID,
		Email:  a.Email,
		Kind:   string(a.Kind),
		CaseID: a.CaseID,
		CDate:  a.CreatedAt,
	}
}

func activityDomain(m models.Activity) domain.Activity {
	return domain.Activity{
		ID:        m.ID,
		UserID:    m.UserID,
		Email:     m.Email,
		Kind:      domain.ActivityKind(m.Kind),
		CaseID:    m.CaseID,
		CreatedAt: m.CDate,
	}
}
