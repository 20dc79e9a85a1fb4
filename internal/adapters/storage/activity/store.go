package activity

import (
	"context"

	domain "activityboard/internal/domain/activity"
)

// Store persists Activity state and rosters.
type Store interface {
	List(ctx context.Context) ([]domain.Activity, error)
	GetByName(ctx context.Context, name string) (domain.Activity, error)
	Save(ctx context.Context, value domain.Activity) error
	Count(ctx context.Context) (int, error)
	AddParticipant(ctx context.Context, reg domain.Registration) error
	RemoveParticipant(ctx context.Context, activityName, email string) error
}
