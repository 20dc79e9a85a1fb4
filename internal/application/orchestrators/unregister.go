package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"activityboard/internal/domain/activity"
)

// ActivityStoreForUnregister defines the store interface needed by ExecuteUnregister.
type ActivityStoreForUnregister interface {
	GetByName(ctx context.Context, name string) (activity.Activity, error)
	RemoveParticipant(ctx context.Context, activityName, email string) error
}

// UnregisterInput carries input for the orchestrator.
type UnregisterInput struct {
	ActivityName string
	Email        string
}

// UnregisterDeps holds dependencies for ExecuteUnregister.
type UnregisterDeps struct {
	ActivityStore ActivityStoreForUnregister
}

// ExecuteUnregister removes a student from an activity roster.
// PRE: none
// POST: the email no longer appears on that activity's roster; other activities are untouched
func ExecuteUnregister(ctx context.Context, input UnregisterInput, deps UnregisterDeps) (string, error) {
	email := activity.NormalizeEmail(input.Email)

	a, err := deps.ActivityStore.GetByName(ctx, input.ActivityName)
	if err != nil {
		return "", err
	}
	if err := a.CanUnregister(email); err != nil {
		return "", err
	}

	// The store reports ErrNotRegistered itself if a concurrent removal won.
	if err := deps.ActivityStore.RemoveParticipant(ctx, a.Name, email); err != nil {
		return "", err
	}
	slog.Info("activity_unregister", "activity", a.Name, "email", email)
	return fmt.Sprintf("Unregistered %s from %s", email, a.Name), nil
}
