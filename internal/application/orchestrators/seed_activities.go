package orchestrators

import (
	"context"
	"log/slog"

	"activityboard/internal/domain/activity"
)

// ActivityStoreForSeed defines the store interface needed by ExecuteSeedActivities.
type ActivityStoreForSeed interface {
	Count(ctx context.Context) (int, error)
	Save(ctx context.Context, a activity.Activity) error
}

// SeedActivitiesDeps holds dependencies for ExecuteSeedActivities.
type SeedActivitiesDeps struct {
	ActivityStore ActivityStoreForSeed
}

// DefaultActivities returns the activities a fresh database starts with.
func DefaultActivities() []activity.Activity {
	return []activity.Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Programming Class",
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
	}
}

// ExecuteSeedActivities creates the default activities if none exist.
// PRE: schema initialised
// POST: at least the default activities exist; existing data is never touched
func ExecuteSeedActivities(ctx context.Context, deps SeedActivitiesDeps) error {
	n, err := deps.ActivityStore.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil // Already seeded
	}

	for _, a := range DefaultActivities() {
		if err := a.Validate(); err != nil {
			return err
		}
		if err := deps.ActivityStore.Save(ctx, a); err != nil {
			return err
		}
	}
	slog.Info("activities_seeded", "count", len(DefaultActivities()))
	return nil
}
