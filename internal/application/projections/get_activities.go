package projections

import (
	"context"

	"activityboard/internal/domain/activity"
)

// ActivityLister lists activities in display order.
type ActivityLister interface {
	List(ctx context.Context) ([]activity.Activity, error)
}

// GetActivitiesResult carries the query result.
type GetActivitiesResult struct {
	Activities []activity.Activity
}

// GetActivitiesDeps holds dependencies for GetActivities.
type GetActivitiesDeps struct {
	ActivityStore ActivityLister
}

// QueryGetActivities retrieves every activity with its roster.
// PRE: none
// POST: Activities keep store order; rosters are non-nil
func QueryGetActivities(ctx context.Context, deps GetActivitiesDeps) (GetActivitiesResult, error) {
	activities, err := deps.ActivityStore.List(ctx)
	if err != nil {
		return GetActivitiesResult{}, err
	}
	for i := range activities {
		if activities[i].Participants == nil {
			activities[i].Participants = []string{}
		}
	}
	return GetActivitiesResult{Activities: activities}, nil
}
