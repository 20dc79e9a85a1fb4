package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"activityboard/internal/application/orchestrators"
	"activityboard/internal/application/projections"
	"activityboard/internal/domain/activity"
)

// activityBody is one value of the GET /activities object.
type activityBody struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

type messageBody struct {
	Message string `json:"message"`
}

type detailBody struct {
	Detail string `json:"detail"`
}

// handleListActivities handles GET /activities.
// The body is a JSON object keyed by activity name, in display order.
func (s *server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetActivities(r.Context(), projections.GetActivitiesDeps{ActivityStore: s.store})
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := encodeActivities(res.Activities)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// handleSignup handles POST /activities/{name}/signup?email=.
func (s *server) handleSignup(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteSignup(r.Context(), orchestrators.SignupInput{
		ActivityName: r.PathValue("name"),
		Email:        r.URL.Query().Get("email"),
	}, orchestrators.SignupDeps{
		ActivityStore: s.store,
		Sender:        s.sender,
		GenerateID:    s.generateID,
		Now:           s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: res.Message})
}

// handleUnregister handles POST /activities/{name}/unregister?email=.
func (s *server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	msg, err := orchestrators.ExecuteUnregister(r.Context(), orchestrators.UnregisterInput{
		ActivityName: r.PathValue("name"),
		Email:        r.URL.Query().Get("email"),
	}, orchestrators.UnregisterDeps{ActivityStore: s.store})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// handlePerf handles GET /debug/perf with the last hour of timings.
func (s *server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeJSON(w, http.StatusNotFound, detailBody{Detail: "perf collection disabled"})
		return
	}
	writeJSON(w, http.StatusOK, s.collector.Snapshot(s.now().Add(-time.Hour), 10))
}

// encodeActivities writes the activities as one JSON object, preserving slice order.
// encoding/json sorts map keys, so the object is assembled member by member.
func encodeActivities(activities []activity.Activity) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range activities {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(activityBody{
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    a.Participants,
		})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// errorStatus maps domain errors to the status and detail students see.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, activity.ErrNotFound):
		return http.StatusNotFound, "Activity not found"
	case errors.Is(err, activity.ErrNotRegistered):
		return http.StatusNotFound, "Student is not signed up for this activity"
	case errors.Is(err, activity.ErrAlreadySignedUp):
		return http.StatusBadRequest, "Student is already signed up"
	case errors.Is(err, activity.ErrActivityFull):
		return http.StatusBadRequest, "Activity is full"
	case errors.Is(err, activity.ErrInvalidEmail):
		return http.StatusBadRequest, "Invalid email address"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// writeError replies with {"detail": ...}; unexpected errors are logged and reported generically.
func writeError(w http.ResponseWriter, err error) {
	status, detail := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("internal_error", "error", err.Error())
	}
	writeJSON(w, status, detailBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}
