package orchestrators

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	emailAdapter "activityboard/internal/adapters/email"
	"activityboard/internal/domain/activity"
)

// ActivityStoreForSignup defines the store interface needed by ExecuteSignup.
type ActivityStoreForSignup interface {
	GetByName(ctx context.Context, name string) (activity.Activity, error)
	AddParticipant(ctx context.Context, reg activity.Registration) error
}

// SignupInput carries input for the orchestrator.
type SignupInput struct {
	ActivityName string
	Email        string
}

// SignupDeps holds dependencies for ExecuteSignup.
// Sender is optional; a nil Sender skips the confirmation email.
type SignupDeps struct {
	ActivityStore ActivityStoreForSignup
	Sender        emailAdapter.Sender
	GenerateID    func() string
	Now           func() time.Time
}

// SignupResult carries the confirmation shown to the student.
type SignupResult struct {
	Message string
}

// ExecuteSignup adds a student to an activity roster.
// PRE: none; input is validated here
// POST: email appended to the roster, confirmation email attempted
// INVARIANT: the roster never exceeds max participants and holds each email once
func ExecuteSignup(ctx context.Context, input SignupInput, deps SignupDeps) (SignupResult, error) {
	email := activity.NormalizeEmail(input.Email)
	if err := activity.ValidateEmail(email); err != nil {
		return SignupResult{}, err
	}

	a, err := deps.ActivityStore.GetByName(ctx, input.ActivityName)
	if err != nil {
		return SignupResult{}, err
	}
	if err := a.CanSignup(email); err != nil {
		return SignupResult{}, err
	}

	// The store re-checks capacity atomically; the check above only gives an early answer.
	reg := activity.Registration{
		ID:           deps.GenerateID(),
		ActivityName: a.Name,
		Email:        email,
		CreatedAt:    deps.Now(),
	}
	if err := deps.ActivityStore.AddParticipant(ctx, reg); err != nil {
		return SignupResult{}, err
	}

	slog.Info("activity_signup", "activity", a.Name, "email", email, "registration_id", reg.ID)
	sendSignupConfirmation(ctx, deps.Sender, a, email)

	return SignupResult{Message: fmt.Sprintf("Signed up %s for %s", email, a.Name)}, nil
}

// sendSignupConfirmation mails the student; delivery failures are logged only.
func sendSignupConfirmation(ctx context.Context, sender emailAdapter.Sender, a activity.Activity, email string) {
	if sender == nil {
		return
	}
	body := fmt.Sprintf(
		"<p>You are signed up for <strong>%s</strong>.</p><p>%s</p>",
		html.EscapeString(a.Name), html.EscapeString(a.Schedule),
	)
	_, err := sender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{email},
		Subject: "Signed up for " + a.Name,
		HTML:    body,
	})
	if err != nil {
		slog.Warn("signup_confirmation_failed", "activity", a.Name, "email", email, "error", err.Error())
	}
}
