// Package board implements the ActivityBoard controller: it loads activities
// from the activities API into a Document, submits signups and removes
// participants, re-synchronising from the server after every mutation.
package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"activityboard/internal/domain/activity"
)

// MessageTTL is how long a success or error message stays visible.
const MessageTTL = 5 * time.Second

// ActivitiesAPI is the server the board synchronises with.
type ActivitiesAPI interface {
	ListActivities(ctx context.Context) ([]activity.Activity, error)
	Signup(ctx context.Context, name, email string) (string, error)
	Unregister(ctx context.Context, name, email string) error
}

// detailer is implemented by API errors that carry a server-provided explanation.
type detailer interface {
	Detail() string
}

// Board is the page-lifetime controller. It owns the activity list shared by
// every visitor; per-visitor outcomes are returned as Feedback instead.
// It is initialised with OnReady and never torn down.
type Board struct {
	api ActivitiesAPI
	now func() time.Time

	mu          sync.Mutex
	doc         Document
	loadSeq     uint64
	appliedLoad uint64
}

// Option configures a Board.
type Option func(*Board)

// WithClock replaces the clock used to stamp and expire messages.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// New creates a Board backed by api.
// PRE: api is non-nil
// POST: Board holds an empty document with only the placeholder option
func New(api ActivitiesAPI, opts ...Option) *Board {
	b := &Board{
		api: api,
		now: time.Now,
		doc: newDocument(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OnReady performs the initial load.
func (b *Board) OnReady(ctx context.Context) {
	b.LoadActivities(ctx)
}

// LoadActivities fetches every activity and rebuilds the list and the selection control.
// A failure replaces the list with LoadFailedText and is logged, never returned.
// A result is dropped if a load issued after it has already been applied.
// PRE: none
// POST: Document reflects the latest applied fetch or shows the load error
func (b *Board) LoadActivities(ctx context.Context) {
	b.mu.Lock()
	b.loadSeq++
	seq := b.loadSeq
	b.mu.Unlock()

	activities, err := b.api.ListActivities(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq < b.appliedLoad {
		slog.Debug("activities_load_stale", "seq", seq, "applied", b.appliedLoad)
		return
	}
	b.appliedLoad = seq

	if err != nil {
		slog.Error("activities_load_failed", "error", err.Error())
		b.doc.Cards = nil
		b.doc.LoadError = LoadFailedText
		b.doc.Options = placeholderOptions()
		return
	}

	cards, options := buildCards(activities)
	b.doc.Cards = cards
	b.doc.Options = options
	b.doc.LoadError = ""
	b.doc.Loaded = true
	slog.Debug("activities_loaded", "count", len(cards))
}

// SubmitSignup registers email for activityName.
// Success returns the server message with a cleared form and reloads.
// Failure returns the server detail (or a fallback) with the typed values kept, and does not reload.
// PRE: values are as typed by the user; the server validates them
// POST: the returned Feedback carries a message stamped with the current time
func (b *Board) SubmitSignup(ctx context.Context, activityName, email string) Feedback {
	message, err := b.api.Signup(ctx, activityName, email)
	if err != nil {
		text := SignupFailedText
		var d detailer
		if errors.As(err, &d) {
			text = d.Detail()
			if text == "" {
				text = SignupFallback
			}
		}
		slog.Warn("signup_failed", "activity", activityName, "email", email, "error", err.Error())
		return Feedback{
			Form:    Form{Email: email, Activity: activityName},
			Message: b.message(text, MessageKindError),
		}
	}

	slog.Info("signup_succeeded", "activity", activityName, "email", email)
	fb := Feedback{Message: b.message(message, MessageKindSuccess)}
	b.LoadActivities(ctx)
	return fb
}

// RemoveParticipant unregisters email from activityName.
// Success drops that entry from the shared list immediately and then
// reloads; failure returns a blocking alert for the caller only. The local
// removal is not rolled back if the reload disagrees.
func (b *Board) RemoveParticipant(ctx context.Context, activityName, email string) Feedback {
	if activityName == "" || email == "" {
		return Feedback{}
	}

	if err := b.api.Unregister(ctx, activityName, email); err != nil {
		text := RemoveFailedText
		var d detailer
		if errors.As(err, &d) {
			text = d.Detail()
			if text == "" {
				text = RemoveFallback
			}
		}
		slog.Error("unregister_failed", "activity", activityName, "email", email, "error", err.Error())
		return Feedback{Alert: text}
	}

	b.mu.Lock()
	removed := b.doc.removeParticipant(activityName, email)
	b.mu.Unlock()
	slog.Info("unregister_succeeded", "activity", activityName, "email", email, "removed_locally", removed)
	b.LoadActivities(ctx)
	return Feedback{}
}

// View returns a copy of the shared list combined with one visitor's feedback.
// The message is hidden once MessageTTL has passed since it was shown.
func (b *Board) View(fb Feedback) Document {
	b.mu.Lock()
	out := b.doc.clone()
	b.mu.Unlock()

	out.Form = fb.Form
	out.Alert = fb.Alert
	out.Message = fb.Message.at(b.now(), MessageTTL)
	return out
}

func (b *Board) message(text, kind string) Message {
	return Message{Text: text, Kind: kind, ShownAt: b.now()}
}
