package activity

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
)

// Domain errors
var (
	ErrNotFound        = errors.New("activity not found")
	ErrAlreadySignedUp = errors.New("already signed up")
	ErrActivityFull    = errors.New("activity is full")
	ErrNotRegistered   = errors.New("not signed up for this activity")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrEmptyName       = errors.New("activity name cannot be empty")
	ErrInvalidCapacity = errors.New("max participants must be positive")
	ErrNameTooLong     = errors.New("activity name cannot exceed 100 characters")
	ErrDuplicateRoster = errors.New("participants must be unique")
	ErrRosterOverflow  = errors.New("participants exceed max participants")
)

// Activity holds state for the concept.
// Name is the unique key; Participants keeps server order.
type Activity struct {
	Name            string
	Description     string
	Schedule        string
	MaxParticipants int
	Participants    []string
}

// Validate checks if the Activity has valid data.
// PRE: Activity struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name non-empty, MaxParticipants > 0, roster unique and within capacity
func (a *Activity) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if a.MaxParticipants <= 0 {
		return ErrInvalidCapacity
	}
	seen := make(map[string]bool, len(a.Participants))
	for _, p := range a.Participants {
		if seen[p] {
			return ErrDuplicateRoster
		}
		seen[p] = true
	}
	if len(a.Participants) > a.MaxParticipants {
		return ErrRosterOverflow
	}
	return nil
}

// SpotsLeft returns max participants minus the current participant count.
// The result is not clamped: a server reporting an over-full roster yields a negative count.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// HasParticipant reports whether email is on the roster.
func (a Activity) HasParticipant(email string) bool {
	return slices.Contains(a.Participants, email)
}

// IsFull reports whether no spots are left.
func (a Activity) IsFull() bool {
	return a.SpotsLeft() <= 0
}

// CanSignup checks whether email may join the roster.
// PRE: email has been normalised by the caller
// POST: Returns a domain error describing why the signup is refused, nil otherwise
func (a Activity) CanSignup(email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if a.HasParticipant(email) {
		return ErrAlreadySignedUp
	}
	if a.IsFull() {
		return ErrActivityFull
	}
	return nil
}

// CanUnregister checks whether email may be removed from the roster.
func (a Activity) CanUnregister(email string) error {
	if !a.HasParticipant(email) {
		return ErrNotRegistered
	}
	return nil
}

// ValidateEmail applies the minimal address check used for signups.
func ValidateEmail(email string) error {
	if email == "" || len(email) > MaxEmailLength {
		return ErrInvalidEmail
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail trims surrounding whitespace.
// Case is preserved; the roster compares addresses exactly.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// Registration is one roster entry as persisted by the activities API.
type Registration struct {
	ID           string
	ActivityName string
	Email        string
	CreatedAt    time.Time
}
