package board

import (
	"slices"
	"time"

	"activityboard/internal/domain/activity"
)

// Fixed user-facing texts.
const (
	PlaceholderOption   = "-- Select an activity --"
	LoadFailedText      = "Failed to load activities. Please try again later."
	NoParticipantsText  = "No participants yet"
	SignupFallback      = "An error occurred"
	SignupFailedText    = "Failed to sign up. Please try again."
	RemoveFallback      = "Failed to remove participant"
	RemoveFailedText    = "Failed to remove participant. Please try again."
	MessageKindSuccess  = "success"
	MessageKindError    = "error"
	messageInitialClass = "hidden"
)

// Document is what one visitor sees: the shared activity list, rebuilt in
// full on every successful fetch, plus that visitor's own Feedback.
type Document struct {
	Cards     []Card
	LoadError string
	Options   []SelectOption
	Form      Form
	Message   Message
	Alert     string
	Loaded    bool
}

// Feedback is the outcome of one visitor's action. It belongs to the visitor
// who acted and is shown only on their next render.
type Feedback struct {
	Form    Form
	Message Message
	Alert   string
}

// Empty reports whether there is nothing to show.
func (f Feedback) Empty() bool {
	return f.Form == (Form{}) && f.Message.Text == "" && f.Message.Kind == "" && f.Alert == ""
}

// Card is one rendered activity.
type Card struct {
	Name         string
	Description  string
	Schedule     string
	SpotsLeft    int
	Participants []Participant
}

// Participant is a roster entry together with its removal control identifiers.
type Participant struct {
	Activity string
	Email    string
}

// SelectOption is an entry of the activity selection control.
type SelectOption struct {
	Value string
	Label string
}

// Form mirrors the signup form fields.
type Form struct {
	Email    string
	Activity string
}

// Message is the success/error banner.
type Message struct {
	Text    string
	Kind    string
	ShownAt time.Time
	Hidden  bool
}

// at returns m as rendered at now: hidden once ttl has elapsed since ShownAt.
func (m Message) at(now time.Time, ttl time.Duration) Message {
	if m.Kind == "" {
		return Message{Hidden: true}
	}
	m.Hidden = !now.Before(m.ShownAt.Add(ttl))
	return m
}

// Class returns the CSS class list the banner renders with.
func (m Message) Class() string {
	switch {
	case m.Kind == "":
		return messageInitialClass
	case m.Hidden:
		return m.Kind + " hidden"
	}
	return m.Kind
}

// newDocument returns the state before the first load.
func newDocument() Document {
	return Document{
		Options: placeholderOptions(),
		Message: Message{Hidden: true},
	}
}

func placeholderOptions() []SelectOption {
	return []SelectOption{{Value: "", Label: PlaceholderOption}}
}

// buildCards derives cards and options from a fetched activity list.
// Spots left is computed here once per fetch and never adjusted locally.
func buildCards(activities []activity.Activity) ([]Card, []SelectOption) {
	cards := make([]Card, 0, len(activities))
	options := placeholderOptions()
	for _, a := range activities {
		participants := make([]Participant, 0, len(a.Participants))
		for _, email := range a.Participants {
			participants = append(participants, Participant{Activity: a.Name, Email: email})
		}
		cards = append(cards, Card{
			Name:         a.Name,
			Description:  a.Description,
			Schedule:     a.Schedule,
			SpotsLeft:    a.SpotsLeft(),
			Participants: participants,
		})
		options = append(options, SelectOption{Value: a.Name, Label: a.Name})
	}
	return cards, options
}

// removeParticipant drops the first entry matching activityName/email.
// Other cards are left untouched. Reports whether an entry was removed.
func (d *Document) removeParticipant(activityName, email string) bool {
	for i := range d.Cards {
		card := &d.Cards[i]
		if card.Name != activityName {
			continue
		}
		idx := slices.IndexFunc(card.Participants, func(p Participant) bool { return p.Email == email })
		if idx < 0 {
			return false
		}
		card.Participants = slices.Delete(slices.Clone(card.Participants), idx, idx+1)
		return true
	}
	return false
}

// clone deep-copies the document so callers can render without holding the lock.
func (d Document) clone() Document {
	out := d
	out.Options = slices.Clone(d.Options)
	out.Cards = make([]Card, len(d.Cards))
	for i, c := range d.Cards {
		c.Participants = slices.Clone(c.Participants)
		out.Cards[i] = c
	}
	if d.Cards == nil {
		out.Cards = nil
	}
	return out
}

// Card looks up a card by activity name.
func (d Document) Card(name string) (Card, bool) {
	for _, c := range d.Cards {
		if c.Name == name {
			return c, true
		}
	}
	return Card{}, false
}
