package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meetassist/internal/application"
)

var (
	accountCounter uint64
	contactCounter uint64
	meetingCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// AccountOption configures the generated account fixture.
type AccountOption func(*application.Account)

// NewAccountFixture returns a deterministic authenticated account with
// optional overrides.
func NewAccountFixture(opts ...AccountOption) application.Account {
	idx := atomic.AddUint64(&accountCounter, 1)
	account := application.Account{
		Email:         fmt.Sprintf("account-%03d@example.com", idx),
		Name:          fmt.Sprintf("Account %03d", idx),
		SecretHash:    fmt.Sprintf("hash-%03d", idx),
		Location:      "New York, USA",
		WorkTime:      application.DefaultWorkTime(),
		OffDays:       application.DefaultOffDays(),
		Contacts:      []application.Contact{},
		Meetings:      []application.Meeting{},
		Authenticated: true,
	}
	for _, opt := range opts {
		opt(&account)
	}
	return account
}

// WithEmail overrides the fixture identifier.
func WithEmail(email string) AccountOption {
	return func(a *application.Account) { a.Email = email }
}

// WithName overrides the fixture display name.
func WithName(name string) AccountOption {
	return func(a *application.Account) { a.Name = name }
}

// WithSecretHash overrides the fixture secret hash.
func WithSecretHash(hash string) AccountOption {
	return func(a *application.Account) { a.SecretHash = hash }
}

// WithContacts replaces the fixture contact list.
func WithContacts(contacts ...application.Contact) AccountOption {
	return func(a *application.Account) { a.Contacts = contacts }
}

// WithMeetings replaces the fixture meeting list.
func WithMeetings(meetings ...application.Meeting) AccountOption {
	return func(a *application.Account) { a.Meetings = meetings }
}

// NewContactFixture returns a deterministic contact.
func NewContactFixture() application.Contact {
	idx := atomic.AddUint64(&contactCounter, 1)
	return application.Contact{
		ID:          fmt.Sprintf("contact-%03d", idx),
		Name:        fmt.Sprintf("Contact %03d", idx),
		Email:       fmt.Sprintf("contact-%03d@example.com", idx),
		Number:      fmt.Sprintf("+1-555-%04d", idx),
		Description: "colleague",
	}
}

// NewMeetingFixture returns a deterministic meeting offset from the
// reference time by its sequence number in hours.
func NewMeetingFixture() application.Meeting {
	idx := atomic.AddUint64(&meetingCounter, 1)
	return application.Meeting{
		ID:           fmt.Sprintf("meeting-%03d", idx),
		Title:        fmt.Sprintf("Meeting %03d", idx),
		Date:         referenceTime.Add(time.Duration(idx) * time.Hour),
		Participants: []string{},
		Notes:        "",
	}
}
