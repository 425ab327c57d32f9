package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/meetassist/internal/application"
	"github.com/example/meetassist/internal/testfixtures"
)

func TestExport(t *testing.T) {
	t.Parallel()

	contact := application.Contact{ID: "c1", Name: "Bob", Email: "bob@example.com"}
	account := testfixtures.NewAccountFixture()
	account.Contacts = []application.Contact{contact}
	account.Meetings = []application.Meeting{
		{
			ID:           "m1",
			Title:        "Planning",
			Date:         time.Date(2024, time.March, 10, 14, 0, 0, 0, time.UTC),
			Participants: []string{"c1", "ghost-id"},
			Notes:        "Quarterly planning",
		},
		{
			ID:    "m2",
			Title: "Standup",
			Date:  time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC),
		},
	}

	serialized := Export(account, testfixtures.ReferenceTime())

	assert.True(t, strings.HasPrefix(serialized, "BEGIN:VCALENDAR"))
	assert.Equal(t, 2, strings.Count(serialized, "BEGIN:VEVENT"))
	assert.Contains(t, serialized, "UID:m1")
	assert.Contains(t, serialized, "SUMMARY:Planning")
	assert.Contains(t, serialized, "DESCRIPTION:Quarterly planning")
	assert.Contains(t, serialized, "DTSTART:20240310T140000Z")
	assert.Contains(t, serialized, "DTEND:20240310T150000Z")
	assert.Contains(t, serialized, "bob@example.com")
	assert.Contains(t, serialized, "CN=Bob")

	// The dangling participant must not appear as an attendee.
	assert.Equal(t, 1, strings.Count(serialized, "ATTENDEE"))
}

func TestExportEmptyAccount(t *testing.T) {
	t.Parallel()

	serialized := Export(testfixtures.NewAccountFixture(), testfixtures.ReferenceTime())
	assert.Contains(t, serialized, "BEGIN:VCALENDAR")
	assert.NotContains(t, serialized, "BEGIN:VEVENT")
}
