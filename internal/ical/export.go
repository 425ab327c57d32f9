// Package ical renders an account's meetings as an iCalendar document so
// external calendar apps can subscribe to them.
package ical

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/meetassist/internal/application"
)

// Meetings carry no duration, so exported events default to one hour.
const defaultEventDuration = time.Hour

// Export serializes the aggregate's meetings. Participant ids that no
// longer resolve to a contact are skipped.
func Export(account application.Account, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//meetassist//calendar//EN")

	contactsByID := make(map[string]application.Contact, len(account.Contacts))
	for _, contact := range account.Contacts {
		contactsByID[contact.ID] = contact
	}

	for _, meeting := range account.Meetings {
		event := cal.AddEvent(meeting.ID)
		event.SetDtStampTime(now.UTC())
		event.SetStartAt(meeting.Date.UTC())
		event.SetEndAt(meeting.Date.Add(defaultEventDuration).UTC())
		event.SetSummary(meeting.Title)
		if meeting.Notes != "" {
			event.SetDescription(meeting.Notes)
		}
		for _, participantID := range meeting.Participants {
			contact, ok := contactsByID[participantID]
			if !ok {
				continue
			}
			event.AddAttendee(contact.Email, ics.WithCN(contact.Name))
		}
	}

	return cal.Serialize()
}
