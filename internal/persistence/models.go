package persistence

import "time"

// Account is the full per-user aggregate persisted as one unit: profile,
// contacts and meetings together.
type Account struct {
	Email      string
	Name       string
	SecretHash string
	Avatar     string
	Location   string
	WorkTime   WorkTime
	OffDays    []int
	Contacts   []Contact
	Meetings   []Meeting
	LoggedIn   bool
}

// WorkTime is the daily working window as "HH:MM" strings.
type WorkTime struct {
	Start string
	End   string
}

// Contact represents an address book entry owned by an account.
type Contact struct {
	ID          string
	Name        string
	Email       string
	Number      string
	Description string
}

// Meeting represents a calendar entry owned by an account. Meetings are
// stored sorted ascending by Date.
type Meeting struct {
	ID           string
	Title        string
	Date         time.Time
	Participants []string
	Notes        string
}

// Clone returns a deep copy of the account so callers can mutate the copy
// without sharing slices with the original.
func (a Account) Clone() Account {
	out := a
	if a.OffDays != nil {
		out.OffDays = append([]int(nil), a.OffDays...)
	}
	if a.Contacts != nil {
		out.Contacts = append([]Contact(nil), a.Contacts...)
	}
	if a.Meetings != nil {
		out.Meetings = make([]Meeting, len(a.Meetings))
		for i, m := range a.Meetings {
			out.Meetings[i] = m.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the meeting.
func (m Meeting) Clone() Meeting {
	out := m
	if m.Participants != nil {
		out.Participants = append([]string(nil), m.Participants...)
	}
	return out
}
