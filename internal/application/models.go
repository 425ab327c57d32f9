package application

import "time"

// Phase identifies the session manager state.
type Phase int

const (
	// PhaseUninitialized is the state before Start has been called.
	PhaseUninitialized Phase = iota
	// PhaseLoading is the transient state while the persisted store loads.
	PhaseLoading
	// PhaseGuest means no identifier is authenticated; the guest aggregate is current.
	PhaseGuest
	// PhaseAuthenticated means a stored aggregate is current and authenticated.
	PhaseAuthenticated
)

// String implements fmt.Stringer for logging.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseGuest:
		return "guest"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// DefaultMeetingTitle is used when a meeting is created without a title.
const DefaultMeetingTitle = "Untitled Meeting"

// WeekdayNames maps off-day indices (0=Sunday) to the names exchanged with
// the assistant provider.
var WeekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// WorkTime is the daily working window, both bounds as "HH:MM".
type WorkTime struct {
	Start string
	End   string
}

// Contact is an address book entry in the current aggregate.
type Contact struct {
	ID          string
	Name        string
	Email       string
	Number      string
	Description string
}

// Meeting is a calendar entry in the current aggregate. Participants holds
// contact ids; ids whose contact was deleted are kept and skipped on
// resolution.
type Meeting struct {
	ID           string
	Title        string
	Date         time.Time
	Participants []string
	Notes        string
}

// Account is the per-user aggregate: profile, contacts and meetings as one
// unit. Meetings are kept sorted ascending by Date.
type Account struct {
	Email         string
	Name          string
	SecretHash    string
	Avatar        string
	Location      string
	WorkTime      WorkTime
	OffDays       []int
	Contacts      []Contact
	Meetings      []Meeting
	Authenticated bool
}

// Clone returns a deep copy of the account.
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
			copied := m
			if m.Participants != nil {
				copied.Participants = append([]string(nil), m.Participants...)
			}
			out.Meetings[i] = copied
		}
	}
	return out
}

// DefaultWorkTime is the work window assigned to new accounts.
func DefaultWorkTime() WorkTime {
	return WorkTime{Start: "09:00", End: "17:00"}
}

// DefaultOffDays marks Sunday and Saturday as non-working days for new accounts.
func DefaultOffDays() []int {
	return []int{0, 6}
}

// GuestAccount is the constant, never-persisted aggregate used while
// logged out.
func GuestAccount() Account {
	return Account{
		Name:     "Guest",
		Location: "New York, USA",
		WorkTime: DefaultWorkTime(),
		OffDays:  DefaultOffDays(),
		Contacts: []Contact{},
		Meetings: []Meeting{},
	}
}

// Settings carries a partial profile update. Nil fields are left
// unchanged; contacts, meetings and the secret are never merged here.
type Settings struct {
	Name          *string
	Location      *string
	Avatar        *string
	WorkTimeStart *string
	WorkTimeEnd   *string
	OffDays       []int
}

// ContactInput captures caller provided contact fields for creation.
type ContactInput struct {
	Name        string
	Email       string
	Number      string
	Description string
}

// MeetingInput captures caller provided meeting fields. Date is the
// ISO-8601 string form used on every exchange boundary.
type MeetingInput struct {
	Title        string
	Date         string
	Participants []string
	Notes        string
}
