package application

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// requireAuthenticatedLocked guards the mutators. Only an authenticated
// aggregate may be mutated; guests get ErrUnauthorized.
func (s *AccountService) requireAuthenticatedLocked() error {
	if s.phase == PhaseUninitialized || s.phase == PhaseLoading {
		return ErrNotStarted
	}
	if s.phase != PhaseAuthenticated {
		return ErrUnauthorized
	}
	return nil
}

// UpdateProfile merges the provided settings into the current aggregate.
// Nil fields are left unchanged; the identifier itself is immutable.
func (s *AccountService) UpdateProfile(ctx context.Context, settings Settings) (Account, error) {
	if s == nil {
		return Account{}, fmt.Errorf("AccountService is nil")
	}

	vErr := &ValidationError{}
	if settings.Name != nil && strings.TrimSpace(*settings.Name) == "" {
		vErr.add("name", "name must not be empty")
	}
	if settings.WorkTimeStart != nil {
		if _, err := time.Parse("15:04", *settings.WorkTimeStart); err != nil {
			vErr.add("workTimeStart", "work time must use the HH:MM format")
		}
	}
	if settings.WorkTimeEnd != nil {
		if _, err := time.Parse("15:04", *settings.WorkTimeEnd); err != nil {
			vErr.add("workTimeEnd", "work time must use the HH:MM format")
		}
	}
	if vErr.HasErrors() {
		return Account{}, vErr
	}

	var pending func()
	defer func() {
		if pending != nil {
			pending()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthenticatedLocked(); err != nil {
		return Account{}, err
	}

	next := s.current.Clone()
	if settings.Name != nil {
		next.Name = strings.TrimSpace(*settings.Name)
	}
	if settings.Location != nil {
		next.Location = strings.TrimSpace(*settings.Location)
	}
	if settings.Avatar != nil {
		next.Avatar = *settings.Avatar
	}
	if settings.WorkTimeStart != nil {
		next.WorkTime.Start = *settings.WorkTimeStart
	}
	if settings.WorkTimeEnd != nil {
		next.WorkTime.End = *settings.WorkTimeEnd
	}
	if settings.OffDays != nil {
		next.OffDays = normalizeOffDays(settings.OffDays)
	}

	s.writeThroughLocked(ctx, next)
	pending = s.queueNotifyLocked()
	return next.Clone(), nil
}

// AddContact appends a contact with a freshly generated identifier.
func (s *AccountService) AddContact(ctx context.Context, input ContactInput) (Contact, error) {
	if s == nil {
		return Contact{}, fmt.Errorf("AccountService is nil")
	}

	if err := validateContactFields(input.Name, input.Email); err != nil {
		return Contact{}, err
	}

	var pending func()
	defer func() {
		if pending != nil {
			pending()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthenticatedLocked(); err != nil {
		return Contact{}, err
	}

	contact := Contact{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(strings.ToLower(input.Email)),
		Number:      strings.TrimSpace(input.Number),
		Description: strings.TrimSpace(input.Description),
	}

	next := s.current.Clone()
	next.Contacts = append(next.Contacts, contact)

	s.writeThroughLocked(ctx, next)
	pending = s.queueNotifyLocked()
	return contact, nil
}

// UpdateContact replaces the stored contact carrying the same identifier.
func (s *AccountService) UpdateContact(ctx context.Context, contact Contact) error {
	if s == nil {
		return fmt.Errorf("AccountService is nil")
	}

	if strings.TrimSpace(contact.ID) == "" {
		vErr := &ValidationError{}
		vErr.add("id", "id is required")
		return vErr
	}
	if err := validateContactFields(contact.Name, contact.Email); err != nil {
		return err
	}

	var pending func()
	defer func() {
		if pending != nil {
			pending()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthenticatedLocked(); err != nil {
		return err
	}

	next := s.current.Clone()
	index := -1
	for i, existing := range next.Contacts {
		if existing.ID == contact.ID {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrNotFound
	}

	next.Contacts[index] = Contact{
		ID:          contact.ID,
		Name:        strings.TrimSpace(contact.Name),
		Email:       strings.TrimSpace(strings.ToLower(contact.Email)),
		Number:      strings.TrimSpace(contact.Number),
		Description: strings.TrimSpace(contact.Description),
	}

	s.writeThroughLocked(ctx, next)
	pending = s.queueNotifyLocked()
	return nil
}

// DeleteContact removes the contact with the given identifier. Deleting an
// absent identifier is a no-op so repeated deletes stay idempotent.
func (s *AccountService) DeleteContact(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("AccountService is nil")
	}

	var pending func()
	defer func() {
		if pending != nil {
			pending()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthenticatedLocked(); err != nil {
		return err
	}

	next := s.current.Clone()
	filtered := next.Contacts[:0]
	for _, contact := range next.Contacts {
		if contact.ID != id {
			filtered = append(filtered, contact)
		}
	}
	if len(filtered) == len(next.Contacts) {
		return nil
	}
	next.Contacts = filtered

	s.writeThroughLocked(ctx, next)
	pending = s.queueNotifyLocked()
	return nil
}

// AddMeeting inserts a meeting and keeps the list sorted by date
// ascending. A blank title falls back to DefaultMeetingTitle.
func (s *AccountService) AddMeeting(ctx context.Context, input MeetingInput) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("AccountService is nil")
	}

	date, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(input.Date))
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be an RFC 3339 timestamp")
		return Meeting{}, vErr
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DefaultMeetingTitle
	}

	participants := make([]string, 0, len(input.Participants))
	for _, participant := range input.Participants {
		participant = strings.TrimSpace(participant)
		if participant != "" {
			participants = append(participants, participant)
		}
	}

	var pending func()
	defer func() {
		if pending != nil {
			pending()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthenticatedLocked(); err != nil {
		return Meeting{}, err
	}

	meeting := Meeting{
		ID:           s.idGenerator(),
		Title:        title,
		Date:         date,
		Participants: participants,
		Notes:        strings.TrimSpace(input.Notes),
	}

	next := s.current.Clone()
	next.Meetings = append(next.Meetings, meeting)
	sort.SliceStable(next.Meetings, func(i, j int) bool {
		return next.Meetings[i].Date.Before(next.Meetings[j].Date)
	})

	s.writeThroughLocked(ctx, next)
	pending = s.queueNotifyLocked()
	return meeting, nil
}

// DeleteMeeting removes the meeting with the given identifier. Absent
// identifiers are a no-op, the same as DeleteContact.
func (s *AccountService) DeleteMeeting(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("AccountService is nil")
	}

	var pending func()
	defer func() {
		if pending != nil {
			pending()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthenticatedLocked(); err != nil {
		return err
	}

	next := s.current.Clone()
	filtered := next.Meetings[:0]
	for _, meeting := range next.Meetings {
		if meeting.ID != id {
			filtered = append(filtered, meeting)
		}
	}
	if len(filtered) == len(next.Meetings) {
		return nil
	}
	next.Meetings = filtered

	s.writeThroughLocked(ctx, next)
	pending = s.queueNotifyLocked()
	return nil
}

func validateContactFields(name, email string) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(name) == "" {
		vErr.add("name", "name is required")
	}
	trimmedEmail := strings.TrimSpace(email)
	if trimmedEmail == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(trimmedEmail); err != nil {
		vErr.add("email", "email is invalid")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func normalizeOffDays(days []int) []int {
	seen := map[int]bool{}
	normalized := make([]int, 0, len(days))
	for _, day := range days {
		if day < 0 || day > 6 || seen[day] {
			continue
		}
		seen[day] = true
		normalized = append(normalized, day)
	}
	sort.Ints(normalized)
	return normalized
}
