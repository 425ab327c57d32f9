package persistence

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Wire records mirror the JSON layout the browser client persisted: one
// object per identifier with meeting dates as ISO-8601 strings.

type accountRecord struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	SecretHash string          `json:"secretHash"`
	Avatar     string          `json:"avatar"`
	Location   string          `json:"location"`
	WorkTime   workTimeRecord  `json:"workTime"`
	OffDays    []int           `json:"offDays"`
	Contacts   []contactRecord `json:"contacts"`
	Meetings   []meetingRecord `json:"meetings"`
	LoggedIn   bool            `json:"isLoggedIn"`
}

type workTimeRecord struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type contactRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Number      string `json:"number,omitempty"`
	Description string `json:"description,omitempty"`
}

type meetingRecord struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Participants []string `json:"participants"`
	Notes        string   `json:"notes,omitempty"`
}

// EncodeSnapshot serializes the identifier-to-account mapping into the
// single JSON blob format, converting every meeting date to RFC 3339.
func EncodeSnapshot(accounts map[string]Account) ([]byte, error) {
	records := make(map[string]accountRecord, len(accounts))
	for email, account := range accounts {
		records[email] = encodeAccount(account)
	}
	return json.Marshal(records)
}

// DecodeSnapshot parses the JSON blob back into the mapping, reconstituting
// every meeting date from its string form.
func DecodeSnapshot(data []byte) (map[string]Account, error) {
	var records map[string]accountRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	accounts := make(map[string]Account, len(records))
	for email, record := range records {
		account, err := decodeAccount(record)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", email, err)
		}
		accounts[email] = account
	}
	return accounts, nil
}

func encodeAccount(account Account) accountRecord {
	record := accountRecord{
		Name:       account.Name,
		Email:      account.Email,
		SecretHash: account.SecretHash,
		Avatar:     account.Avatar,
		Location:   account.Location,
		WorkTime:   workTimeRecord{Start: account.WorkTime.Start, End: account.WorkTime.End},
		OffDays:    append([]int{}, account.OffDays...),
		Contacts:   make([]contactRecord, 0, len(account.Contacts)),
		Meetings:   make([]meetingRecord, 0, len(account.Meetings)),
		LoggedIn:   account.LoggedIn,
	}

	for _, contact := range account.Contacts {
		record.Contacts = append(record.Contacts, contactRecord{
			ID:          contact.ID,
			Name:        contact.Name,
			Email:       contact.Email,
			Number:      contact.Number,
			Description: contact.Description,
		})
	}

	for _, meeting := range account.Meetings {
		participants := meeting.Participants
		if participants == nil {
			participants = []string{}
		}
		record.Meetings = append(record.Meetings, meetingRecord{
			ID:           meeting.ID,
			Title:        meeting.Title,
			Date:         meeting.Date.Format(time.RFC3339Nano),
			Participants: append([]string{}, participants...),
			Notes:        meeting.Notes,
		})
	}

	return record
}

func decodeAccount(record accountRecord) (Account, error) {
	account := Account{
		Name:       record.Name,
		Email:      record.Email,
		SecretHash: record.SecretHash,
		Avatar:     record.Avatar,
		Location:   record.Location,
		WorkTime:   WorkTime{Start: record.WorkTime.Start, End: record.WorkTime.End},
		OffDays:    append([]int{}, record.OffDays...),
		Contacts:   make([]Contact, 0, len(record.Contacts)),
		Meetings:   make([]Meeting, 0, len(record.Meetings)),
		LoggedIn:   record.LoggedIn,
	}

	for _, contact := range record.Contacts {
		account.Contacts = append(account.Contacts, Contact{
			ID:          contact.ID,
			Name:        contact.Name,
			Email:       contact.Email,
			Number:      contact.Number,
			Description: contact.Description,
		})
	}

	for _, meeting := range record.Meetings {
		date, err := time.Parse(time.RFC3339Nano, meeting.Date)
		if err != nil {
			return Account{}, fmt.Errorf("meeting %s: invalid date %q: %w", meeting.ID, meeting.Date, err)
		}
		account.Meetings = append(account.Meetings, Meeting{
			ID:           meeting.ID,
			Title:        meeting.Title,
			Date:         date,
			Participants: append([]string{}, meeting.Participants...),
			Notes:        meeting.Notes,
		})
	}

	sort.SliceStable(account.Meetings, func(i, j int) bool {
		return account.Meetings[i].Date.Before(account.Meetings[j].Date)
	})

	return account, nil
}
