package main

import (
	"context"

	"github.com/example/meetassist/internal/application"
	"github.com/example/meetassist/internal/persistence"
)

// storeAdapter bridges the persistence store to the application's
// AccountStore interface, converting between the two record shapes.
type storeAdapter struct {
	store *persistence.Store
}

func newStoreAdapter(store *persistence.Store) storeAdapter {
	return storeAdapter{store: store}
}

func (a storeAdapter) Load(ctx context.Context) map[string]application.Account {
	loaded := a.store.Load(ctx)
	accounts := make(map[string]application.Account, len(loaded))
	for email, record := range loaded {
		accounts[email] = toApplicationAccount(record)
	}
	return accounts
}

func (a storeAdapter) Save(ctx context.Context, accounts map[string]application.Account) {
	records := make(map[string]persistence.Account, len(accounts))
	for email, account := range accounts {
		records[email] = toPersistenceAccount(account)
	}
	a.store.Save(ctx, records)
}

func (a storeAdapter) RememberIdentifier(ctx context.Context, email string) {
	a.store.RememberIdentifier(ctx, email)
}

func (a storeAdapter) RememberedIdentifier(ctx context.Context) (string, bool) {
	return a.store.RememberedIdentifier(ctx)
}

func toApplicationAccount(record persistence.Account) application.Account {
	contacts := make([]application.Contact, 0, len(record.Contacts))
	for _, contact := range record.Contacts {
		contacts = append(contacts, application.Contact(contact))
	}
	meetings := make([]application.Meeting, 0, len(record.Meetings))
	for _, meeting := range record.Meetings {
		meetings = append(meetings, application.Meeting(meeting))
	}
	return application.Account{
		Email:      record.Email,
		Name:       record.Name,
		SecretHash: record.SecretHash,
		Avatar:     record.Avatar,
		Location:   record.Location,
		WorkTime:   application.WorkTime(record.WorkTime),
		OffDays:    record.OffDays,
		Contacts:   contacts,
		Meetings:   meetings,
	}
}

func toPersistenceAccount(account application.Account) persistence.Account {
	contacts := make([]persistence.Contact, 0, len(account.Contacts))
	for _, contact := range account.Contacts {
		contacts = append(contacts, persistence.Contact(contact))
	}
	meetings := make([]persistence.Meeting, 0, len(account.Meetings))
	for _, meeting := range account.Meetings {
		meetings = append(meetings, persistence.Meeting(meeting))
	}
	return persistence.Account{
		Email:      account.Email,
		Name:       account.Name,
		SecretHash: account.SecretHash,
		Avatar:     account.Avatar,
		Location:   account.Location,
		WorkTime:   persistence.WorkTime(account.WorkTime),
		OffDays:    account.OffDays,
		Contacts:   contacts,
		Meetings:   meetings,
		LoggedIn:   account.Authenticated,
	}
}
