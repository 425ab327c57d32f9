package persistence

import (
	"context"
	"log/slog"
)

// The two keys mirror the browser client's localStorage layout: the full
// multi-account blob and, separately, who is logged in right now.
const (
	accountsKey          = "meetai_all_users_data"
	currentIdentifierKey = "meetai_current_user_email"
)

// KV is the minimal key/value surface the store persists through.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store durably holds the identifier-to-account mapping plus the remembered
// current identifier.
//
// Load and Save fail soft: a missing or corrupt blob loads as an empty
// mapping and write failures are logged and swallowed, so the in-memory
// state stays authoritative for the rest of the session even when
// durability is lost.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// NewStore wires a Store over the given key/value backend.
func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Load reads and decodes the full account mapping. It never fails: any
// read or decode problem yields an empty mapping.
func (s *Store) Load(ctx context.Context) map[string]Account {
	if s == nil || s.kv == nil {
		return map[string]Account{}
	}

	blob, ok, err := s.kv.Get(ctx, accountsKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read account snapshot", "error", err)
		return map[string]Account{}
	}
	if !ok || blob == "" {
		return map[string]Account{}
	}

	accounts, err := DecodeSnapshot([]byte(blob))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to decode account snapshot", "error", err)
		return map[string]Account{}
	}
	return accounts
}

// Save deep-copies and serializes the mapping and writes it as one blob.
// Failures are logged and swallowed.
func (s *Store) Save(ctx context.Context, accounts map[string]Account) {
	if s == nil || s.kv == nil {
		return
	}

	copied := make(map[string]Account, len(accounts))
	for email, account := range accounts {
		copied[email] = account.Clone()
	}

	blob, err := EncodeSnapshot(copied)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode account snapshot", "error", err)
		return
	}
	if err := s.kv.Put(ctx, accountsKey, string(blob)); err != nil {
		s.logger.ErrorContext(ctx, "failed to write account snapshot", "error", err)
	}
}

// RememberIdentifier stores who is logged in now. An empty identifier
// clears the remembrance.
func (s *Store) RememberIdentifier(ctx context.Context, email string) {
	if s == nil || s.kv == nil {
		return
	}

	if email == "" {
		if err := s.kv.Delete(ctx, currentIdentifierKey); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear current identifier", "error", err)
		}
		return
	}
	if err := s.kv.Put(ctx, currentIdentifierKey, email); err != nil {
		s.logger.ErrorContext(ctx, "failed to remember current identifier", "error", err)
	}
}

// RememberedIdentifier returns the stored current identifier, if any.
func (s *Store) RememberedIdentifier(ctx context.Context) (string, bool) {
	if s == nil || s.kv == nil {
		return "", false
	}

	email, ok, err := s.kv.Get(ctx, currentIdentifierKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read current identifier", "error", err)
		return "", false
	}
	if !ok || email == "" {
		return "", false
	}
	return email, true
}
