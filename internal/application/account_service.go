package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AccountStore is the persistence surface the session manager writes
// through. All operations are fail-soft; see the persistence package.
type AccountStore interface {
	Load(ctx context.Context) map[string]Account
	Save(ctx context.Context, accounts map[string]Account)
	RememberIdentifier(ctx context.Context, email string)
	RememberedIdentifier(ctx context.Context) (string, bool)
}

// Observer receives the new current aggregate after every state change.
// Observers run after the internal lock is released and must treat the
// aggregate as read-only.
type Observer func(Account)

// AccountService owns the session state machine and the current aggregate.
// Every mutation writes through to both the in-memory aggregate and the
// persisted store in the same step.
type AccountService struct {
	store        AccountStore
	idGenerator  func() string
	hashSecret   func(secret string) (string, error)
	verifySecret func(storedHash, secret string) error
	now          func() time.Time
	logger       *slog.Logger

	mu           sync.Mutex
	phase        Phase
	accounts     map[string]Account
	current      Account
	onboarding   bool
	observers    map[int]Observer
	nextObserver int
}

// NewAccountService wires dependencies for the session manager.
func NewAccountService(store AccountStore, idGenerator func() string, now func() time.Time) *AccountService {
	return NewAccountServiceWithLogger(store, idGenerator, now, nil)
}

// NewAccountServiceWithLogger constructs an AccountService with a specified logger.
func NewAccountServiceWithLogger(store AccountStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AccountService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		store:       store,
		idGenerator: idGenerator,
		hashSecret: func(secret string) (string, error) {
			return HashSecret(secret, DefaultArgon2idParams)
		},
		verifySecret: VerifySecret,
		now:          now,
		logger:       defaultLogger(logger),
		phase:        PhaseUninitialized,
		accounts:     map[string]Account{},
		current:      GuestAccount(),
		observers:    map[int]Observer{},
	}
}

func (s *AccountService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccountService", operation, attrs...)
}

// Start loads the persisted store once and restores the remembered
// identifier. Calling Start again is a no-op returning the current phase.
func (s *AccountService) Start(ctx context.Context) Phase {
	var pending func()
	defer func() {
		if pending != nil {
			pending()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseUninitialized {
		return s.phase
	}
	s.phase = PhaseLoading

	logger := s.loggerWith(ctx, "Start")

	if s.store != nil {
		s.accounts = s.store.Load(ctx)
	}
	if s.accounts == nil {
		s.accounts = map[string]Account{}
	}

	email, remembered := "", false
	if s.store != nil {
		email, remembered = s.store.RememberedIdentifier(ctx)
	}

	if remembered {
		if account, ok := s.accounts[email]; ok {
			restored := account.Clone()
			restored.Authenticated = true
			s.current = restored
			s.phase = PhaseAuthenticated
			logger.InfoContext(ctx, "session restored", "email", email, "accounts", len(s.accounts))
			pending = s.queueNotifyLocked()
			return s.phase
		}
		// Stale remembrance with no matching aggregate.
		s.store.RememberIdentifier(ctx, "")
		logger.InfoContext(ctx, "remembered identifier has no stored aggregate", "email", email)
	}

	s.current = GuestAccount()
	s.phase = PhaseGuest
	logger.InfoContext(ctx, "started as guest", "accounts", len(s.accounts))
	pending = s.queueNotifyLocked()
	return s.phase
}

// Phase returns the current session state.
func (s *AccountService) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Current returns a copy of the aggregate being displayed.
func (s *AccountService) Current() Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Login authenticates the identifier against its stored secret hash. On
// success the stored aggregate becomes current; otherwise the current
// aggregate is left unchanged.
func (s *AccountService) Login(ctx context.Context, email, secret string) (err error) {
	if s == nil {
		return fmt.Errorf("AccountService is nil")
	}

	normalized := strings.TrimSpace(strings.ToLower(email))
	logger := s.loggerWith(ctx, "Login", "email", normalized)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "login succeeded")
	}()

	var pending func()
	defer func() {
		if pending != nil {
			pending()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseUninitialized || s.phase == PhaseLoading {
		return ErrNotStarted
	}
	if normalized == "" || secret == "" {
		return ErrInvalidCredentials
	}

	account, ok := s.accounts[normalized]
	if !ok {
		return ErrInvalidCredentials
	}
	if err := s.verifySecret(account.SecretHash, secret); err != nil {
		return ErrInvalidCredentials
	}

	next := account.Clone()
	next.Authenticated = true
	s.writeThroughLocked(ctx, next)
	if s.store != nil {
		s.store.RememberIdentifier(ctx, normalized)
	}
	s.phase = PhaseAuthenticated
	pending = s.queueNotifyLocked()
	return nil
}

// Signup registers a new identifier with system defaults and makes it
// current. It fails with ErrAlreadyExists when the identifier is taken.
func (s *AccountService) Signup(ctx context.Context, name, email, secret string) (err error) {
	if s == nil {
		return fmt.Errorf("AccountService is nil")
	}

	normalized := strings.TrimSpace(strings.ToLower(email))
	displayName := strings.TrimSpace(name)

	logger := s.loggerWith(ctx, "Signup", "email", normalized)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "signup failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "signup succeeded")
	}()

	vErr := &ValidationError{}
	if displayName == "" {
		vErr.add("name", "name is required")
	}
	if normalized == "" {
		vErr.add("email", "email is required")
	} else if _, mailErr := mail.ParseAddress(normalized); mailErr != nil {
		vErr.add("email", "email is invalid")
	}
	if secret == "" {
		vErr.add("secret", "secret is required")
	}
	if vErr.HasErrors() {
		return vErr
	}

	var pending func()
	defer func() {
		if pending != nil {
			pending()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseUninitialized || s.phase == PhaseLoading {
		return ErrNotStarted
	}
	if _, exists := s.accounts[normalized]; exists {
		return ErrAlreadyExists
	}

	hash, hashErr := s.hashSecret(secret)
	if hashErr != nil {
		return hashErr
	}

	next := Account{
		Email:         normalized,
		Name:          displayName,
		SecretHash:    hash,
		WorkTime:      DefaultWorkTime(),
		OffDays:       DefaultOffDays(),
		Contacts:      []Contact{},
		Meetings:      []Meeting{},
		Authenticated: true,
	}

	s.writeThroughLocked(ctx, next)
	if s.store != nil {
		s.store.RememberIdentifier(ctx, normalized)
	}
	s.phase = PhaseAuthenticated
	s.onboarding = true
	pending = s.queueNotifyLocked()
	return nil
}

// Logout resets the current aggregate to the guest aggregate and clears
// the remembered identifier. The persisted entry keeps its last known
// field values. Logging out while already a guest is a no-op.
func (s *AccountService) Logout(ctx context.Context) error {
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

	if s.phase == PhaseUninitialized || s.phase == PhaseLoading {
		return ErrNotStarted
	}
	if s.phase != PhaseAuthenticated {
		return nil
	}

	persisted := s.current.Clone()
	persisted.Authenticated = false
	s.accounts[persisted.Email] = persisted
	if s.store != nil {
		s.store.Save(ctx, s.accounts)
		s.store.RememberIdentifier(ctx, "")
	}

	s.current = GuestAccount()
	s.phase = PhaseGuest
	s.loggerWith(ctx, "Logout", "email", persisted.Email).InfoContext(ctx, "logged out")
	pending = s.queueNotifyLocked()
	return nil
}

// ConsumeOnboarding reports whether the one-shot onboarding flag raised by
// Signup is set, and clears it.
func (s *AccountService) ConsumeOnboarding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	raised := s.onboarding
	s.onboarding = false
	return raised
}

// Subscribe registers an observer for aggregate changes and returns its
// unsubscribe function.
func (s *AccountService) Subscribe(observer Observer) func() {
	if observer == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = observer
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// writeThroughLocked assigns next as both the current aggregate and the
// persisted entry for its identifier, then saves the whole mapping.
func (s *AccountService) writeThroughLocked(ctx context.Context, next Account) {
	s.current = next
	s.accounts[next.Email] = next.Clone()
	if s.store != nil {
		s.store.Save(ctx, s.accounts)
	}
}

// queueNotifyLocked snapshots the observer set and current aggregate. The
// returned closure is run by callers after the lock is released.
func (s *AccountService) queueNotifyLocked() func() {
	if len(s.observers) == 0 {
		return nil
	}

	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	snapshot := s.current.Clone()

	return func() {
		for _, observer := range observers {
			observer(snapshot)
		}
	}
}
