package assistant

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/meetassist/internal/application"
	"github.com/example/meetassist/internal/weather"
)

// Fixed user-facing replies. FallbackReply covers an empty provider
// answer; ErrorReply covers transport failures.
const (
	FallbackReply = "I'm sorry, I couldn't process that. Please try again."
	ErrorReply    = "Sorry, I encountered an error. Please try again."
)

// DefaultHistoryLimit is the number of conversation turns sent to the
// provider and retained per identifier.
const DefaultHistoryLimit = 10

// AccountMutator is the slice of the session manager the bridge drives.
type AccountMutator interface {
	Current() application.Account
	AddMeeting(ctx context.Context, input application.MeetingInput) (application.Meeting, error)
	AddContact(ctx context.Context, input application.ContactInput) (application.Contact, error)
	UpdateProfile(ctx context.Context, settings application.Settings) (application.Account, error)
	Logout(ctx context.Context) error
}

// WeatherService answers the read-only weather and location tools.
type WeatherService interface {
	Current(ctx context.Context, location string) (weather.Observation, error)
	Search(ctx context.Context, query string) ([]weather.LocationMatch, error)
}

// Bridge connects natural-language instructions to the aggregate's
// mutators through an external tool-calling provider.
type Bridge struct {
	provider Provider
	accounts AccountMutator
	weather  WeatherService
	logger   *slog.Logger
	now      func() time.Time

	historyLimit int

	mu      sync.Mutex
	history map[string][]HistoryTurn
}

// NewBridge wires a bridge. A non-positive historyLimit falls back to
// DefaultHistoryLimit.
func NewBridge(provider Provider, accounts AccountMutator, weatherSvc WeatherService, historyLimit int, logger *slog.Logger) *Bridge {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		provider:     provider,
		accounts:     accounts,
		weather:      weatherSvc,
		logger:       logger,
		now:          time.Now,
		historyLimit: historyLimit,
		history:      map[string][]HistoryTurn{},
	}
}

// HandleInstruction runs one conversation turn for the current aggregate
// and returns the user-facing reply. It never returns an error; failures
// collapse into the fixed fallback replies.
func (b *Bridge) HandleInstruction(ctx context.Context, instruction string, openAIMode bool) string {
	account := b.accounts.Current()
	identifier := account.Email

	turns := b.appendTurn(identifier, HistoryTurn{Role: "user", Content: instruction})

	request := b.buildRequest(account, instruction, openAIMode, turns)

	response, err := b.provider.Complete(ctx, request)
	if err != nil {
		b.logger.ErrorContext(ctx, "provider call failed", "error", err)
		b.appendTurn(identifier, HistoryTurn{Role: "assistant", Content: ErrorReply})
		return ErrorReply
	}

	var readOutputs []string
	for _, toolRequest := range response.ToolRequests {
		outcome := b.applyTool(ctx, toolRequest)
		if outcome.output != "" {
			readOutputs = append(readOutputs, outcome.output)
		}
		if !outcome.applied && toolRequest.Tool.Name != "" {
			b.logger.WarnContext(ctx, "tool request not applied", "tool", toolRequest.Tool.Name)
		}
	}

	reply := response.Response
	if reply == "" && len(readOutputs) > 0 {
		reply = strings.Join(readOutputs, "\n")
	}
	if reply == "" {
		reply = FallbackReply
	}

	b.appendTurn(identifier, HistoryTurn{Role: "assistant", Content: reply})
	return reply
}

// ForgetHistory drops the stored conversation for an identifier. Called
// on logout so the next session starts clean.
func (b *Bridge) ForgetHistory(identifier string) {
	b.mu.Lock()
	delete(b.history, identifier)
	b.mu.Unlock()
}

// appendTurn records a turn and returns a copy of the capped history.
func (b *Bridge) appendTurn(identifier string, turn HistoryTurn) []HistoryTurn {
	b.mu.Lock()
	defer b.mu.Unlock()

	turns := append(b.history[identifier], turn)
	if len(turns) > b.historyLimit {
		turns = turns[len(turns)-b.historyLimit:]
	}
	b.history[identifier] = turns

	copied := make([]HistoryTurn, len(turns))
	copy(copied, turns)
	return copied
}

func (b *Bridge) buildRequest(account application.Account, instruction string, openAIMode bool, turns []HistoryTurn) ProviderRequest {
	contacts := make([]ContactPayload, 0, len(account.Contacts))
	for _, contact := range account.Contacts {
		contacts = append(contacts, ContactPayload{
			ID:          contact.ID,
			Name:        contact.Name,
			Email:       contact.Email,
			Number:      contact.Number,
			Description: contact.Description,
		})
	}

	meetings := make([]MeetingPayload, 0, len(account.Meetings))
	for _, meeting := range account.Meetings {
		meetings = append(meetings, MeetingPayload{
			ID:           meeting.ID,
			Title:        meeting.Title,
			Date:         meeting.Date.Format(time.RFC3339),
			Participants: meeting.Participants,
			Notes:        meeting.Notes,
		})
	}

	offDayNames := make([]string, 0, len(account.OffDays))
	for _, day := range account.OffDays {
		if day >= 0 && day < len(application.WeekdayNames) {
			offDayNames = append(offDayNames, application.WeekdayNames[day])
		}
	}

	return ProviderRequest{
		Instruction:  instruction,
		Contacts:     contacts,
		Meetings:     meetings,
		UserName:     account.Name,
		UserLocation: account.Location,
		WorkTime:     account.WorkTime.Start + "-" + account.WorkTime.End,
		OffDays:      strings.Join(offDayNames, ","),
		OpenAIMode:   openAIMode,
		History:      turns,
	}
}
