package assistant

import "encoding/json"

// ProviderRequest is the JSON body posted to the tool-calling provider.
type ProviderRequest struct {
	Instruction  string           `json:"instruction"`
	Contacts     []ContactPayload `json:"contacts"`
	Meetings     []MeetingPayload `json:"meetings"`
	UserName     string           `json:"userName"`
	UserLocation string           `json:"userLocation"`
	WorkTime     string           `json:"workTime"`
	OffDays      string           `json:"offDays"`
	OpenAIMode   bool             `json:"openAiMode"`
	History      []HistoryTurn    `json:"history"`
}

// ContactPayload is a contact as the provider sees it.
type ContactPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Number      string `json:"number,omitempty"`
	Description string `json:"description,omitempty"`
}

// MeetingPayload is a meeting as the provider sees it. Dates travel as
// RFC 3339 strings.
type MeetingPayload struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Participants []string `json:"participants"`
	Notes        string   `json:"notes,omitempty"`
}

// HistoryTurn is one prior conversation message.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolRequest is one tool invocation the provider asks the bridge to run.
type ToolRequest struct {
	Tool  ToolCall        `json:"tool"`
	Input json.RawMessage `json:"input"`
}

// ToolCall names the requested tool and carries its input payload.
type ToolCall struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Payload returns the best available input for the request. Providers have
// been seen populating either the outer or the inner input field.
func (r ToolRequest) Payload() json.RawMessage {
	if len(r.Input) > 0 {
		return r.Input
	}
	return r.Tool.Input
}

// ProviderResponse is the provider's answer: a conversational reply plus
// zero or more tool requests to apply in order.
type ProviderResponse struct {
	Response     string        `json:"response"`
	ToolRequests []ToolRequest `json:"toolRequests"`
}
