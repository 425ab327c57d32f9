package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/meetassist/internal/application"
)

// Tool names the provider is allowed to request. Unknown names are ignored.
const (
	toolCreateMeeting      = "createMeeting"
	toolCreateNewContact   = "createNewContact"
	toolUpdateUserSettings = "updateUserSettings"
	toolViewMeetings       = "viewMeetings"
	toolLogoutUser         = "logoutUser"
	toolGetWeather         = "getWeather"
	toolSearchLocation     = "searchLocation"
)

type createMeetingInput struct {
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Participants []string `json:"participants"`
	Notes        string   `json:"notes"`
}

type createContactInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Number      string `json:"number"`
	Description string `json:"description"`
}

type updateSettingsInput struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	Location      *string `json:"location"`
	WorkTimeStart *string `json:"workTimeStart"`
	WorkTimeEnd   *string `json:"workTimeEnd"`
	OffDays       []int   `json:"offDays"`
}

type viewMeetingsInput struct {
	Timeframe string `json:"timeframe"`
}

type getWeatherInput struct {
	Location string `json:"location"`
}

type searchLocationInput struct {
	Query    string `json:"query"`
	Location string `json:"location"`
}

// toolOutcome is the result of applying one tool request. Read-only tools
// produce output text; mutating tools only report success or failure.
type toolOutcome struct {
	output  string
	applied bool
}

// applyTool dispatches a single tool request. Failures never surface as
// errors; they become apologetic strings so the conversation continues.
func (b *Bridge) applyTool(ctx context.Context, request ToolRequest) toolOutcome {
	payload := request.Payload()

	switch request.Tool.Name {
	case toolCreateMeeting:
		var input createMeetingInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return toolOutcome{}
		}
		_, err := b.accounts.AddMeeting(ctx, application.MeetingInput{
			Title:        input.Title,
			Date:         input.Date,
			Participants: input.Participants,
			Notes:        input.Notes,
		})
		return toolOutcome{applied: err == nil}

	case toolCreateNewContact:
		var input createContactInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return toolOutcome{}
		}
		_, err := b.accounts.AddContact(ctx, application.ContactInput{
			Name:        input.Name,
			Email:       input.Email,
			Number:      input.Number,
			Description: input.Description,
		})
		return toolOutcome{applied: err == nil}

	case toolUpdateUserSettings:
		var input updateSettingsInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return toolOutcome{}
		}
		// The identifier is immutable; a provider-supplied email is ignored.
		_, err := b.accounts.UpdateProfile(ctx, application.Settings{
			Name:          input.Name,
			Location:      input.Location,
			WorkTimeStart: input.WorkTimeStart,
			WorkTimeEnd:   input.WorkTimeEnd,
			OffDays:       input.OffDays,
		})
		return toolOutcome{applied: err == nil}

	case toolLogoutUser:
		err := b.accounts.Logout(ctx)
		return toolOutcome{applied: err == nil}

	case toolViewMeetings:
		var input viewMeetingsInput
		if err := json.Unmarshal(payload, &input); err != nil {
			input.Timeframe = "future"
		}
		return toolOutcome{output: b.summarizeMeetings(input.Timeframe), applied: true}

	case toolGetWeather:
		var input getWeatherInput
		if err := json.Unmarshal(payload, &input); err != nil || strings.TrimSpace(input.Location) == "" {
			return toolOutcome{}
		}
		observation, err := b.weather.Current(ctx, input.Location)
		if err != nil {
			return toolOutcome{output: fmt.Sprintf("Sorry, I couldn't get the weather for %s.", input.Location), applied: true}
		}
		return toolOutcome{
			output:  fmt.Sprintf("The weather in %s is %s with a temperature of %g degrees Celsius.", input.Location, observation.Condition, observation.TempC),
			applied: true,
		}

	case toolSearchLocation:
		var input searchLocationInput
		if err := json.Unmarshal(payload, &input); err != nil || strings.TrimSpace(input.Query) == "" {
			return toolOutcome{}
		}
		query := input.Query
		if input.Location != "" {
			query = input.Query + " in " + input.Location
		}
		matches, err := b.weather.Search(ctx, query)
		if err != nil {
			return toolOutcome{output: "Sorry, I couldn't search for locations.", applied: true}
		}
		if len(matches) == 0 {
			return toolOutcome{
				output:  fmt.Sprintf("I couldn't find any locations matching %q near %s.", input.Query, input.Location),
				applied: true,
			}
		}
		names := make([]string, 0, len(matches))
		for _, match := range matches {
			names = append(names, fmt.Sprintf("%s, %s", match.Name, match.Region))
		}
		return toolOutcome{
			output:  fmt.Sprintf("I found these locations: %s. Which one would you like?", strings.Join(names, "; ")),
			applied: true,
		}
	}

	return toolOutcome{}
}

// summarizeMeetings renders the current aggregate's meetings on one side of
// now as a human-readable list.
func (b *Bridge) summarizeMeetings(timeframe string) string {
	if timeframe != "past" {
		timeframe = "future"
	}

	now := b.now()
	var relevant []application.Meeting
	for _, meeting := range b.accounts.Current().Meetings {
		if timeframe == "future" && !meeting.Date.Before(now) {
			relevant = append(relevant, meeting)
		}
		if timeframe == "past" && meeting.Date.Before(now) {
			relevant = append(relevant, meeting)
		}
	}

	if len(relevant) == 0 {
		return fmt.Sprintf("You have no %s meetings.", timeframe)
	}

	lines := make([]string, 0, len(relevant))
	for _, meeting := range relevant {
		lines = append(lines, fmt.Sprintf("- %q on %s", meeting.Title, meeting.Date.Format("January 2, 2006 at 3:04 PM")))
	}
	return fmt.Sprintf("Here are your %s meetings:\n%s", timeframe, strings.Join(lines, "\n"))
}
