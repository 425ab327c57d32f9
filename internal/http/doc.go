// Package http provides HTTP handlers and middleware for the assistant API.
//
// The router exposes the following endpoints:
//   - POST /api/signup: registers an account. Body: {"name","email","password"}.
//     Response: {"token","expires_at","onboarding","user"} with the token also
//     surfaced via the `X-Session-Token` header and a `session_token` cookie.
//   - POST /api/login: authenticates an identifier. Body: {"email","password"}.
//   - POST /api/logout: resets the session to the guest aggregate. 204.
//   - GET /api/profile, PATCH /api/profile: display-settings endpoints
//     exchanging the `accountDTO` payload defined in profile_handler.go.
//   - GET /api/contacts, POST /api/contacts, PUT /api/contacts/{id},
//     DELETE /api/contacts/{id}: contact-list endpoints exchanging the
//     `contactDTO` payload defined in contact_handler.go.
//   - GET /api/meetings, POST /api/meetings, DELETE /api/meetings/{id}:
//     meeting endpoints exchanging the `meetingDTO` payload defined in
//     meeting_handler.go. Meetings stay sorted by date ascending.
//   - GET /api/meetings/ics: iCalendar export of the meeting list.
//   - POST /api/chat: one assistant conversation turn. Body:
//     {"message","openAiMode"}. Rate limited per identifier.
//   - GET /api/weather?location=…: current conditions, defaulting to the
//     aggregate's saved location.
//   - GET /health: liveness probe.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
