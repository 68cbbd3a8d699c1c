package models

// Session is the authenticated user context read at flow entry. The
// orchestrator receives it as a value instead of reading ambient
// client-side storage, so fakes can drive it in tests.
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"user_name"`
	Email  string `json:"user_email"`
	Phone  string `json:"user_phone"`
}

// Authenticated reports whether a user identifier is present. Only the
// identifier gates checkout; the contact fields are prefill hints for
// the payment provider.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}
