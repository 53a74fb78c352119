package models

// Persisted credential keys read by the session monitor.
const (
	KeyPhoneNumber = "phone_number"
	KeyUserID      = "user_id"
)

// Session is the client's belief about which user, if any, is authenticated.
// swagger:model Session
type Session struct {
	// Whether persisted credentials are present
	// example: true
	LoggedIn bool `json:"logged_in"`

	// Active user identifier, empty when logged out
	// example: 5f0c7c1e-8f6b-4a59-9d39-0a8e8c1d2b7e
	UserID string `json:"user_id,omitempty"`
}

// NewSession returns a logged-in session for userID, or a logged-out one
// when userID is empty.
func NewSession(userID string) Session {
	if userID == "" {
		return LoggedOut()
	}
	return Session{LoggedIn: true, UserID: userID}
}

// LoggedOut returns the logged-out session.
func LoggedOut() Session {
	return Session{}
}
