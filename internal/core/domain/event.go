package domain

import "time"

// AuthEventType names an auditable authentication action.
type AuthEventType string

const (
	EventUserRegistered AuthEventType = "user.registered"
	EventLoginSucceeded AuthEventType = "login.succeeded"
	EventLoginFailed    AuthEventType = "login.failed"
	EventUserDeleted    AuthEventType = "user.deleted"
)

// AuthEvent is an audit record of something that happened to an account.
type AuthEvent struct {
	ID         string
	Type       AuthEventType
	Username   string
	SubjectID  string // optional: empty for failed logins of unknown users
	ActorID    string // optional: the admin performing a deletion
	OccurredAt time.Time
}
