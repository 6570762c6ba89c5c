package apiclient

// Credential sets the Authorization header of a request.
// The two implementations are distinct types so a user token cannot be passed where
// the operational credential is expected (or the other way around).
type Credential interface {
	authorization() string
}

// UserToken is the signed-in user's bearer token, sent as "JWT <token>".
// It comes from the session and is only used on the user's behalf.
type UserToken string

func (t UserToken) authorization() string { return "JWT " + string(t) }

// OperationalToken is the service credential configured with OPERATIONAL_TOKEN, sent as "Token <token>".
// It is used for identity provider calls and gateway status polling.
type OperationalToken string

func (t OperationalToken) authorization() string { return "Token " + string(t) }
