package models

// AuthErrorType tags which auth flow produced an error.
type AuthErrorType string

const (
	AuthErrorSignIn  AuthErrorType = "signin"
	AuthErrorSignUp  AuthErrorType = "signup"
	AuthErrorSignOut AuthErrorType = "signout"
)

// AuthError is the one error path the UI surfaces directly. Task mutation
// failures are swallowed by the store; auth failures are not.
type AuthError struct {
	Type    AuthErrorType `json:"type"`
	Message string        `json:"message"`
}

func (e *AuthError) Error() string {
	return string(e.Type) + ": " + e.Message
}
