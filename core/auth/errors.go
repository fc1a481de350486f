package auth

// Error is an authentication failure. Its message is safe to show to clients.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

var (
	ErrInvalidCredentials = &Error{msg: "invalid credentials"}
	ErrInvalidToken       = &Error{msg: "invalid token"}
	ErrExpiredToken       = &Error{msg: "expired token"}
	ErrRevokedToken       = &Error{msg: "revoked token"}
)
