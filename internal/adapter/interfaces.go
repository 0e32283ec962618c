package adapter

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/backend_mock.go -package=mock

// Response carries the backend's reply for a delivered request.
type Response struct {
	Status int
	Body   []byte
}

// Backend is the network collaborator used for direct mutation attempts and
// for draining the operation queue. Send returns a nil error only for a 2xx
// reply; every failure is classified into the transient/terminal taxonomy of
// this package so callers can drive retry decisions with errors.Is.
type Backend interface {
	// Send issues one HTTP request with a bounded timeout. payload may be
	// nil for bodyless requests. A timeout or unreachable network is
	// reported as ErrTransient.
	Send(ctx context.Context, method, endpoint string, payload []byte) (Response, error)

	// SetToken installs the bearer token attached to subsequent requests.
	SetToken(token string)

	// UserID extracts the authenticated user id from the current bearer
	// token's subject claim.
	UserID() (int64, error)
}
