package ws

import (
	"errors"
	"net/http"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("ws: unauthenticated")

// Identity is the authenticated user attached to a connection.
type Identity struct {
	UserID   string
	Username string
}

// Authenticator resolves the identity of an incoming websocket request
// before the upgrade happens. Implementations must not write to the
// response.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

// TrustedHeaderAuthenticator reads identity from the X-User-Id and
// X-Username headers. It is meant for deployments where a reverse proxy
// terminates authentication and injects these headers; the server trusts
// them as-is.
type TrustedHeaderAuthenticator struct{}

// Authenticate implements Authenticator.
//
// Postcondition: Returns ErrUnauthenticated when X-User-Id is missing.
// A missing X-Username falls back to the user id.
func (TrustedHeaderAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		return Identity{}, ErrUnauthenticated
	}
	username := r.Header.Get("X-Username")
	if username == "" {
		username = userID
	}
	return Identity{UserID: userID, Username: username}, nil
}
