package client

import (
	"errors"
	"fmt"

	"github.com/aeolun/crewchat/pkg/chat"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoUserClaim is returned when a session token does not name a user
var ErrNoUserClaim = errors.New("session token has no user id claim")

// Session is the signed-in user and the bearer token used for API calls.
// It is passed explicitly into the UI; nothing reads it from a global.
type Session struct {
	User  chat.User
	Token string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// SessionFromToken reads the user identity out of a JWT bearer token.
// The signature is not checked here; the API verifies every request it receives.
func SessionFromToken(token string) (Session, error) {
	claims := &sessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("failed to parse session token: %w", err)
	}

	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return Session{}, ErrNoUserClaim
	}

	return Session{
		User: chat.User{
			ID:        id,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
			Email:     claims.Email,
		},
		Token: token,
	}, nil
}
