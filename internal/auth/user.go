// Package auth resolves caller identities and issues or verifies their tokens.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/niolikon/taskboard/internal/apperr"
	"github.com/niolikon/taskboard/internal/model"
)

// SessionClaim is the claim carrying the caller's identifier.
const SessionClaim = "sid"

// AuthenticatedUser is the verified caller of the current request.
type AuthenticatedUser struct {
	ID string `json:"id"`
}

// ToOwner returns the owner identified by the user.
func ToOwner(user AuthenticatedUser) model.ServedOwner {
	return model.ServedOwner{ID: user.ID}
}

// FromOwner returns the user that acts as owner, e.g. when issuing its token.
func FromOwner(owner model.Owner) AuthenticatedUser {
	return AuthenticatedUser{ID: owner.OwnerID()}
}

// UserFromClaims extracts the caller from verified token claims.
func UserFromClaims(claims jwt.MapClaims) (AuthenticatedUser, error) {
	sid, _ := claims[SessionClaim].(string)
	if sid == "" {
		return AuthenticatedUser{}, apperr.Unauthorized("User has no valid Id")
	}
	return AuthenticatedUser{ID: sid}, nil
}
