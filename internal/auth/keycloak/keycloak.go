// Package keycloak talks to a Keycloak realm: password and refresh grants,
// logout, and verification of realm-signed access tokens.
package keycloak

import (
	"errors"
	"net/url"
	"strings"
)

// Config identifies the realm and the confidential or public client.
type Config struct {
	RealmURI     string
	ClientID     string
	ClientSecret string // optional for public clients
}

// Validate checks that the required settings are present.
func (c Config) Validate() error {
	if c.RealmURI == "" {
		return errors.New("missing configuration RealmUri")
	}
	if c.ClientID == "" {
		return errors.New("missing configuration ClientId")
	}
	return nil
}

func (c Config) endpoint(name string) string {
	return strings.TrimSuffix(c.RealmURI, "/") + "/protocol/openid-connect/" + name
}

// CertsURL is the realm JWKS endpoint.
func (c Config) CertsURL() string { return c.endpoint("certs") }

// TokenURL is the realm token endpoint.
func (c Config) TokenURL() string { return c.endpoint("token") }

// LogoutURL is the realm logout endpoint.
func (c Config) LogoutURL() string { return c.endpoint("logout") }

// Grant types.
const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)

// TokenRequest holds the form fields of a token or logout request.
// Empty fields are not sent.
type TokenRequest struct {
	GrantType    string
	Username     string
	Password     string
	RefreshToken string
	Scope        string
}

// Form encodes the request together with the client credentials of cfg.
func (r TokenRequest) Form(cfg Config) url.Values {
	form := url.Values{}
	set := func(key, value string) {
		if value != "" {
			form.Set(key, value)
		}
	}
	set("client_id", cfg.ClientID)
	set("client_secret", cfg.ClientSecret)
	set("grant_type", r.GrantType)
	set("username", r.Username)
	set("password", r.Password)
	set("refresh_token", r.RefreshToken)
	set("scope", r.Scope)
	return form
}

// TokenResponse is the token endpoint response body.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}
