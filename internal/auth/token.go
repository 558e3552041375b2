package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/niolikon/taskboard/internal/model"
)

// Token errors.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// SystemOptions configures tokens signed by this service.
type SystemOptions struct {
	Secret    string
	Issuer    string
	Audience  string
	Algorithm string // HS256, HS384 or HS512
	TTL       time.Duration
}

// Verified returns an error naming the first missing option.
func (o SystemOptions) Verified() error {
	switch {
	case o.Secret == "":
		return missingOption("Secret")
	case o.Issuer == "":
		return missingOption("Issuer")
	case o.Audience == "":
		return missingOption("Audience")
	case o.Algorithm == "":
		return missingOption("SecurityAlgorithm")
	}
	return nil
}

func missingOption(name string) error {
	return fmt.Errorf("missing configuration %s", name)
}

func (o SystemOptions) signingMethod() (*jwt.SigningMethodHMAC, error) {
	method, ok := jwt.GetSigningMethod(o.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, o.Algorithm)
	}
	return method, nil
}

// Token is an issued access token.
type Token struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshExpiresIn int64  `json:"refresh_expires_in,omitempty"`
	TokenType        string `json:"token_type"`
}

// SystemClaims are the claims of tokens signed by TokenFactory.
type SystemClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenFactory signs access tokens for owners.
type TokenFactory struct {
	opts   SystemOptions
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewTokenFactory validates opts and creates a TokenFactory.
func NewTokenFactory(opts SystemOptions) (*TokenFactory, error) {
	if err := opts.Verified(); err != nil {
		return nil, err
	}
	method, err := opts.signingMethod()
	if err != nil {
		return nil, err
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	return &TokenFactory{opts: opts, method: method, now: time.Now}, nil
}

// CreateToken signs a token identifying user.
func (f *TokenFactory) CreateToken(user AuthenticatedUser) (*Token, error) {
	now := f.now()
	claims := SystemClaims{
		SessionID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    f.opts.Issuer,
			Audience:  jwt.ClaimStrings{f.opts.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(f.opts.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(f.method, claims).SignedString([]byte(f.opts.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		ExpiresIn:   int64(f.opts.TTL.Seconds()),
		TokenType:   "Bearer",
	}, nil
}

// CreateTokenForOwner signs a token for owner.
func (f *TokenFactory) CreateTokenForOwner(owner model.Owner) (*Token, error) {
	return f.CreateToken(FromOwner(owner))
}

// Verifier checks a bearer token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (jwt.MapClaims, error)
}

// SystemVerifier verifies tokens signed by a TokenFactory with the same options.
type SystemVerifier struct {
	opts   SystemOptions
	parser *jwt.Parser
}

// NewSystemVerifier creates a SystemVerifier.
func NewSystemVerifier(opts SystemOptions) (*SystemVerifier, error) {
	if err := opts.Verified(); err != nil {
		return nil, err
	}
	if _, err := opts.signingMethod(); err != nil {
		return nil, err
	}
	return &SystemVerifier{
		opts: opts,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{opts.Algorithm}),
			jwt.WithIssuer(opts.Issuer),
			jwt.WithAudience(opts.Audience),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Verify implements Verifier.
func (v *SystemVerifier) Verify(_ context.Context, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(v.opts.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
