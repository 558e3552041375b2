package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/niolikon/taskboard/internal/apperr"
	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/metrics"
)

// Authentication failures.
var (
	ErrMissingToken = apperr.Unauthorized("Missing bearer token")
	ErrInvalidToken = apperr.Unauthorized("Invalid token")
)

// PrincipalCache remembers callers of already verified tokens, keyed by
// auth.TokenFingerprint.
type PrincipalCache interface {
	GetPrincipal(ctx context.Context, fingerprint string) (auth.AuthenticatedUser, bool, error)
	SetPrincipal(ctx context.Context, fingerprint string, user auth.AuthenticatedUser, expiresAt time.Time) error
}

// AuthenticateConfig holds the dependencies of Authenticate.
type AuthenticateConfig struct {
	Logger   *slog.Logger
	Verifier auth.Verifier
	// Cache is optional; nil verifies every request.
	Cache   PrincipalCache
	Metrics metrics.Recorder
	Advice  *Advice
}

// Authenticate verifies the bearer token and stores the caller in the request
// context. Every failure is answered with 401.
func Authenticate(cfg AuthenticateConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Advice == nil {
		cfg.Advice = NewAdvice(cfg.Logger)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := cfg.authenticate(r)
			if err != nil {
				cfg.Advice.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}

func (cfg AuthenticateConfig) authenticate(r *http.Request) (auth.AuthenticatedUser, error) {
	ctx := r.Context()

	token := BearerToken(r)
	if token == "" {
		cfg.reject(r, "missing_token")
		return auth.AuthenticatedUser{}, ErrMissingToken
	}

	fingerprint := auth.TokenFingerprint(token)
	if cfg.Cache != nil {
		user, ok, err := cfg.Cache.GetPrincipal(ctx, fingerprint)
		if err != nil {
			cfg.Logger.Warn("principal cache unavailable",
				slog.String("error", err.Error()),
				slog.String("request_id", GetRequestID(ctx)),
			)
		}
		if ok {
			cfg.Metrics.IncPrincipalCacheHit()
			return user, nil
		}
		cfg.Metrics.IncPrincipalCacheMiss()
	}

	claims, err := cfg.Verifier.Verify(ctx, token)
	if err != nil {
		cfg.reject(r, "invalid_token")
		return auth.AuthenticatedUser{}, ErrInvalidToken.Wrap(err)
	}

	user, err := auth.UserFromClaims(claims)
	if err != nil {
		cfg.reject(r, "missing_subject")
		return auth.AuthenticatedUser{}, err
	}

	if cfg.Cache != nil {
		var expiresAt time.Time
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			expiresAt = exp.Time
		}
		if err := cfg.Cache.SetPrincipal(ctx, fingerprint, user, expiresAt); err != nil {
			cfg.Logger.Warn("failed to cache principal",
				slog.String("error", err.Error()),
				slog.String("request_id", GetRequestID(ctx)),
			)
		}
	}

	return user, nil
}

func (cfg AuthenticateConfig) reject(r *http.Request, reason string) {
	cfg.Metrics.IncAuthFailure(reason)
	cfg.Logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
