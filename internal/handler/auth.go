package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/handler/dto"
	"github.com/niolikon/taskboard/internal/middleware"
	"github.com/niolikon/taskboard/internal/model"
)

// AuthService issues and revokes tokens for owners.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*auth.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Token, error)
	Logout(ctx context.Context, refreshToken string) error
}

// PrincipalEvicter forgets the cached caller of a token fingerprint.
type PrincipalEvicter interface {
	DeletePrincipal(ctx context.Context, fingerprint string) error
}

// AuthHandler serves the token endpoints.
type AuthHandler struct {
	svc    AuthService
	advice *middleware.Advice
	logger *slog.Logger
	cache  PrincipalEvicter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthService, advice *middleware.Advice, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, advice: advice, logger: logger}
}

// WithPrincipalCache makes Logout evict the caller's bearer token from cache.
func (h *AuthHandler) WithPrincipalCache(cache PrincipalEvicter) *AuthHandler {
	h.cache = cache
	return h
}

// Routes registers the handlers on r.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/register", h.advice.Handle(h.Register))
	r.Post("/token", h.advice.Handle(h.Token))
	r.Post("/refresh", h.advice.Handle(h.Refresh))
	r.Post("/logout", h.advice.Handle(h.Logout))
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) error {
	creds, err := decodeInput[dto.CredentialsRequest](w, r, dto.OpCreate)
	if err != nil {
		return err
	}
	user, err := h.svc.Register(r.Context(), creds.Username, creds.Password)
	if err != nil {
		return err
	}

	h.logger.Info("owner_registered",
		slog.String("owner_id", user.ID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeJSON(w, http.StatusCreated, dto.UserResponse{ID: user.ID, Username: user.Username})
	return nil
}

// Token handles POST /api/auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) error {
	creds, err := decodeInput[dto.CredentialsRequest](w, r, dto.OpUpdate)
	if err != nil {
		return err
	}
	token, err := h.svc.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, token)
	return nil
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeInput[dto.RefreshRequest](w, r, dto.OpUpdate)
	if err != nil {
		return err
	}
	token, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, token)
	return nil
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	var req dto.RefreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			return err
		}
	}
	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		return err
	}

	if token := middleware.BearerToken(r); token != "" && h.cache != nil {
		if err := h.cache.DeletePrincipal(r.Context(), auth.TokenFingerprint(token)); err != nil {
			h.logger.Warn("principal cache eviction failed",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
		}
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
