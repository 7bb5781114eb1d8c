package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

const DefaultTokenTTL = 15 * time.Minute

type Server struct {
	Log      *zap.Logger
	Store    UserStore
	JWT      *TokenMaker
	TokenTTL time.Duration
}

type credentialsReq struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Email = normalizeEmail(req.Email)
	req.Password = normalizePassword(req.Password)

	if fields := kit.Validate(req); fields != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid credentials format", fields)
		return
	}

	id := "u_" + uuid.NewString()

	err := s.Store.Create(r.Context(), req.Email, req.Password, RoleCustomer, id)
	switch {
	case err == nil:
	case errors.Is(err, ErrEmailExists):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
		return
	default:
		s.Log.Error("create user failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, map[string]any{"user_id": id, "role": RoleCustomer})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Email = normalizeEmail(req.Email)
	req.Password = normalizePassword(req.Password)

	if fields := kit.Validate(req); fields != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "email/password required", fields)
		return
	}

	u, err := s.Store.Verify(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCredentials):
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	default:
		s.Log.Error("verify user failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	ttl := s.ttl()
	tok, err := s.JWT.New(u.ID, u.Email, u.Role, ttl)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
	})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	tok, ok := kit.BearerToken(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	claims, err := s.JWT.Parse(tok)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
	})
}

func (s *Server) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultTokenTTL
}
