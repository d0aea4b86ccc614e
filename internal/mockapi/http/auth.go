package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/service"
	"github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/store"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/httpx"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/slogx"
)

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func toUserJSON(a store.Account) userJSON {
	return userJSON{ID: a.ID.String(), Email: a.Email}
}

// AuthHandler serves /auth/*.
type AuthHandler struct {
	Auth *service.AuthService
}

// HandleLogin handles POST /auth/login {email,password}.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	pair, acct, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			slogx.FromContext(r.Context()).Error("login failed", "err", err)
		}
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid login credentials")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "Login successful",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          toUserJSON(acct),
	})
}

// HandleRefresh handles POST /auth/refresh {refresh_token}.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	pair, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid Refresh Token")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// HandleValidate handles POST /auth/validate. Any 2xx means the bearer
// token is accepted.
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Auth.Validate(httpx.BearerToken(r))
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  userJSON{ID: claims.Subject, Email: claims.Email},
	})
}

// HandleLogout handles POST /auth/logout. It always succeeds; a valid bearer
// token additionally revokes that user's refresh tokens.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if tok := httpx.BearerToken(r); tok != "" {
		n := h.Auth.Logout(r.Context(), tok)
		slogx.FromContext(r.Context()).Debug("refresh tokens revoked", "count", n)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// HandleUser handles GET /auth/user behind AuthnMiddleware.
func (h *AuthHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Auth.User(httpx.SubjectFromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": toUserJSON(acct)})
}
