package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/kunpeto/driver-management-system-sub001/applications/auth"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         auth.Summary `json:"user"`
}

func (d Deps) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		access, refresh, summary, err := d.Auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: access, RefreshToken: refresh, User: summary})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (d Deps) handleRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		access, err := d.Auth.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			middleware.WriteError(w, middleware.ErrUnauthorized("invalid or expired refresh token"))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"access_token": access})
	}
}

func (d Deps) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Tokens are stateless JWTs; logout is a client-side no-op that
		// still returns 204 so the desktop helper's flow is uniform.
		w.WriteHeader(http.StatusNoContent)
	}
}

func (d Deps) handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			middleware.WriteError(w, middleware.ErrUnauthorized("missing actor"))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"user_id":    actor.UserID,
			"username":   actor.Username,
			"role":       actor.Role,
			"department": actor.Department,
		})
	}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (d Deps) handleChangePassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			middleware.WriteError(w, middleware.ErrUnauthorized("missing actor"))
			return
		}
		var req changePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		if err := d.Auth.ChangePassword(r.Context(), actor, req.OldPassword, req.NewPassword); err != nil {
			writeAuthError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *auth.TooManyAttemptsError:
		middleware.WriteError(w, middleware.ErrRateLimited(900))
	case *auth.InvalidCredentialsError:
		middleware.WriteError(w, middleware.ErrUnauthorized("invalid username or password"))
	default:
		middleware.WriteError(w, middleware.AsServiceError(err))
	}
}
