package httpapi

import (
	"net/http"

	"github.com/kunpeto/driver-management-system-sub001/domain/credential"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

func (d Deps) handleGoogleAuthURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dept, err := parseDepartmentQuery(r.URL.Query().Get("department"))
		if err != nil {
			middleware.WriteError(w, middleware.ErrValidation(err.Error()))
			return
		}
		authURL, state, err := d.Credential.BeginAuthorization(dept)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"auth_url": authURL, "state": state})
	}
}

func (d Deps) handleGoogleCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state, code := q.Get("state"), q.Get("code")
		if state == "" || code == "" {
			middleware.WriteError(w, middleware.ErrValidation("state and code are required"))
			return
		}
		if err := d.Credential.FinalizeAuthorization(r.Context(), state, code); err != nil {
			writeCredentialError(w, err)
			return
		}
		if d.GoogleCallbackRedirect != "" {
			http.Redirect(w, r, d.GoogleCallbackRedirect, http.StatusFound)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (d Deps) handleGetAccessToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		dept, err := parseDepartmentQuery(r.URL.Query().Get("department"))
		if err != nil {
			middleware.WriteError(w, middleware.ErrValidation(err.Error()))
			return
		}
		if svcErr := authorizeDepartment(actor, dept, false); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		token, err := d.Credential.AcquireAccessToken(r.Context(), dept)
		if err != nil {
			writeCredentialError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"access_token": token})
	}
}

func writeCredentialError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *credential.NotAuthorizedError:
		middleware.WriteError(w, middleware.ErrNotFound(err.Error()))
	case *credential.UpstreamAuthFailureError:
		middleware.WriteError(w, middleware.ErrUpstreamUnavailable("identity provider rejected the request", err))
	case *credential.VaultInconsistencyError:
		middleware.WriteError(w, middleware.ErrVaultInconsistency("stored credential could not be decrypted", err))
	default:
		middleware.WriteError(w, middleware.AsServiceError(err))
	}
}
