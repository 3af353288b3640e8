package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

// handleSettingsValue backs the CRITICAL /api/settings/value/{key} endpoint
// (spec §6): the frozen response carries exactly key, department, value.
func (d Deps) handleSettingsValue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		key := mux.Vars(r)["key"]
		dept, err := parseDepartmentQuery(r.URL.Query().Get("department"))
		if err != nil {
			middleware.WriteError(w, middleware.ErrValidation(err.Error()))
			return
		}
		if svcErr := authorizeDepartment(actor, dept, false); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		setting, ok, err := d.Settings.Get(r.Context(), key, dept)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		if !ok {
			middleware.WriteError(w, middleware.ErrNotFound("no setting with that key for the given department"))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]any{
			"key":        setting.Key,
			"department": setting.Department,
			"value":      setting.Value,
		})
	}
}
