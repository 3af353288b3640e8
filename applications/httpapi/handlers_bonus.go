package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

type processRequest struct {
	Department string `json:"department"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	DryRun     bool   `json:"dry_run"`
}

func (d Deps) handleProcessAttendanceBonus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		var req processRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		dept, err := department.Parse(req.Department)
		if err != nil {
			middleware.WriteError(w, middleware.ErrValidation(err.Error()))
			return
		}
		if svcErr := authorizeDepartment(actor, dept, true); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		result, err := d.Bonus.Process(r.Context(), dept, req.Year, time.Month(req.Month), req.DryRun)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, result)
	}
}

func (d Deps) handleProcessMonthlyReward() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		var req processRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		dept, err := department.Parse(req.Department)
		if err != nil {
			middleware.WriteError(w, middleware.ErrValidation(err.Error()))
			return
		}
		if svcErr := authorizeDepartment(actor, dept, true); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		result, err := d.Reward.Process(r.Context(), dept, req.Year, time.Month(req.Month))
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, result)
	}
}

// handleDrivingStats backs /api/driving/stats with the Pending-Case
// Ledger's per-department statistics (spec §4.13): total, by-type, oldest
// pending date, this-month completion rate.
func (d Deps) handleDrivingStats() http.HandlerFunc {
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
		asOf := time.Now().UTC()
		if raw := r.URL.Query().Get("as_of"); raw != "" {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				asOf = parsed
			}
		}
		stats, err := d.PendingCase.Stats(r.Context(), dept, asOf)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, stats)
	}
}
