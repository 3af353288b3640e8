package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/syncjob"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

type startSyncRequest struct {
	Kind       string `json:"kind"`
	Department string `json:"department"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

func (d Deps) handleStartSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		var req startSyncRequest
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
		task, err := d.Sync.StartSync(r.Context(), syncjob.Kind(req.Kind), dept, req.Year, time.Month(req.Month), actor.Username)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		snap := task.Snapshot()
		middleware.WriteJSON(w, http.StatusAccepted, map[string]any{"task_id": snap.ID, "status": snap.Status})
	}
}

func (d Deps) handleSyncStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := mux.Vars(r)["task_id"]
		task, ok := d.Pool.Get(taskID)
		if !ok {
			middleware.WriteError(w, middleware.ErrNotFound("no task with that id"))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, task.Snapshot())
	}
}
