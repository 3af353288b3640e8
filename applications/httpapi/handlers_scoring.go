package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

func (d Deps) handleListStandards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		standards, err := d.Standards.ListAll()
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"standards": standards})
	}
}

type checklistWire struct {
	Flags        [9]bool   `json:"flags"`
	T0           time.Time `json:"t0"`
	T1           time.Time `json:"t1"`
	T2           time.Time `json:"t2"`
	T3           time.Time `json:"t3"`
	T4           time.Time `json:"t4"`
	DelaySeconds int       `json:"delay_seconds"`
}

func (c checklistWire) toDomain() *scoring.FaultChecklist {
	return &scoring.FaultChecklist{
		Flags: c.Flags, T0: c.T0, T1: c.T1, T2: c.T2, T3: c.T3, T4: c.T4,
		DelaySeconds: c.DelaySeconds,
	}
}

type createAssessmentRecordRequest struct {
	Employee       string          `json:"employee"`
	StandardCode   string          `json:"standard_code"`
	EventDate      time.Time       `json:"event_date"`
	Checklist      *checklistWire  `json:"checklist,omitempty"`
	ProfileRef     string          `json:"profile_ref"`
	IdempotencyKey string          `json:"idempotency_key"`
}

func (d Deps) handleCreateAssessmentRecord() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		var req createAssessmentRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		draft := scoring.Draft{
			Employee:       req.Employee,
			StandardCode:   req.StandardCode,
			EventDate:      req.EventDate,
			ProfileRef:     req.ProfileRef,
			IdempotencyKey: req.IdempotencyKey,
			Actor:          actor.Username,
		}
		if req.Checklist != nil {
			draft.Checklist = req.Checklist.toDomain()
		}
		rec, err := d.Scoring.ApplyRecord(r.Context(), draft)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusCreated, rec)
	}
}

func (d Deps) handleListAssessmentRecords() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			middleware.WriteError(w, middleware.ErrValidation("year is required and must be numeric"))
			return
		}
		monthNum, err := strconv.Atoi(q.Get("month"))
		if err != nil || monthNum < 1 || monthNum > 12 {
			middleware.WriteError(w, middleware.ErrValidation("month is required and must be 1-12"))
			return
		}
		records, err := d.Scoring.ListForEmployeeMonth(r.Context(), q.Get("employee"), year, time.Month(monthNum))
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
	}
}

func (d Deps) handleDeleteAssessmentRecord() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := d.Scoring.DeleteRecord(r.Context(), id); err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type moveAssessmentRecordRequest struct {
	NewEventDate time.Time `json:"new_event_date"`
}

// handleMoveAssessmentRecord backs /api/assessment-records/{id}/fault-responsibility:
// correcting a disputed fault finding commonly also corrects the recorded
// event date (e.g. moving an incident into the year its investigation
// actually concluded), which is the one post-creation mutation the Scoring
// Engine exposes for an existing record (spec §5 "recompute" ordering
// guarantee).
func (d Deps) handleMoveAssessmentRecord() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		var req moveAssessmentRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		if err := d.Scoring.MoveRecordEventDate(r.Context(), id, req.NewEventDate); err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
