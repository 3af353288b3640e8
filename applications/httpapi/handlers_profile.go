package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/profile"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

func (d Deps) handleListProfiles() http.HandlerFunc {
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
		profileType := profile.Type(r.URL.Query().Get("profile_type"))
		profiles, err := d.Profiles.ListByDepartment(r.Context(), dept, profileType)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
	}
}

type createProfileRequest struct {
	Department  string        `json:"department"`
	EmployeeRef string        `json:"employee_ref"`
	Fields      profile.Fields `json:"fields"`
}

func (d Deps) handleCreateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		var req createProfileRequest
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
		p, err := d.Profiles.Create(r.Context(), dept, req.EmployeeRef, req.Fields)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusCreated, p)
	}
}

type updateProfileRequest struct {
	Fields          profile.Fields `json:"fields"`
	ExpectedVersion int            `json:"expected_version"`
}

func (d Deps) handleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		id := mux.Vars(r)["id"]
		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		if svcErr := d.authorizeProfile(r, actor, id, true); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		p, err := d.Profiles.Update(r.Context(), id, req.Fields, req.ExpectedVersion)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, p)
	}
}

type convertProfileRequest struct {
	TargetType      string          `json:"target_type"`
	SubForm         json.RawMessage `json:"sub_form"`
	ExpectedVersion int             `json:"expected_version"`
}

func (d Deps) handleConvertProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		id := mux.Vars(r)["id"]
		var req convertProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		if svcErr := d.authorizeProfile(r, actor, id, true); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		target := profile.Type(req.TargetType)
		subForm, err := decodeSubForm(target, req.SubForm)
		if err != nil {
			middleware.WriteError(w, middleware.ErrValidation(err.Error()))
			return
		}
		p, err := d.Profiles.Convert(r.Context(), id, target, subForm, req.ExpectedVersion)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, p)
	}
}

func (d Deps) handleGenerateDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		id := mux.Vars(r)["id"]
		if svcErr := d.authorizeProfile(r, actor, id, false); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		data, fileName, err := d.Profiles.GenerateDocument(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// handlePrepareUpload backs the Drive Dispatcher's (C4) upload-plan step:
// it never touches storage, it only computes where the Desktop Helper
// should upload the profile's PDF (spec §4.4).
func (d Deps) handlePrepareUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		id := mux.Vars(r)["id"]
		if svcErr := d.authorizeProfile(r, actor, id, false); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		plan, err := d.Drive.PrepareUpload(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, plan)
	}
}

type markCompleteRequest struct {
	DriveLink       string `json:"drive_link"`
	ExpectedVersion int    `json:"expected_version"`
}

// handleMarkComplete is called by the Desktop Helper once it has actually
// uploaded the PDF; it goes through the Drive Dispatcher rather than
// Profiles directly so the completion step stays paired with the plan step
// that produced the folder/file name it uploaded to (spec §4.4).
func (d Deps) handleMarkComplete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		id := mux.Vars(r)["id"]
		var req markCompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		if svcErr := d.authorizeProfile(r, actor, id, true); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		p, err := d.Drive.MarkCompleted(r.Context(), id, req.DriveLink, req.ExpectedVersion)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, p)
	}
}

type adminResetRequest struct {
	ExpectedVersion int `json:"expected_version"`
}

func (d Deps) handleAdminReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		if actor.Role != "Admin" {
			middleware.WriteError(w, middleware.ErrForbidden("admin-reset requires Admin role"))
			return
		}
		id := mux.Vars(r)["id"]
		var req adminResetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		p, err := d.Profiles.AdminReset(r.Context(), id, req.ExpectedVersion)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, p)
	}
}

// authorizeProfile scopes a by-id profile route for Staff actors by
// checking membership in their own department's listing; Admin passes
// unconditionally and Manager is read-only (spec §3 "User / Role").
func (d Deps) authorizeProfile(r *http.Request, actor middleware.Actor, id string, writeRoute bool) *middleware.ServiceError {
	switch actor.Role {
	case "Admin":
		return nil
	case "Manager":
		if writeRoute {
			return middleware.ErrForbidden("manager role is read-only")
		}
		return nil
	case "Staff":
		dept, err := department.Parse(actor.Department)
		if err != nil {
			return middleware.ErrForbidden("actor has no department scope")
		}
		profiles, err := d.Profiles.ListByDepartment(r.Context(), dept, "")
		if err != nil {
			return middleware.AsServiceError(err)
		}
		for _, p := range profiles {
			if p.ID == id {
				return nil
			}
		}
		return middleware.ErrForbidden("staff may not access another department's profile")
	default:
		return middleware.ErrForbidden("unrecognized role")
	}
}

func decodeSubForm(target profile.Type, raw json.RawMessage) (profile.SubForm, error) {
	switch target {
	case profile.TypeEventInvestigation:
		var f profile.EventInvestigationForm
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("malformed event-investigation sub-form: %w", err)
		}
		return f, nil
	case profile.TypePersonnelInterview:
		var f profile.PersonnelInterviewForm
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("malformed personnel-interview sub-form: %w", err)
		}
		return f, nil
	case profile.TypeCorrectiveMeasures:
		var f profile.CorrectiveMeasuresForm
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("malformed corrective-measures sub-form: %w", err)
		}
		return f, nil
	case profile.TypeAssessmentNotice:
		var f profile.AssessmentNoticeForm
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("malformed assessment-notice sub-form: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown target profile type %q", target)
	}
}
