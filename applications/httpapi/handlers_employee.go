package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/employee"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

func (d Deps) handleListEmployees() http.HandlerFunc {
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
		includeResigned := r.URL.Query().Get("include_resigned") == "true"
		employees, err := d.Employees.ListByDepartment(r.Context(), dept, includeResigned)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"employees": employees})
	}
}

type createEmployeeRequest struct {
	EmployeeCode string `json:"employee_code"`
	Name         string `json:"name"`
	Department   string `json:"department"`
	ContactInfo  string `json:"contact_info"`
}

func (d Deps) handleCreateEmployee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		var req createEmployeeRequest
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
		e, err := d.Employees.Create(r.Context(), employee.Employee{
			EmployeeCode:      req.EmployeeCode,
			Name:              req.Name,
			CurrentDepartment: dept,
			ContactInfo:       req.ContactInfo,
		})
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusCreated, e)
	}
}

func (d Deps) handleGetEmployee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		code := mux.Vars(r)["code"]
		e, err := d.Employees.GetByCode(r.Context(), code)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		if svcErr := authorizeDepartment(actor, e.CurrentDepartment, false); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, e)
	}
}

type transferEmployeeRequest struct {
	ToDepartment  string    `json:"to_department"`
	EffectiveDate time.Time `json:"effective_date"`
	Reason        string    `json:"reason"`
}

func (d Deps) handleTransferEmployee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		code := mux.Vars(r)["code"]
		current, err := d.Employees.GetByCode(r.Context(), code)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		if svcErr := authorizeDepartment(actor, current.CurrentDepartment, true); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		var req transferEmployeeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		to, err := department.Parse(req.ToDepartment)
		if err != nil {
			middleware.WriteError(w, middleware.ErrValidation(err.Error()))
			return
		}
		transfer, err := d.Employees.RecordTransfer(r.Context(), employee.Transfer{
			EmployeeCode:   code,
			FromDepartment: current.CurrentDepartment,
			ToDepartment:   to,
			EffectiveDate:  req.EffectiveDate,
			Reason:         req.Reason,
		})
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		middleware.WriteJSON(w, http.StatusCreated, transfer)
	}
}

type resignEmployeeRequest struct {
	Resigned bool `json:"resigned"`
}

func (d Deps) handleResignEmployee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		code := mux.Vars(r)["code"]
		current, err := d.Employees.GetByCode(r.Context(), code)
		if err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		if svcErr := authorizeDepartment(actor, current.CurrentDepartment, true); svcErr != nil {
			middleware.WriteError(w, svcErr)
			return
		}
		var req resignEmployeeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, middleware.ErrValidation("malformed request body"))
			return
		}
		if err := d.Employees.MarkResigned(r.Context(), code, req.Resigned); err != nil {
			middleware.WriteError(w, middleware.AsServiceError(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
