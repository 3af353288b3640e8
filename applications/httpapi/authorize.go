package httpapi

import (
	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
)

// authorizeDepartment applies the same Admin/Manager/Staff scoping rule as
// middleware.RequireDepartmentAccess, for handlers that only know the
// target department after loading the entity (spec §4.1 "Manager
// read-only cross-department; Staff edits own department only").
func authorizeDepartment(actor middleware.Actor, target department.Department, writeRoute bool) *middleware.ServiceError {
	switch actor.Role {
	case "Admin":
		return nil
	case "Manager":
		if writeRoute {
			return middleware.ErrForbidden("manager role is read-only")
		}
		return nil
	case "Staff":
		if string(target) != "" && string(target) != actor.Department {
			return middleware.ErrForbidden("staff may not access another department")
		}
		return nil
	default:
		return middleware.ErrForbidden("unrecognized role")
	}
}
