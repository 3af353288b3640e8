// Package httpapi assembles the HTTP Surface (C14): a gorilla/mux router,
// the middleware chain from spec §4.14, and the representative route set
// from spec §6.
package httpapi

import (
	"github.com/kunpeto/driver-management-system-sub001/applications/auth"
	"github.com/kunpeto/driver-management-system-sub001/domain/bonus"
	"github.com/kunpeto/driver-management-system-sub001/domain/credential"
	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/drive"
	"github.com/kunpeto/driver-management-system-sub001/domain/employee"
	"github.com/kunpeto/driver-management-system-sub001/domain/pendingcase"
	"github.com/kunpeto/driver-management-system-sub001/domain/profile"
	"github.com/kunpeto/driver-management-system-sub001/domain/reward"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
	"github.com/kunpeto/driver-management-system-sub001/domain/settings"
	"github.com/kunpeto/driver-management-system-sub001/domain/syncjob"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/logging"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/metrics"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/taskqueue"
)

// StandardLister exposes the read-only assessment-standards catalog.
type StandardLister interface {
	ListAll() ([]scoring.Standard, error)
}

// Deps collects every component the router dispatches into. Each field is
// a narrow domain interface/engine, never a concrete store, so handlers
// stay testable with fakes.
type Deps struct {
	Auth        *auth.Manager
	Employees   employee.Repository
	Profiles    *profile.Machine
	Scoring     *scoring.Engine
	Standards   StandardLister
	Bonus       *bonus.Engine
	Reward      *reward.Engine
	Credential  *credential.Manager
	Sync        *syncjob.Orchestrator
	Pool        *taskqueue.Pool
	PendingCase pendingcase.Repository
	Settings    settings.Store
	Drive       *drive.Dispatcher

	Logger  *logging.Logger
	Metrics *metrics.Metrics

	CORSAllowedOrigins []string

	// GoogleCallbackRedirect is where a browser is sent after a completed
	// OAuth callback; empty disables the redirect (JSON response instead).
	GoogleCallbackRedirect string
}

func parseDepartmentQuery(raw string) (department.Department, error) {
	return department.Parse(raw)
}
