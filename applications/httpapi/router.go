package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/ratelimit"
)

// NewRouter builds the full HTTP surface: middleware chain (spec §4.14)
// plus every representative route from spec §6.
func NewRouter(deps Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(deps.Logger))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics("driver-management", deps.Metrics))
	}
	router.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: deps.CORSAllowedOrigins}))

	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	loginLimiter := ratelimit.New(ratelimit.LoginConfig())
	docgenLimiter := ratelimit.New(ratelimit.DocumentGenerationConfig())

	api := router.PathPrefix("/api").Subrouter()

	// Public auth routes: no bearer token required yet.
	api.Handle("/auth/login", middleware.RateLimit(loginLimiter, middleware.ByClientIP)(
		http.HandlerFunc(deps.handleLogin()))).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", deps.handleRefresh()).Methods(http.MethodPost)
	api.HandleFunc("/google/auth-url", deps.handleGoogleAuthURL()).Methods(http.MethodGet)
	api.HandleFunc("/auth/google/callback", deps.handleGoogleCallback()).Methods(http.MethodGet)

	// The settings endpoint is CRITICAL (frozen response shape) but carries
	// no operator-facing sensitivity; the desktop helper authenticates with
	// a bearer token issued to a Staff/Admin service identity like any
	// other caller.
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(deps.Auth))

	protected.HandleFunc("/auth/logout", deps.handleLogout()).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", deps.handleMe()).Methods(http.MethodGet)
	protected.HandleFunc("/auth/change-password", deps.handleChangePassword()).Methods(http.MethodPost)

	protected.HandleFunc("/settings/value/{key}", deps.handleSettingsValue()).Methods(http.MethodGet)

	protected.HandleFunc("/employees", deps.handleListEmployees()).Methods(http.MethodGet)
	protected.HandleFunc("/employees", deps.handleCreateEmployee()).Methods(http.MethodPost)
	protected.HandleFunc("/employees/{code}", deps.handleGetEmployee()).Methods(http.MethodGet)
	protected.HandleFunc("/employees/{code}/transfer", deps.handleTransferEmployee()).Methods(http.MethodPost)
	protected.HandleFunc("/employees/{code}/resign", deps.handleResignEmployee()).Methods(http.MethodPost)

	protected.HandleFunc("/profiles", deps.handleListProfiles()).Methods(http.MethodGet)
	protected.HandleFunc("/profiles", deps.handleCreateProfile()).Methods(http.MethodPost)
	protected.HandleFunc("/profiles/{id}", deps.handleUpdateProfile()).Methods(http.MethodPatch)
	protected.HandleFunc("/profiles/{id}/convert", deps.handleConvertProfile()).Methods(http.MethodPost)
	protected.Handle("/profiles/{id}/generate-document", middleware.RateLimit(docgenLimiter, middleware.ByActor)(
		http.HandlerFunc(deps.handleGenerateDocument()))).Methods(http.MethodPost)
	protected.HandleFunc("/profiles/{id}/prepare-upload", deps.handlePrepareUpload()).Methods(http.MethodGet)
	protected.HandleFunc("/profiles/{id}/mark-complete", deps.handleMarkComplete()).Methods(http.MethodPost)
	protected.HandleFunc("/profiles/{id}/admin-reset", deps.handleAdminReset()).Methods(http.MethodPost)

	protected.HandleFunc("/assessment-standards", deps.handleListStandards()).Methods(http.MethodGet)

	protected.HandleFunc("/assessment-records", deps.handleCreateAssessmentRecord()).Methods(http.MethodPost)
	protected.HandleFunc("/assessment-records", deps.handleListAssessmentRecords()).Methods(http.MethodGet)
	protected.HandleFunc("/assessment-records/{id}", deps.handleDeleteAssessmentRecord()).Methods(http.MethodDelete)
	protected.HandleFunc("/assessment-records/{id}/fault-responsibility", deps.handleMoveAssessmentRecord()).Methods(http.MethodPost)

	protected.HandleFunc("/attendance-bonus/process", deps.handleProcessAttendanceBonus()).Methods(http.MethodPost)
	protected.HandleFunc("/monthly-reward/process", deps.handleProcessMonthlyReward()).Methods(http.MethodPost)

	protected.HandleFunc("/driving/stats", deps.handleDrivingStats()).Methods(http.MethodGet)

	protected.HandleFunc("/google/get-access-token", deps.handleGetAccessToken()).Methods(http.MethodGet)
	protected.HandleFunc("/sync/start", deps.handleStartSync()).Methods(http.MethodPost)
	protected.HandleFunc("/sync/status/{task_id}", deps.handleSyncStatus()).Methods(http.MethodGet)

	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
