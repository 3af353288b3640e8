// Command server is the process entry point: it loads configuration,
// opens the database, wires every domain engine and application, and
// serves the HTTP Surface until an interrupt or terminate signal arrives.
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/kunpeto/driver-management-system-sub001/applications/auth"
	"github.com/kunpeto/driver-management-system-sub001/applications/docgen"
	"github.com/kunpeto/driver-management-system-sub001/applications/httpapi"
	"github.com/kunpeto/driver-management-system-sub001/applications/scheduler"
	"github.com/kunpeto/driver-management-system-sub001/applications/sheets"
	"github.com/kunpeto/driver-management-system-sub001/domain/bonus"
	"github.com/kunpeto/driver-management-system-sub001/domain/credential"
	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/drive"
	"github.com/kunpeto/driver-management-system-sub001/domain/employee"
	"github.com/kunpeto/driver-management-system-sub001/domain/pendingcase"
	"github.com/kunpeto/driver-management-system-sub001/domain/profile"
	"github.com/kunpeto/driver-management-system-sub001/domain/reward"
	"github.com/kunpeto/driver-management-system-sub001/domain/schedule"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
	"github.com/kunpeto/driver-management-system-sub001/domain/settings"
	"github.com/kunpeto/driver-management-system-sub001/domain/syncjob"
	"github.com/kunpeto/driver-management-system-sub001/domain/user"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/config"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/crypto"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/logging"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/metrics"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/migrations"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/taskqueue"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration: %v", err)
	}

	logger := logging.New("driver-management", "info", envOrProd(cfg))

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Apply(ctx, db); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	vault, err := crypto.LoadVault("ENCRYPTION_KEY", cfg.IsProduction())
	if err != nil {
		log.Fatalf("load vault: %v", err)
	}

	serviceAccounts, err := credential.LoadServiceAccounts()
	if err != nil {
		log.Fatalf("load service accounts: %v", err)
	}

	metricsRegistry := metrics.New("driver-management", "dev", cfg.Environment, prometheus.DefaultRegisterer)

	employees := employee.NewPostgresStore(db)
	schedules := schedule.NewPostgresStore(db)
	standards := scoring.NewPostgresStandardStore(db)
	scoringStore := scoring.NewPostgresStore(db)
	scoringEngine := scoring.NewEngine(standards, scoringStore)
	profiles := profile.NewPostgresStore(db)
	pendingCases := pendingcase.NewPostgresStore(db)
	oauthTokens := credential.NewPostgresOAuthRepository(db)
	users := user.NewPostgresStore(db)
	settingsStore := settings.NewPostgresStore(db)

	renderer, err := docgen.NewRenderer()
	if err != nil {
		log.Fatalf("build document renderer: %v", err)
	}
	profileMachine := profile.NewMachine(profiles, pendingCases, scoringEngine, renderer)

	bonusEngine := bonus.NewEngine(schedules, scoringEngine)
	rewardEngine := reward.NewEngine(employees, scoringEngine)
	driveDispatcher := drive.NewDispatcher(profileMachine, employees, profileMachine)

	oauthConf := func(dept department.Department) *oauth2.Config {
		return &oauth2.Config{
			ClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.GoogleOAuthRedirectURI,
			Scopes:       []string{"https://www.googleapis.com/auth/spreadsheets.readonly"},
		}
	}
	credentialManager := credential.NewManager(vault, oauthTokens, oauthConf)

	sheetsClient := sheets.NewClient(credentialManager, sheets.Config{
		SpreadsheetIDs: map[syncjob.Kind]map[department.Department]string{
			syncjob.KindAttendance: sheetIDsByDepartment(serviceAccounts, serviceAccounts.AttendanceSpreadsheetID),
			syncjob.KindDuty:       sheetIDsByDepartment(serviceAccounts, serviceAccounts.DutySpreadsheetID),
		},
	})

	pool := taskqueue.NewPool(cfg.WorkerPoolSize, 256)
	pool.Start()
	defer pool.Stop()

	syncOrchestrator := syncjob.NewOrchestrator(pool, sheetsClient, schedules)

	authManager := auth.NewManager(cfg.APISecret, users)

	cron := scheduler.New(scheduler.Config{}, pool, syncOrchestrator, rewardEngine, scoringEngine, logger)
	if err := cron.Start(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	defer cron.Stop()

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:               authManager,
		Employees:          employees,
		Profiles:           profileMachine,
		Scoring:            scoringEngine,
		Standards:          standards,
		Bonus:              bonusEngine,
		Reward:             rewardEngine,
		Credential:         credentialManager,
		Sync:               syncOrchestrator,
		Pool:               pool,
		PendingCase:        pendingCases,
		Settings:           settingsStore,
		Drive:              driveDispatcher,
		Logger:             logger,
		Metrics:            metricsRegistry,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.HTTPDeadline,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTPDeadline,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

func envOrProd(cfg *config.Config) string {
	if cfg.IsProduction() {
		return "json"
	}
	return "text"
}

// sheetIDsByDepartment builds a department -> spreadsheet id map using the
// given per-(kind, department) lookup (spec §4.2/§4.3): attendance and duty
// rosters live in separate spreadsheets, so each kind is resolved separately.
func sheetIDsByDepartment(accounts *credential.ServiceAccountStore, lookup func(department.Department) string) map[department.Department]string {
	out := make(map[department.Department]string)
	for _, dept := range department.All() {
		if id := lookup(dept); id != "" {
			out[dept] = id
		}
	}
	return out
}
