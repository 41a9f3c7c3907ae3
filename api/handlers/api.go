package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-case-api/api"
	"github.com/linesmerrill/court-case-api/api/scheduler"
	"github.com/linesmerrill/court-case-api/cases"
	"github.com/linesmerrill/court-case-api/config"
	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler

	client   databases.ClientHelper
	dbHelper databases.DatabaseHelper
}

// Routes holds everything the router hands requests to
type Routes struct {
	Auth    *api.MiddlewareDB
	Cases   CourtCase
	Users   User
	Metrics *api.Metrics
	Limiter *api.IPRateLimiter
	Timeout time.Duration
}

// New creates a new mux router and all the routes
func (rt Routes) New() *mux.Router {
	r := mux.NewRouter()
	r.Use(rt.Metrics.Middleware)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.Handle("/metrics", rt.Metrics.Handler()).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(rt.Limiter.Middleware, api.TimeoutMiddleware(rt.Timeout))
	authed := rt.Auth.Middleware

	c, u := rt.Cases, rt.Users

	apiCreate.Handle("/auth/register", http.HandlerFunc(u.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/token", authed(http.HandlerFunc(u.TokenHandler))).Methods("POST")
	apiCreate.Handle("/auth/me", authed(http.HandlerFunc(u.MeHandler))).Methods("GET")
	apiCreate.Handle("/auth/password", authed(http.HandlerFunc(u.UpdatePasswordHandler))).Methods("PUT")

	apiCreate.Handle("/cases", authed(http.HandlerFunc(c.RegisterCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases", authed(http.HandlerFunc(c.CasesHandler))).Methods("GET")
	apiCreate.Handle("/cases/dashboard-stats", authed(http.HandlerFunc(c.DashboardStatsHandler))).Methods("GET")
	apiCreate.Handle("/cases/export", authed(http.HandlerFunc(c.ExportCasesHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", authed(http.HandlerFunc(c.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/assign-judge", authed(http.HandlerFunc(c.AssignJudgeHandler))).Methods("PUT")
	apiCreate.Handle("/cases/{case_id}/hearings", authed(http.HandlerFunc(c.ScheduleHearingHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/orders", authed(http.HandlerFunc(c.AddOrderHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/status", authed(http.HandlerFunc(c.UpdateStatusHandler))).Methods("PUT")

	apiCreate.Handle("/users", authed(http.HandlerFunc(u.CreateUserHandler))).Methods("POST")
	apiCreate.Handle("/users", authed(http.HandlerFunc(u.UsersHandler))).Methods("GET")
	apiCreate.Handle("/users/lawyers", authed(http.HandlerFunc(u.LawyersHandler))).Methods("GET")
	apiCreate.Handle("/users/judges", authed(http.HandlerFunc(u.JudgesHandler))).Methods("GET")
	apiCreate.Handle("/users/{user_id}", authed(http.HandlerFunc(u.UserByIDHandler))).Methods("GET")
	apiCreate.Handle("/users/{user_id}", authed(http.HandlerFunc(u.UpdateUserHandler))).Methods("PUT")
	apiCreate.Handle("/users/{user_id}", authed(http.HandlerFunc(u.DeactivateUserHandler))).Methods("DELETE")

	return r
}

// Initialize is invoked by main to connect with the database, build the router and
// start the reminder scheduler
func (a *App) Initialize() error {
	if a.Config.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("court-case-api has connected to the database")

	caseDB := databases.NewCaseDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)
	if err := caseDB.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create case indexes: %w", err)
	}
	if err := userDB.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	metrics := api.NewMetrics()
	auth := api.NewMiddlewareDB(userDB, a.Config.JWTSecret, a.Config.TokenTTL)
	service := cases.NewService(caseDB, cases.UserIdentity{Users: userDB}, cases.WithRecorder(metrics))

	a.Router = Routes{
		Auth:    auth,
		Cases:   CourtCase{Cases: service},
		Users:   User{DB: userDB, Tokens: auth},
		Metrics: metrics,
		Limiter: api.NewIPRateLimiter(a.Config.RateLimitRPS, a.Config.RateLimitBurst, a.Config.TrustedProxies...),
		Timeout: a.Config.RequestTimeout,
	}.New()

	if a.Config.SendgridAPIKey == "" {
		zap.S().Warn("SENDGRID_API_KEY is not set, hearing reminders are disabled")
		return nil
	}
	a.Scheduler = scheduler.NewScheduler(
		a.Config.ReminderSchedule,
		caseDB,
		userDB,
		databases.NewSchedulerLockDatabase(a.dbHelper),
		scheduler.NewSendgridMailer(a.Config.SendgridAPIKey, "Court Registry", a.Config.EmailFrom),
		metrics,
	)
	return a.Scheduler.Start()
}

// Shutdown stops the scheduler and disconnects from the database
func (a *App) Shutdown(ctx context.Context) error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
