package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/timewise-hq/timewise/internal/auth"
	"github.com/timewise-hq/timewise/internal/leave"
	"github.com/timewise-hq/timewise/internal/notification"
	"github.com/timewise-hq/timewise/internal/report"
	"github.com/timewise-hq/timewise/internal/settings"
	"github.com/timewise-hq/timewise/internal/timesheet"
	"github.com/timewise-hq/timewise/internal/transport/middleware"
	"github.com/timewise-hq/timewise/internal/transport/swagger"
	"github.com/timewise-hq/timewise/internal/user"
)

type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Timesheet    *timesheet.Handler
	Leave        *leave.Handler
	Report       *report.Handler
	Notification *notification.Handler
}

// RegisterAllRoutes mounts the full API under /api/v1.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, settingsProvider settings.Provider, allowedOrigins []string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	metaHandler := NewMetaHandler(settingsProvider)
	rbac := auth.NewRBACAuthorization(auth.NewPermissionChecker(), logger)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI spec and Swagger UI live outside the API prefix.
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", handlers.Auth.Login)
			sr.Post("/refresh", handlers.Auth.RefreshToken)
			sr.Post("/logout", handlers.Auth.Logout)
		})

		// The entry form needs vocabularies before login completes.
		r.Get("/meta/vocabularies", metaHandler.Vocabularies)

		r.Group(func(pr chi.Router) {
			pr.Use(handlers.Auth.AuthMiddleware)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/me", handlers.User.GetCurrentUser)

				ur.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireManageUsers())
					mr.Post("/", handlers.User.CreateUser)
					mr.Get("/", handlers.User.ListUsers)
					mr.Delete("/{userID}", handlers.User.DeactivateUser)
					mr.Post("/{userID}/activate", handlers.User.ReactivateUser)
					mr.Put("/{userID}/role", handlers.User.AssignRole)
				})
				ur.Get("/{userID}", handlers.User.GetUser)

				// Per-user entry listing for reviewers and auditors.
				// Visibility rules live in the timesheet service.
				ur.Get("/{userID}/entries", handlers.Timesheet.ListUserEntries)
			})

			pr.Route("/entries", func(er chi.Router) {
				er.Post("/", handlers.Timesheet.CreateEntry)
				er.Get("/", handlers.Timesheet.ListMyEntries)
				er.Get("/summary", handlers.Timesheet.DailySummary)

				// Static before param so /all never matches {id}.
				er.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireViewCompliance())
					mr.Get("/all", handlers.Timesheet.ListAllEntries)
				})

				er.Get("/{id}", handlers.Timesheet.GetEntry)
				er.Put("/{id}", handlers.Timesheet.UpdateEntry)
				er.Delete("/{id}", handlers.Timesheet.DeleteEntry)

				er.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireApproveEntries())
					mr.Patch("/{id}/reject", handlers.Timesheet.RejectEntry)
				})
			})

			pr.Route("/leaves", func(lr chi.Router) {
				lr.Get("/", handlers.Leave.ListLeaveDates)

				lr.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireAdmin())
					mr.Post("/", handlers.Leave.CreateLeaveDate)
					mr.Delete("/{id}", handlers.Leave.DeleteLeaveDate)
				})
			})

			pr.Route("/reports", func(rr chi.Router) {
				rr.Get("/compliance/me", handlers.Report.MyCompliance)
				rr.Get("/compliance/{userID}", handlers.Report.UserCompliance)

				rr.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireViewCompliance())
					mr.Get("/summary", handlers.Report.ComplianceSummary)
				})
			})

			pr.Route("/notifications", func(nr chi.Router) {
				nr.Use(rbac.RequireAdmin())
				nr.Get("/", handlers.Notification.ListNotifications)
				nr.Post("/run", handlers.Notification.RunSweep)
			})
		})
	})
}
