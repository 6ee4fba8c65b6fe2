package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/auth"
	authPostgres "github.com/timewise-hq/timewise/internal/auth/postgres"
	"github.com/timewise-hq/timewise/internal/core/events"
	"github.com/timewise-hq/timewise/internal/leave"
	leavePostgres "github.com/timewise-hq/timewise/internal/leave/postgres"
	"github.com/timewise-hq/timewise/internal/mailer"
	"github.com/timewise-hq/timewise/internal/notification"
	notificationPostgres "github.com/timewise-hq/timewise/internal/notification/postgres"
	"github.com/timewise-hq/timewise/internal/report"
	"github.com/timewise-hq/timewise/internal/settings"
	"github.com/timewise-hq/timewise/internal/timesheet"
	timesheetPostgres "github.com/timewise-hq/timewise/internal/timesheet/postgres"
	"github.com/timewise-hq/timewise/internal/transport/rest"
	"github.com/timewise-hq/timewise/internal/user"
	userPostgres "github.com/timewise-hq/timewise/internal/user/postgres"
	"github.com/timewise-hq/timewise/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	Settings settings.Provider
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	wireServices(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, v, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, gormDB, err := openDatabases(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gormDB,
		Router:   chi.NewRouter(),
		Settings: settingsProvider(v, config),
		Logger:   lg,
	}, nil
}

func wireServices(deps *Dependencies) {
	cfg := deps.Config
	lg := deps.Logger

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.EventTypeEntryRejected, func(ctx context.Context, event events.Event) error {
		lg.Info("entry rejected", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.Gorm), tokenGen, cfg.Security.BCryptCost)

	userService := user.NewService(userPostgres.NewUserRepository(deps.Gorm), authService, deps.Settings, lg)

	entryRepo := timesheetPostgres.NewWorkEntryRepository(deps.Gorm)
	leaveService := leave.NewService(leavePostgres.NewLeaveDateRepository(deps.Gorm), lg)
	timesheetService := timesheet.NewService(entryRepo, deps.Settings, leaveService, bus, lg)

	reportService := report.NewService(entryRepo, leaveService, memberDirectory{users: userService}, deps.Settings, lg)

	smtp := mailer.NewSMTPMailer(cfg.SMTP, lg)
	notificationService := notification.NewService(
		notificationPostgres.NewNotificationRepository(deps.Gorm),
		recipientDirectory{users: userService},
		entryRepo,
		leaveService,
		deps.Settings,
		smtp,
		bus,
		lg,
	)

	handlers := rest.Handlers{
		Auth:         auth.NewHandler(authService),
		User:         user.NewHandler(userService),
		Timesheet:    timesheet.NewHandler(timesheetService),
		Leave:        leave.NewHandler(leaveService),
		Report:       report.NewHandler(reportService),
		Notification: notification.NewHandler(notificationService),
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, handlers, deps.Settings, allowedOrigins(cfg.Server), lg)
}

// memberDirectory adapts the user service to the compliance summary.
type memberDirectory struct {
	users *user.Service
}

func (d memberDirectory) ActiveMembers() ([]report.Member, error) {
	active, err := d.users.ActiveUsers()
	if err != nil {
		return nil, err
	}
	members := make([]report.Member, 0, len(active))
	for _, u := range active {
		members = append(members, report.Member{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return members, nil
}

// recipientDirectory adapts the user service to the reminder sweep.
// Only accounts that actually log work get reminders.
type recipientDirectory struct {
	users *user.Service
}

func (d recipientDirectory) ActiveRecipients() ([]notification.Recipient, error) {
	active, err := d.users.ActiveUsers()
	if err != nil {
		return nil, err
	}
	recipients := make([]notification.Recipient, 0, len(active))
	for _, u := range active {
		if !u.HasPermission("log_work") {
			continue
		}
		recipients = append(recipients, notification.Recipient{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return recipients, nil
}

// settingsProvider watches the config file when one is in use, so rule
// changes apply without a restart. Env-only deployments get a static
// snapshot.
func settingsProvider(v *viper.Viper, cfg *internal.Config) settings.Provider {
	if v != nil {
		return settings.NewFileProvider(v, cfg.Timesheet)
	}
	return settings.NewStatic(cfg.Timesheet)
}

func allowedOrigins(cfg internal.ServerConfig) []string {
	if cfg.AllowedOrigins == "" || cfg.AllowedOrigins == "*" {
		return []string{"*"}
	}
	parts := strings.Split(cfg.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// openDatabases connects to Postgres through pgx, with a SQLite fallback
// for local demos when the DSN is a plain file path. GORM shares the
// same underlying connection pool.
func openDatabases(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	if strings.HasPrefix(cfg.Source, "postgres://") || strings.HasPrefix(cfg.Source, "postgresql://") {
		db, err := sqlx.Connect("pgx", cfg.Source)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
		}

		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

		gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to initialize orm: %w", err)
		}
		return db, gormDB, nil
	}

	gormDB, err := gorm.Open(gormsqlite.Open(cfg.Source), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return sqlx.NewDb(sqlDB, "sqlite3"), gormDB, nil
}
