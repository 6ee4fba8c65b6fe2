package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/timewise-hq/timewise/internal/auth"
	authPostgres "github.com/timewise-hq/timewise/internal/auth/postgres"
	"github.com/timewise-hq/timewise/internal/core/events"
	"github.com/timewise-hq/timewise/internal/leave"
	leavePostgres "github.com/timewise-hq/timewise/internal/leave/postgres"
	"github.com/timewise-hq/timewise/internal/mailer"
	"github.com/timewise-hq/timewise/internal/notification"
	notificationPostgres "github.com/timewise-hq/timewise/internal/notification/postgres"
	timesheetPostgres "github.com/timewise-hq/timewise/internal/timesheet/postgres"
	"github.com/timewise-hq/timewise/internal/user"
	userPostgres "github.com/timewise-hq/timewise/internal/user/postgres"
)

// notifierCmd runs the reminder sweeps as a standalone process, so the
// API server and the notifier can be deployed and scaled separately.
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Run the reminder notification scheduler",
	Long:  `Run periodic sweeps that email employees about workdays still missing approved entries.`,
	Run: func(cmd *cobra.Command, args []string) {
		deps, err := initializeDependencies()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
			os.Exit(1)
		}
		cfg := deps.Config
		lg := deps.Logger

		bus := events.NewEventBus(lg)

		tokenGen := auth.NewJWTTokenGenerator(
			cfg.Security.AccessTokenSecret,
			cfg.Security.RefreshTokenSecret,
			cfg.Security.AccessTokenDuration,
			cfg.Security.RefreshTokenDuration,
		)
		authService := auth.NewService(authPostgres.NewRepository(deps.Gorm), tokenGen, cfg.Security.BCryptCost)
		userService := user.NewService(userPostgres.NewUserRepository(deps.Gorm), authService, deps.Settings, lg)
		leaveService := leave.NewService(leavePostgres.NewLeaveDateRepository(deps.Gorm), lg)

		notificationService := notification.NewService(
			notificationPostgres.NewNotificationRepository(deps.Gorm),
			recipientDirectory{users: userService},
			timesheetPostgres.NewWorkEntryRepository(deps.Gorm),
			leaveService,
			deps.Settings,
			mailer.NewSMTPMailer(cfg.SMTP, lg),
			bus,
			lg,
		)

		scheduler := notification.NewScheduler(
			notificationService,
			cfg.Notifier.DailySweepInterval,
			cfg.Notifier.HourlySweepInterval,
			lg,
		)
		scheduler.Start()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		lg.Info("received signal, stopping notifier", "signal", sig)
		scheduler.Stop()
		if err := deps.DB.Close(); err != nil {
			lg.Error("database close error", "error", err)
		}
	},
}
