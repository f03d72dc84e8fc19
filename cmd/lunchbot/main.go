package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/lunchbot/internal/commands"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/config"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/database"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/logging"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/lunch"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/notify"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/schedule"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/server"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lunchbot",
		Short: "Slack lunch suggestion bot",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("namespace", defaults.GetString("bot.namespace"), "Application namespace for table isolation")
	cmd.PersistentFlags().String("default-user", defaults.GetString("bot.default_user"), "Slack name of the default system user")
	cmd.PersistentFlags().String("schedule", defaults.GetString("bot.schedule"), "Cron expression for scheduled proposals")
	cmd.PersistentFlags().String("channel-override", defaults.GetString("slack.channel_override"), "Channel overriding all proposal announcements")
	cmd.PersistentFlags().String("webhook-url", defaults.GetString("slack.webhook_url"), "Slack incoming webhook URL")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("command-token", "", "Slash command shared token (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "bot.namespace", "namespace")
	bindFlag(cmd, "bot.default_user", "default-user")
	bindFlag(cmd, "bot.schedule", "schedule")
	bindFlag(cmd, "slack.channel_override", "channel-override")
	bindFlag(cmd, "slack.webhook_url", "webhook-url")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "slack.command_token", "command-token")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runBot(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, appConfig.Namespace, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	userService, err := users.NewService(users.ServiceConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	lunchService, err := lunch.NewService(lunch.ServiceConfig{
		Database:   db,
		IDProvider: lunch.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	webhook := notify.NewWebhook(appConfig.WebhookURL, logger)
	if !webhook.Configured() {
		logger.Warn("slack webhook url not configured, proposal announcements will be skipped")
	}

	announcer, err := notify.NewAnnouncer(notify.AnnouncerConfig{
		Webhook:         webhook,
		Users:           userService,
		Places:          lunchService,
		ChannelOverride: appConfig.ChannelOverride,
		DefaultUser:     appConfig.DefaultUser,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	lunchService.OnProposalSaved(announcer.HandleProposalSaved)

	router, err := commands.NewRouter(commands.RouterConfig{
		Lunch:  lunchService,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	scheduler, err := schedule.NewScheduler(schedule.SchedulerConfig{
		Schedule:    appConfig.LunchSchedule,
		DefaultUser: appConfig.DefaultUser,
		Users:       userService,
		Lunch:       lunchService,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Users:        userService,
		Router:       router,
		CommandToken: appConfig.CommandToken,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("schedule", appConfig.LunchSchedule))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
