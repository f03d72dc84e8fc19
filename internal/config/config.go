package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "LUNCHBOT"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "lunchbot.db"
	defaultLogLevel      = "info"
	defaultNamespace     = "_"
	defaultSystemUser    = "admin"
	defaultLunchSchedule = "0 0 12 * * 1-5"
)

// AppConfig captures runtime configuration for the lunch bot.
type AppConfig struct {
	HTTPAddress     string
	CommandToken    string
	WebhookURL      string
	ChannelOverride string
	DefaultUser     string
	LunchSchedule   string
	Namespace       string
	DatabasePath    string
	LogLevel        string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("bot.namespace", defaultNamespace)
	configViper.SetDefault("bot.default_user", defaultSystemUser)
	configViper.SetDefault("bot.schedule", defaultLunchSchedule)
	configViper.SetDefault("slack.channel_override", "")
	configViper.SetDefault("slack.webhook_url", "")
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		CommandToken:    configViper.GetString("slack.command_token"),
		WebhookURL:      configViper.GetString("slack.webhook_url"),
		ChannelOverride: configViper.GetString("slack.channel_override"),
		DefaultUser:     configViper.GetString("bot.default_user"),
		LunchSchedule:   configViper.GetString("bot.schedule"),
		Namespace:       configViper.GetString("bot.namespace"),
		DatabasePath:    configViper.GetString("database.path"),
		LogLevel:        configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.CommandToken) == "" {
		return fmt.Errorf("slack.command_token is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.DefaultUser) == "" {
		return fmt.Errorf("bot.default_user is required")
	}
	if strings.TrimSpace(c.LunchSchedule) == "" {
		return fmt.Errorf("bot.schedule is required")
	}
	return nil
}
