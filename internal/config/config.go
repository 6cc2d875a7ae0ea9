// Package config loads the environment-driven configuration surface.
// Variables use a REMINDFLOW_ prefix, e.g. REMINDFLOW_BROKER_HOST.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	DB     DBConfig     `mapstructure:"db" validate:"required"`
	Broker BrokerConfig `mapstructure:"broker" validate:"required"`
	Scan   ScanConfig   `mapstructure:"scan" validate:"required"`
	Email  EmailConfig  `mapstructure:"email"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type DBConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type BrokerConfig struct {
	Host          string `mapstructure:"host" validate:"required"`
	Port          int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	PubsubName    string `mapstructure:"pubsub_name" validate:"required"`
	TaskTopic     string `mapstructure:"task_topic" validate:"required"`
	ReminderTopic string `mapstructure:"reminder_topic" validate:"required"`
	UpdateTopic   string `mapstructure:"update_topic" validate:"required"`
}

// BaseURL is the sidecar publish endpoint root.
func (b BrokerConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", b.Host, b.Port)
}

type ScanConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds" validate:"required,gt=0"`
	WindowSeconds   int `mapstructure:"window_seconds" validate:"required,gt=0"`
	LeadTimeMinutes int `mapstructure:"lead_time_minutes" validate:"required,gt=0"`
}

func (s ScanConfig) Interval() time.Duration { return time.Duration(s.IntervalSeconds) * time.Second }
func (s ScanConfig) Window() time.Duration   { return time.Duration(s.WindowSeconds) * time.Second }

type EmailConfig struct {
	SendGridKey   string `mapstructure:"sendgrid_key"`
	MailgunDomain string `mapstructure:"mailgun_domain"`
	MailgunKey    string `mapstructure:"mailgun_key"`
	SMTPHost      string `mapstructure:"smtp_host"`
	SMTPPort      int    `mapstructure:"smtp_port"`
	SMTPUser      string `mapstructure:"smtp_user"`
	SMTPPass      string `mapstructure:"smtp_pass"`
	From          string `mapstructure:"from"`
	FromName      string `mapstructure:"from_name"`
}

// Configured reports whether any email provider credentials are present.
func (e EmailConfig) Configured() bool {
	return e.SendGridKey != "" || (e.MailgunDomain != "" && e.MailgunKey != "") || e.SMTPHost != ""
}

// Load reads environment variables over built-in defaults and validates the
// result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REMINDFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("db.path", "remindflow.db")
	v.SetDefault("broker.host", "localhost")
	v.SetDefault("broker.port", 3500)
	v.SetDefault("broker.pubsub_name", "pubsub")
	v.SetDefault("broker.task_topic", "task-events")
	v.SetDefault("broker.reminder_topic", "reminders")
	v.SetDefault("broker.update_topic", "task-updates")
	v.SetDefault("scan.interval_seconds", 60)
	v.SetDefault("scan.window_seconds", 120)
	v.SetDefault("scan.lead_time_minutes", 60)
	v.SetDefault("email.smtp_port", 587)

	// AutomaticEnv alone doesn't surface nested keys to Unmarshal; bind each
	// known key explicitly.
	for _, key := range []string{
		"server.addr", "db.path",
		"broker.host", "broker.port", "broker.pubsub_name",
		"broker.task_topic", "broker.reminder_topic", "broker.update_topic",
		"scan.interval_seconds", "scan.window_seconds", "scan.lead_time_minutes",
		"email.sendgrid_key", "email.mailgun_domain", "email.mailgun_key",
		"email.smtp_host", "email.smtp_port", "email.smtp_user", "email.smtp_pass",
		"email.from", "email.from_name",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
