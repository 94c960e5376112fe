package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host           string   `yaml:"host" env:"SERVER_HOST, overwrite"`
		Port           int      `yaml:"port" env:"SERVER_PORT, overwrite"`
		Env            string   `yaml:"env" env:"SERVER_ENV, overwrite"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS, overwrite"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url" env:"DATABASE_URL, overwrite"`
	} `yaml:"database"`

	JWT struct {
		Secret   string `yaml:"secret" env:"JWT_SECRET, overwrite"`
		TTLHours int    `yaml:"ttl_hours" env:"JWT_TTL_HOURS, overwrite"`
	} `yaml:"jwt"`

	Marketplace struct {
		CommissionRate     float64 `yaml:"commission_rate" env:"COMMISSION_RATE, overwrite"`
		Currency           string  `yaml:"currency" env:"CURRENCY, overwrite"`
		FrontendURL        string  `yaml:"frontend_url" env:"FRONTEND_URL, overwrite"`
		BillingPeriodMonth int     `yaml:"billing_period_months" env:"BILLING_PERIOD_MONTHS, overwrite"`
	} `yaml:"marketplace"`

	Stripe struct {
		SecretKey                 string `yaml:"secret_key" env:"STRIPE_SECRET_KEY, overwrite"`
		WebhookSecret             string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET, overwrite"`
		SubscriptionWebhookSecret string `yaml:"subscription_webhook_secret" env:"STRIPE_SUBSCRIPTION_WEBHOOK_SECRET, overwrite"`
		TimeoutSeconds            int    `yaml:"timeout_seconds" env:"STRIPE_TIMEOUT_SECONDS, overwrite"`
		MaxRetries                int64  `yaml:"max_retries" env:"STRIPE_MAX_RETRIES, overwrite"`
	} `yaml:"stripe"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR, overwrite"`
		Password string `yaml:"password" env:"REDIS_PASSWORD, overwrite"`
		DB       int    `yaml:"db" env:"REDIS_DB, overwrite"`
		TTLHours int    `yaml:"ttl_hours" env:"REDIS_EVENT_TTL_HOURS, overwrite"`
	} `yaml:"redis"`

	NATS struct {
		URL string `yaml:"url" env:"NATS_URL, overwrite"`
	} `yaml:"nats"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST, overwrite"`
		SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT, overwrite"`
		SMTPUsername string `yaml:"smtp_user" env:"SMTP_USER, overwrite"`
		SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD, overwrite"`
		FromEmail    string `yaml:"from_email" env:"SMTP_FROM_EMAIL, overwrite"`
		FromName     string `yaml:"from_name" env:"SMTP_FROM_NAME, overwrite"`
	} `yaml:"email"`

	Storage struct {
		Type      string `yaml:"type" env:"STORAGE_TYPE, overwrite"` // local, s3, cloudflare_r2
		BasePath  string `yaml:"base_path" env:"STORAGE_BASE_PATH, overwrite"`
		BaseURL   string `yaml:"base_url" env:"STORAGE_BASE_URL, overwrite"`
		Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET, overwrite"`
		Region    string `yaml:"region" env:"STORAGE_REGION, overwrite"`
		AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY, overwrite"`
		SecretKey string `yaml:"secret_key" env:"STORAGE_SECRET_KEY, overwrite"`
		Endpoint  string `yaml:"endpoint" env:"STORAGE_ENDPOINT, overwrite"`
		MaxSize   int64  `yaml:"max_size" env:"STORAGE_MAX_SIZE, overwrite"`
	} `yaml:"storage"`

	Workers struct {
		IntervalMinutes int `yaml:"interval_minutes" env:"WORKER_INTERVAL_MINUTES, overwrite"`
		GraceDays       int `yaml:"grace_days" env:"MEMBERSHIP_GRACE_DAYS, overwrite"`
		ReminderDays    int `yaml:"reminder_days" env:"INSURANCE_REMINDER_DAYS, overwrite"`
	} `yaml:"workers"`

	RateLimit struct {
		Requests      int `yaml:"requests" env:"RATE_LIMIT_REQUESTS, overwrite"`
		WindowMinutes int `yaml:"window_minutes" env:"RATE_LIMIT_WINDOW_MINUTES, overwrite"`
	} `yaml:"rate_limit"`

	Admin struct {
		Email    string `yaml:"email" env:"FIRST_ADMIN_EMAIL, overwrite"`
		Password string `yaml:"password" env:"FIRST_ADMIN_PASSWORD, overwrite"`
	} `yaml:"admin"`
}

var AppConfig *Config

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"https://dronemarketplace.com",
	"https://www.dronemarketplace.com",
}

// Load читает YAML (если файл есть) и поверх него переменные окружения
func Load(path string, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config

	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// файл не обязателен, работаем только от окружения
		default:
			return nil, fmt.Errorf("failed to open config file at %s: %w", path, err)
		}
	}

	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = defaultOrigins
	}
	if c.JWT.TTLHours == 0 {
		c.JWT.TTLHours = 24 * 7
	}
	if c.Marketplace.CommissionRate == 0 {
		c.Marketplace.CommissionRate = 0.15
	}
	if c.Marketplace.Currency == "" {
		c.Marketplace.Currency = "usd"
	}
	if c.Marketplace.FrontendURL == "" {
		c.Marketplace.FrontendURL = "http://localhost:3000"
	}
	if c.Marketplace.BillingPeriodMonth == 0 {
		c.Marketplace.BillingPeriodMonth = 1
	}
	if c.Stripe.TimeoutSeconds == 0 {
		c.Stripe.TimeoutSeconds = 10
	}
	if c.Stripe.MaxRetries == 0 {
		c.Stripe.MaxRetries = 2
	}
	if c.Stripe.SubscriptionWebhookSecret == "" {
		c.Stripe.SubscriptionWebhookSecret = c.Stripe.WebhookSecret
	}
	if c.Redis.TTLHours == 0 {
		c.Redis.TTLHours = 72
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Drone Marketplace"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.BasePath == "" {
		c.Storage.BasePath = "./uploads"
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = "/uploads"
	}
	if c.Storage.MaxSize == 0 {
		c.Storage.MaxSize = 10 * 1024 * 1024 // 10MB
	}
	if c.Workers.IntervalMinutes == 0 {
		c.Workers.IntervalMinutes = 60
	}
	if c.Workers.GraceDays == 0 {
		c.Workers.GraceDays = 3
	}
	if c.Workers.ReminderDays == 0 {
		c.Workers.ReminderDays = 30
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.WindowMinutes == 0 {
		c.RateLimit.WindowMinutes = 15
	}
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.Marketplace.CommissionRate < 0 || c.Marketplace.CommissionRate >= 1 {
		return fmt.Errorf("config: commission rate %v must be in [0,1)", c.Marketplace.CommissionRate)
	}
	if !c.AllowsFakeGateway() {
		if c.Stripe.SecretKey == "" {
			return fmt.Errorf("config: STRIPE_SECRET_KEY is required in %s", c.Server.Env)
		}
		if c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("config: STRIPE_WEBHOOK_SECRET is required in %s", c.Server.Env)
		}
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// AllowsFakeGateway - платежи без Stripe допустимы только локально и в тестах
func (c *Config) AllowsFakeGateway() bool {
	return c.IsDevelopment() || c.Server.Env == "test"
}

// CommissionBasisPoints - ставка комиссии в базисных пунктах (0.15 -> 1500)
func (c *Config) CommissionBasisPoints() int64 {
	return int64(c.Marketplace.CommissionRate*10000 + 0.5)
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWT.TTLHours) * time.Hour
}

func (c *Config) StripeTimeout() time.Duration {
	return time.Duration(c.Stripe.TimeoutSeconds) * time.Second
}

func (c *Config) WorkerInterval() time.Duration {
	return time.Duration(c.Workers.IntervalMinutes) * time.Minute
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMinutes) * time.Minute
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
