package app

import (
	"context"
	"fmt"
	"time"

	"dronemarket_backend/internal/cache"
	"dronemarket_backend/internal/config"
	"dronemarket_backend/internal/email"
	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/services/payment"
	"dronemarket_backend/internal/storage"
	"dronemarket_backend/ws"
)

// Infra - внешние подключения процесса
type Infra struct {
	Gateway payment.Gateway
	Cache   cache.EventCache
	Storage storage.Storage
	Hub     *ws.Hub
	// Events - все каналы: NATS, websocket, email
	Events events.Publisher
	// Reminders - только каналы пользователя, для напоминаний воркеров
	Reminders events.Publisher

	closers []func()
}

// NewInfra подключает внешние сервисы. Redis и NATS необязательны:
// без адреса используется заглушка.
func NewInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	infra := &Infra{Hub: ws.NewHub(cfg.Server.AllowedOrigins)}

	gateway, err := newGateway(cfg)
	if err != nil {
		return nil, err
	}
	infra.Gateway = gateway

	store, err := storage.New(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	infra.Storage = store
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	infra.Cache = cache.Nop()
	if cfg.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.closers = append(infra.closers, func() { _ = client.Close() })
		infra.Cache = cache.NewRedisEventCache(client, time.Duration(cfg.Redis.TTLHours)*time.Hour)
		logger.Info("Redis event cache connected", "addr", cfg.Redis.Addr)
	}

	var mailer email.Mailer = logMailer{}
	smtpCfg := &email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	}
	if smtpCfg.Enabled() {
		mailer = email.NewSMTPMailer(smtpCfg)
	} else {
		logger.Warn("SMTP is not configured, notification emails are logged only")
	}
	notifier := email.NewNotifier(mailer, nil)

	infra.Reminders = events.Multi{infra.Hub, notifier}
	fanout := events.Multi{infra.Hub, notifier}
	if cfg.NATS.URL != "" {
		nc, err := events.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.closers = append(infra.closers, nc.Close)
		fanout = append(fanout, nc)
		logger.Info("NATS connected", "url", cfg.NATS.URL)
	}
	infra.Events = fanout

	return infra, nil
}

// Close закрывает подключения в обратном порядке
func (i *Infra) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
	i.closers = nil
}

// newGateway - Stripe по ключу; без ключа in-memory шлюз только вне production
func newGateway(cfg *config.Config) (payment.Gateway, error) {
	if cfg.Stripe.SecretKey != "" {
		return payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:  cfg.Stripe.SecretKey,
			Timeout:    cfg.StripeTimeout(),
			MaxRetries: cfg.Stripe.MaxRetries,
		}), nil
	}
	if !cfg.AllowsFakeGateway() {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required in %s environment", cfg.Server.Env)
	}
	logger.Warn("STRIPE_SECRET_KEY is not set, using in-memory payment gateway", "env", cfg.Server.Env)
	return payment.NewFakeGateway(), nil
}
