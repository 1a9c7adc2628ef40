// Package bootstrap wires configuration, storage, channels and the invoice
// service together for the server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/diewo77/invoice-relay/internal/config"
	"github.com/diewo77/invoice-relay/internal/db"
	"github.com/diewo77/invoice-relay/internal/delivery"
	"github.com/diewo77/invoice-relay/internal/render"
	"github.com/diewo77/invoice-relay/internal/server"
	"github.com/diewo77/invoice-relay/internal/services"
	"github.com/diewo77/invoice-relay/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the assembled application.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Redis   *redis.Client
	Store   *store.Gorm
	Webhook *delivery.Webhook
	Email   *delivery.Email
	Service *services.InvoiceService
}

// NewLogger returns a development logger when dev is set, a JSON production logger otherwise.
func NewLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// New opens storage, restores relay settings and starts the invoice service.
func New(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*App, error) {
	conn, err := db.Open(cfg.Database, cfg.App.Migrations, lg)
	if err != nil {
		return nil, err
	}
	st := store.NewGorm(conn)
	app := &App{Config: cfg, Log: lg, DB: conn, Store: st}

	var drafts store.Drafts = st
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warn("redis unreachable, draft slot stays in the database", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rdb.Close()
		} else {
			lg.Info("draft slot in redis", zap.String("addr", cfg.Redis.Addr))
			app.Redis = rdb
			drafts = store.NewRedisDrafts(rdb)
		}
	}

	client := &http.Client{}
	app.Webhook = delivery.NewWebhook(st, client, cfg.Relay.Timeout, lg)
	app.Email = delivery.NewEmail(cfg.Relay.EmailAPIURL, st, client, cfg.Relay.Timeout, lg)
	if err := app.Webhook.Load(ctx); err != nil {
		lg.Warn("webhook settings not restored", zap.Error(err))
	}
	if err := app.Email.Load(ctx); err != nil {
		lg.Warn("email settings not restored", zap.Error(err))
	}

	app.Service = services.NewInvoiceService(services.Deps{
		Drafts:   drafts,
		Invoices: st,
		Clients:  st,
		Renderer: render.NewPDF(),
		Channels: []delivery.Channel{
			delivery.NewLocal(cfg.App.OutputDir, lg),
			delivery.NewPrint(cfg.App.PrintCommand, lg),
			app.Webhook,
			app.Email,
		},
		Company: cfg.Company,
		TaxRate: cfg.App.DefaultTaxRate,
		Log:     lg.Named("invoice"),
	})
	if err := app.Service.Start(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("start invoice service: %w", err)
	}
	return app, nil
}

// Handler is the HTTP API of the application.
func (a *App) Handler() http.Handler {
	return server.New(server.Deps{
		DB:      a.DB,
		Service: a.Service,
		Webhook: a.Webhook,
		Email:   a.Email,
		Log:     a.Log.Named("http"),
	})
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.Service != nil {
		a.Service.Close()
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
