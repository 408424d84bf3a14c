// Package app builds the service graph shared by the binaries under cmd/.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-slot-booking/internal/api"
	"github.com/hackgods/clinic-slot-booking/internal/appointment"
	"github.com/hackgods/clinic-slot-booking/internal/blocking"
	"github.com/hackgods/clinic-slot-booking/internal/clinic"
	"github.com/hackgods/clinic-slot-booking/internal/config"
	"github.com/hackgods/clinic-slot-booking/internal/db"
	"github.com/hackgods/clinic-slot-booking/internal/metrics"
	"github.com/hackgods/clinic-slot-booking/internal/notify"
	redisclient "github.com/hackgods/clinic-slot-booking/internal/redis"
	"github.com/hackgods/clinic-slot-booking/internal/schedule"
	"github.com/hackgods/clinic-slot-booking/internal/store"
	"github.com/hackgods/clinic-slot-booking/internal/validation"
)

type App struct {
	Config       config.Config
	Store        store.Store
	Clock        clinic.Clock
	Settings     *clinic.Settings
	Blocks       *blocking.Registry
	Slots        *schedule.Service
	Appointments *appointment.Service
	Dispatcher   *notify.Dispatcher
	Metrics      *metrics.BookingMetrics
	Registry     *prometheus.Registry

	checks map[string]api.Pinger
	redis  *redis.Client
	pgPool *pgxpool.Pool
	log    *zap.Logger
}

// New connects the configured backends and wires the services.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Clock:  clinic.NewClock(cfg.ClinicOffset),
		checks: make(map[string]api.Pinger),
		log:    log,
	}

	if err := a.connect(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.NewBookingMetrics(a.Registry)

	var locker redisclient.Locker
	if cfg.LockBackend == config.LockRedis {
		locker = redisclient.NewRedisSlotLocker(a.redis, cfg.LockTTL, cfg.LockWait)
	} else {
		log.Warn("using in-process slot locks, run a single instance only")
		locker = redisclient.NewLocalLocker(cfg.LockWait)
	}

	var sender notify.EmailSender = notify.NewStubEmailSender(log)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.MailFromEmail,
		FromName:  cfg.MailFromName,
	}, log); sg != nil {
		sender = sg
	}
	a.Dispatcher = notify.NewDispatcher(notify.NewEmailNotifier(sender), cfg.NotifyTimeout, a.Metrics, log)

	v := validation.New()
	a.Settings = clinic.NewSettings(a.Store, v, log, cfg.StoreTimeout)
	a.Blocks = blocking.NewRegistry(a.Store, v, a.Clock, log, cfg.StoreTimeout)
	repo := appointment.NewStoreRepository(a.Store, cfg.StoreTimeout)
	a.Slots = schedule.NewService(a.Settings, a.Blocks, repo, schedule.NewComputer(cfg.PastSlotBuffer), a.Clock, a.Metrics, log)
	a.Appointments = appointment.NewService(repo, a.Slots, locker, v, a.Clock, a.Dispatcher, a.Metrics, log)

	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	needRedis := cfg.StoreBackend == config.BackendRedis || cfg.LockBackend == config.LockRedis
	if needRedis {
		rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("redis connection error: %w", err)
		}
		a.redis = rdb
		a.log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres connection error: %w", err)
		}
		a.pgPool = pool
		pg := store.NewPgStore(pool)
		a.Store = pg
		a.checks["postgres"] = pg
		a.log.Info("connected to Postgres")
	default:
		rs := store.NewRedisStore(a.redis)
		a.Store = rs
		a.checks["redis"] = rs
	}

	if a.redis != nil && cfg.StoreBackend != config.BackendRedis {
		a.checks["redis"] = store.NewRedisStore(a.redis)
	}
	return nil
}

// Router builds the HTTP surface over the wired services.
func (a *App) Router(version string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Slots:          a.Slots,
		Appointments:   a.Appointments,
		Settings:       a.Settings,
		Blocks:         a.Blocks,
		Checks:         a.checks,
		Metrics:        a.Metrics,
		MetricsHandler: promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		Log:            a.log,
		Env:            a.Config.Env,
		Version:        version,
	})
}

// Close waits for pending confirmations and releases connections.
func (a *App) Close(ctx context.Context) {
	if a.Dispatcher != nil {
		if err := a.Dispatcher.Wait(ctx); err != nil {
			a.log.Warn("pending confirmations abandoned", zap.Error(err))
		}
	}
	if a.pgPool != nil {
		a.pgPool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("error closing redis", zap.Error(err))
		}
	}
}
