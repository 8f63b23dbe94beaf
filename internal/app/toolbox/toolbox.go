// Package toolbox собирает приложение: хранилище, кэш, публикацию событий,
// сессии и HTTP-сервер.
package toolbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/toolbox/internal/cache"
	"github.com/magabrotheeeer/toolbox/internal/config"
	"github.com/magabrotheeeer/toolbox/internal/events"
	"github.com/magabrotheeeer/toolbox/internal/http/handlers/health"
	"github.com/magabrotheeeer/toolbox/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/toolbox/internal/lib/session"
	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
	"github.com/magabrotheeeer/toolbox/internal/migrations"
	authservice "github.com/magabrotheeeer/toolbox/internal/services/auth"
	billingservice "github.com/magabrotheeeer/toolbox/internal/services/billing"
	"github.com/magabrotheeeer/toolbox/internal/services/scheduler"
	"github.com/magabrotheeeer/toolbox/internal/storage/filestore"
	"github.com/magabrotheeeer/toolbox/internal/storage/postgres"
)

const shutdownTimeout = 15 * time.Second

// userStore — хранилище пользователей вместе с выборкой для напоминаний.
type userStore interface {
	cache.UserRepository
	scheduler.TrialRepository
}

// App — HTTP-сервер, фоновый планировщик и ресурсы, которые нужно закрыть при остановке.
type App struct {
	server    *http.Server
	scheduler *scheduler.Service
	logger    *slog.Logger
	closers   []io.Closer
}

// New поднимает зависимости по конфигу. Redis и RabbitMQ необязательны:
// пустой адрес отключает их.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}
	deps, err := a.build(ctx, cfg)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	router := chi.NewRouter()
	RegisterRoutes(router, cfg, deps)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config) (*Deps, error) {
	const op = "app.toolbox.build"
	log := a.logger.With(slog.String("op", op))

	pingers := make(map[string]health.Pinger)

	var store userStore
	if cfg.StorageConnectionString != "" {
		db, err := postgres.New(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			return nil, err
		}
		pingers["postgres"] = db.DB
		store = db
		log.Info("using postgres user store")
	} else {
		fs, err := filestore.New(cfg.UsersFile)
		if err != nil {
			return nil, err
		}
		store = fs
		log.Info("using file user store", slog.String("path", cfg.UsersFile))
	}

	var users cache.UserRepository = store

	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c)
		pingers["redis"] = c
		users = cache.NewUsers(a.logger, users, c, cfg.UserCacheTTL)
		log.Info("user cache enabled", slog.Duration("ttl", cfg.UserCacheTTL))
	}

	var pub events.Publisher = events.Noop{}
	if cfg.AddressRabbitMQ != "" {
		p, err := rabbitmq.NewPublisher(cfg.AddressRabbitMQ, cfg.Exchange, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p)
		pub = p
		a.scheduler = scheduler.New(store, pub, a.logger, cfg.ReminderLead, cfg.ReminderInterval)
		log.Info("account events enabled", slog.String("exchange", cfg.Exchange))
	}

	sessions, err := session.NewManager([]byte(cfg.SecretKey), cfg.Session.TTL)
	if err != nil {
		return nil, err
	}

	return &Deps{
		Logger:   a.logger,
		Sessions: sessions,
		Cookie: session.CookieOptions{
			Name:   cfg.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.IsProduction(),
		},
		Auth:    authservice.New(users, sessions, cfg.TrialDays, authservice.WithEvents(pub, a.logger)),
		Billing: billingservice.New(a.logger, users, billingservice.WithEvents(pub)),
		Pingers: pingers,
	}, nil
}

// Run запускает сервер и планировщик и останавливает их при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var schedulerDone chan struct{}
	if a.scheduler != nil {
		schedulerDone = make(chan struct{})
		go func() {
			defer close(schedulerDone)
			a.scheduler.Run(runCtx)
		}()
	}
	// планировщик публикует через соединения, которые закрывает closeAll
	stopScheduler := func() {
		cancel()
		if schedulerDone != nil {
			<-schedulerDone
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stopScheduler()
		a.closeAll()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		stopScheduler()
		a.closeAll()
		return err
	}
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
