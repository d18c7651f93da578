package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/arunvm123/ticketbooking/cache"
	memcache "github.com/arunvm123/ticketbooking/cache/memory"
	rediscache "github.com/arunvm123/ticketbooking/cache/redis"
	"github.com/arunvm123/ticketbooking/config"
	"github.com/arunvm123/ticketbooking/metrics"
	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/notification"
	"github.com/arunvm123/ticketbooking/ratelimit"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/arunvm123/ticketbooking/repository/memory"
	"github.com/arunvm123/ticketbooking/repository/postgres"
	"github.com/arunvm123/ticketbooking/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "ticketbooking-api"

// Dependencies holds the wired services and the resources that must be
// released on shutdown.
type Dependencies struct {
	Events   *service.EventService
	Bookings *service.BookingService
	Users    *service.UserService
	Limiter  ratelimit.Limiter
	Health   map[string]repository.Pinger

	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// BuildDependencies selects the storage and cache backends named in cfg and
// wires the services on top of them.
func BuildDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *Dependencies, err error) {
	deps := &Dependencies{Health: make(map[string]repository.Pinger)}
	defer func() {
		if err != nil {
			_ = deps.Close()
		}
	}()

	var (
		events    repository.EventRepository
		inventory repository.InventoryStore
		bookings  repository.BookingStore
		users     repository.UserRepository
		txm       repository.TxManager
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(&cfg.Database)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, func() error { return postgres.Close(db) })

		eventRepo := postgres.NewEventRepository(db)
		events, inventory = eventRepo, eventRepo
		bookings = postgres.NewBookingRepository(db)
		users = postgres.NewUserRepository(db)
		txm = postgres.NewTxManager(db, cfg.Booking.LockTimeout)
		deps.Health["database"] = postgres.NewPinger(db)
	case config.DriverMemory:
		store := memory.NewStore()
		eventRepo := memory.NewEventRepository(store)
		events, inventory = eventRepo, eventRepo
		bookings = memory.NewBookingRepository(store)
		users = memory.NewUserRepository(store)
		txm = store
		deps.Health["database"] = store
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	var c cache.Cache
	switch cfg.Cache.Driver {
	case config.DriverRedis:
		client, err := rediscache.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, client.Close)

		redisCache := rediscache.NewCache(client, cfg.Cache.TagTTL)
		c = redisCache
		deps.Health["cache"] = redisCache
		deps.Limiter = ratelimit.NewRedisLimiter(client, "ratelimit:", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	case config.DriverMemory:
		memoryCache := memcache.NewCache()
		c = memoryCache
		deps.Health["cache"] = memoryCache
		deps.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}

	var publisher notification.Publisher = notification.NoopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = notification.NewKafkaPublisher(&cfg.Kafka)
		log.Info("Publishing booking notifications",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.NotificationTopic))
	}
	deps.closers = append(deps.closers, publisher.Close)

	deps.Events = service.NewEventService(events, c,
		service.WithEventLogger(log.Named("events")),
		service.WithCacheTTL(cfg.Cache.EventTTL, cfg.Cache.ListTTL))
	deps.Bookings = service.NewBookingService(inventory, bookings, txm, c,
		service.WithBookingLogger(log.Named("bookings")),
		service.WithNotifier(publisher, users),
		service.WithTxTimeout(cfg.Booking.TxTimeout))
	deps.Users = service.NewUserService(users, log.Named("users"))

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := deps.Users.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return nil, fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	return deps, nil
}

func SetupRouter(cfg *config.Config, deps *Dependencies, log *zap.Logger) *gin.Engine {
	jwtService := NewJWTService(cfg.JWT)

	eventHandler := NewEventHandler(deps.Events)
	bookingHandler := NewBookingHandler(deps.Bookings)
	userHandler := NewUserHandler(deps.Users, jwtService)
	healthHandler := NewHealthHandler(serviceName, deps.Health)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(metrics.PrometheusMiddleware())
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	auth := api.Group("/auth")
	if cfg.RateLimit.Enabled && deps.Limiter != nil {
		auth.Use(RateLimit(deps.Limiter, cfg.RateLimit.Window, log))
	}
	auth.POST("/register", userHandler.RegisterUser)
	auth.POST("/login", userHandler.LoginUser)

	authenticated := api.Group("")
	authenticated.Use(AuthMiddleware(jwtService))
	authenticated.GET("/users/me", userHandler.GetProfile)

	// Event reads are public
	api.GET("/events", eventHandler.ListEvents)
	api.GET("/events/:id", eventHandler.GetEvent)

	admin := authenticated.Group("/events")
	admin.Use(RequireRole(model.RoleAdmin))
	admin.POST("", eventHandler.CreateEvent)
	admin.PUT("/:id", eventHandler.UpdateEvent)
	admin.DELETE("/:id", eventHandler.DeleteEvent)

	bookings := authenticated.Group("/bookings")
	bookings.Use(RequireRole(model.RoleUser))
	bookings.POST("", bookingHandler.CreateBooking)
	bookings.GET("", bookingHandler.ListBookings)
	bookings.DELETE("/:id", bookingHandler.DeleteBooking)

	return r
}
