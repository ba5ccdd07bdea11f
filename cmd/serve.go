package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/controller"
	"github.com/vibast-solutions/ms-go-console/app/middleware"
	"github.com/vibast-solutions/ms-go-console/app/ratelimit"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/service"
	"github.com/vibast-solutions/ms-go-console/app/support"
	"github.com/vibast-solutions/ms-go-console/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const sessionPurgeInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server exposing the console procedures.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	rpcerr.SetSupportEmail(cfg.Support.Email)

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := auth.NewLocalProvider(db, cfg)
	go purgeExpiredSessions(ctx, provider)

	limiter, closeLimiter := newLimiter(cfg.RateLimit)
	defer closeLimiter()

	e := newServer(cfg, db, provider, limiter)
	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	go func() {
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
}

func newServer(cfg *config.Config, db *sql.DB, provider auth.Provider, limiter ratelimit.Limiter) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			if caller := middleware.GetCaller(c); caller != nil {
				fields["actor_id"] = caller.ActorID
				fields["workspace_id"] = caller.WorkspaceID
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())

	cookies := auth.NewCookieService(cfg.Session)
	workspaceService := service.NewWorkspaceService(db, provider, cfg.Workspace.CacheTTL)
	rootKeyService := service.NewRootKeyService(db, cfg.RootKeys)

	c := controllers{
		auth:      controller.NewAuthController(provider, cookies, workspaceService),
		workspace: controller.NewWorkspaceController(workspaceService, provider, cookies),
		api:       controller.NewAPIController(service.NewAPIService(db)),
		key:       controller.NewKeyController(service.NewKeyService(db)),
		rootKey:   controller.NewRootKeyController(rootKeyService),
		ratelimit: controller.NewRatelimitController(service.NewRatelimitService(db)),
		rbac:      controller.NewRBACController(service.NewRBACService(db)),
		identity:  controller.NewIdentityController(service.NewIdentityService(db)),
		project:   controller.NewProjectController(service.NewProjectService(db)),
		audit:     controller.NewAuditController(service.NewAuditService(db)),
		support:   controller.NewSupportController(service.NewSupportService(support.NewClient(cfg.Support))),
	}
	authMiddleware := middleware.NewAuthMiddleware(provider, cookies, workspaceService, rootKeyService)
	registerRoutes(e, c, authMiddleware, middleware.NewRateLimitMiddleware(limiter))
	return e
}

// newLimiter uses the Redis backed limiter when REDIS_ADDR is set.
func newLimiter(cfg config.RateLimitConfig) (ratelimit.Limiter, func()) {
	if cfg.RedisAddr == "" {
		logrus.Info("REDIS_ADDR not set, using in-process rate limiter")
		return ratelimit.NewMemory(cfg.Limit, cfg.Window), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	logrus.WithField("addr", cfg.RedisAddr).Info("Using Redis rate limiter")
	return ratelimit.NewRedis(client, cfg.Limit, cfg.Window), func() { _ = client.Close() }
}

type sessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

func purgeExpiredSessions(ctx context.Context, purger sessionPurger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := purger.PurgeExpiredSessions(ctx)
			if err != nil {
				logrus.WithError(err).Warn("Failed to purge expired sessions")
				continue
			}
			if count > 0 {
				logrus.WithField("count", count).Info("Purged expired sessions")
			}
		}
	}
}
