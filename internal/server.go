package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/coocood/freecache"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"

	"github.com/2beens/rapidfit/internal/auth"
	"github.com/2beens/rapidfit/internal/config"
	"github.com/2beens/rapidfit/internal/db"
	"github.com/2beens/rapidfit/internal/mail"
	"github.com/2beens/rapidfit/internal/middleware"
	"github.com/2beens/rapidfit/internal/misc"
	"github.com/2beens/rapidfit/internal/rapidtree"
	"github.com/2beens/rapidfit/internal/telemetry/metrics"
	"github.com/2beens/rapidfit/internal/telemetry/tracing"
	"github.com/2beens/rapidfit/internal/userdata"
	"github.com/2beens/rapidfit/internal/users"
)

const (
	sessionsCleanupInterval = 8 * time.Hour
	shutdownTimeout         = 15 * time.Second
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	rateLimiter middleware.RequestRateLimiter

	authService    *auth.Service
	sessionChecker *auth.SessionChecker

	usersHandler     *users.Handler
	userDataHandler  *userdata.Handler
	rapidTreeHandler *rapidtree.Handler

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	PostgresPassword        string
	RedisPassword           string
	SmtpPassword            string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     params.PostgresPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	} else if cfg.AutoMigrate {
		if err := db.EnsureSchema(ctx, dbPool); err != nil {
			dbPool.Close()
			return nil, err
		}
		log.Debugln("db schema ensured")
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "rapidfit", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "rapidfit-backend", rdb)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	catalog, err := rapidtree.DefaultCatalog()
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("load rapid tree catalog: %w", err)
	}

	var mailer mail.Mailer
	if cfg.SmtpHost != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPParams{
			Host:     cfg.SmtpHost,
			Port:     cfg.SmtpPort,
			Username: cfg.SmtpUsername,
			Password: params.SmtpPassword,
			From:     cfg.MailFrom,
		})
	} else {
		log.Warnln("smtp host not set, emails will only be logged")
		mailer = mail.NewLogMailer()
	}

	authService := auth.NewAuthService(cfg.SessionTTL.Duration, rdb)
	usersService := users.NewService(users.NewServiceParams{
		Repo:             users.NewRepo(dbPool),
		Sessions:         authService,
		ResetTokens:      auth.NewResetTokens(cfg.PasswordResetTTL.Duration, rdb),
		Mailer:           mailer,
		PasswordResetURL: cfg.PasswordResetURL,
		MetricsManager:   metricsManager,
	})

	userDataService := userdata.NewService(userdata.NewServiceParams{
		Repo:           userdata.NewRepo(dbPool),
		Catalog:        catalog,
		Cache:          freecache.NewCache(cfg.UserDataCacheSizeMB * 1024 * 1024),
		CacheTTL:       cfg.UserDataCacheTTL.Duration,
		MetricsManager: metricsManager,
	})

	s := &Server{
		config:      cfg,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:    rdb,
		rateLimiter:    redis_rate.NewLimiter(rdb),
		authService:    authService,
		sessionChecker: auth.NewSessionChecker(cfg.SessionTTL.Duration, rdb),

		usersHandler:    users.NewHandler(usersService),
		userDataHandler: userdata.NewHandler(userDataService),
		rapidTreeHandler: rapidtree.NewHandler(
			catalog,
			userdata.NewRapidTreeStore(userDataService),
			metricsManager,
		),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	go s.cleanupSessions(ctx)

	return s, nil
}

func (s *Server) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionsCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.authService.ScanAndClean(ctx)
		}
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("rapidfit-router"))

	misc.NewHandler(s.versionInfo).SetupRoutes(r)

	rateLimited := func(name string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(
			s.rateLimiter,
			name,
			s.config.AuthRateLimitAllowedPerMin,
			s.metricsManager,
		)(h)
	}

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.Handle("/register", rateLimited("register", s.usersHandler.HandleRegister)).Methods("POST", "OPTIONS").Name("register")
	authRouter.Handle("/login", rateLimited("login", s.usersHandler.HandleLogin)).Methods("POST", "OPTIONS").Name("login")
	authRouter.Handle("/forgot-password", rateLimited("forgot-password", s.usersHandler.HandleForgotPassword)).Methods("POST", "OPTIONS").Name("forgot-password")
	authRouter.Handle("/reset-password", rateLimited("reset-password", s.usersHandler.HandleResetPassword)).Methods("POST", "OPTIONS").Name("reset-password")
	authRouter.HandleFunc("/user", s.usersHandler.HandleGetUser).Methods("GET", "OPTIONS").Name("get-user")
	authRouter.HandleFunc("/update-profile", s.usersHandler.HandleUpdateProfile).Methods("PUT", "OPTIONS").Name("update-profile")
	authRouter.HandleFunc("/logout", s.usersHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")

	r.HandleFunc("/api/user-data/save-data", s.userDataHandler.HandleSaveData).Methods("POST", "OPTIONS").Name("save-user-data")
	r.HandleFunc("/api/user-data/get-data", s.userDataHandler.HandleGetData).Methods("GET", "OPTIONS").Name("get-user-data")

	r.HandleFunc("/api/rapid-tree", s.rapidTreeHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-rapid-tree")
	r.HandleFunc("/api/rapid-tree/complete", s.rapidTreeHandler.HandleComplete).Methods("POST", "OPTIONS").Name("complete-rapid-tree-node")
	r.HandleFunc("/api/rapid-tree/reset", s.rapidTreeHandler.HandleReset).Methods("POST", "OPTIONS").Name("reset-rapid-tree-node")
	r.HandleFunc("/api/rapid-tree/reset-all", s.rapidTreeHandler.HandleResetAll).Methods("POST", "OPTIONS").Name("reset-rapid-tree")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.sessionChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve() {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	ctx, timeoutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer timeoutCancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown metrics http server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	return err
}
