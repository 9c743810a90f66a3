package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/busfleet/opsproxy/internal/accounts"
	"github.com/busfleet/opsproxy/internal/auth"
	"github.com/busfleet/opsproxy/internal/cache"
	"github.com/busfleet/opsproxy/internal/config"
	"github.com/busfleet/opsproxy/internal/db"
	"github.com/busfleet/opsproxy/internal/middleware"
	"github.com/busfleet/opsproxy/internal/status"
	"github.com/busfleet/opsproxy/internal/syncjob"
	"github.com/busfleet/opsproxy/internal/telemetry/metrics"
	"github.com/busfleet/opsproxy/internal/workspace"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	authService  *auth.Service
	accountsRepo accounts.Repo

	responseCache *cache.ResponseCache
	gateway       workspace.Gateway
	syncJob       *syncjob.Job
	syncRunner    *syncjob.Runner

	upstreamKeyPresent bool

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
}

type NewServerParams struct {
	Config             *config.Config
	UpstreamAPIKey     string
	TokenSigningSecret string
	EncodedAccounts    string
	RedisPassword      string
	VersionInfo        string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("opsproxy", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, strconv.Itoa(params.Config.RedisPort)),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	rdb.AddHook(redisotel.NewTracingHook())

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	var dbPool *pgxpool.Pool
	var accountsRepo accounts.Repo
	switch strings.ToLower(params.Config.AccountsBackend) {
	case "postgres":
		var err error
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost: params.Config.PostgresHost,
			DBPort: params.Config.PostgresPort,
			DBName: params.Config.PostgresDBName,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		accountsRepo = accounts.NewPsqlRepo(dbPool)
	default:
		memRepo, err := accounts.NewMemoryRepoFromEnv(params.EncodedAccounts)
		if err != nil {
			return nil, fmt.Errorf("seed accounts repo: %w", err)
		}
		accountsRepo = memRepo
	}

	authService := auth.NewService(accountsRepo, params.TokenSigningSecret)

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	upstreamBaseURL := params.Config.UpstreamBaseURL
	if upstreamBaseURL == "" {
		upstreamBaseURL = workspace.DefaultBaseURL
	}
	gateway := workspace.NewClient(upstreamBaseURL, params.UpstreamAPIKey, tracedHttpClient)

	responseCache := cache.NewResponseCache(params.Config.CacheTTL())

	syncJob := syncjob.NewJob(syncjob.NewJobParams{
		Enabled:         params.Config.SyncEnabled,
		Gateway:         gateway,
		Calendar:        syncjob.NoopCalendar{},
		BookingsDBID:    params.Config.BookingsDBID,
		MaintenanceDBID: params.Config.MaintenanceDBID,
		Metrics:         metricsManager,
	})

	return &Server{
		config:             params.Config,
		versionInfo:        params.VersionInfo,
		dbPool:             dbPool,
		redisClient:        rdb,
		accountsRepo:       accountsRepo,
		authService:        authService,
		responseCache:      responseCache,
		gateway:            gateway,
		syncJob:            syncJob,
		syncRunner:         syncjob.NewRunner(syncJob, params.Config.SyncInterval()),
		upstreamKeyPresent: params.UpstreamAPIKey != "",
		metricsManager:     metricsManager,
		promRegistry:       promRegistry,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	authHandler := auth.NewHandler(s.authService)

	// login gets its own subrouter so only it pays the rate limit check
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	loginRouter := r.PathPrefix("/api/login").Subrouter()
	loginRouter.HandleFunc("", authHandler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	loginRouter.Use(middleware.RateLimit(
		reqRateLimiter,
		"login",
		s.config.LoginRequestsPerMinute,
		s.metricsManager,
	))

	r.HandleFunc("/api/me", authHandler.HandleMe).Methods("GET", "OPTIONS").Name("me")
	r.HandleFunc("/api/change-password", authHandler.HandleChangePassword).Methods("POST", "OPTIONS").Name("change-password")
	r.HandleFunc("/api/profile", authHandler.HandleUpdateProfile).Methods("PUT", "OPTIONS").Name("update-profile")

	workspaceHandler := workspace.NewHandler(s.gateway, s.responseCache, s.metricsManager)
	r.HandleFunc("/api/databases/{id}/query", workspaceHandler.HandleQueryDatabase).Methods("POST", "OPTIONS").Name("query-database")
	r.HandleFunc("/api/pages", workspaceHandler.HandleCreatePage).Methods("POST", "OPTIONS").Name("create-page")
	r.HandleFunc("/api/pages/{id}", workspaceHandler.HandleUpdatePage).Methods("PATCH", "OPTIONS").Name("update-page")
	r.HandleFunc("/api/cache/clear", workspaceHandler.HandleClearCache).Methods("POST", "OPTIONS").Name("clear-cache")

	syncHandler := syncjob.NewHandler(s.syncJob, s.responseCache)
	r.HandleFunc("/api/sync-now", syncHandler.HandleSyncNow).Methods("POST", "OPTIONS").Name("sync-now")

	statusHandler := status.NewHandler(s.upstreamKeyPresent, s.syncJob.Enabled(), s.versionInfo)
	r.HandleFunc("/api/health", statusHandler.HandleHealth).Methods("GET").Name("health")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "PATCH", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.authService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(host, strconv.Itoa(s.config.MetricsPort))
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
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

	s.syncRunner.Start(ctx)

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
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

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
