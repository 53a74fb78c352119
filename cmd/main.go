package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/sbilibin2017/gw-recharge-client/internal/credentials"
	"github.com/sbilibin2017/gw-recharge-client/internal/facades"
	"github.com/sbilibin2017/gw-recharge-client/internal/handlers"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/middlewares"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
	"github.com/sbilibin2017/gw-recharge-client/internal/repositories"
	"github.com/sbilibin2017/gw-recharge-client/internal/services"
	"github.com/sbilibin2017/gw-recharge-client/internal/session"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// Store and credential backends.
const (
	storePostgres = "postgres"
	storeSupabase = "supabase"

	credentialsFile    = "file"
	credentialsRedis   = "redis"
	credentialsKeyring = "keyring"
)

// config holds application, store, credential, Redis, Kafka and session settings.
type config struct {
	AppHost     string
	AppPort     string
	LogLevel    string
	LogEncoding string

	StoreBackend string

	PGHost          string
	PGPort          int
	PGUser          string
	PGPassword      string
	PGDB            string
	PGMaxOpenConns  int
	PGMaxIdleConns  int
	PGNotifyChannel string

	SupabaseURL    string
	SupabaseAPIKey string

	CredentialsBackend string
	CredentialsFile    string
	KeyringService     string

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisExp          time.Duration
	RedisNamespace    string
	ChannelCache      bool

	KafkaBrokers []string
	KafkaTopic   string

	SessionPollInterval time.Duration
}

// dsn returns the PostgreSQL connection string.
func (c config) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDB)
}

// @title gw-recharge-client API
// @version 1.0.0
// @description Local API of the trading client recharge core: session, live balance, payment channels and recharge submission
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s, Commit: %s, Build: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the
// application configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string) (int, error) {
		n, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	cfg.LogEncoding = getEnv("APP_LOG_ENCODING", "json")

	// Remote store config
	cfg.StoreBackend = getEnv("STORE_BACKEND", storePostgres)
	if cfg.StoreBackend != storePostgres && cfg.StoreBackend != storeSupabase {
		return cfg, fmt.Errorf("STORE_BACKEND: unknown backend %q", cfg.StoreBackend)
	}

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	cfg.PGNotifyChannel = getEnv("POSTGRES_NOTIFY_CHANNEL", repositories.DefaultNotifyChannel)
	if cfg.PGPort, err = getInt("POSTGRES_PORT", "5432"); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", "16"); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", "8"); err != nil {
		return
	}

	// Supabase config
	cfg.SupabaseURL = getEnv("SUPABASE_URL", "")
	cfg.SupabaseAPIKey = getEnv("SUPABASE_API_KEY", "")
	if cfg.StoreBackend == storeSupabase && (cfg.SupabaseURL == "" || cfg.SupabaseAPIKey == "") {
		return cfg, errors.New("SUPABASE_URL and SUPABASE_API_KEY are required for the supabase store")
	}

	// Credential store config
	cfg.CredentialsBackend = getEnv("CREDENTIALS_BACKEND", credentialsFile)
	cfg.CredentialsFile = getEnv("CREDENTIALS_FILE", "credentials.env")
	cfg.KeyringService = getEnv("KEYRING_SERVICE", "gw-recharge-client")
	switch cfg.CredentialsBackend {
	case credentialsFile, credentialsRedis, credentialsKeyring:
	default:
		return cfg, fmt.Errorf("CREDENTIALS_BACKEND: unknown backend %q", cfg.CredentialsBackend)
	}

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisNamespace = getEnv("REDIS_NAMESPACE", "recharge-client")
	if cfg.RedisPort, err = getInt("REDIS_PORT", "6379"); err != nil {
		return
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return
	}
	if cfg.RedisPoolSize, err = getInt("REDIS_POOL_SIZE", "10"); err != nil {
		return
	}
	if cfg.RedisMinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", "2"); err != nil {
		return
	}
	var redisExp int
	if redisExp, err = getInt("REDIS_EXP_SECOND", "60"); err != nil {
		return
	}
	cfg.RedisExp = time.Duration(redisExp) * time.Second
	if cfg.ChannelCache, err = strconv.ParseBool(getEnv("CHANNEL_CACHE_ENABLED", "false")); err != nil {
		return cfg, fmt.Errorf("CHANNEL_CACHE_ENABLED: %w", err)
	}

	// Kafka config
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "recharges")

	// Session config
	if cfg.SessionPollInterval, err = time.ParseDuration(getEnv("SESSION_POLL_INTERVAL", "500ms")); err != nil {
		return cfg, fmt.Errorf("SESSION_POLL_INTERVAL: %w", err)
	}

	return cfg, nil
}

// rowSource delivers row changes until its Run returns.
type rowSource interface {
	services.RowSubscriber
	Run(ctx context.Context) error
}

// remoteStore is the remote data store as seen by the services.
type remoteStore struct {
	balances  services.BalanceReader
	channels  services.ChannelReader
	recharges services.RechargeWriter
	rows      rowSource
	close     func()
}

// openStore connects to the configured remote store backend.
func openStore(ctx context.Context, cfg config) (*remoteStore, error) {
	if cfg.StoreBackend == storeSupabase {
		rest := facades.NewPostgRESTFacade(cfg.SupabaseURL, cfg.SupabaseAPIKey, nil)
		logger.Log.Infow("Using Supabase store", "url", cfg.SupabaseURL)
		return &remoteStore{
			balances:  rest,
			channels:  rest,
			recharges: rest,
			rows:      facades.NewRealtimeFacade(facades.RealtimeURL(cfg.SupabaseURL, cfg.SupabaseAPIKey), cfg.SupabaseAPIKey),
			close:     func() {},
		}, nil
	}

	logger.Log.Infow("Connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return &remoteStore{
		balances:  repositories.NewUserBalanceRepository(db),
		channels:  repositories.NewChannelReadRepository(db),
		recharges: repositories.NewRechargeWriteRepository(db),
		rows:      repositories.NewRowChangeListener(cfg.dsn(), cfg.PGNotifyChannel),
		close:     func() { db.Close() },
	}, nil
}

// openCredentials returns the configured credential store. rdb is only
// used by the redis backend.
func openCredentials(cfg config, rdb *redis.Client) (credentials.Store, error) {
	switch cfg.CredentialsBackend {
	case credentialsRedis:
		if rdb == nil {
			return nil, errors.New("redis credential store requires a redis client")
		}
		return credentials.NewRedisStore(rdb, cfg.RedisNamespace), nil
	case credentialsKeyring:
		return credentials.NewKeyringStore(cfg.KeyringService), nil
	default:
		return credentials.NewFileStore(cfg.CredentialsFile), nil
	}
}

// newRouter registers the local API, metrics and swagger routes.
func newRouter(
	cfg config,
	monitor *session.Monitor,
	balanceSvc *services.BalanceSyncService,
	fundingDir, adminDir *services.ChannelDirectory,
	rechargeSvc *services.RechargeService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/session", handlers.NewGetSessionHandler(monitor))
		r.Get("/admin/channels", handlers.NewListChannelsHandler(adminDir, models.ScopeAdmin))

		// Routes that need a logged-in user
		r.Group(func(r chi.Router) {
			r.Use(middlewares.SessionMiddleware(monitor))
			r.Get("/balance", handlers.NewGetBalanceHandler(balanceSvc))
			r.Get("/channels", handlers.NewListChannelsHandler(fundingDir, models.ScopeFunding))
			r.Get("/recharge", handlers.NewGetRechargeFormHandler(rechargeSvc, fundingDir))
			r.Put("/recharge/method", handlers.NewSelectMethodHandler(rechargeSvc))
			r.Put("/recharge/channel", handlers.NewSelectChannelHandler(rechargeSvc, fundingDir))
			r.Put("/recharge/form", handlers.NewUpdateRechargeFormHandler(rechargeSvc))
			r.Post("/recharge/submit", handlers.NewSubmitRechargeHandler(rechargeSvc))
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	return r
}

// run initializes the logger, stores, session monitor, services and HTTP
// server, and runs them until a shutdown signal or the first failure.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, cfg.LogEncoding); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to Redis when a component needs it
	var rdb *redis.Client
	if cfg.CredentialsBackend == credentialsRedis || cfg.ChannelCache {
		rdb = redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection error: %w", err)
		}
		defer rdb.Close()
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	creds, err := openCredentials(cfg, rdb)
	if err != nil {
		return err
	}

	var channelCache services.ChannelCache
	if cfg.ChannelCache {
		channelCache = repositories.NewChannelCacheRepository(rdb, cfg.RedisExp)
	}

	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		w := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Topic:    cfg.KafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer w.Close()
		kafkaWriter = w
	} else {
		logger.Log.Warn("KAFKA_BROKERS not set, recharge events are disabled")
	}

	// Initialize services
	monitor := session.NewMonitor(creds, creds, cfg.SessionPollInterval)
	balanceSvc := services.NewBalanceSyncService(store.balances, store.rows)
	defer balanceSvc.Close()
	unsubscribe := monitor.Subscribe(balanceSvc.OnSession)
	defer unsubscribe()

	fundingDir := services.NewChannelDirectory(store.channels, channelCache)
	adminDir := services.NewChannelDirectory(store.channels, channelCache)
	rechargeSvc := services.NewRechargeService(monitor, store.recharges, kafkaWriter)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler: newRouter(cfg, monitor, balanceSvc, fundingDir, adminDir, rechargeSvc),
	}

	// Graceful shutdown
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	g, gctx := errgroup.WithContext(ctxShutdown)
	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error { return store.rows.Run(gctx) })
	g.Go(func() error {
		logger.Log.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorw("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
