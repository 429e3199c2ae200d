package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/relay/internal/auth"
	"github.com/MrSnakeDoc/relay/internal/config"
	"github.com/MrSnakeDoc/relay/internal/domain"
	"github.com/MrSnakeDoc/relay/internal/forward"
	"github.com/MrSnakeDoc/relay/internal/httpserver"
	"github.com/MrSnakeDoc/relay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/relay/internal/logger"
	"github.com/MrSnakeDoc/relay/internal/metrics"
	"github.com/MrSnakeDoc/relay/internal/redis"
	"github.com/MrSnakeDoc/relay/internal/scheduler"
	"github.com/MrSnakeDoc/relay/internal/sources/policy"
	"github.com/MrSnakeDoc/relay/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/relay/internal/store/redis"
	"github.com/MrSnakeDoc/relay/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	sweeper     *scheduler.ExpirySweeper
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	m := metrics.New()

	store := memory.New()
	m.ObserveStore(store.Count)

	fwdPolicy, err := forwardPolicy(cfg)
	if err != nil {
		return nil, err
	}
	forwarder := forward.New(fwdPolicy, loggerClient, forward.WithMetrics(m))
	loggerClient.Info("forwarding policy loaded",
		logger.Int("max_redirects", fwdPolicy.MaxRedirects),
		logger.Strings("ignored_headers", fwdPolicy.IgnoredHeaders),
		logger.String("policy_file", cfg.PolicyFile))

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Store:        store,
		Authorizer:   auth.New(cfg.AccessToken),
		Forwarder:    forwarder,
		TTL:          domain.TTLBounds{Min: cfg.MinTTL, Max: cfg.MaxTTL},
		MaxBodyBytes: cfg.MaxBodyBytes,
		Metrics:      m,
	}

	// Redis only holds usage counters, so it is optional and never fatal.
	var redisClient *goredis.Client
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(redisOptions(cfg), loggerClient)
		if err != nil {
			loggerClient.Error("redis unavailable, usage counters disabled", logger.Error(err))
			redisClient = nil
		} else {
			loggerClient.Info("Redis initialized successfully")
			d.Hits = redisstore.NewStore(redisClient)
			d.HitsTimeout = cfg.RedisWT
		}
	} else {
		loggerClient.Info("redis not configured, usage counters disabled")
	}

	sweeper := scheduler.NewExpirySweeper(store, loggerClient, cfg.SweepInterval, m)

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		sweeper:     sweeper,
	}, nil
}

// forwardPolicy builds the policy from env and overlays the optional file.
func forwardPolicy(cfg *config.Config) (forward.Policy, error) {
	p := forward.Policy{
		MaxRedirects:          cfg.MaxRedirects,
		IgnoredHeaders:        cfg.IgnoredHeaders,
		DialTimeout:           cfg.UpstreamDialTimeout,
		ResponseHeaderTimeout: cfg.UpstreamHeaderTimeout,
	}
	if cfg.PolicyFile == "" {
		return p, nil
	}

	file, err := policy.NewLoader(cfg.PolicyFile).Load()
	if err != nil {
		return p, fmt.Errorf("failed to load policy file: %w", err)
	}
	p, err = file.Apply(p)
	if err != nil {
		return p, fmt.Errorf("invalid policy file %s: %w", cfg.PolicyFile, err)
	}
	return p, nil
}

func redisOptions(cfg *config.Config) redis.ConnectOptions {
	return redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Relay v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Relay %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start expiry sweeper: %w", err)
	}
	a.logger.Info("expiry sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.sweeper.Stop()
		return err
	}

	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Relay stopped cleanly")
	return nil
}
