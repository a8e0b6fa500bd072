package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/nodrystarts/site-backend/internal/adapters/cache"
	eventadapter "github.com/nodrystarts/site-backend/internal/adapters/events"
	grpcadapter "github.com/nodrystarts/site-backend/internal/adapters/grpc"
	httpadapter "github.com/nodrystarts/site-backend/internal/adapters/http"
	mailadapter "github.com/nodrystarts/site-backend/internal/adapters/mail"
	"github.com/nodrystarts/site-backend/internal/adapters/metrics"
	"github.com/nodrystarts/site-backend/internal/adapters/postgres"
	"github.com/nodrystarts/site-backend/internal/adapters/security"
	"github.com/nodrystarts/site-backend/internal/adapters/storage"
	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	sweepers   []func(context.Context, time.Duration)
	closers    []func() error
}

// newRootLogger is the only place the service attribute is attached; layer loggers derive from it.
func newRootLogger(w io.Writer, serviceID string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", serviceID)
}

func NewRuntime(ctx context.Context, configPath string) (_ *Runtime, err error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := newRootLogger(os.Stdout, cfg.ServiceID)
	slog.SetDefault(logger)
	logger.Info("bootstrapping site backend", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort,
		"mail_transport", cfg.MailTransport, "storage_backend", cfg.StorageBackend)

	rt := &Runtime{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			rt.close()
		}
	}()

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	rt.closers = append(rt.closers, sqlDB.Close)
	if err := postgres.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	repos := postgres.NewRepositories(db)

	readiness := map[string]httpadapter.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}

	var (
		limiter     ports.RateLimiter
		lockouts    ports.LockoutStore
		revocations ports.SessionRevocationStore
	)
	if cfg.RedisURL != "" {
		client, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		if err := cacheadapter.Ping(ctx, client); err != nil {
			return nil, err
		}
		limiter = cacheadapter.NewRedisRateLimiter(client)
		lockouts = cacheadapter.NewRedisLockoutStore(client)
		revocations = cacheadapter.NewRedisSessionRevocationStore(client)
		readiness["redis"] = redisCheck(client)
	} else {
		logger.Warn("REDIS_URL not set; rate limits, lockouts and revocations are per process")
		memLimiter := cacheadapter.NewMemoryRateLimiter(2 * cfg.RateLimitWindow)
		memLockouts := cacheadapter.NewMemoryLockoutStore()
		memRevocations := cacheadapter.NewMemorySessionRevocationStore()
		rt.sweepers = append(rt.sweepers, memLimiter.Run, memLockouts.Run, memRevocations.Run)
		limiter, lockouts, revocations = memLimiter, memLockouts, memRevocations
	}

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return nil, err
	}

	objects, media, err := newObjectStore(ctx, cfg, readiness)
	if err != nil {
		return nil, err
	}

	signer, err := security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTIssuer, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			return nil, fmt.Errorf("init jwt signer: %w", err)
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime")
		signer, err = security.NewEphemeralJWTSigner(cfg.JWTKeyID, cfg.JWTIssuer)
		if err != nil {
			return nil, fmt.Errorf("init ephemeral jwt signer: %w", err)
		}
	}

	category, err := domain.ParseDocumentCategory(cfg.ArtifactCategory)
	if err != nil {
		return nil, fmt.Errorf("investor document category: %w", err)
	}

	registry := metrics.NewRegistry()
	quota := func(limit int) application.Quota {
		return application.Quota{Limit: limit, Window: cfg.RateLimitWindow}
	}
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			AdminEmail:               cfg.AdminEmail,
			InquiryNotificationEmail: cfg.InquiryEmail,
			RFQNotificationEmail:     cfg.RFQEmail,
			DefaultTokenWindow:       cfg.TokenWindow,
			DefaultUsageLimit:        cfg.TokenUsageLimit,
			ArtifactCategoryDefault:  category,
			AccessTokenTTL:           cfg.AccessTokenTTL,
			SessionTTL:               cfg.SessionTTL,
			SessionAbsoluteTTL:       cfg.SessionAbsoluteTTL,
			FailedLoginThreshold:     cfg.FailedThreshold,
			LockoutDuration:          cfg.LockoutDuration,
			LeadQuota:                quota(cfg.LeadLimit),
			RFQQuota:                 quota(cfg.RFQLimit),
			InvestorRequestQuota:     quota(cfg.InvestorLimit),
			MaxAttachmentBytes:       cfg.MaxAttachmentSize,
		},
		Tokens:       repos.Tokens,
		Leads:        repos.Leads,
		RFQs:         repos.RFQs,
		Manufacturer: repos.Manufacturers,
		Documents:    repos.Documents,
		Blocks:       repos.Blocks,
		Admins:       repos.Admins,
		Sessions:     repos.Sessions,
		Outbox:       repos.Outbox,
		Idempotency:  repos.Idempotency,
		RateLimiter:  limiter,
		Lockouts:     lockouts,
		Revocations:  revocations,
		Mailer:       mailer,
		Objects:      objects,
		Sanitizer:    security.NewHTMLPolicy(),
		Secrets:      security.NewRandomSecretGenerator(),
		Hasher:       security.NewBcryptHasher(cfg.BcryptCost),
		TokenSigner:  signer,
		Metrics:      registry,
	})
	rt.service = svc

	if cfg.BootstrapAdminEmail != "" {
		created, err := svc.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("bootstrap admin created", "email", cfg.BootstrapAdminEmail)
		}
	}

	handler := httpadapter.NewHandler(svc, httpadapter.Options{
		PublicBaseURL:     cfg.PublicBaseURL,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		MaxDocumentBytes:  cfg.MaxDocumentBytes,
		Readiness:         readiness,
		MetricsHandler:    registry.Handler(),
		Observer:          registry,
		Media:             media,
	})
	rt.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	rt.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(grpcadapter.LoggingInterceptor(logger)))
	rt.health = health.NewServer()
	healthpb.RegisterHealthServer(rt.grpcServer, rt.health)
	rt.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(rt.grpcServer, grpcadapter.NewTokenInspectorServer(svc))

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, publisher.Close)
	rt.outbox = eventadapter.NewOutboxWorker(logger, repos.Outbox, publisher, eventadapter.OutboxWorkerConfig{
		Interval:   cfg.OutboxPollInterval,
		BatchSize:  cfg.OutboxBatchSize,
		ClaimTTL:   cfg.OutboxClaimTTL,
		MaxRetries: cfg.OutboxMaxRetries,
	})

	return rt, nil
}

func redisCheck(client *redis.Client) httpadapter.ReadinessCheck {
	return func(ctx context.Context) error { return cacheadapter.Ping(ctx, client) }
}

func newMailer(cfg Config, logger *slog.Logger) (ports.Mailer, error) {
	if cfg.MailTransport == "log" {
		logger.Warn("mail transport is log; notifications will not leave this process")
		return mailadapter.NewLogMailer(logger), nil
	}
	m, err := mailadapter.NewSMTPMailer(mailadapter.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUsername,
		Password:    cfg.SMTPPassword,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		ImplicitTLS: cfg.SMTPImplicitTLS,
		Timeout:     cfg.SMTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init smtp mailer: %w", err)
	}
	return m, nil
}

// newObjectStore returns the store plus, for the filesystem backend, the same store for /media/ serving.
func newObjectStore(ctx context.Context, cfg Config, readiness map[string]httpadapter.ReadinessCheck) (ports.ObjectStore, ports.ObjectStore, error) {
	if cfg.StorageBackend == "s3" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			KeyPrefix:       cfg.S3KeyPrefix,
			URLExpiry:       cfg.S3URLExpiry,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 storage: %w", err)
		}
		readiness["object_store"] = s3Store.Ping
		return s3Store, nil, nil
	}
	local, err := storage.NewLocalStore(cfg.StorageRoot, cfg.PublicBaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("init local storage: %w", err)
	}
	return local, local, nil
}

type closablePublisher interface {
	ports.EventPublisher
	io.Closer
}

func newPublisher(cfg Config, logger *slog.Logger) (closablePublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return eventadapter.NewLoggingPublisher(logger), nil
	}
	prefix := cfg.KafkaTopicPrefix
	if prefix != "" && prefix[len(prefix)-1] != '.' {
		prefix += "."
	}
	p, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, prefix)
	if err != nil {
		return nil, fmt.Errorf("init kafka publisher: %w", err)
	}
	return p, nil
}

func (r *Runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("close resource failed", "error", err)
		}
	}
	r.closers = nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.close()
		return fmt.Errorf("listen gRPC: %w", err)
	}
	r.grpcLis = lis

	for _, run := range r.sweepers {
		go run(ctx, 10*time.Minute)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	r.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("http shutdown incomplete", "error", err)
	}
	r.grpcServer.GracefulStop()
	r.close()
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)
	r.close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
