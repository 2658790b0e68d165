package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"catalog-service/internal/audit"
	"catalog-service/internal/auth"
	"catalog-service/internal/config"
	apphttp "catalog-service/internal/http"
	"catalog-service/internal/metrics"
	"catalog-service/internal/repository/sqlite"
	"catalog-service/internal/service"
	"catalog-service/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.AccessTokenTTL(),
	})
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	tokenRepo := sqlite.NewRefreshTokenRepository(db)
	auditRepo := sqlite.NewAuditRepository(db)
	categoryRepo := sqlite.NewCategoryRepository(db)
	productRepo := sqlite.NewProductRepository(db)

	if err := sqlite.InitAll(ctx, userRepo, tokenRepo, auditRepo, categoryRepo, productRepo); err != nil {
		logger.Fatalf("init repositories: %v", err)
	}

	appMetrics := metrics.New()

	dispatcher := audit.NewDispatcher(auditRepo, audit.DispatcherConfig{
		BufferSize:     cfg.Audit.BufferSize,
		WriteTimeout:   cfg.AuditWriteTimeout(),
		Logger:         logger,
		OnDrop:         appMetrics.AuditDropped,
		OnWriteFailure: appMetrics.AuditWriteFailed,
	})
	dispatcher.Start()
	trail := audit.NewTrail(dispatcher, auditRepo, logger)

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	authService := service.NewAuthService(service.AuthServiceConfig{
		Users:           userRepo,
		Tokens:          tokenRepo,
		Hasher:          auth.NewBcryptHasher(bcrypt.DefaultCost),
		Issuer:          issuer,
		Policy:          auth.NewPasswordPolicy(),
		RefreshTokenTTL: cfg.RefreshTokenTTL(),
		Logger:          logger,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Config{
		Auth:          authService,
		Admin:         service.NewUserAdminService(userRepo, tokenRepo, logger),
		Catalog:       service.NewCatalogService(categoryRepo, productRepo),
		Tokens:        issuer,
		Trail:         trail,
		Archiver:      audit.NewArchiver(auditRepo, storageSvc, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, logger),
		Metrics:       appMetrics,
		Logger:        logger,
		AuthPerMinute: cfg.RateLimit.AuthPerMinute,
		AuthBurst:     cfg.RateLimit.Burst,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("audit shutdown: %v", err)
	}
	if dropped := dispatcher.Dropped(); dropped > 0 {
		logger.Warnf("audit entries dropped: %d", dropped)
	}

	logger.Info("bye")
}

// buildStorage returns nil when no bucket is configured; audit archiving is then disabled.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, audit archiving disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
