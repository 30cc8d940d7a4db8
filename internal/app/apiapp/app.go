package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/config"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/infra/mailer"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/infra/stripepay"
	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
	redrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/redis"
	accesssvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/access"
	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
	catalogsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/catalog"
	checkoutsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/checkout"
	entsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/entitlements"
	paymentsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/payments"
	referralsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/referrals"
	usersvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/users"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres init: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	magicLinkRepo := redrepo.NewMagicLinkRepo(redisClient)

	userRepo := pgrepo.NewUserRepo(pool)
	catalogRepo := pgrepo.NewCatalogRepo(pool)
	courseRepo := pgrepo.NewCourseRepo(pool)
	entitlementRepo := pgrepo.NewEntitlementRepo(pool)
	referralRepo := pgrepo.NewReferralRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	linkMailer := mailer.NewLogMailer(log)
	authService := authsvc.NewService(jwtManager, sessionRepo, magicLinkRepo, userRepo, linkMailer, authsvc.Config{
		RefreshTTL:   cfg.Auth.RefreshTTL,
		MagicLinkTTL: cfg.Auth.MagicLinkTTL,
		FrontendURL:  cfg.Stripe.FrontendURL,
	})

	userService := usersvc.NewService(userRepo)
	catalogService := catalogsvc.NewService(catalogRepo, userRepo, log)
	accessService := accesssvc.NewService(courseRepo, entitlementRepo, log)
	entitlementService := entsvc.NewService(entitlementRepo, catalogRepo)
	referralService := referralsvc.NewService(referralRepo, userRepo, referralsvc.Config{
		CreditPercent: cfg.Referral.CreditPercent,
		CodeLength:    cfg.Referral.CodeLength,
	}, log)
	paymentService := paymentsvc.NewService(entitlementRepo, catalogRepo, userRepo, referralService, catalogService, log)
	checkoutProvider := stripepay.New(cfg.Stripe.SecretKey, cfg.Stripe.FrontendURL)
	checkoutService := checkoutsvc.NewService(checkoutProvider, catalogService, referralService, userRepo, log)

	RegisterRoutes(r, Dependencies{
		AuthService:        authService,
		UserService:        userService,
		CatalogService:     catalogService,
		AccessService:      accessService,
		CourseStore:        courseRepo,
		CheckoutService:    checkoutService,
		PaymentService:     paymentService,
		EntitlementService: entitlementService,
		ReferralService:    referralService,
		UserFinder:         userRepo,
		Logger:             log,
		Config:             cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
