package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/config"
	accesssvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/access"
	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
	catalogsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/catalog"
	checkoutsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/checkout"
	entsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/entitlements"
	paymentsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/payments"
	referralsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/referrals"
	usersvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/users"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService        *authsvc.Service
	UserService        *usersvc.Service
	CatalogService     *catalogsvc.Service
	AccessService      *accesssvc.Service
	CourseStore        accesssvc.CourseStore
	CheckoutService    *checkoutsvc.Service
	PaymentService     *paymentsvc.Service
	EntitlementService *entsvc.Service
	ReferralService    *referralsvc.Service
	UserFinder         handlers.UserFinder
	Logger             *zap.Logger
	Config             config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	userHandler := handlers.NewUserHandler(deps.UserService)
	catalogHandler := handlers.NewCatalogHandler(deps.CatalogService)
	courseHandler := handlers.NewCourseHandler(deps.AccessService, deps.CourseStore)
	checkoutHandler := handlers.NewCheckoutHandler(deps.CheckoutService)
	webhookHandler := handlers.NewWebhookHandler(deps.PaymentService, deps.Config.Stripe.WebhookSecret, deps.Logger)
	entitlementsHandler := handlers.NewEntitlementsHandler(deps.EntitlementService)
	referralsHandler := handlers.NewReferralsHandler(deps.ReferralService)
	devPayHandler := handlers.NewDevPayHandler(deps.PaymentService, deps.UserFinder)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	devPayRoleMW := RequireRole("OWNER")

	r.Get("/healthz", healthHandler.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/magic-link", authHandler.RequestLink)
		r.Post("/verify", authHandler.Verify)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Post("/users/register", userHandler.Register)
	r.Get("/users/employment-statuses", userHandler.EmploymentStatuses)
	r.With(authMW).Get("/me", userHandler.Me)
	r.With(authMW).Put("/me/profile", userHandler.UpdateProfile)

	r.Get("/products", catalogHandler.Products)
	r.With(authMW).Get("/products/{productID}/price", catalogHandler.ResolvePrice)

	r.With(authMW).Get("/courses", courseHandler.List)
	r.With(authMW).Get("/courses/{courseID}", courseHandler.Get)
	r.With(authMW).Get("/courses/{courseID}/access", courseHandler.Access)

	r.With(authMW).Post("/checkout", checkoutHandler.Begin)
	r.Post("/payments/webhook", webhookHandler.Stripe)
	r.With(authMW).Get("/entitlements", entitlementsHandler.List)
	r.With(authMW).Get("/referrals/stats", referralsHandler.Stats)
	r.With(authMW, devPayRoleMW).Post("/pay/dev/confirm", devPayHandler.Confirm)
}
