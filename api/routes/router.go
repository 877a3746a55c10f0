package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rmoralesv/moldops-backend/api/controllers"
	"github.com/rmoralesv/moldops-backend/api/middleware"
	"github.com/rmoralesv/moldops-backend/internal/auth"
	"github.com/rmoralesv/moldops-backend/internal/consumption"
	"github.com/rmoralesv/moldops-backend/internal/materials"
	"github.com/rmoralesv/moldops-backend/internal/molds"
	"github.com/rmoralesv/moldops-backend/internal/notifications"
	"github.com/rmoralesv/moldops-backend/internal/products"
	"github.com/rmoralesv/moldops-backend/internal/shipments"
	"github.com/rmoralesv/moldops-backend/internal/users"
	"github.com/rmoralesv/moldops-backend/internal/workorders"
	"github.com/rmoralesv/moldops-backend/pkg/auth/session"
	"github.com/rmoralesv/moldops-backend/pkg/config"
	"github.com/rmoralesv/moldops-backend/pkg/db"
	"github.com/rmoralesv/moldops-backend/pkg/logger"
	"github.com/rmoralesv/moldops-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles the domain services the router exposes.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Materials     materials.Service
	Shipments     shipments.Service
	Molds         molds.Service
	WorkOrders    workorders.Service
	Products      products.Service
	Consumption   consumption.Service
	Notifications notifications.Service

	// Documents is optional; the upload-url endpoint returns an internal
	// error when no object storage is configured.
	Documents controllers.DocumentSigner
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions sessionManager,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	readiness := map[string]controllers.DependencyPinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/materials", func(r chi.Router) {
			r.Get("/", controllers.MaterialList(svcs.Materials, logg))
			r.Post("/", controllers.MaterialCreate(svcs.Materials, logg))
			r.Route("/{materialID}", func(r chi.Router) {
				r.Get("/", controllers.MaterialGet(svcs.Materials, logg))
				r.Put("/", controllers.MaterialUpdate(svcs.Materials, logg))
				r.Get("/stock", controllers.MaterialStockAtDate(svcs.Materials, logg))
				r.Get("/usage", controllers.UsageList(svcs.Materials, logg))
				r.Post("/usage", controllers.UsageCreate(svcs.Materials, logg))
				r.Get("/incoming", controllers.IncomingList(svcs.Materials, logg))
				r.Post("/incoming", controllers.IncomingCreate(svcs.Materials, logg))
			})
		})

		r.Route("/v1/transactions", func(r chi.Router) {
			r.Get("/", controllers.TransactionList(svcs.Shipments, logg))
			r.Post("/", controllers.TransactionCreate(svcs.Shipments, logg))
		})
		r.Get("/v1/inventory/snapshot", controllers.InventorySnapshot(svcs.Shipments, logg))

		r.Route("/v1/molds", func(r chi.Router) {
			r.Get("/", controllers.MoldList(svcs.Molds, logg))
			r.Post("/", controllers.MoldCreate(svcs.Molds, logg))
			r.Route("/{moldID}", func(r chi.Router) {
				r.Get("/", controllers.MoldGet(svcs.Molds, logg))
				r.Post("/checkout", controllers.MoldCheckout(svcs.Molds, logg))
				r.Get("/movements", controllers.MovementList(svcs.Molds, logg))
			})
		})
		r.Route("/v1/mold-movements/{movementID}", func(r chi.Router) {
			r.Post("/return", controllers.MoldReturn(svcs.Molds, logg))
			r.Put("/document", controllers.MovementAttachDocument(svcs.Molds, logg))
			r.Post("/document/upload-url", controllers.MovementDocumentUploadURL(svcs.Documents, cfg.GCS.UploadURLExpiry, logg))
		})

		r.Route("/v1/work-orders", func(r chi.Router) {
			r.Get("/", controllers.WorkOrderList(svcs.WorkOrders, logg))
			r.Post("/", controllers.WorkOrderCreate(svcs.WorkOrders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.WorkOrderGet(svcs.WorkOrders, logg))
				r.Post("/start", controllers.WorkOrderStart(svcs.WorkOrders, logg))
				r.Post("/production", controllers.WorkOrderRecordProduction(svcs.WorkOrders, logg))
				r.Get("/production", controllers.WorkOrderProductionHistory(svcs.WorkOrders, logg))
				r.Post("/complete", controllers.WorkOrderComplete(svcs.WorkOrders, logg))
				r.Post("/cancel", controllers.WorkOrderCancel(svcs.WorkOrders, logg))
			})
		})

		r.Route("/v1/equipment", func(r chi.Router) {
			r.Get("/", controllers.EquipmentList(svcs.WorkOrders, logg))
			r.Post("/", controllers.EquipmentCreate(svcs.WorkOrders, logg))
		})

		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, logg))
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", controllers.ProductGet(svcs.Products, logg))
				r.Put("/", controllers.ProductUpdate(svcs.Products, logg))
			})
		})

		r.Get("/v1/consumption", controllers.ConsumptionForDate(svcs.Consumption, logg))

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.NotificationMarkRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(svcs.Notifications, logg))
		})

		r.Post("/v1/me/password", controllers.UserChangePassword(svcs.Users, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/usage-records/{usageID}", func(r chi.Router) {
			r.Put("/", controllers.UsageEdit(svcs.Materials, logg))
			r.Delete("/", controllers.UsageDelete(svcs.Materials, logg))
		})

		r.Put("/v1/work-orders/{orderID}/produced", controllers.WorkOrderSetProduced(svcs.WorkOrders, logg))

		r.Post("/v1/notifications/announce", controllers.NotificationAnnounce(svcs.Notifications, logg))

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/", controllers.UserList(svcs.Users, logg))
			r.Post("/", controllers.UserCreate(svcs.Users, logg))
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", controllers.UserGet(svcs.Users, logg))
				r.Put("/active", controllers.UserSetActive(svcs.Users, logg))
				r.Put("/password", controllers.UserResetPassword(svcs.Users, logg))
			})
		})
	})

	return r
}
