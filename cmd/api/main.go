package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/rmoralesv/moldops-backend/api/routes"
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
	"github.com/rmoralesv/moldops-backend/pkg/migrate"
	"github.com/rmoralesv/moldops-backend/pkg/outbox"
	"github.com/rmoralesv/moldops-backend/pkg/redis"
	"github.com/rmoralesv/moldops-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gdb), logg)

	usersRepo := users.NewRepository(gdb)
	materialsRepo := materials.NewRepository(gdb)
	moldsRepo := molds.NewRepository(gdb)
	workOrdersRepo := workorders.NewRepository(gdb)
	productsRepo := products.NewRepository(gdb)
	shipmentsRepo := shipments.NewRepository(gdb)
	notificationsRepo := notifications.NewRepository(gdb)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	materialsService, err := materials.NewService(materialsRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create materials service", err)
		os.Exit(1)
	}

	moldsService, err := molds.NewService(moldsRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create molds service", err)
		os.Exit(1)
	}

	workOrdersService, err := workorders.NewService(workOrdersRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create work orders service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	shipmentsService, err := shipments.NewService(shipmentsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	consumptionService, err := consumption.NewService(workOrdersRepo, productsRepo, materialsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create consumption service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
			Auth:          authService,
			Users:         usersService,
			Materials:     materialsService,
			Shipments:     shipmentsService,
			Molds:         moldsService,
			WorkOrders:    workOrdersService,
			Products:      productsService,
			Consumption:   consumptionService,
			Notifications: notificationsService,
			Documents:     gcsClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
