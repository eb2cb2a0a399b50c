package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	webAdapter "github.com/NousVietNam/WMSNOUS-sub003/internal/adapters/web"
	"github.com/NousVietNam/WMSNOUS-sub003/internal/app"
	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
	"github.com/NousVietNam/WMSNOUS-sub003/internal/db"
	"github.com/NousVietNam/WMSNOUS-sub003/internal/monitoring"
	"github.com/NousVietNam/WMSNOUS-sub003/internal/notify"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	var notifier core.Notifier = notify.NopNotifier{}
	if url := os.Getenv("WEBHOOK_URL"); url != "" {
		notifier = notify.NewWebhookNotifier(url, logger)
	}

	metrics := monitoring.New()

	orderService := core.NewOrderService(pool, logger)
	demandService := core.NewDemandService(pool)
	allocationService := core.NewAllocationService(pool, demandService)
	pickingService := core.NewPickingService(pool, notifier, logger)
	shipmentService := core.NewShipmentService(pool, logger)
	exceptionService := core.NewExceptionService(pool, notifier, logger)
	inventoryService := core.NewInventoryService(pool, logger)

	svc := app.NewAppService(pool, orderService, demandService, allocationService,
		pickingService, shipmentService, exceptionService, inventoryService, metrics, logger)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, metrics.Handler(), allowedOrigins, logger)

	logger.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
