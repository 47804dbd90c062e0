package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aisleron/aisleron-server/internal/data/repos"
	"github.com/aisleron/aisleron-server/internal/db"
	"github.com/aisleron/aisleron-server/internal/http/handlers"
	"github.com/aisleron/aisleron-server/internal/platform/envutil"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/realtime/bus"
	"github.com/aisleron/aisleron-server/internal/server"
	"github.com/aisleron/aisleron-server/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Database
	dbService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	conn := dbService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	locationRepo := repos.NewLocationRepo(conn, log)
	aisleRepo := repos.NewAisleRepo(conn, log)
	productRepo := repos.NewProductRepo(conn, log)
	mappingRepo := repos.NewAisleProductRepo(conn, log)
	noteRepo := repos.NewNoteRepo(conn, log)
	txRunner := repos.NewGormTxRunner(conn)

	// Change bus
	log.Info("Setting up change bus from main...")
	var changes bus.Bus
	if os.Getenv("REDIS_ADDR") != "" {
		changes, err = bus.NewRedisBus(log)
		if err != nil {
			log.Error("Redis bus init failed", "error", err)
			os.Exit(1)
		}
	} else {
		changes = bus.NewMemoryBus(log)
	}
	defer changes.Close()

	// Services
	log.Info("Setting up services from main...")
	noteService := services.NewNoteService(log, txRunner, noteRepo, productRepo, locationRepo)
	aisleService := services.NewAisleService(log, txRunner, locationRepo, aisleRepo, mappingRepo, changes)
	productService := services.NewProductService(log, txRunner, locationRepo, aisleRepo, productRepo, mappingRepo, noteRepo, noteService, changes)
	locationService := services.NewLocationService(log, txRunner, locationRepo, aisleRepo, productRepo, mappingRepo, noteRepo, aisleService, noteService, changes)
	shoppingListService := services.NewShoppingListService(log, locationRepo, changes)

	// Seed
	if err := db.Seed(log, locationService, productService); err != nil {
		log.Error("Seed failed", "error", err)
		os.Exit(1)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	locationHandler := handlers.NewLocationHandler(log, locationService, aisleService, noteService)
	aisleHandler := handlers.NewAisleHandler(log, aisleService)
	productHandler := handlers.NewProductHandler(log, productService, noteService)
	shoppingListHandler := handlers.NewShoppingListHandler(log, shoppingListService)

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	if raw := envutil.String("CORS_ALLOW_ORIGINS", ""); raw != "" {
		origins = strings.Split(raw, ",")
	}
	router := server.NewRouter(server.RouterConfig{
		LocationHandler:     locationHandler,
		AisleHandler:        aisleHandler,
		ProductHandler:      productHandler,
		ShoppingListHandler: shoppingListHandler,
		AllowOrigins:        origins,
	})

	port := envutil.String("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
