package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/bookline/bookline-api/internal/http/handlers"
	"github.com/bookline/bookline-api/internal/platform/cache"
	"github.com/bookline/bookline-api/internal/platform/mailer"
	"github.com/bookline/bookline-api/internal/platform/payments"
	"github.com/bookline/bookline-api/internal/repo/postgres"
	"github.com/bookline/bookline-api/internal/service"
	"github.com/bookline/bookline-api/pkg/config"
	"github.com/bookline/bookline-api/pkg/database"
	"github.com/bookline/bookline-api/pkg/events"
	"github.com/bookline/bookline-api/pkg/logger"
	mw "github.com/bookline/bookline-api/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store, err := cache.New(cfg.Redis)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	mail := mailer.New(cfg.Email)
	gateway := payments.New(cfg.Stripe)

	userRepo := postgres.NewUserRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)
	businessRepo := postgres.NewBusinessRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	availabilityRepo := postgres.NewAvailabilityRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	promotionRepo := postgres.NewPromotionRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)

	authService := service.NewAuthService(userRepo, roleRepo, businessRepo, cfg)
	userService := service.NewUserService(userRepo)
	businessService := service.NewBusinessService(businessRepo)
	catalogService := service.NewCatalogService(catalogRepo, categoryRepo)
	availabilityService := service.NewAvailabilityService(availabilityRepo, catalogRepo)
	bookingService := service.NewBookingService(bookingRepo, businessRepo, catalogRepo, availabilityRepo, eventBus, mail)
	paymentService := service.NewPaymentService(paymentRepo, bookingRepo, userRepo, gateway, eventBus, mail)
	promotionService := service.NewPromotionService(promotionRepo, bookingRepo, eventBus)
	reviewService := service.NewReviewService(reviewRepo, bookingRepo, businessRepo, eventBus)

	h := handlers.New(
		authService,
		userService,
		businessService,
		catalogService,
		availabilityService,
		bookingService,
		paymentService,
		promotionService,
		reviewService,
	)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("bookline-api"))
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.Health)
	r.Use(mw.Metrics)

	h.Routes(r, store)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		logger.Info("starting bookline API server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server terminated", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
