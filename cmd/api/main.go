package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zapkart/zapkart-backend/api/controllers"
	"github.com/zapkart/zapkart-backend/api/routes"
	addresssvc "github.com/zapkart/zapkart-backend/internal/address"
	adminsvc "github.com/zapkart/zapkart-backend/internal/admin"
	authsvc "github.com/zapkart/zapkart-backend/internal/auth"
	cartsvc "github.com/zapkart/zapkart-backend/internal/cart"
	checkoutsvc "github.com/zapkart/zapkart-backend/internal/checkout"
	couponsvc "github.com/zapkart/zapkart-backend/internal/coupons"
	deliverysvc "github.com/zapkart/zapkart-backend/internal/delivery"
	notificationsvc "github.com/zapkart/zapkart-backend/internal/notifications"
	ordersvc "github.com/zapkart/zapkart-backend/internal/orders"
	partnersvc "github.com/zapkart/zapkart-backend/internal/partners"
	productsvc "github.com/zapkart/zapkart-backend/internal/products"
	userrepo "github.com/zapkart/zapkart-backend/internal/users"
	vendorsvc "github.com/zapkart/zapkart-backend/internal/vendors"
	pkgauth "github.com/zapkart/zapkart-backend/pkg/auth"
	"github.com/zapkart/zapkart-backend/pkg/auth/session"
	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/gateway"
	"github.com/zapkart/zapkart-backend/pkg/geocode"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/mailer"
	"github.com/zapkart/zapkart-backend/pkg/metrics"
	pkgredis "github.com/zapkart/zapkart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: cfg.ServiceName,
		Level:       logger.ParseLevel(cfg.LogLevel),
		WarnStack:   cfg.LogWarnWithStack,
	})

	dbClient, err := db.New(cfg.Database)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	redisClient, err := pkgredis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	reg := metrics.New()

	sessions := session.NewStore(redisClient, cfg.Auth.SessionTTL)
	tokens := pkgauth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	var mail mailer.Mailer = mailer.Noop{}
	if cfg.SMTP.Username != "" {
		mail = mailer.New(cfg.SMTP)
	}

	usersRepo := userrepo.NewRepo(dbClient)
	addressRepo := addresssvc.NewRepo(dbClient)
	productsRepo := productsvc.NewRepo(dbClient)
	cartRepo := cartsvc.NewRepo(dbClient)
	couponsRepo := couponsvc.NewRepo(dbClient)
	ordersRepo := ordersvc.NewRepo(dbClient)
	deliveryRepo := deliverysvc.NewRepo(dbClient)
	notificationsRepo := notificationsvc.NewRepo(dbClient)

	resolver := geocode.NewResolver(cfg.Geocode, redisClient)
	gatewayClient := gateway.New(cfg.Gateway)
	locationThrottle := pkgredis.NewThrottle(redisClient, cfg.Tracking.MinPublishInterval)

	authService := authsvc.NewService(usersRepo, sessions, tokens, logg)
	addressService := addresssvc.NewService(addressRepo, dbClient, resolver, logg)
	productService := productsvc.NewService(productsRepo)
	cartService := cartsvc.NewService(cartRepo, productsRepo)
	couponService := couponsvc.NewService(couponsRepo)
	orderService := ordersvc.NewService(ordersRepo, couponService, dbClient, logg)
	deliveryService := deliverysvc.NewService(deliveryRepo, ordersRepo, dbClient, locationThrottle, cfg.Tracking, reg, logg)
	notificationService := notificationsvc.NewService(notificationsRepo, cfg.Delivery.NotificationCap, logg)
	vendorService := vendorsvc.NewService(usersRepo, dbClient, mail, cfg.Auth.InvitationTTL, logg)
	partnerService := partnersvc.NewService(dbClient)
	adminService := adminsvc.NewService(dbClient)
	checkoutService := checkoutsvc.NewService(
		cartRepo, productsRepo, couponService, ordersRepo, deliveryRepo, addressRepo,
		dbClient, gatewayClient, reg, logg,
	)

	router := routes.NewRouter(routes.Deps{
		Config:  cfg,
		Logger:  logg,
		Metrics: reg,
		Pingers: map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
		},
		Idempotency: pkgredis.NewIdempotencyStore(redisClient, config.IdempotencyTTL),
		AuthLimiter: pkgredis.NewRateLimiter(redisClient, cfg.Auth.MaxLoginPerMin, time.Minute),
		APILimiter:  pkgredis.NewRateLimiter(redisClient, 300, time.Minute),

		Auth:          authService,
		Address:       addressService,
		Products:      productService,
		Cart:          cartService,
		Coupons:       couponService,
		Checkout:      checkoutService,
		Orders:        orderService,
		Delivery:      deliveryService,
		Notifications: notificationService,
		Vendors:       vendorService,
		Partners:      partnerService,
		Admin:         adminService,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown", err)
		}
	}()

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.Environment,
		"addr": server.Addr,
	})
	logg.Info(startCtx, "starting api server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(startCtx, "api server shut down")
}
