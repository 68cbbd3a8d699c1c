package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventhive/config"
	"eventhive/handlers"
	"eventhive/internal/services/bookingapi"
	"eventhive/internal/services/payment"
	"eventhive/internal/services/payment/razorpay"
	"eventhive/security"
	"eventhive/services"
	"eventhive/utils"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub for user notifications
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Booking backend client
	api := bookingapi.NewClient(&bookingapi.Config{
		BaseURL: cfg.BookingBaseURL,
		Timeout: cfg.BookingTimeout,
	})

	// Capture providers. The simulated provider declines when a
	// request carries no explicit decision.
	providers := payment.NewRegistry()
	providers.Register(payment.NewSimulated(nil))

	if cfg.RazorpayKeyID != "" {
		gateway, err := razorpay.New(ctx, &razorpay.Config{
			BaseURL:   cfg.RazorpayBaseURL,
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			Theme:     cfg.RazorpayTheme,

			PNSubKey:    cfg.CaptureSubKey,
			PNSubSecret: cfg.CaptureSecretKey,
			PNUUID:      cfg.CaptureUUID,
			PNCipherKey: cfg.CaptureCipherKey,
		})
		if err != nil {
			return err
		}
		providers.Register(gateway)
		defer gateway.Close(ctx)
	} else {
		log.Println("razorpay keys not configured, real captures disabled")
	}

	// Services
	sessions := services.NewSessionService(redisClient, cfg.SessionTTL)
	notifier := services.NewNotifyService(pn)
	refresher := services.NewRefreshService(api, pn)

	checkout := services.NewCheckoutService(services.CheckoutConfig{
		TicketType:     cfg.TicketType,
		Quantity:       cfg.Quantity,
		Amount:         cfg.Amount,
		DisplayName:    cfg.DisplayName,
		Theme:          cfg.RazorpayTheme,
		LoginPath:      cfg.LoginPath,
		TicketsPath:    cfg.TicketsPath,
		CaptureTimeout: cfg.CaptureTimeout,
	}, api, providers, notifier, refresher)

	// HTTP surface
	e := echo.New()

	limiter := security.NewRateLimiter(redisClient)
	handler := handlers.NewCheckoutHandler(sessions, checkout, redisClient)

	e.GET("/health", handler.Health)
	e.POST("/api/checkout/:eventId", handler.Checkout, limiter.CheckoutRateLimit(handlers.SessionHeader))

	// Metrics endpoint
	if cfg.EnableMetrics {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("metrics listening on :%s", cfg.MetricsPort)
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	go func() {
		log.Printf("checkout gateway listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
