package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/paseospeludos/backend/docs"
	"github.com/paseospeludos/backend/internal/audit"
	"github.com/paseospeludos/backend/internal/config"
	"github.com/paseospeludos/backend/internal/database"
	"github.com/paseospeludos/backend/internal/events"
	"github.com/paseospeludos/backend/internal/handlers"
	mW "github.com/paseospeludos/backend/internal/middleware"
	"github.com/paseospeludos/backend/internal/repository"
	"github.com/paseospeludos/backend/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Paseos Peludos Booking API
// @version 1.0
// @description Walk booking, cash allowance and payment settlement
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("rabbitmq.url", "RABBITMQ_URL")
	viper.BindEnv("rabbitmq.exchange", "RABBITMQ_EXCHANGE")
	viper.BindEnv("store.driver", "STORE_DRIVER")
	viper.BindEnv("server.port", "PORT")

	viper.BindEnv("pricing.base_price", "PRICING_BASE_PRICE")
	viper.BindEnv("pricing.operational_percent", "PRICING_OPERATIONAL_PERCENT")
	viper.BindEnv("pricing.fixed_app_fee", "PRICING_FIXED_APP_FEE")
	viper.BindEnv("pricing.promo_app_share", "PRICING_PROMO_APP_SHARE")
	viper.BindEnv("pricing.promo_walker_share", "PRICING_PROMO_WALKER_SHARE")
	viper.BindEnv("pricing.currency", "PRICING_CURRENCY")
	viper.BindEnv("cash.max_hours_per_week", "MAX_CASH_HOURS_PER_WEEK")
	viper.BindEnv("app.timezone", "APP_TIMEZONE")
	viper.BindEnv("bank.beneficiary", "BANK_BENEFICIARY")
	viper.BindEnv("bank.clabe", "BANK_CLABE")
	viper.BindEnv("bank.name", "BANK_NAME")
	viper.BindEnv("bank.instructions", "BANK_INSTRUCTIONS")

	viper.SetDefault("store.driver", "postgres")
	viper.SetDefault("rabbitmq.exchange", "paseos.events")
	viper.SetDefault("server.port", "8080")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	settlement, err := config.LoadSettlementConfig()
	if err != nil {
		log.Fatalf("Invalid settlement configuration: %v", err)
	}

	docs.SwaggerInfo.Host = "localhost:" + viper.GetString("server.port")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var store repository.Store
	switch driver := viper.GetString("store.driver"); driver {
	case "memory":
		log.Println("[STORE] using in-memory store, data is lost on restart")
		store = repository.NewMemoryStore()
	case "postgres":
		db, err := database.InitDB(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("Failed to prepare database: %v", err)
		}
		store = repository.NewPostgresStore(db)
	default:
		log.Fatalf("Unknown store driver %q", driver)
	}

	redisClient := database.InitRedis(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if url := viper.GetString("rabbitmq.url"); url != "" {
		amqpPublisher, err := events.NewAMQPPublisher(url, viper.GetString("rabbitmq.exchange"))
		if err != nil {
			log.Printf("[EVENTS] RabbitMQ unavailable, events are dropped: %v", err)
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
		}
	}

	auditLogger := audit.NewLogger()
	pricing := services.NewPricingEngine(settlement.Pricing)
	ledger := services.NewCashLedger(store, settlement.Cash.MaxHoursPerWeek, settlement.Cash.Location)
	bank := services.NewBankTransferService(settlement.Bank)
	paymentService := services.NewPaymentService(store, pricing, bank, publisher, auditLogger)
	walkService := services.NewWalkRequestService(store, pricing, ledger, bank, publisher, auditLogger)
	clarificationService := services.NewClarificationService(store, paymentService)

	walkHandler := handlers.NewWalkRequestHandler(walkService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	billingHandler := handlers.NewBillingHandler(ledger)
	clarificationHandler := handlers.NewClarificationHandler(clarificationService)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.AuthMiddleware)

		r.With(mW.RequireRole(mW.RoleClient, mW.RoleAdmin), mW.Idempotency(redisClient)).
			Post("/walk-requests", walkHandler.CreateWalkRequest)
		r.Get("/walk-requests/{id}", walkHandler.GetWalkRequest)

		r.With(mW.RequireRole(mW.RoleClient, mW.RoleAdmin)).
			Post("/payments/intent", paymentHandler.CreatePaymentIntent)
		r.Get("/payments/{id}", paymentHandler.GetPayment)
		r.With(mW.RequireRole(mW.RoleClient, mW.RoleAdmin)).
			Post("/payments/{id}/proof", paymentHandler.UploadProof)

		r.Get("/billing/cash-quota", billingHandler.CashQuota)
		r.Post("/clarifications", clarificationHandler.CreateClarification)

		// Back office
		r.Group(func(r chi.Router) {
			r.Use(mW.RequireRole(mW.RoleAdmin))

			r.Get("/payments/under-review", paymentHandler.ListUnderReview)
			r.Post("/payments/{id}/mark-paid", paymentHandler.MarkPaid)
			r.Post("/payments/{id}/mark-failed", paymentHandler.MarkFailed)

			r.Get("/clarifications/open", clarificationHandler.ListOpen)
			r.Post("/clarifications/{id}/resolve", clarificationHandler.Resolve)
		})
	})

	server := &http.Server{
		Addr:         ":" + viper.GetString("server.port"),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
