package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/reboucasericka/sistema-api/internal/cache"
	"github.com/reboucasericka/sistema-api/internal/calendar"
	"github.com/reboucasericka/sistema-api/internal/handlers"
	"github.com/reboucasericka/sistema-api/internal/outbox"
	"github.com/reboucasericka/sistema-api/internal/payments"
	"github.com/reboucasericka/sistema-api/internal/pos"
	"github.com/reboucasericka/sistema-api/internal/scheduling"
	"github.com/reboucasericka/sistema-api/internal/storage"
	"github.com/reboucasericka/sistema-api/libs/config"
	"github.com/reboucasericka/sistema-api/libs/db"
	"github.com/reboucasericka/sistema-api/libs/httpx"
	"github.com/reboucasericka/sistema-api/libs/kafkax"
	otelx "github.com/reboucasericka/sistema-api/libs/otel"
	"github.com/reboucasericka/sistema-api/libs/runtime"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "sistema-api")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns: int32(config.Int("DB_MIN_CONNS", 2)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer func() { _ = rdb.Close() }()
	}

	loc := time.UTC
	if tz := config.String("CLINIC_TIMEZONE", ""); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			logger.Error("invalid CLINIC_TIMEZONE, using UTC", "tz", tz, "err", err)
		} else {
			loc = l
		}
	}

	outboxRepo := outbox.NewRepository(pool)
	apptRepo := storage.NewAppointmentRepository(pool, outboxRepo)
	customerRepo := storage.NewCustomerRepository(pool)
	proRepo := storage.NewProfessionalRepository(pool)
	serviceRepo := storage.NewServiceRepository(pool)
	productRepo := storage.NewProductRepository(pool, outboxRepo)
	saleRepo := storage.NewSaleRepository(pool, outboxRepo)
	financeRepo := storage.NewFinanceRepository(pool)
	registerRepo := storage.NewCashRegisterRepository(pool)

	scheduleCache := cache.NewScheduleCache(rdb, logger, config.DurationSeconds("SCHEDULE_CACHE_TTL_SECONDS", 10*time.Minute))

	var cal calendar.Client
	if base := config.String("CALENDAR_WEBHOOK_URL", ""); base != "" {
		cal = calendar.NewWebhookClient(base, config.String("CALENDAR_WEBHOOK_TOKEN", ""))
	} else {
		logger.Info("calendar sync disabled (CALENDAR_WEBHOOK_URL not set)")
	}
	scheduler := scheduling.NewService(apptRepo, cal, logger, config.DurationSeconds("CALENDAR_SYNC_TIMEOUT_SECONDS", 5*time.Second))

	var processor payments.Processor
	if key := config.String("STRIPE_SECRET_KEY", ""); key != "" {
		processor = payments.NewStripeProcessor(key, config.String("CURRENCY", "brl"))
	} else {
		logger.Info("card charges run locally (STRIPE_SECRET_KEY not set)")
		processor = payments.NoopProcessor{}
	}
	checkout := pos.NewService(saleRepo, serviceRepo, productRepo, registerRepo, processor, logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	apptHandler := handlers.NewAppointmentHandler(scheduler, apptRepo, proRepo, serviceRepo, scheduleCache, logger, loc)
	customerHandler := handlers.NewCustomerHandler(customerRepo, logger)
	proHandler := handlers.NewProfessionalHandler(proRepo, scheduleCache, logger)
	serviceHandler := handlers.NewServiceHandler(serviceRepo, logger)
	productHandler := handlers.NewProductHandler(productRepo, logger)
	posHandler := handlers.NewPOSHandler(checkout, saleRepo, logger)
	financeHandler := handlers.NewFinanceHandler(financeRepo, logger)
	registerHandler := handlers.NewCashRegisterHandler(registerRepo, logger)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	if rdb != nil {
		client := rdb
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
	mux := runtime.NewBaseMux(checks...)

	mux.HandleFunc("/api/v1/appointments", apptHandler.List)
	mux.HandleFunc("/api/v1/appointments/get", apptHandler.Get)
	mux.HandleFunc("/api/v1/appointments/book", apptHandler.Book)
	mux.HandleFunc("/api/v1/appointments/update", apptHandler.Update)
	mux.HandleFunc("/api/v1/appointments/cancel", apptHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/availability", apptHandler.Availability)
	mux.HandleFunc("/api/v1/appointments/slots", apptHandler.Slots)

	mux.HandleFunc("/api/v1/customers", customerHandler.List)
	mux.HandleFunc("/api/v1/customers/get", customerHandler.Get)
	mux.HandleFunc("/api/v1/customers/create", customerHandler.Create)
	mux.HandleFunc("/api/v1/customers/update", customerHandler.Update)
	mux.HandleFunc("/api/v1/customers/deactivate", customerHandler.Deactivate)

	mux.HandleFunc("/api/v1/professionals", proHandler.List)
	mux.HandleFunc("/api/v1/professionals/get", proHandler.Get)
	mux.HandleFunc("/api/v1/professionals/create", proHandler.Create)
	mux.HandleFunc("/api/v1/professionals/update", proHandler.Update)
	mux.HandleFunc("/api/v1/professionals/deactivate", proHandler.Deactivate)
	mux.HandleFunc("/api/v1/professionals/schedule", proHandler.GetSchedule)
	mux.HandleFunc("/api/v1/professionals/schedule/put", proHandler.PutSchedule)
	mux.HandleFunc("/api/v1/professionals/offerings", proHandler.ListOfferings)
	mux.HandleFunc("/api/v1/professionals/offerings/put", proHandler.PutOffering)
	mux.HandleFunc("/api/v1/professionals/offerings/delete", proHandler.DeleteOffering)

	mux.HandleFunc("/api/v1/services", serviceHandler.List)
	mux.HandleFunc("/api/v1/services/get", serviceHandler.Get)
	mux.HandleFunc("/api/v1/services/create", serviceHandler.Create)
	mux.HandleFunc("/api/v1/services/update", serviceHandler.Update)
	mux.HandleFunc("/api/v1/services/deactivate", serviceHandler.Deactivate)

	mux.HandleFunc("/api/v1/products", productHandler.List)
	mux.HandleFunc("/api/v1/products/get", productHandler.Get)
	mux.HandleFunc("/api/v1/products/create", productHandler.Create)
	mux.HandleFunc("/api/v1/products/update", productHandler.Update)
	mux.HandleFunc("/api/v1/products/stock", productHandler.Stock)
	mux.HandleFunc("/api/v1/products/movements", productHandler.Movements)

	mux.HandleFunc("/api/v1/pos/checkout", posHandler.Checkout)
	mux.HandleFunc("/api/v1/pos/sales", posHandler.ListSales)
	mux.HandleFunc("/api/v1/pos/sales/get", posHandler.GetSale)

	mux.HandleFunc("/api/v1/finance/payables", financeHandler.ListPayables)
	mux.HandleFunc("/api/v1/finance/payables/create", financeHandler.CreatePayable)
	mux.HandleFunc("/api/v1/finance/payables/settle", financeHandler.SettlePayable)
	mux.HandleFunc("/api/v1/finance/receivables", financeHandler.ListReceivables)
	mux.HandleFunc("/api/v1/finance/receivables/create", financeHandler.CreateReceivable)
	mux.HandleFunc("/api/v1/finance/receivables/settle", financeHandler.SettleReceivable)

	mux.HandleFunc("/api/v1/cash/open", registerHandler.Open)
	mux.HandleFunc("/api/v1/cash/close", registerHandler.Close)
	mux.HandleFunc("/api/v1/cash/current", registerHandler.Current)
	mux.HandleFunc("/api/v1/cash/entries", registerHandler.ListEntries)
	mux.HandleFunc("/api/v1/cash/entries/add", registerHandler.AddEntry)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 1<<20))),
	}
	if origins := config.String("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		middlewares = append(middlewares, httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(origins, ","),
		}))
	}
	if limit := config.Int("RATE_LIMIT_PER_MINUTE", 0); limit > 0 {
		if rdb != nil {
			rl := httpx.NewRedisRateLimiter(rdb, limit, time.Minute, service)
			middlewares = append(middlewares, rl.Middleware(logger, true))
		} else {
			middlewares = append(middlewares, httpx.NewRateLimiter(limit, time.Minute).Middleware())
		}
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
