package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"gd-invoice/internal/audit"
	"gd-invoice/internal/auth"
	billingapp "gd-invoice/internal/billing/application"
	billing "gd-invoice/internal/billing/domain"
	billingmemory "gd-invoice/internal/billing/infrastructure/memory"
	billingrepo "gd-invoice/internal/billing/infrastructure/postgres"
	billinginterfaces "gd-invoice/internal/billing/interfaces"
	captureapp "gd-invoice/internal/capture/application"
	captureinterfaces "gd-invoice/internal/capture/interfaces"
	"gd-invoice/internal/eventing"
	eventingmemory "gd-invoice/internal/eventing/infrastructure/memory"
	eventingrepo "gd-invoice/internal/eventing/infrastructure/postgres"
	"gd-invoice/internal/observability/metrics"
	regulatory "gd-invoice/internal/regulatory/domain"
	regulatoryconfig "gd-invoice/internal/regulatory/infrastructure/config"
	tariffapp "gd-invoice/internal/tariff/application"
	tariff "gd-invoice/internal/tariff/domain"
	tariffmemory "gd-invoice/internal/tariff/infrastructure/memory"
	tariffrepo "gd-invoice/internal/tariff/infrastructure/postgres"
	tariffinterfaces "gd-invoice/internal/tariff/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var (
		db         *sql.DB
		rateSource interface {
			tariff.RateCardSource
			tariffinterfaces.RateCardWriter
		}
		recordRepo  billing.Repository
		auditLogger audit.Logger
		outbox      interface {
			eventing.OutboxWriter
			eventing.OutboxStore
		}
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		rateSource = tariffrepo.NewRateCardSource(db)
		recordRepo = billingrepo.NewCycleRecordRepository(db)
		auditLogger = audit.NewRepository(db)
		outbox = eventingrepo.NewOutboxStore(db)
	} else {
		source, err := loadRateCards(cfg.RateCardsFile)
		if err != nil {
			logger.Fatalf("rate cards error: %v", err)
		}
		logger.Printf("event=storage_memory rate_cards=%d", source.Len())
		rateSource = source
		recordRepo = billingmemory.NewCycleRecordRepository()
		auditLogger = audit.NewMemoryLog()
		outbox = eventingmemory.NewOutboxStore()
	}

	metrics.Init(db, logger)

	rules, err := regulatoryconfig.Load()
	if err != nil {
		logger.Fatalf("regulatory config error: %v", err)
	}
	classifier := regulatory.NewClassifier(rules)

	dispatcher := eventing.NewDispatcher(outbox, logger)
	dispatcher.Subscribe(eventing.TypeName(billingapp.CycleClosed{}), billinginterfaces.CycleClosedLogHandler(logger))
	go dispatcher.Run(context.Background(), cfg.OutboxPollInterval)

	resolver, err := tariffapp.NewResolver(rateSource, logger)
	if err != nil {
		logger.Fatalf("rate resolver error: %v", err)
	}
	invoiceService, err := billingapp.NewInvoiceService(
		resolver,
		classifier,
		recordRepo,
		billinginterfaces.NewOutboxPublisher(eventing.NewPublisher(outbox, dispatcher)),
		billingapp.SystemClock{},
		logger,
	)
	if err != nil {
		logger.Fatalf("invoice service error: %v", err)
	}
	captureService, err := captureapp.NewCaptureService(invoiceService, captureapp.NewSessionStore(), billingapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("capture service error: %v", err)
	}

	invoiceHandler, err := billinginterfaces.NewInvoiceHandler(invoiceService, auditLogger, logger)
	if err != nil {
		logger.Fatalf("invoice handler error: %v", err)
	}
	draftHandler, err := captureinterfaces.NewDraftHandler(captureService, auditLogger, logger)
	if err != nil {
		logger.Fatalf("draft handler error: %v", err)
	}
	rateCardHandler, err := tariffinterfaces.NewRateCardHandler(resolver, rateSource, auditLogger)
	if err != nil {
		logger.Fatalf("rate card handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/invoices", invoiceHandler)
	mux.Handle("/api/v1/invoices/", invoiceHandler)
	mux.Handle("/api/v1/drafts", draftHandler)
	mux.Handle("/api/v1/drafts/", draftHandler)
	mux.Handle("/api/v1/rate-cards", rateCardHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL              string
	HTTPAddr                 string
	RateCardsFile            string
	JWTSecret                string
	ReadHeaderTimeoutSeconds int
	OutboxPollInterval       time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:              getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:                 getenvDefault("HTTP_ADDR", ":8080"),
		RateCardsFile:            getenvDefault("RATE_CARDS_FILE", ""),
		JWTSecret:                getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		ReadHeaderTimeoutSeconds: getenvIntDefault("HTTP_READ_HEADER_TIMEOUT_SECONDS", 10),
		OutboxPollInterval:       getenvDuration("OUTBOX_POLL_INTERVAL", 5*time.Second),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func loadRateCards(path string) (*tariffmemory.RateCardSource, error) {
	if path == "" {
		return tariffmemory.NewRateCardSource()
	}
	return tariffmemory.LoadYAML(path)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
