package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"restobill/internal/audit"
	"restobill/internal/auth"
	"restobill/internal/ledger/application"
	"restobill/internal/ledger/infrastructure/postgres"
	"restobill/internal/ledger/interfaces"
	"restobill/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	ledgerCfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatalf("ledger config error: %v", err)
	}
	loc, err := ledgerCfg.Location()
	if err != nil {
		logger.Fatalf("timezone error: %v", err)
	}
	schedule, err := ledgerCfg.BuildSchedule()
	if err != nil {
		logger.Fatalf("schedule error: %v", err)
	}
	anchor, err := ledgerCfg.BuildAnchor()
	if err != nil {
		logger.Fatalf("anchor error: %v", err)
	}
	rankKey, err := ledgerCfg.BuildRankKey()
	if err != nil {
		logger.Fatalf("rank key error: %v", err)
	}

	revenueFeed, err := postgres.NewRevenueFeed(db)
	if err != nil {
		logger.Fatalf("revenue feed error: %v", err)
	}
	expenseFeed, err := postgres.NewExpenseFeed(db)
	if err != nil {
		logger.Fatalf("expense feed error: %v", err)
	}
	reportService, err := application.NewService(revenueFeed, expenseFeed, schedule, loc, anchor,
		application.WithTopN(ledgerCfg.TopN), application.WithRankKey(rankKey))
	if err != nil {
		logger.Fatalf("report service error: %v", err)
	}

	reportHandler, err := interfaces.NewReportHandler(reportService)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}
	exportHandler, err := interfaces.NewExportHandler(reportService, auditRepo)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}

	dayClose := interfaces.NewDayCloseScheduler(reportService, ledgerCfg.Schedule.DailyAt, ledgerCfg.StorageRoot, logger)
	go dayClose.Start(context.Background())

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/reports/", reportHandler)
	mux.Handle("/api/v1/exports/", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
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
