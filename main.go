package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Tersy89/Share-sales-FIFO/src/config"
	"github.com/Tersy89/Share-sales-FIFO/src/database"
	"github.com/Tersy89/Share-sales-FIFO/src/handlers"
	"github.com/Tersy89/Share-sales-FIFO/src/logger"
	"github.com/Tersy89/Share-sales-FIFO/src/processors"
	"github.com/Tersy89/Share-sales-FIFO/src/services"
	"github.com/Tersy89/Share-sales-FIFO/src/utils"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == config.Cfg.CORSAllowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag, Content-Disposition")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Share sales FIFO backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(config.Cfg.ReportCacheExpiration, config.Cfg.ReportCacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	normalizer := processors.NewTransactionNormalizer()
	fifoProcessor := processors.NewFIFOProcessor()

	uploadService := services.NewUploadService(normalizer, fifoProcessor, reportCache)

	uploadHandler := handlers.NewUploadHandler(uploadService)
	reportHandler := handlers.NewReportHandler(uploadService)
	batchHandler := handlers.NewBatchHandler(uploadService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/upload", uploadHandler.HandleUpload)
	apiRouter.HandleFunc("GET /api/batches", batchHandler.HandleListBatches)
	apiRouter.HandleFunc("DELETE /api/batches/{batchID}", batchHandler.HandleDeleteBatch)
	apiRouter.HandleFunc("GET /api/batches/{batchID}/transactions", batchHandler.HandleGetTransactions)
	apiRouter.HandleFunc("GET /api/batches/{batchID}/report", reportHandler.HandleGetReport)
	apiRouter.HandleFunc("GET /api/batches/{batchID}/sales", reportHandler.HandleGetSales)
	apiRouter.HandleFunc("GET /api/batches/{batchID}/sales/csv", reportHandler.HandleDownloadSalesCSV)
	apiRouter.HandleFunc("GET /api/batches/{batchID}/holdings", reportHandler.HandleGetHoldings)
	apiRouter.HandleFunc("GET /api/batches/{batchID}/holdings/csv", reportHandler.HandleDownloadHoldingsCSV)
	apiRouter.HandleFunc("GET /api/batches/{batchID}/summary", reportHandler.HandleGetSummary)
	apiRouter.HandleFunc("GET /api/batches/{batchID}/summary/csv", reportHandler.HandleDownloadSummaryCSV)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			utils.SendJSON(w, http.StatusOK, map[string]string{"message": "Share sales FIFO backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L.Error("Failed to start server", "error", err)
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L.Info("Shutdown signal received, draining connections...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Server forced to shutdown", "error", err)
	}
	logger.L.Info("Server stopped gracefully.")
}
