package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/shrinklens/backend/src/config"
	"github.com/username/shrinklens/backend/src/database"
	"github.com/username/shrinklens/backend/src/handlers"
	"github.com/username/shrinklens/backend/src/logger"
	"github.com/username/shrinklens/backend/src/processors"
	"github.com/username/shrinklens/backend/src/services"
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

		if origin == config.Cfg.AllowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
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
	logger.L.Info("ShrinkLens backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	varianceProcessor := processors.NewVarianceProcessor(config.Cfg.LeaderboardSize)
	varianceService := services.NewVarianceService(varianceProcessor, reportCache)
	insightService := services.NewInsightService(varianceService, config.Cfg.OpenAIAPIKey, config.Cfg.OpenAIModel)

	uploadHandler := handlers.NewUploadHandler(varianceService)
	reportHandler := handlers.NewReportHandler(varianceService)
	recordHandler := handlers.NewRecordHandler(varianceService)
	filterHandler := handlers.NewFilterHandler()
	insightHandler := handlers.NewInsightHandler(insightService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/upload", uploadHandler.HandleUpload)
	apiRouter.HandleFunc("POST /api/import/commit", uploadHandler.HandleCommitImport)
	apiRouter.HandleFunc("POST /api/import/discard", uploadHandler.HandleDiscardImport)

	apiRouter.HandleFunc("GET /api/report", reportHandler.HandleGetReport)
	apiRouter.HandleFunc("GET /api/records", recordHandler.HandleGetRecords)
	apiRouter.HandleFunc("DELETE /api/records", recordHandler.HandlePurgeRecords)

	apiRouter.HandleFunc("GET /api/filter", filterHandler.HandleGetFilter)
	apiRouter.HandleFunc("PUT /api/filter", filterHandler.HandleSaveFilter)

	apiRouter.HandleFunc("GET /api/insight/status", insightHandler.HandleGetStatus)
	apiRouter.HandleFunc("POST /api/insight/query", insightHandler.HandleQuickQuery)
	apiRouter.HandleFunc("POST /api/insight/deepdive", insightHandler.HandleDeepDive)
	apiRouter.HandleFunc("POST /api/insight/reauth", insightHandler.HandleReauthorize)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "ShrinkLens backend is running"})
		} else if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // insight responses stream; no fixed write deadline
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
