// Package api exposes the dashboard over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"stockdash/internal/api/handlers"
	"stockdash/internal/api/middleware"
	"stockdash/internal/collector"
	"stockdash/internal/forecast"
	"stockdash/internal/metrics"
	"stockdash/internal/recorder"
)

// Deps are the services the routes call into.
type Deps struct {
	Collector      *collector.Collector
	Forecast       forecast.Forecaster
	Recorder       recorder.Recorder
	MaxHorizon     int
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(d.Logger.With("component", "http")))
	router.Use(middleware.Metrics())

	symbolHandler := handlers.NewSymbolHandler(d.Collector)
	forecastHandler := handlers.NewForecastHandler(d.Forecast, d.Recorder, d.MaxHorizon)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/forecast", forecastHandler.Forecast)
		api.POST("/forecast", forecastHandler.Forecast)
		api.GET("/forecasts/recent", forecastHandler.RecentForecasts)

		sym := api.Group("/symbols/:symbol")
		sym.GET("/profile", symbolHandler.GetProfile)
		sym.GET("/prices", symbolHandler.GetPrices)
		sym.GET("/indicators", symbolHandler.GetIndicators)
		sym.GET("/overview", symbolHandler.GetOverview)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}

// NewHandler wraps the router with CORS. No origins means allow all.
func NewHandler(d Deps) http.Handler {
	opts := cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         600,
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.New(opts).Handler(NewRouter(d))
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
