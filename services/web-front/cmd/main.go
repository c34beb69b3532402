package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"mashalpipes.in/Website/pkg/logger"
	"mashalpipes.in/Website/pkg/middleware"
	"mashalpipes.in/Website/services/web-front/internal/client"
	"mashalpipes.in/Website/services/web-front/internal/config"
	"mashalpipes.in/Website/services/web-front/internal/handler"
	"mashalpipes.in/Website/services/web-front/internal/handler/page"
)

func main() {
	cfg := config.LoadWebConfig()
	log := logger.New("web-front", cfg.LogLevel)
	if log.Level() != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	images := client.NewImageClient(cfg.APIURL(), cfg.FetchTimeout)
	pageH := page.NewPageHandler(images, cfg.ImageBaseURL, cfg.PlaceholderURL, log)
	r := handler.NewRouter(pageH, log, middleware.NewMetrics("web-front"))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("start web server at port " + cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to run server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}
