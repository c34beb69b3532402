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
	"mashalpipes.in/Website/services/img-service/internal/config"
	"mashalpipes.in/Website/services/img-service/internal/domain"
	"mashalpipes.in/Website/services/img-service/internal/handler"
	"mashalpipes.in/Website/services/img-service/internal/repository"
	"mashalpipes.in/Website/services/img-service/internal/service"
	"mashalpipes.in/Website/services/img-service/internal/storage"
)

func newSink(ctx context.Context, conf *config.ImgConfig) (domain.FileSink, error) {
	switch conf.StorageDriver {
	case config.StorageDriverAzBlob:
		sink, err := storage.NewAzureBlobSink(ctx, conf.AzureBlob.ConnectionString, conf.AzureBlob.ContainerName)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case config.StorageDriverFTP:
		return storage.NewFTPSink(conf.FTP.Host, conf.FTP.Port, conf.FTP.User, conf.FTP.Password, conf.FTP.Dir), nil
	default:
		sink, err := storage.NewDiskSink(conf.UploadDir)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
}

func main() {
	conf := config.LoadImgConfig()
	log := logger.New("img-service", conf.LogLevel)
	if log.Level() != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	repo, closeStore, err := repository.Open(ctx, conf)
	if err != nil {
		log.WithError(err).Fatal("failed to open record store")
	}
	defer closeStore(context.Background())

	sink, err := newSink(ctx, conf)
	if err != nil {
		log.WithError(err).Fatal("failed to open file storage")
	}

	metrics := middleware.NewMetrics("img-service")
	svc := service.NewImgService(repo, sink, service.Options{
		UploadURLPrefix: conf.UploadURLPrefix,
		MaxUploadBytes:  conf.MaxUploadBytes,
		Logger:          log,
		Registerer:      metrics.Registerer(),
	})
	h := handler.NewImgHandler(svc, conf.MaxUploadBytes, log)
	r := handler.NewRouter(h, handler.RouterConfig{
		APIPrefix:       conf.APIPrefix,
		UploadURLPrefix: conf.UploadURLPrefix,
		AllowedOrigins:  conf.AllowedOrigins,
	}, log, metrics)

	srv := &http.Server{
		Addr:              ":" + conf.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", conf.ServerPort).
			WithField("store", conf.StoreDriver).
			WithField("storage", conf.StorageDriver).
			Info("img-service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to run server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}
