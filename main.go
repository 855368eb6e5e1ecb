package main

import (
	"bitwise74/diapredict/app"
	"bitwise74/diapredict/config"
	"bitwise74/diapredict/db"
	"bitwise74/diapredict/internal"
	"bitwise74/diapredict/internal/predictor"
	"bitwise74/diapredict/internal/service"
	"bitwise74/diapredict/pkg/security"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		panic(err)
	}

	cfg, err := config.Setup(flags)
	if err != nil {
		panic(err)
	}

	if err := app.MakeLogger(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		zap.L().Fatal("Server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	stores, err := db.New(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage, %w", cfg.Storage.Type, err)
	}

	model, err := predictor.Load(ctx, &cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to load model, %w", err)
	}

	var sender service.Sender = &service.MeteredSender{Next: service.NewSMTPSender(&cfg.Mail)}

	var queue *service.MailQueue
	if cfg.Mail.Async {
		queue = service.NewMailQueue(sender, cfg.Mail.Workers, cfg.Mail.QueueSize)
		queue.StartWorkerPool()
		sender = queue
	}

	d := &internal.Deps{
		Config:    cfg,
		Users:     stores.Users,
		Records:   stores.Records,
		Argon:     security.New(),
		Predictor: model,
		Notifier:  service.NewNotifier(sender),
	}

	a, err := app.NewRouter(d)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Host.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Type))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		zap.L().Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shut down server", zap.Error(err))
	}

	if queue != nil {
		if err := queue.Close(shutdownCtx); err != nil {
			zap.L().Warn("Mail queue not drained", zap.Int("pending", queue.Pending()), zap.Error(err))
		}
	}

	if err := stores.Close(shutdownCtx); err != nil {
		zap.L().Error("Failed to close storage", zap.Error(err))
	}

	return nil
}
