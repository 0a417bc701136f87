package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dailyfocus/internal/config"
	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/handler"
	"github.com/dailyfocus/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	created, err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword)
	if err != nil {
		return err
	}
	if created {
		config.Logger.WithField("username", cfg.SuperRootUserName).Info("created initial user")
	}
	if cfg.CronSecret == "" {
		config.Logger.Warn("CRON_SECRET is empty, /cron endpoints will reject every request")
	}

	api := handler.NewAPI(db.DB, handler.Options{
		TokenSecret: cfg.SessionSecret,
		TokenTTL:    cfg.TokenTTL,
		CronSecret:  cfg.CronSecret,
		UploadDir:   cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, cfg.SessionSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		config.Logger.WithFields(logrus.Fields{"addr": cfg.ListenAddr, "db": cfg.DatabasePath}).Info("server listening")
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

	config.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
