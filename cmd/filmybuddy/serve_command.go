package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/justyntemme/filmybuddy/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var urlFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			// Flag takes precedence over config and env
			bindAddr := a.cfg.Server.Bind
			if strings.TrimSpace(urlFlag) != "" {
				bindAddr = strings.TrimSpace(urlFlag)
			}

			if a.log.IsLevelEnabled(logrus.DebugLevel) {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			router, err := api.NewRouter(api.NewHandler(a.tracker, a.log, a.metadataEnabled), a.log)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              bindAddr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.log.WithField("addr", bindAddr).WithField("data_dir", a.cfg.Server.DataDir).Info("FilmyBuddy server starting")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-sigCtx.Done():
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "Server bind address (e.g., :8080 or 0.0.0.0:8080)")
	return cmd
}
