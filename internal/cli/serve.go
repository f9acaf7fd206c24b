package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/intake/internal/app"
	"github.com/JonMunkholm/intake/internal/web"
)

func newServeCmd(st *state) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.Open(ctx, st.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if migrate {
				if err := a.Store.Migrate(ctx); err != nil {
					return err
				}
			}

			slog.Info("configuration loaded",
				"port", st.cfg.Server.Port,
				"storage", st.cfg.Storage.Driver,
				"intake_max_concurrent", st.cfg.Intake.MaxConcurrent,
				"rate_limit_enabled", st.cfg.Rate.Enabled,
			)

			server := web.NewServer(a.Service, st.cfg)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				slog.Info("shutting down...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), st.cfg.Server.ShutdownTimeout)
				defer cancel()

				// Stop accepting requests, then let in-flight writes finish.
				err := server.Shutdown(shutdownCtx)

				if status := a.Service.LimiterStatus(); status.Active > 0 {
					slog.Info("waiting for submissions to complete", "active", status.Active)
				}
				if werr := a.Service.WaitForSubmissions(shutdownCtx); werr != nil {
					slog.Warn("submissions did not complete in time", "error", werr)
				}
				return err
			})

			if err := g.Wait(); err != nil {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "create the storage schema before serving")
	return cmd
}
