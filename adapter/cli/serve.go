package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if apiServer == nil {
			return errServerUnavailable
		}
		ctx := cmd.Context()

		errCh := make(chan error, 1)
		go func() {
			errCh <- apiServer.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown api server: %w", err)
		}
		logger.Info("api server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
