package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulseboard/internal/api"
)

// newServeCmd creates the serve command for the API server
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the pulseboard API server.

The server provides REST endpoints and a WebSocket stream for:
  • Batch task import from exporters
  • The trailing-year activity heatmap and summary stats
  • Live dashboard refresh on import

Example:
  pulseboard serve              # Start on the configured address
  pulseboard serve --addr :3000 # Start on a custom address`,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := loadConfig()
			if err != nil {
				return err
			}

			addr := appCfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			server, err := api.New(&api.Config{
				Addr: addr,
				App:  appCfg,
			})
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			fmt.Printf("Starting API server on %s...\n", addr)
			fmt.Println("Press Ctrl+C to stop")

			// Handle graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				<-sigCh
				fmt.Println("\nShutting down...")
				cancel()
			}()

			return server.StartContext(ctx)
		},
	}

	cmd.Flags().String("addr", ":8080", "address to listen on")

	return cmd
}
