package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulseboard/internal/config"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration",
		Long: `Initialize pulseboard in the current directory.

Writes .pulseboard/config.yaml with defaults: a local SQLite database
and the server on :8080. Set import.secret before accepting imports.

Examples:
  pulseboard init           # Write starter config
  pulseboard init --force   # Overwrite an existing config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			path := filepath.Join(".pulseboard", "config.yaml")
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("pulseboard already initialized. Use --force to overwrite")
				}
			}

			cfg := config.Default()
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Printf("Wrote %s\n", path)
			fmt.Println("Set import.secret (or PULSEBOARD_IMPORT_SECRET) before importing.")
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite existing configuration")

	return cmd
}
