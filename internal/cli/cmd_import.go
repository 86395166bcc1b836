package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulseboard/internal/config"
	"github.com/randalmurphal/pulseboard/internal/db"
	"github.com/randalmurphal/pulseboard/internal/db/driver"
	"github.com/randalmurphal/pulseboard/internal/task"
)

// newImportCmd creates the import command
func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an exporter batch from a JSON file",
		Long: `Import task records from an exporter JSON file directly into the
configured database, bypassing the HTTP endpoint.

The file holds either {"tasks": [...]} or a bare array of records.
The batch is validated as a whole; one bad record rejects all of it.

Examples:
  pulseboard import tasks.json
  pulseboard import tasks.json --pseudonymize`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pseudonymize, _ := cmd.Flags().GetBool("pseudonymize")

			batch, err := readBatch(args[0])
			if err != nil {
				return err
			}

			if recordErrs := task.ValidateBatch(batch); recordErrs != nil {
				for _, re := range recordErrs {
					for _, fe := range re.Fields {
						fmt.Fprintf(os.Stderr, "record %d (%s): %s: %s\n", re.Index, re.ExternalID, fe.Field, fe.Message)
					}
				}
				return fmt.Errorf("batch rejected: %d invalid record(s)", len(recordErrs))
			}

			appCfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("pseudonymize") {
				pseudonymize = appCfg.Import.PseudonymizeNames
			}

			store, err := openStore(appCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			now := time.Now().UTC()
			records := make([]task.Task, len(batch))
			for i := range batch {
				records[i] = batch[i].Canonical(now, pseudonymize)
			}

			written, err := store.UpsertTasks(context.Background(), records)
			if err != nil {
				return fmt.Errorf("import batch: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]int{"imported": written})
			}
			fmt.Printf("Imported %d task(s)\n", written)
			return nil
		},
	}

	cmd.Flags().Bool("pseudonymize", false, "Hash task names before storing")

	return cmd
}

// readBatch decodes an exporter file. Both the envelope shape and a
// bare record array are accepted.
func readBatch(path string) ([]task.ImportTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var envelope struct {
		Tasks []task.ImportTask `json:"tasks"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Tasks != nil {
		return envelope.Tasks, nil
	}

	var bare []task.ImportTask
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return bare, nil
}

// openStore opens the configured database.
func openStore(appCfg *config.Config) (*db.DB, error) {
	dialect, err := driver.ParseDialect(appCfg.Database.Dialect)
	if err != nil {
		return nil, err
	}
	store, err := db.OpenWithDialect(appCfg.Database.DSN, dialect)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}
