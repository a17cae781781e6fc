package system

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the record table and the local vault directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if cfg.Store.Driver == config.StoreDynamoDB {
				d, err := store.NewDynamoFromConfig(ctx, cfg)
				if err != nil {
					return fmt.Errorf("failed to build dynamodb client: %w", err)
				}
				created, err := d.EnsureTable(ctx)
				if err != nil {
					return fmt.Errorf("failed to ensure table: %w", err)
				}
				if created {
					fmt.Printf("Created DynamoDB table %s.\n", cfg.Store.DynamoDB.Table)
				} else {
					fmt.Printf("DynamoDB table %s already exists.\n", cfg.Store.DynamoDB.Table)
				}
			} else {
				fmt.Printf("Store driver %q needs no schema.\n", cfg.Store.Driver)
			}

			if cfg.Vault.Driver == "local" || cfg.Vault.Driver == "" {
				if err := os.MkdirAll(cfg.Vault.LocalDir, 0o750); err != nil {
					return fmt.Errorf("failed to create vault directory %q: %w", cfg.Vault.LocalDir, err)
				}
				fmt.Printf("Vault directory %s ready.\n", cfg.Vault.LocalDir)
			}
			return nil
		},
	}

	return cmd
}
