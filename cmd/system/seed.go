package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medtrack_backend/config"
	"github.com/Alijeyrad/medtrack_backend/internal/notifier"
	"github.com/Alijeyrad/medtrack_backend/internal/service/bloodbank"
	"github.com/Alijeyrad/medtrack_backend/internal/service/capacity"
	"github.com/Alijeyrad/medtrack_backend/internal/service/user"
	"github.com/Alijeyrad/medtrack_backend/internal/store"
	"github.com/Alijeyrad/medtrack_backend/pkg/logs"
	redispkg "github.com/Alijeyrad/medtrack_backend/pkg/redis"
	"github.com/Alijeyrad/medtrack_backend/pkg/util/password"
)

func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write demo accounts, the doctor directory, blood stock and wards",
		Long: `Seed writes the demo admin, doctor and patient accounts, the doctor
directory, the initial blood stock and the ward table. Records that already
exist are left untouched, so the command is safe to re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			slog.SetDefault(logs.New(cfg))

			if cfg.Store.Driver == config.StoreMemory {
				slog.Warn("seeding the memory store; records are lost when the command exits")
			}

			var rdb redis.UniversalClient
			if cfg.Store.Driver == config.StoreRedis {
				c, err := redispkg.NewRedisFromCentral(cfg.Redis)
				if err != nil {
					return fmt.Errorf("failed to connect to redis: %w", err)
				}
				defer c.Close()
				rdb = c
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			b, err := store.NewBackend(ctx, cfg, rdb)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			st := store.New(b)
			defer st.Close()

			hasher := password.NewHasher(password.FromCentralConfig(cfg.Password))

			steps := []struct {
				name string
				run  func(context.Context) error
			}{
				{"users", user.New(st, hasher).Seed},
				{"blood stock", bloodbank.New(st, notifier.Nop{}, "").Seed},
				{"wards", capacity.New(st).Seed},
			}
			for _, s := range steps {
				if err := s.run(ctx); err != nil {
					return fmt.Errorf("failed to seed %s: %w", s.name, err)
				}
				slog.Info("seeded", "step", s.name)
			}

			fmt.Println("Seed completed successfully.")
			for _, a := range user.DemoAccounts {
				fmt.Printf("  %-8s %s / %s\n", a.Role, a.Email, a.Password)
			}
			return nil
		},
	}

	return cmd
}
