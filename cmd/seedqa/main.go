package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appdb "github.com/homefax/homefax/db"
	"github.com/homefax/homefax/internal/config"
	"github.com/homefax/homefax/internal/db"
	"github.com/homefax/homefax/internal/seed"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "seedqa",
		Short: "Reset and plant the deterministic QA dataset",
		Long: `seedqa wipes every previously seeded row and plants the fixed QA
dataset end-to-end tests log into. It refuses to run unless QA_SEED=1
is set and the environment is not production.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
			ctx := context.Background()

			database, err := db.New(ctx, cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					log.Printf("Error closing DB: %v", err)
				}
			}()

			if err := db.Migrate(ctx, database, appdb.Migrations); err != nil {
				return err
			}

			return seed.New(database, cfg.Seed, logger).Run(ctx)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "Path to config YAML file")

	if err := root.Execute(); err != nil {
		log.Fatalf("seedqa failed: %v", err)
	}
}
