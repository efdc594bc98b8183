package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/prem-prasad1710/ritualos/internal/config"
	"github.com/prem-prasad1710/ritualos/internal/database"
	"github.com/prem-prasad1710/ritualos/internal/logging"
	"github.com/prem-prasad1710/ritualos/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "ritualos",
		Short: "Ritual tracking API server",
		Long: `RitualOS tracks personal rituals, loops and habit stacks, awards
streaks and achievements, and runs challenges, circles and a community
marketplace over a JSON API.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	load := func() (*config.Config, *slog.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg, logging.Setup(cfg.LogLevel, cfg.LogFile), nil
	}

	cmd.AddCommand(serveCmd(load))
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := database.Version(db)
			if err != nil {
				return err
			}
			logger.Info("database migrated", "path", cfg.DBPath, "version", v)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Upsert the built-in achievement and challenge catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := seed(db); err != nil {
				return err
			}
			logger.Info("catalogs seeded")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "recompute",
		Short: "Rebuild every user's streak, points and level from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := store.NewUserStore(db).RecomputeAll()
			if err != nil {
				return err
			}
			logger.Info("user totals recomputed", "users", n)
			return nil
		},
	})
	cmd.AddCommand(awardCmd(load))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ritualos version %s\n", Version)
		},
	})

	return cmd
}

func seed(db *sql.DB) error {
	if err := store.NewAchievementStore(db).Seed(); err != nil {
		return err
	}
	return store.NewChallengeStore(db).Seed()
}

func awardCmd(load func() (*config.Config, *slog.Logger, error)) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "award <achievement name>",
		Short: "Grant a Special achievement to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.NewAchievementStore(db).Unlock(userID, args[0], time.Now()); err != nil {
				return fmt.Errorf("award %q: %w", args[0], err)
			}
			logger.Info("achievement awarded", "user_id", userID, "achievement", args[0])
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User id to award")
	cmd.MarkFlagRequired("user")
	return cmd
}
