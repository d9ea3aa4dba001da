package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/rihla/internal/adapters/postgres"
	"github.com/samirrijal/rihla/internal/pkg/config"
	"github.com/samirrijal/rihla/internal/pkg/logging"
)

var timeoutArg time.Duration

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply and inspect the rihla database schema",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, m *postgres.Migrator) error {
			applied, err := m.Up(ctx)
			for _, name := range applied {
				fmt.Printf("OK  %s\n", name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println("schema is up to date")
			}
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and when they were applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, m *postgres.Migrator) error {
			list, err := m.Status(ctx)
			if err != nil {
				return err
			}
			for _, mig := range list {
				applied := "pending"
				if mig.AppliedAt != nil {
					applied = mig.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%-40s %s\n", mig.Name, applied)
			}
			return nil
		})
	},
}

func withMigrator(parent context.Context, fn func(context.Context, *postgres.Migrator) error) error {
	cfg, err := config.Load("rihla-migrate")
	if err != nil {
		return err
	}
	logging.Setup("rihla-migrate", cfg.Log.Level, "text")

	ctx, cancel := context.WithTimeout(parent, timeoutArg)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	return fn(ctx, postgres.NewMigrator(db))
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeoutArg, "timeout", 2*time.Minute, "Overall deadline for the command")
	rootCmd.AddCommand(upCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
