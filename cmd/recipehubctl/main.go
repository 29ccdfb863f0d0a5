package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/db"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "recipehubctl",
		Short:         "Operator tasks for the recipehub database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedAdminCommand())
	cmd.AddCommand(newPruneSessionsCommand())
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

// connect loads config and opens a pool. The caller closes the pool.
func connect(ctx context.Context) (config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return config.Config{}, nil, err
	}

	pool, err := db.NewPool(cfg.DBURL, 2)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("db connect: %w", err)
	}

	return cfg, pool, nil
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations have been applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			return db.MigrationStatus(ctx, pool)
		},
	})

	return cmd
}

func newSeedAdminCommand() *cobra.Command {
	var (
		email    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account if it does not exist yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			applyAdminOverrides(&cfg, email, password, name)
			if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
				return fmt.Errorf("admin email and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
			}

			log := observability.NewLogger(cfg.Env)
			return db.EnsureAdminUser(ctx, pool, cfg, log)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email, overrides ADMIN_EMAIL")
	cmd.Flags().StringVar(&password, "password", "", "Admin password, overrides ADMIN_PASSWORD")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name, overrides ADMIN_NAME")
	return cmd
}

func applyAdminOverrides(cfg *config.Config, email, password, name string) {
	if email != "" {
		cfg.AdminEmail = email
	}
	if password != "" {
		cfg.AdminPassword = password
	}
	if name != "" {
		cfg.AdminName = name
	}
}

func newPruneSessionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-sessions",
		Short: "Delete every expired session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			log := observability.NewLogger(cfg.Env)
			sessions := auth.NewSessionManager(postgres.NewSessionsRepo(pool, nil), nil, cfg.SessionTTL, log)

			n, err := sessions.PruneExpired(ctx)
			if err != nil {
				return err
			}

			return printPruned(cmd.OutOrStdout(), n)
		},
	}
}

func printPruned(w io.Writer, n int64) error {
	_, err := fmt.Fprintf(w, "pruned %d expired sessions\n", n)
	return err
}
