package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"cvbuilder-backend/internal/crud"
	"cvbuilder-backend/internal/cvs"
	"cvbuilder-backend/internal/optimization"
	"cvbuilder-backend/internal/query"
	"cvbuilder-backend/internal/shared/config"
	"cvbuilder-backend/internal/shared/storage/db"
	"cvbuilder-backend/internal/usage"
	"cvbuilder-backend/internal/users"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cvctl",
		Short:         "Administer the CV builder backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newUsersCmd(), newUsageCmd(), newCVsCmd())
	return root
}

// openDB loads config and opens the configured database.
func openDB(ctx context.Context) (*sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return db.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath, db.OptionsFromEnv(db.DefaultMigrateOptions()))
}

func withDB(cmd *cobra.Command, fn func(ctx context.Context, database *sqlx.DB) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(ctx, database)
}

// --- migrate ---

func newMigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}
	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(ctx context.Context, database *sqlx.DB) error {
					if err := db.RunMigrations(ctx, database); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(ctx context.Context, database *sqlx.DB) error {
					if err := db.RollbackMigration(ctx, database); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Log the state of every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, db.MigrationStatus)
			},
		},
	)
	return migrate
}

// --- users ---

func newUsersCmd() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	usersCmd.AddCommand(&cobra.Command{
		Use:   "set-tier <userId> <free|trial|pro>",
		Short: "Set a user's subscription tier",
		Long: `Set a user's subscription tier. The user row is created if missing.

Examples:
  cvctl users set-tier google:1234567890 pro
  cvctl users set-tier guest:abc trial`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := strings.TrimSpace(args[0])
			tier, err := usage.ParseTier(args[1])
			if err != nil {
				return err
			}
			return withDB(cmd, func(ctx context.Context, database *sqlx.DB) error {
				svc := users.NewService(users.NewSQLRepo(database))
				if err := svc.SetTier(ctx, userID, string(tier)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now on %s (%d AI requests per week)\n", userID, tier, usage.WeeklyLimit(tier))
				return nil
			})
		},
	})
	return usersCmd
}

// --- usage ---

func newUsageCmd() *cobra.Command {
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect AI usage",
	}
	usageCmd.AddCommand(&cobra.Command{
		Use:   "show <userId>",
		Short: "Print a user's weekly AI limits as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, database *sqlx.DB) error {
				svc := usage.NewService(users.NewSQLRepo(database), optimization.NewSQLRepo(database))
				limits, err := svc.CheckUserUsage(ctx, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(limits)
			})
		},
	})
	return usageCmd
}

// --- cvs ---

func newCVsCmd() *cobra.Command {
	cvsCmd := &cobra.Command{
		Use:   "cvs",
		Short: "Inspect and remove CVs across users",
	}
	cvsCmd.AddCommand(
		&cobra.Command{
			Use:   "list <userId>",
			Short: "List a user's CVs, newest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(ctx context.Context, database *sqlx.DB) error {
					rows, err := cvs.NewAdmin(database).List(ctx, query.Options{
						Filter: []query.FilterCondition{query.Eq("user_id", strings.TrimSpace(args[0]))},
						Sort:   []query.SortCondition{{Column: "created_at", Order: query.Desc}},
					})
					if err != nil {
						return err
					}
					for _, cv := range rows {
						fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", cv.ID, cv.Title, cv.UpdatedAt.Format("2006-01-02"))
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <cvId>",
			Short: "Delete a CV with all of its sections and scores",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cvID, err := crud.ParseID(args[0])
				if err != nil {
					return err
				}
				return withDB(cmd, func(ctx context.Context, database *sqlx.DB) error {
					svc := cvs.NewAdmin(database)
					cv, err := svc.Get(ctx, cvID)
					if err != nil {
						return err
					}
					if err := svc.Delete(ctx, cvID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted cv %d %q owned by %s\n", cv.ID, cv.Title, cv.UserID)
					return nil
				})
			},
		},
	)
	return cvsCmd
}
