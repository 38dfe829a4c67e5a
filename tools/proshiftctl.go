package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"proshift/config"
	"proshift/constants"
	"proshift/database"
	"proshift/database/seeders"
	"proshift/utils"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "proshiftctl",
		Short:         "Maintenance commands for the ProShift API store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newPromoteCmd(), newSeedCmd())
	return root
}

// openStore loads the same configuration the API server uses
func openStore(ctx context.Context) (database.Store, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return database.Open(ctx, cfg)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			fmt.Println("🚀 Running database migrations...")
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("❌ migration failed: %w", err)
			}
			fmt.Println("✅ Migration completed successfully!")
			return nil
		},
	}
}

func newPromoteCmd() *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Set the role of an existing user",
		Example: "  proshiftctl promote --email owner@example.com\n" +
			"  proshiftctl promote --email someone@example.com --role user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !validRole(role) {
				return fmt.Errorf("role must be one of %s, %s or %s", constants.RoleAdmin, constants.RoleRider, constants.RoleUser)
			}

			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			email = utils.NormalizeEmail(email)
			if err := store.UpdateUserRoleByEmail(ctx, email, role); err != nil {
				return fmt.Errorf("❌ failed to promote %s: %w", email, err)
			}
			fmt.Printf("✅ %s is now %s\n", email, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to update")
	cmd.Flags().StringVar(&role, "role", constants.RoleAdmin, "role to assign")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo admin, rider and customer accounts for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			if _, err := seeders.SeedDemoData(ctx, store, time.Now()); err != nil {
				return fmt.Errorf("❌ seeding failed: %w", err)
			}
			return nil
		},
	}
}

func validRole(role string) bool {
	switch role {
	case constants.RoleAdmin, constants.RoleRider, constants.RoleUser:
		return true
	}
	return false
}
