package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"fractalshop/internal/config"
	"fractalshop/internal/db"
	"fractalshop/internal/models"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storectl",
		Short:         "Operational utility for the fractalshop auth service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedCommand())
	cmd.AddCommand(newSetAdminCommand())
	cmd.AddCommand(newClearDataCommand())
	return cmd
}

func openDatabase(ctx context.Context) (*gorm.DB, config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, config.Config{}, err
	}
	database, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		return nil, config.Config{}, err
	}
	return database, cfg, nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, _, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close(database)
			return db.Migrate(ctx, database)
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap admin account if configured and absent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, cfg, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close(database)
			return db.Seed(ctx, database, cfg.AdminEmail, cfg.AdminPassword)
		},
	}
}

func newSetAdminCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-admin <email>",
		Short: "Promote an existing user to the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, _, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close(database)

			res := database.WithContext(ctx).
				Model(&models.User{}).
				Where("email = ?", args[0]).
				Update("role", "admin")
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errors.New("no user with that email")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", args[0])
			return nil
		},
	}
}

func newClearDataCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear-data",
		Short: "Delete all pending PIN verifications and account data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear data without --yes")
			}
			ctx := cmd.Context()
			database, _, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close(database)

			return database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				for _, model := range []any{
					&models.PinVerification{},
					&models.Review{},
					&models.Address{},
					&models.User{},
				} {
					if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm destructive deletion")
	return cmd
}
