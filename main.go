package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"inventory/internal/app"
	"inventory/internal/config"
	"inventory/internal/services"
	"inventory/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "inventory",
		Short:         "Inventory auth and catalog services",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger.SetDefault(logger.New(logger.Config{
				Level: cfg.LogLevel,
				JSON:  !cfg.IsDevelopment(),
			}))
			return nil
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "auth",
			Short: "Run the authentication service",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.ServeAuth(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "catalog",
			Short: "Run the product catalog service",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.ServeCatalog(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "events",
			Short: "Print product events published by the catalog service",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.TailEvents(cmd.Context(), cfg)
			},
		},
		newSeedAdminCmd(func() *config.Config { return cfg }),
	)

	return root
}

func newSeedAdminCmd(cfg func() *config.Config) *cobra.Command {
	var in services.RegisterInput

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.SeedAdmin(cmd.Context(), cfg(), in)
			if err != nil {
				return err
			}
			logger.Info("admin ready", "user_id", user.ID, "username", user.Username, "email", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "admin username")
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password, used only when the account is created")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
