// Command spacectl administers a space reservation deployment: it selects
// the storage backend, prepares its schema, mints access tokens and runs
// the reservation event consumer.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/space-reservation/internal/app"
	"github.com/iliyamo/space-reservation/internal/config"
	"github.com/iliyamo/space-reservation/internal/middleware"
	"github.com/iliyamo/space-reservation/internal/queue"
	"github.com/iliyamo/space-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:          "spacectl",
		Short:        "Administration tool for the space reservation service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the backend configuration file (default $CONFIG_FILE or config.json)")
	path := func() string {
		if configFile != "" {
			return configFile
		}
		if v := os.Getenv("CONFIG_FILE"); v != "" {
			return v
		}
		return "config.json"
	}

	root.AddCommand(newBackendCmd(path), newInitCmd(path), newTokenCmd(), newConsumeCmd())
	return root
}

func newBackendCmd(path func() string) *cobra.Command {
	backend := &cobra.Command{
		Use:   "backend",
		Short: "Show or change the storage backend",
	}
	backend.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadBackend(path())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Backend)
			return nil
		},
	}, &cobra.Command{
		Use:       "set <mysql|dynamodb>",
		Short:     "Persist the backend selection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"mysql", "dynamodb"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetBackend(path(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend set to %s in %s\n", args[0], path())
			return nil
		},
	})
	return backend
}

func newInitCmd(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the schema of the active backend and seed the statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadBackend(path())
			if err != nil {
				return err
			}
			store, err := app.OpenStore(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "%s backend initialised\n", store.Backend())
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var role string
	var ttl int
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint an access token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			switch role {
			case middleware.RoleAdmin, middleware.RoleOperator, middleware.RoleViewer:
			default:
				return fmt.Errorf("role must be %s, %s or %s", middleware.RoleAdmin, middleware.RoleOperator, middleware.RoleViewer)
			}
			tok, err := utils.NewAccessToken(secret, args[0], role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", middleware.RoleOperator, "ADMIN, OPERATOR or VIEWER")
	cmd.Flags().IntVar(&ttl, "ttl", 60*24, "Token lifetime in minutes")
	return cmd
}

func newConsumeCmd() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Append reservation events from RabbitMQ to a log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := os.Getenv("RABBITMQ_URL")
			if url == "" {
				url = os.Getenv("AMQP_URL")
			}
			if url == "" {
				return fmt.Errorf("RABBITMQ_URL is not set")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			consumer := queue.NewConsumer(url, app.NewLogger(os.Getenv("APP_ENV")))
			consumer.LogPath = logPath
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", queue.DefaultLogPath, "Event log file")
	return cmd
}
