package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeline/internal/app"
	"timeline/internal/config"
	"timeline/internal/database"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "timelinectl",
		Short:         "Timeline import and account tool",
		Long:          "Runs message imports synchronously and manages connected accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newImportCmd(), newStatusCmd(), newAccountsCmd(), newMigrateCmd())
	return root
}

// withApp loads configuration, builds the stack and tears it down after fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, logger zerolog.Logger) error) error {
	cfg := config.Load()
	logger := cfg.SetupLogger()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(5 * time.Second)

	return fn(ctx, a, logger)
}

func newImportCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "import <account_id>",
		Short: "Import the messages of an account and print the final status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, logger zerolog.Logger) error {
				accountID := args[0]
				if provider == "" {
					p, err := a.ProviderFor(ctx, accountID)
					if err != nil {
						return fmt.Errorf("%w (pass --provider or run 'accounts sync')", err)
					}
					provider = p
				}

				logger.Info().Str("account_id", accountID).Str("provider", provider).Msg("Import starting")
				status, err := a.Importer.Run(ctx, accountID, provider)
				if printErr := printJSON(cmd.OutOrStdout(), status); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Provider override (GOOGLE, LINKEDIN, ...); defaults to the stored account provider")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <import_id>",
		Short: "Print the status of an import run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, _ zerolog.Logger) error {
				status, err := a.Importer.Status(ctx, args[0])
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("import %s not found", args[0])
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			})
		},
	}
}

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage connected accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, _ zerolog.Logger) error {
				list, err := a.Directory.List(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Copy upstream accounts into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, _ zerolog.Logger) error {
				synced, err := a.Syncer.Sync(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "synced %d accounts\n", synced)
				return nil
			})
		},
	})

	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Build migrates on open
			return withApp(cmd, func(_ context.Context, _ *app.App, logger zerolog.Logger) error {
				logger.Info().Msg("Schema is up to date")
				return nil
			})
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
