package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/user-accounts/backend/config"
	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/infra/db"
	"github.com/user-accounts/backend/internal/infra/dependency"
	"github.com/user-accounts/backend/internal/infra/observability"
)

// app is the state shared by every subcommand. The database is opened only
// by commands that need it.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	database *db.Database
	accounts *dependency.Accounts
}

// NewRootCmd creates the root command for usersctl.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "usersctl",
		Short: "Manage user accounts",
		Long: `usersctl manages the user accounts stored in the configured database.
It reads the same environment variables as the API server.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.cfg = config.Load()
			a.logger = observability.NewLogger(cmd.ErrOrStderr(), a.cfg.Log.Level, true)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	cmd.AddCommand(newScoreCmd(a))
	cmd.AddCommand(newCreateCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newAuthenticateCmd(a))
	cmd.AddCommand(newRolesCmd(a))
	cmd.AddCommand(newEmailsCmd(a))

	return cmd
}

// open connects to the database and wires the account use cases.
func (a *app) open(ctx context.Context) error {
	if a.accounts != nil {
		return nil
	}

	database, err := db.NewConnection(ctx, &a.cfg.Database, a.logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(); err != nil {
		_ = database.Close()
		return err
	}

	a.database = database
	a.accounts = dependency.NewAccounts(a.cfg, database.DB(), observability.NewMetrics(), adapter.SystemClock{}, a.logger)

	if err := a.accounts.RoleRepo.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	return nil
}

func (a *app) close() error {
	if a.database == nil {
		return nil
	}
	err := a.database.Close()
	a.database = nil
	a.accounts = nil
	return err
}

// errRejected marks a command that ran but whose request was refused.
var errRejected = errors.New("request rejected")

func rejected(message string) error {
	return fmt.Errorf("%w: %s", errRejected, message)
}
