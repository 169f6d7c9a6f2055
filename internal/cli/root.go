// Package cli команды ledgerctl: миграции, управление курсами, выпуск тестовых токенов.
package cli

import (
	"context"
	"fmt"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/service"
	"io"

	"github.com/spf13/cobra"
)

// Backend доступ команд к базе ledger'а
type Backend interface {
	Migrate() error
	Rates(ctx context.Context) (service.Rates, func(), error)
	TokenSecret() (secret, issuer string)
}

func NewRootCommand(backend Backend, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Administrative CLI for the teller ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(
		newMigrateCommand(backend),
		newRatesCommand(backend),
		newTokenCommand(backend),
	)
	return root
}

func newMigrateCommand(backend Backend) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := backend.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func adminActor(id string) models.Operator {
	return models.Operator{ID: id, BranchID: "hq", Role: models.RoleAdmin}
}
