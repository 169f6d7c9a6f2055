package cli

import (
	"errors"
	"fmt"
	"gw-teller-ledger/internal/auth"
	"gw-teller-ledger/internal/models"
	"time"

	"github.com/spf13/cobra"
)

func newTokenCommand(backend Backend) *cobra.Command {
	var (
		branch string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token OPERATOR_ID",
		Short: "Issue an operator token signed with JWT_SECRET (for local environments)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, issuer := backend.TokenSecret()
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			operator := models.Operator{ID: args[0], BranchID: branch, Role: models.OperatorRole(role)}
			if !operator.HasRole(models.RoleTeller, models.RoleSupervisor, models.RoleAdmin) {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := auth.IssueToken(secret, issuer, operator, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "br-1", "branch id")
	cmd.Flags().StringVar(&role, "role", string(models.RoleTeller), "teller, supervisor or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	return cmd
}
