package cli

import (
	"fmt"
	"gw-teller-ledger/internal/models"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRatesCommand(backend Backend) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Manage exchange rates",
	}
	cmd.AddCommand(
		newRatesSetCommand(backend),
		newRatesGetCommand(backend),
		newRatesListCommand(backend),
	)
	return cmd
}

func newRatesSetCommand(backend Backend) *cobra.Command {
	var (
		buy, sell          string
		effective, expires string
		actor              string
	)

	cmd := &cobra.Command{
		Use:   "set BASE TARGET RATE",
		Short: "Publish a rate, superseding the current one for the pair",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.SetRateRequest{
				Base:     currencyArg(args[0]),
				Target:   currencyArg(args[1]),
				Rate:     args[2],
				BuyRate:  buy,
				SellRate: sell,
			}

			var err error
			if req.EffectiveAt, err = timeFlag("effective", effective); err != nil {
				return err
			}
			if req.ExpiresAt, err = timeFlag("expires", expires); err != nil {
				return err
			}

			rates, done, err := backend.Rates(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			rate, err := rates.SetRate(cmd.Context(), adminActor(actor), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s = %s (buy %s, sell %s) effective %s\n",
				rate.Base, rate.Target, rate.Rate, rate.BuyRate, rate.SellRate,
				rate.EffectiveAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&buy, "buy", "", "buy rate, defaults to RATE")
	cmd.Flags().StringVar(&sell, "sell", "", "sell rate, defaults to RATE")
	cmd.Flags().StringVar(&effective, "effective", "", "effective time, RFC 3339 (default now)")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry time, RFC 3339")
	cmd.Flags().StringVar(&actor, "actor", "ledgerctl", "operator id recorded as the rate author")
	return cmd
}

func newRatesGetCommand(backend Backend) *cobra.Command {
	return &cobra.Command{
		Use:   "get BASE TARGET",
		Short: "Resolve the rate for a pair, using the inverse pair when needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rates, done, err := backend.Rates(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			base, target := currencyArg(args[0]), currencyArg(args[1])
			rate, err := rates.Resolve(cmd.Context(), base, target)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s = %s\n", base, target, rate)
			return nil
		},
	}
}

func newRatesListCommand(backend Backend) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rates in force",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rates, done, err := backend.Rates(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			list, err := rates.ListCurrent(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PAIR\tRATE\tBUY\tSELL\tEFFECTIVE\tEXPIRES")
			for _, r := range list {
				expiresAt := "-"
				if r.ExpiresAt != nil {
					expiresAt = r.ExpiresAt.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s/%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Base, r.Target, r.Rate, r.BuyRate, r.SellRate,
					r.EffectiveAt.UTC().Format(time.RFC3339), expiresAt)
			}
			return w.Flush()
		},
	}
}

func currencyArg(s string) models.Currency {
	return models.Currency(strings.ToUpper(strings.TrimSpace(s)))
}

func timeFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}
