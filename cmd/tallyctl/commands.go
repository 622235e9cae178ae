package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/fellowship-vote-ledger/internal/api/service"
	"github.com/fellowship-vote-ledger/internal/config"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
	"github.com/fellowship-vote-ledger/internal/logger"
	"github.com/fellowship-vote-ledger/internal/reconciler/components"
	reconciler "github.com/fellowship-vote-ledger/internal/reconciler/service"
)

// withRuntime loads config, connects, runs fn and closes everything
func withRuntime(cmd *cobra.Command, configName string, fn func(ctx context.Context, cfg *config.Config, log *slog.Logger, rt *components.Runtime) error) error {
	cfg, err := config.LoadConfig(configName)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Keep stdout for command output
	log := logger.NewLoggerTo(cfg, cmd.ErrOrStderr())

	ctx := cmd.Context()
	rt, err := components.NewRuntime(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rt.Close(closeCtx); err != nil {
			log.Error("Error closing connections", "error", err)
		}
	}()

	return fn(ctx, cfg, log, rt)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func verifyCmd(configName *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <reference>",
		Short: "Verify a reference with Paystack and commit it if successful",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, *configName, func(ctx context.Context, cfg *config.Config, _ *slog.Logger, rt *components.Runtime) error {
				result, err := rt.Pipeline(cfg).Reconcile(ctx, &reconciler.Request{
					Reference: args[0],
					Source:    shared.SourceVerificationPoll,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

// filterFlags are the --color --family --from --to flags shared by listing commands
type filterFlags struct {
	color, family, from, to string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.color, "color", "", "filter by color")
	cmd.Flags().StringVar(&f.family, "family", "", "filter by family")
	cmd.Flags().StringVar(&f.from, "from", "", "lower bound, RFC3339")
	cmd.Flags().StringVar(&f.to, "to", "", "upper bound, RFC3339")
}

func (f *filterFlags) filters() (service.Filters, error) {
	filters := service.Filters{Color: f.color, Family: f.family}
	for _, bound := range []struct {
		raw string
		dst **time.Time
	}{{f.from, &filters.From}, {f.to, &filters.To}} {
		if bound.raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, bound.raw)
		if err != nil {
			return service.Filters{}, fmt.Errorf("invalid timestamp %q: %w", bound.raw, err)
		}
		t = t.UTC()
		*bound.dst = &t
	}
	return filters, nil
}

func newStatisticsService(cfg *config.Config, log *slog.Logger, rt *components.Runtime) service.StatisticsService {
	return service.NewStatisticsService(log, rt.Votes, rt.Tallies, rt.Prices, &cfg.Voting)
}

func statsCmd(configName *string) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print vote statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := flags.filters()
			if err != nil {
				return err
			}

			return withRuntime(cmd, *configName, func(ctx context.Context, cfg *config.Config, log *slog.Logger, rt *components.Runtime) error {
				stats, err := newStatisticsService(cfg, log, rt).GetVoteStatistics(ctx, filters)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func talliesCmd(configName *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tallies",
		Short: "Print the stored color aggregate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, *configName, func(ctx context.Context, cfg *config.Config, log *slog.Logger, rt *components.Runtime) error {
				agg, err := newStatisticsService(cfg, log, rt).GetColorAggregate(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), agg)
			})
		},
	}
}

func paymentsCmd(configName *string) *cobra.Command {
	var (
		flags         filterFlags
		page, perPage int
	)

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List committed payments, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := flags.filters()
			if err != nil {
				return err
			}

			return withRuntime(cmd, *configName, func(ctx context.Context, cfg *config.Config, log *slog.Logger, rt *components.Runtime) error {
				payments, total, err := service.NewPaymentService(log, rt.Payments, rt.Markers).ListPayments(ctx, filters, page, perPage)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"page":     page,
					"per_page": perPage,
					"total":    total,
					"payments": payments,
				})
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", service.DefaultPerPage, "payments per page")

	return cmd
}

func rebuildTalliesCmd(configName *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-tallies",
		Short: "Recompute the color aggregate from committed votes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, *configName, func(ctx context.Context, cfg *config.Config, _ *slog.Logger, rt *components.Runtime) error {
				agg, err := rt.TallyRebuilder(cfg).Rebuild(ctx)
				if err != nil {
					return err
				}
				summary := make(map[string]int64, len(agg.Colors))
				for color, ct := range agg.Colors {
					summary[color] = ct.Votes
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
}
