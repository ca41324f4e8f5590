// cmd/tools/availability-probe/commands.go
package main

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"expert-search/internal/common/config"
	"expert-search/internal/search/availability"
	"expert-search/internal/search/constraint"
	"expert-search/internal/search/orchestrator"

	"github.com/spf13/cobra"
)

type constraintReport struct {
	Query      string                `json:"query"`
	Constraint constraint.Constraint `json:"constraint"`
	DayKind    string                `json:"dayKind"`
	Empty      bool                  `json:"empty"`
}

func newExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <query>",
		Short: "Print the day/time constraint extracted from a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			c := constraint.Extract(query)
			return a.printJSON(constraintReport{
				Query:      query,
				Constraint: c,
				DayKind:    c.Day.Kind().String(),
				Empty:      c.IsEmpty(),
			})
		},
	}
}

func newMatchCmd(a *app) *cobra.Command {
	var availabilityText string

	c := &cobra.Command{
		Use:   "match --availability <text> <query>",
		Short: "Check one availability string against the constraint of a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			extracted := constraint.Extract(query)
			return a.printJSON(map[string]interface{}{
				"query":        query,
				"availability": availabilityText,
				"constraint":   extracted,
				"matches":      availability.Matches(availabilityText, extracted),
			})
		},
	}
	c.Flags().StringVar(&availabilityText, "availability", "", "free-text availability to test")
	_ = c.MarkFlagRequired("availability")
	return c
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		noFilter bool
		compare  bool
	)

	c := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a search against the configured sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noFilter && compare {
				return errors.New("--no-filter and --compare are mutually exclusive")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			b, err := a.open(ctx, a)
			if err != nil {
				return err
			}
			defer b.close()

			query := strings.Join(args, " ")
			if compare {
				constrained, plain := b.orch.Compare(ctx, query)
				return a.printJSON(map[string]*orchestrator.Outcome{
					"outcome":      constrained,
					"plainOutcome": plain,
				})
			}
			return a.printJSON(b.orch.Search(ctx, query, !noFilter))
		},
	}
	c.Flags().BoolVar(&noFilter, "no-filter", false, "skip constraint filtering")
	c.Flags().BoolVar(&compare, "compare", false, "also run the plain lookup")
	return c
}

// watch treats each stdin line as a keystroke-level revision of the query; only
// results that survive debouncing and stale-dropping are printed.
func newWatchCmd(a *app) *cobra.Command {
	var (
		noFilter   bool
		debounceMs int
	)

	c := &cobra.Command{
		Use:   "watch",
		Short: "Drive a debounced search session from stdin, one query revision per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			b, err := a.open(ctx, a)
			if err != nil {
				return err
			}
			defer b.close()

			debounce := b.debounce
			if debounceMs > 0 {
				debounce = config.GetDuration(debounceMs)
			}

			var printErr error
			session := orchestrator.NewSession(b.orch, func(r orchestrator.Result) {
				if err := a.printJSON(r); err != nil && printErr == nil {
					printErr = err
				}
			}, orchestrator.WithDebounce(debounce))

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				session.Submit(scanner.Text(), !noFilter)
			}
			session.Flush()
			session.Close()

			if err := scanner.Err(); err != nil {
				return err
			}
			return printErr
		},
	}
	c.Flags().BoolVar(&noFilter, "no-filter", false, "skip constraint filtering")
	c.Flags().IntVar(&debounceMs, "debounce", 0, "quiet interval in milliseconds (default: search.debounce_ms)")
	return c
}
