package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [free text]",
		Short: "Search listings and average their prices",
		Long: `Search runs a vehicle query through the fallback tiers and prints the
listings of the first tier that returns any, with the average price in both
currencies.

Examples:
  # Structured query
  autoquote search --brand toyota --model corolla --trim xei --year 2019

  # Mileage without a unit gets "km" appended
  autoquote search --brand ford --model ranger --mileage 80000

  # Free text goes into the model field
  autoquote search peugeot 208 allure

  # Override the exchange rate and save JSON
  autoquote search --brand fiat --model cronos --rate 1250 -o cronos.json`,
		Args: cobra.ArbitraryArgs,
		RunE: runSearchCmd,
	}

	cmd.Flags().StringP("brand", "b", "", "Vehicle brand")
	cmd.Flags().StringP("model", "m", "", "Vehicle model")
	cmd.Flags().StringP("trim", "t", "", "Trim or version; dropped on the relaxed retry")
	cmd.Flags().StringP("year", "y", "", "Model year")
	cmd.Flags().StringP("mileage", "k", "", "Mileage, e.g. 45000 or \"45.000 km\"")

	return cmd
}

// queryFromFlags builds the query. Positional words are appended to the
// model field.
func queryFromFlags(cmd *cobra.Command, args []string) plugin.Query {
	flags := cmd.Flags()
	var q plugin.Query
	q.Brand, _ = flags.GetString("brand")
	q.Model, _ = flags.GetString("model")
	q.Trim, _ = flags.GetString("trim")
	q.Year, _ = flags.GetString("year")
	q.Mileage, _ = flags.GetString("mileage")
	if len(args) > 0 {
		q.Model = strings.TrimSpace(q.Model + " " + strings.Join(args, " "))
	}
	return q.Normalize()
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	q := queryFromFlags(cmd, args)
	if q.Term() == "" {
		return fmt.Errorf("%w: give at least one of --brand, --model, --trim, --year, --mileage", plugin.ErrEmptyQuery)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !s.silent {
		s.terminal.Banner(getVersion())
	}

	outcome, err := s.searcher.Search(ctx, q)
	if err != nil {
		return describeSearchError(err)
	}
	s.emit(func(w plugin.OutputWriter) error { return w.WriteOutcome(outcome) })
	return nil
}

func describeSearchError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return errors.New("interrupted")
	case plugin.IsTransport(err):
		return fmt.Errorf("marketplace unreachable: %w", err)
	default:
		return err
	}
}
