package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ramkansal/autoquote/pkg/plugin"
)

// NewListingCmd creates the listing command.
func NewListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listing <url>...",
		Short: "Read title, description and price from listing pages",
		Long: `Listing fetches each listing page and prints its title, description and
price. A page missing any of the three is reported as not found.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runListingCmd,
	}
}

func runListingCmd(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var firstErr error
	for _, u := range args {
		detail, err := s.searcher.Listing(ctx, u)
		if err != nil {
			s.log.WithError(err).WithField("url", u).Warn("listing failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.emit(func(w plugin.OutputWriter) error { return w.WriteDetail(detail) })
	}
	return firstErr
}
