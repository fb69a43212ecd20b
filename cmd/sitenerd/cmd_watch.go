package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitenerd/internal/watch"
)

var watchDebounce time.Duration

// watchCmd regenerates the site whenever content changes.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch content/ and regenerate the site on change",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	// Generate once up front so the output matches the current content.
	if err := generateSite(cmd, s); err != nil {
		return err
	}

	rebuild := func() {
		if err := generateSite(cmd, s); err != nil {
			logger.Warn("regeneration failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "regeneration failed: %v\n", err)
		}
	}

	w, err := watch.New([]string{s.ctx.ContentDir(), s.ctx.ImagesDir()}, watchDebounce, rebuild)
	if err != nil {
		return s.fail("watch", err, nil)
	}
	defer w.Close()

	fmt.Printf("Watching %s (ctrl-c to stop)\n", s.ctx.ContentDir())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-cmd.Context().Done():
	}
	fmt.Println("\nStopped.")
	return nil
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "quiet period before regenerating")
}
