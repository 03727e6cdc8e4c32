package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reddit_intent/db"
	"reddit_intent/logger"
	"reddit_intent/scheduler"
)

func init() {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run monitoring cycles on a fixed interval until interrupted",
		Run:   runMonitor,
	}

	cmd.Flags().IntP("interval", "i", 0, "Minutes between cycles (default from config)")

	RootCmd.AddCommand(cmd)
}

func runMonitor(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		exitErr("bootstrap", err)
	}
	defer db.Close()

	s := scheduler.NewScheduler(a.cfg, a.monitor)
	if interval, _ := cmd.Flags().GetInt("interval"); interval > 0 {
		s.SetInterval(time.Duration(interval) * time.Minute)
	}

	logger.Info("Starting scheduled monitoring", "task", s.Status().Description)
	s.Run(ctx)
}
