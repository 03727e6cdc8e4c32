package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"reddit_intent/db"
	"reddit_intent/models"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single monitoring cycle and print the result",
		Run:   runOnce,
	}

	cmd.Flags().String("min-intent", "", "Minimum intent category: HIGH, MEDIUM or LOW (default from config)")
	cmd.Flags().Float64("min-confidence", -1, "Minimum confidence 0.0-1.0 (default from config)")
	cmd.Flags().StringSlice("subreddits", nil, "Subreddits to scan (comma-separated)")
	cmd.Flags().StringSlice("keywords", nil, "Keywords a post must contain (comma-separated)")
	cmd.Flags().IntP("limit", "l", 0, "Max posts per subreddit")
	cmd.Flags().Bool("send-messages", false, "Send generated messages")

	RootCmd.AddCommand(cmd)
}

func runOnce(cmd *cobra.Command, args []string) {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		exitErr("bootstrap", err)
	}
	defer db.Close()

	opts := cycleOptionsFromFlags(cmd, a)
	result, err := a.monitor.RunCycle(cmd.Context(), opts)
	if result != nil {
		b, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(b))
	}
	if err != nil {
		exitErr("run cycle", err)
	}
}

func cycleOptionsFromFlags(cmd *cobra.Command, a *app) models.CycleOptions {
	minIntent, _ := cmd.Flags().GetString("min-intent")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	subreddits, _ := cmd.Flags().GetStringSlice("subreddits")
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	limit, _ := cmd.Flags().GetInt("limit")
	send, _ := cmd.Flags().GetBool("send-messages")

	if minIntent == "" {
		minIntent = a.cfg.Intent.MinIntent
	}
	if !cmd.Flags().Changed("min-confidence") {
		minConfidence = a.cfg.Intent.MinConfidence
	}
	if !cmd.Flags().Changed("send-messages") {
		send = a.cfg.Messaging.Enabled
	}

	return models.CycleOptions{
		Subreddits:    subreddits,
		Keywords:      keywords,
		Limit:         limit,
		MinIntent:     minIntent,
		MinConfidence: minConfidence,
		SendMessages:  send,
	}
}
