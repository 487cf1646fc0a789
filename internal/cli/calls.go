package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/jason-client/internal/journal"
)

func init() {
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List recorded brain calls",
		Run:   runCalls,
	}
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().String("outcome", "", "Filter by outcome (normalized, network_failed, parse_failed, encode_failed)")
	cmd.Flags().String("request-id", "", "Filter by request id")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show call journal statistics",
		Run:   runCallStats,
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than an age",
		Run:   runCallPrune,
	}
	prune.Flags().String("older-than", "", "Age such as 7d, 24h, 30m (required)")
	prune.MarkFlagRequired("older-than")

	cmd.AddCommand(stats, prune)
	RootCmd.AddCommand(cmd)
}

func mustOpenJournal() *journal.Journal {
	cfg, _ := loadConfig()
	j, err := openJournal(cfg)
	if err != nil {
		exitErr("open journal", err)
	}
	if j == nil {
		exitErr("open journal", fmt.Errorf("no journal configured (use --journal or journal.path)"))
	}
	return j
}

func runCalls(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	outcome, _ := cmd.Flags().GetString("outcome")
	requestID, _ := cmd.Flags().GetString("request-id")

	j := mustOpenJournal()
	defer j.Close()

	entries, err := j.List(cmd.Context(), journal.ListParams{
		Limit:     limit,
		Outcome:   outcome,
		RequestID: requestID,
	})
	if err != nil {
		exitErr("list calls", err)
	}

	if formatFlag == "text" {
		printEntries(cmd.OutOrStdout(), entries)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	printJSON(cmd.OutOrStdout(), entries)
}

func printEntries(w io.Writer, entries []journal.Entry) {
	for _, e := range entries {
		status := "-"
		if e.Status != 0 {
			status = fmt.Sprint(e.Status)
		}
		fmt.Fprintf(w, "%s  %-14s %-4s %6dms  %-7s %s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Outcome, status, e.LatencyMs, e.LocationSource, e.RequestID)
	}
}

func runCallStats(cmd *cobra.Command, args []string) {
	j := mustOpenJournal()
	defer j.Close()

	stats, err := j.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(cmd.OutOrStdout(), stats)
}

func runCallPrune(cmd *cobra.Command, args []string) {
	olderThan, _ := cmd.Flags().GetString("older-than")
	age, err := journal.ParseAge(olderThan)
	if err != nil {
		exitErr("prune", err)
	}

	j := mustOpenJournal()
	defer j.Close()

	n, err := j.Prune(cmd.Context(), age)
	if err != nil {
		exitErr("prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"deleted":%d}`+"\n", n)
}
