package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/jason-client/internal/locate"
	"github.com/rcliao/jason-client/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Acquire the device location once and print it",
		Run:   runLocate,
	}

	cmd.Flags().Duration("budget", 0, "Refinement window after the initial fix (default: location.budget)")

	RootCmd.AddCommand(cmd)
}

func runLocate(cmd *cobra.Command, args []string) {
	budget, _ := cmd.Flags().GetDuration("budget")

	cfg, logger := loadConfig()
	defer logger.Sync()
	if budget > 0 {
		cfg.Location.Budget = budget
	}

	loc := locate.FromConfig(cfg, logger).Acquire(cmd.Context())
	printLocation(cmd.OutOrStdout(), loc)
}

func printLocation(w io.Writer, loc *model.ResolvedLocation) {
	if formatFlag != "text" {
		printJSON(w, loc)
		return
	}
	if loc == nil {
		fmt.Fprintln(w, "no location")
		return
	}
	line := loc.Lat + "," + loc.Lng
	if loc.PlaceName != "" {
		line += " (" + loc.PlaceName + ")"
	}
	if loc.AccuracyMeters != nil {
		line += fmt.Sprintf(" ±%gm", *loc.AccuracyMeters)
	}
	fmt.Fprintln(w, line)
}
